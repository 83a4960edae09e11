package vast

import (
	"sort"
	"strings"

	"github.com/pv-udpv/vast-client/errortypes"
	"github.com/pv-udpv/vast-client/util/sliceutil"
)

// SortKey is a media-file field the caller can sort filtered results by.
type SortKey string

const (
	SortByBitrate SortKey = "bitrate"
	SortByWidth   SortKey = "width"
	SortByHeight  SortKey = "height"
)

// SortOrder controls ascending vs descending sort.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// Filter is the declarative parse filter of spec.md §4.6/§3. Every
// non-zero field narrows acceptance: a media file must satisfy all of them
// (conjunction) for the ad to be accepted, and the same media file must
// satisfy every constraint — it is not enough for different files to each
// satisfy a different field.
//
// Grounded on modules/prebid/ctv_vast_enrichment/select/price_selector.go's
// filter → sort → limit pipeline, generalized from bid price/deal ranking
// to the ad's own media-file attributes.
type Filter struct {
	AllowedMediaTypes []string
	MinDuration       int
	MaxDuration       int
	MinBitrate        int
	MinWidth          int
	MinHeight         int
	RequiredCodec     string
	RequiredDelivery  string

	SortBy    SortKey
	SortOrder SortOrder
	Limit     int
}

// Accept reports whether ad has at least one media file satisfying every
// constraint Filter specifies. A nil Filter accepts everything; a non-nil
// Filter, even a zero-valued one, rejects an ad with no media files.
func (f *Filter) Accept(ad *ParsedAd) bool {
	if f == nil {
		return true
	}
	if f.MinDuration > 0 && ad.DurationSeconds < f.MinDuration {
		return false
	}
	if f.MaxDuration > 0 && ad.DurationSeconds > f.MaxDuration {
		return false
	}
	for _, mf := range ad.MediaFiles {
		if f.mediaFileSatisfies(mf) {
			return true
		}
	}
	return false
}

func (f *Filter) mediaFileSatisfies(mf MediaFileRecord) bool {
	if len(f.AllowedMediaTypes) > 0 && !sliceutil.ContainsStringIgnoreCase(f.AllowedMediaTypes, mf.Type) {
		return false
	}
	if f.MinBitrate > 0 && mf.Bitrate < f.MinBitrate {
		return false
	}
	if f.MinWidth > 0 && mf.Width < f.MinWidth {
		return false
	}
	if f.MinHeight > 0 && mf.Height < f.MinHeight {
		return false
	}
	if f.RequiredCodec != "" && !strings.Contains(strings.ToLower(mf.Codec), strings.ToLower(f.RequiredCodec)) {
		return false
	}
	if f.RequiredDelivery != "" && !strings.EqualFold(mf.Delivery, f.RequiredDelivery) {
		return false
	}
	return true
}

// Apply filters ad's media files down to those accepted by f's per-field
// constraints (not just "does one match", but "which ones match"),
// applies f's sort, and truncates to f.Limit if set. Returns a
// filter-rejected error if nothing survives.
func (f *Filter) Apply(ad *ParsedAd) ([]MediaFileRecord, error) {
	if f == nil {
		return append([]MediaFileRecord{}, ad.MediaFiles...), nil
	}

	if f.MinDuration > 0 && ad.DurationSeconds < f.MinDuration {
		return nil, errortypes.NewFetchError(errortypes.KindFilterRejected, "vast: ad duration below the parse filter's minimum")
	}
	if f.MaxDuration > 0 && ad.DurationSeconds > f.MaxDuration {
		return nil, errortypes.NewFetchError(errortypes.KindFilterRejected, "vast: ad duration above the parse filter's maximum")
	}

	matched := make([]MediaFileRecord, 0, len(ad.MediaFiles))
	for _, mf := range ad.MediaFiles {
		if f.mediaFileSatisfies(mf) {
			matched = append(matched, mf)
		}
	}
	if len(matched) == 0 {
		return nil, errortypes.NewFetchError(errortypes.KindFilterRejected, "vast: no media file satisfies the parse filter")
	}

	if f.SortBy != "" {
		sortMediaFiles(matched, f.SortBy, f.SortOrder)
	}
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

// sortMediaFiles sorts in place, falling back to original document order
// (a stable sort over the existing slice order) for ties.
func sortMediaFiles(mfs []MediaFileRecord, key SortKey, order SortOrder) {
	less := func(i, j int) bool {
		a, b := fieldValue(mfs[i], key), fieldValue(mfs[j], key)
		if order == SortDescending {
			return a > b
		}
		return a < b
	}
	sort.SliceStable(mfs, less)
}

func fieldValue(mf MediaFileRecord, key SortKey) int {
	switch key {
	case SortByWidth:
		return mf.Width
	case SortByHeight:
		return mf.Height
	default:
		return mf.Bitrate
	}
}

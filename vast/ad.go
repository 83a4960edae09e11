package vast

// MediaFileRecord is one creative media file, normalized out of the raw
// XML shape for use by the parse filter and tracker.
type MediaFileRecord struct {
	Type     string
	Width    int
	Height   int
	Bitrate  int
	Codec    string
	Delivery string
	URL      string
}

// ParsedAd is the normalized record a Parser produces from one VAST
// document, per spec.md §3 "Parsed ad record".
type ParsedAd struct {
	VASTVersion string
	AdSystem    string
	AdTitle     string
	CreativeID  string
	// DurationSeconds is the declared duration, rounded half to even.
	// Zero for an ad with no parseable duration (e.g. a wrapper).
	DurationSeconds int
	MediaFiles      []MediaFileRecord
	Impressions     []string
	Errors          []string
	// TrackingEvents maps a lowercased event key ("start", "complete",
	// "progress-25", ...) to its ordered URL list.
	TrackingEvents map[string][]string
	// Extensions preserves each <Extension>'s type attribute and raw body.
	Extensions []ExtensionRecord
	// WrapperVASTAdTagURI is non-empty when this ad is a wrapper pointing
	// at another VAST document; the orchestrator resolves it (spec.md §4.5).
	WrapperVASTAdTagURI string
	// WrapperResolutionFailed is set by the orchestrator, not the parser,
	// when wrapper-chasing exhausts the depth limit or fails repeatedly.
	WrapperResolutionFailed bool
}

type ExtensionRecord struct {
	Type string
	Body string
}

// IsWrapper reports whether this ad redirects to another VAST document
// rather than carrying inline creative content.
func (a *ParsedAd) IsWrapper() bool { return a.WrapperVASTAdTagURI != "" }

// MergeWrapper prepends the wrapper's own impression/error/tracking URLs
// onto this (the eventually-resolved inline) ad's lists, per spec.md §4.5:
// "inheriting impression and tracking-event lists by appending the
// wrapper's tracking/impression URLs into the eventual inline ad's lists."
func (a *ParsedAd) MergeWrapper(wrapper *ParsedAd) {
	a.Impressions = append(append([]string{}, wrapper.Impressions...), a.Impressions...)
	a.Errors = append(append([]string{}, wrapper.Errors...), a.Errors...)
	if a.TrackingEvents == nil {
		a.TrackingEvents = map[string][]string{}
	}
	for key, urls := range wrapper.TrackingEvents {
		a.TrackingEvents[key] = append(append([]string{}, urls...), a.TrackingEvents[key]...)
	}
}

package vast

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/pv-udpv/vast-client/errortypes"
)

// supportedVersions lists the VAST versions spec.md §1 names as in scope.
var supportedVersions = map[string]bool{
	"2.0": true, "3.0": true, "4.0": true, "4.1": true, "4.2": true,
}

// Parser turns a raw VAST XML document into a ParsedAd. Grounded on
// modules/prebid/ctv_vast_enrichment/model/parser.go's ParseVastAdm /
// ParseVastOrSkeleton pair: Strict corresponds to AllowSkeletonVast=false,
// non-strict to AllowSkeletonVast=true, generalized from OpenRTB AdM
// strings to arbitrary fetched VAST bytes.
type Parser struct {
	// Strict, when true, fails fast on XML syntax errors or a missing
	// required field (at least one Impression, and a parseable Duration
	// unless the ad is a Wrapper). When false (the default), the same
	// failures fall back to a best-effort ParsedAd instead of an error.
	Strict bool
	// Paths overrides the element paths used to recover fields in
	// non-strict mode; zero-valued fields use DefaultPaths().
	Paths Paths
}

// NewParser returns a Parser in tolerant mode with default paths.
func NewParser() *Parser { return &Parser{Paths: DefaultPaths()} }

// NewStrictParser returns a Parser in strict mode with default paths.
func NewStrictParser() *Parser { return &Parser{Strict: true, Paths: DefaultPaths()} }

func (p *Parser) Parse(data []byte) (*ParsedAd, error) {
	if p.Strict {
		return p.parseStrict(data)
	}
	return p.parseTolerant(data)
}

func (p *Parser) parseStrict(data []byte) (*ParsedAd, error) {
	var doc Vast
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errortypes.NewFetchError(errortypes.KindInvalidXML, "vast: "+err.Error())
	}
	if doc.Version != "" && !supportedVersions[doc.Version] {
		return nil, errortypes.NewFetchError(errortypes.KindUnsupportedVersion, "vast: unsupported version "+doc.Version)
	}
	if len(doc.Ads) == 0 {
		return nil, errortypes.NewFetchError(errortypes.KindMissingRequiredField, "vast: document has no <Ad> elements")
	}

	ad, err := convertAd(&doc.Ads[0], doc.Version, true)
	if err != nil {
		return nil, err
	}
	if err := validateRequired(ad); err != nil {
		return nil, err
	}
	return ad, nil
}

func validateRequired(ad *ParsedAd) error {
	if len(ad.Impressions) == 0 {
		return errortypes.NewFetchError(errortypes.KindMissingRequiredField, "vast: ad has no Impression")
	}
	if ad.IsWrapper() {
		return nil
	}
	if ad.DurationSeconds == 0 {
		return errortypes.NewFetchError(errortypes.KindMissingRequiredField, "vast: inline ad has no parseable Duration")
	}
	return nil
}

// parseTolerant uses etree in permissive mode so a document with
// recoverable structural issues (mismatched trailing tags, stray
// whitespace) still yields a document tree; individual missing or
// malformed fields are then simply absent from the result rather than
// failing the whole parse. If even permissive reading fails, tolerant mode
// falls back to a skeleton ad, mirroring
// ParseVastOrSkeleton(AllowSkeletonVast=true) behavior.
func (p *Parser) parseTolerant(data []byte) (*ParsedAd, error) {
	paths := p.Paths.withDefaults()

	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	if err := doc.ReadFromBytes(data); err != nil {
		return skeletonParsedAd(), nil
	}

	root := doc.SelectElement("VAST")
	if root == nil {
		return skeletonParsedAd(), nil
	}
	version := root.SelectAttrValue("version", defaultVersion)

	adEl := root.FindElement("Ad")
	if adEl == nil {
		return skeletonParsedAd(), nil
	}

	ad := &ParsedAd{VASTVersion: version, TrackingEvents: map[string][]string{}}
	ad.CreativeID = firstAttr(adEl, "id")

	if wrapperEl := adEl.SelectElement("Wrapper"); wrapperEl != nil {
		ad.AdSystem = textOf(wrapperEl.FindElement(paths.AdSystem))
		ad.WrapperVASTAdTagURI = textOf(wrapperEl.FindElement(paths.WrapperAdTagURI))
		ad.Impressions = cdataTextsOf(wrapperEl.FindElements(paths.Impression))
		ad.Errors = cdataTextsOf(wrapperEl.FindElements(paths.Error))
		return ad, nil
	}

	inlineEl := adEl.SelectElement("InLine")
	if inlineEl == nil {
		return skeletonParsedAd(), nil
	}

	ad.AdSystem = textOf(inlineEl.FindElement(paths.AdSystem))
	ad.AdTitle = textOf(inlineEl.FindElement(paths.AdTitle))
	ad.Impressions = cdataTextsOf(inlineEl.FindElements(paths.Impression))
	ad.Errors = cdataTextsOf(inlineEl.FindElements(paths.Error))

	if durationEl := inlineEl.FindElement(paths.Duration); durationEl != nil {
		if secs, err := ParseDuration(textOf(durationEl)); err == nil {
			ad.DurationSeconds = secs
		}
	}

	for _, mf := range inlineEl.FindElements(paths.MediaFile) {
		ad.MediaFiles = append(ad.MediaFiles, MediaFileRecord{
			Type:     mf.SelectAttrValue("type", ""),
			Width:    atoiOr(mf.SelectAttrValue("width", "0")),
			Height:   atoiOr(mf.SelectAttrValue("height", "0")),
			Bitrate:  atoiOr(mf.SelectAttrValue("bitrate", "0")),
			Codec:    mf.SelectAttrValue("codec", ""),
			Delivery: mf.SelectAttrValue("delivery", ""),
			URL:      textOf(mf),
		})
	}

	for _, tr := range inlineEl.FindElements(paths.TrackingEvent) {
		key := trackingKey(tr.SelectAttrValue("event", ""), tr.SelectAttrValue("offset", ""))
		if key == "" {
			continue
		}
		ad.TrackingEvents[key] = append(ad.TrackingEvents[key], textOf(tr))
	}

	return ad, nil
}

func skeletonParsedAd() *ParsedAd {
	ad, _ := convertAd(&BuildSkeletonInlineVast(defaultVersion).Ads[0], defaultVersion, false)
	return ad
}

func convertAd(rawAd *Ad, version string, strict bool) (*ParsedAd, error) {
	ad := &ParsedAd{
		VASTVersion:    version,
		CreativeID:     rawAd.ID,
		TrackingEvents: map[string][]string{},
	}

	switch {
	case rawAd.Wrapper != nil:
		w := rawAd.Wrapper
		if w.AdSystem != nil {
			ad.AdSystem = w.AdSystem.Value
		}
		ad.WrapperVASTAdTagURI = w.VASTAdTagURI
		ad.Impressions = append([]string{}, w.Impressions...)
		ad.Errors = append([]string{}, w.Errors...)
		return ad, nil

	case rawAd.InLine != nil:
		in := rawAd.InLine
		if in.AdSystem != nil {
			ad.AdSystem = in.AdSystem.Value
		}
		ad.AdTitle = in.AdTitle
		ad.Impressions = append([]string{}, in.Impressions...)
		ad.Errors = append([]string{}, in.Errors...)

		if in.Extensions != nil {
			for _, ext := range in.Extensions.Extension {
				ad.Extensions = append(ad.Extensions, ExtensionRecord{Type: ext.Type, Body: ext.InnerXML})
			}
		}

		if in.Creatives != nil {
			for _, creative := range in.Creatives.Creative {
				if creative.Linear == nil {
					continue
				}
				ad.CreativeID = creative.ID
				if creative.Linear.Duration != "" {
					secs, err := ParseDuration(creative.Linear.Duration)
					if err != nil {
						if strict {
							return nil, errortypes.NewFetchError(errortypes.KindMissingRequiredField, "vast: malformed Duration: "+err.Error())
						}
					} else {
						ad.DurationSeconds = secs
					}
				}
				if creative.Linear.MediaFiles != nil {
					for _, mf := range creative.Linear.MediaFiles.MediaFile {
						ad.MediaFiles = append(ad.MediaFiles, MediaFileRecord{
							Type:     mf.Type,
							Width:    mf.Width,
							Height:   mf.Height,
							Bitrate:  mf.Bitrate,
							Codec:    mf.Codec,
							Delivery: mf.Delivery,
							URL:      mf.Value,
						})
					}
				}
				if creative.Linear.TrackingEvents != nil {
					for _, tr := range creative.Linear.TrackingEvents.Tracking {
						key := trackingKey(tr.Event, tr.Offset)
						if key == "" {
							continue
						}
						ad.TrackingEvents[key] = append(ad.TrackingEvents[key], tr.Value)
					}
				}
				break
			}
		}
		return ad, nil

	default:
		if strict {
			return nil, errortypes.NewFetchError(errortypes.KindMissingRequiredField, "vast: ad has neither InLine nor Wrapper")
		}
		return ad, nil
	}
}

// trackingKey lowercases event and, for a "progress" event, appends the
// offset parsed to whole seconds as "progress-N" (spec.md §4.4). N may be
// negative (e.g. "progress--5") when the VAST offset carries a leading
// "-", naming a point before the creative's end.
func trackingKey(event, offset string) string {
	event = strings.ToLower(strings.TrimSpace(event))
	if event == "" {
		return ""
	}
	if event != "progress" {
		return event
	}
	secs, err := ParseSignedDuration(offset)
	if err != nil {
		return ""
	}
	return "progress-" + strconv.Itoa(secs)
}

func textOf(el *etree.Element) string {
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

func cdataTextsOf(els []*etree.Element) []string {
	out := make([]string, 0, len(els))
	for _, el := range els {
		out = append(out, textOf(el))
	}
	return out
}

func firstAttr(el *etree.Element, name string) string {
	return el.SelectAttrValue(name, "")
}

func atoiOr(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

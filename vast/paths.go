package vast

// Paths holds the element paths the tolerant parser queries, in etree's
// compact path-query syntax. Callers may override any of them; unset
// fields fall back to DefaultPaths(). Grounded on spec.md §4.4's
// requirement for "configurable XPath expressions" per field, and on
// exchange/injector/etree/injector.go's use of etree path queries
// (FindElements("VAST/Ad/InLine"), SelectElement("TrackingEvents"), ...).
type Paths struct {
	AdSystem       string
	AdTitle        string
	Impression     string
	Error          string
	Duration       string
	MediaFile      string
	TrackingEvent  string
	WrapperAdTagURI string
}

// DefaultPaths returns the standard VAST 2.0–4.2 element locations.
func DefaultPaths() Paths {
	return Paths{
		AdSystem:        "AdSystem",
		AdTitle:         "AdTitle",
		Impression:      "Impression",
		Error:           "Error",
		Duration:        "Creatives/Creative/Linear/Duration",
		MediaFile:       "Creatives/Creative/Linear/MediaFiles/MediaFile",
		TrackingEvent:   "Creatives/Creative/Linear/TrackingEvents/Tracking",
		WrapperAdTagURI: "VASTAdTagURI",
	}
}

func (p Paths) withDefaults() Paths {
	d := DefaultPaths()
	if p.AdSystem == "" {
		p.AdSystem = d.AdSystem
	}
	if p.AdTitle == "" {
		p.AdTitle = d.AdTitle
	}
	if p.Impression == "" {
		p.Impression = d.Impression
	}
	if p.Error == "" {
		p.Error = d.Error
	}
	if p.Duration == "" {
		p.Duration = d.Duration
	}
	if p.MediaFile == "" {
		p.MediaFile = d.MediaFile
	}
	if p.TrackingEvent == "" {
		p.TrackingEvent = d.TrackingEvent
	}
	if p.WrapperAdTagURI == "" {
		p.WrapperAdTagURI = d.WrapperAdTagURI
	}
	return p
}

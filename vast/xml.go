// Package vast holds the raw VAST XML document shape (this file) and the
// normalized parsed-ad record and parser built on top of it. Grounded on
// modules/prebid/ctv_vast_enrichment/model/parser.go; the struct tree below
// fills in what that retrieved snapshot left out (its vast_xml.go was never
// present, only its test file was).
package vast

import "encoding/xml"

// Vast is the root <VAST> document.
type Vast struct {
	XMLName xml.Name `xml:"VAST"`
	Version string   `xml:"version,attr"`
	Ads     []Ad     `xml:"Ad"`
}

// Ad is one <Ad>, either an InLine creative or a Wrapper redirecting to
// another VAST document.
type Ad struct {
	ID       string   `xml:"id,attr,omitempty"`
	Sequence int      `xml:"sequence,attr,omitempty"`
	InLine   *InLine  `xml:"InLine"`
	Wrapper  *Wrapper `xml:"Wrapper"`
}

// InLine carries creative content directly.
type InLine struct {
	AdSystem    *AdSystem   `xml:"AdSystem"`
	AdTitle     string      `xml:"AdTitle"`
	Advertiser  string      `xml:"Advertiser,omitempty"`
	Pricing     *Pricing    `xml:"Pricing"`
	Impressions []string    `xml:"Impression,omitempty"`
	Errors      []string    `xml:"Error,omitempty"`
	Creatives   *Creatives  `xml:"Creatives"`
	Extensions  *Extensions `xml:"Extensions"`
}

// inLineShadow mirrors InLine but spells Impressions/Errors as cdata-wrapped
// elements, since encoding/xml only allows the "cdata" tag option on a field
// with no element name of its own (see encoding/xml's structFieldInfo).
type inLineShadow struct {
	AdSystem    *AdSystem   `xml:"AdSystem"`
	AdTitle     string      `xml:"AdTitle"`
	Advertiser  string      `xml:"Advertiser,omitempty"`
	Pricing     *Pricing    `xml:"Pricing"`
	Impressions []cdataText `xml:"Impression,omitempty"`
	Errors      []cdataText `xml:"Error,omitempty"`
	Creatives   *Creatives  `xml:"Creatives"`
	Extensions  *Extensions `xml:"Extensions"`
}

func (in InLine) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return e.EncodeElement(inLineShadow{
		AdSystem:    in.AdSystem,
		AdTitle:     in.AdTitle,
		Advertiser:  in.Advertiser,
		Pricing:     in.Pricing,
		Impressions: cdataTextsFrom(in.Impressions),
		Errors:      cdataTextsFrom(in.Errors),
		Creatives:   in.Creatives,
		Extensions:  in.Extensions,
	}, start)
}

func (in *InLine) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var s inLineShadow
	if err := d.DecodeElement(&s, &start); err != nil {
		return err
	}
	in.AdSystem = s.AdSystem
	in.AdTitle = s.AdTitle
	in.Advertiser = s.Advertiser
	in.Pricing = s.Pricing
	in.Impressions = cdataTextsTo(s.Impressions)
	in.Errors = cdataTextsTo(s.Errors)
	in.Creatives = s.Creatives
	in.Extensions = s.Extensions
	return nil
}

// Wrapper redirects to another VAST document via VASTAdTagURI.
type Wrapper struct {
	AdSystem     *AdSystem  `xml:"AdSystem"`
	VASTAdTagURI string     `xml:"VASTAdTagURI"`
	Impressions  []string   `xml:"Impression,omitempty"`
	Errors       []string   `xml:"Error,omitempty"`
	Creatives    *Creatives `xml:"Creatives"`
}

type wrapperShadow struct {
	AdSystem     *AdSystem   `xml:"AdSystem"`
	VASTAdTagURI cdataText   `xml:"VASTAdTagURI"`
	Impressions  []cdataText `xml:"Impression,omitempty"`
	Errors       []cdataText `xml:"Error,omitempty"`
	Creatives    *Creatives  `xml:"Creatives"`
}

func (w Wrapper) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return e.EncodeElement(wrapperShadow{
		AdSystem:     w.AdSystem,
		VASTAdTagURI: cdataText{Value: w.VASTAdTagURI},
		Impressions:  cdataTextsFrom(w.Impressions),
		Errors:       cdataTextsFrom(w.Errors),
		Creatives:    w.Creatives,
	}, start)
}

func (w *Wrapper) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var s wrapperShadow
	if err := d.DecodeElement(&s, &start); err != nil {
		return err
	}
	w.AdSystem = s.AdSystem
	w.VASTAdTagURI = s.VASTAdTagURI.Value
	w.Impressions = cdataTextsTo(s.Impressions)
	w.Errors = cdataTextsTo(s.Errors)
	w.Creatives = s.Creatives
	return nil
}

// cdataText is an element whose character data is written/read as a CDATA
// section; encoding/xml only honors ",cdata" on a field with no element
// name, so named cdata elements are expressed as a slice/value of this type
// instead of directly tagging the named field.
type cdataText struct {
	Value string `xml:",cdata"`
}

func cdataTextsFrom(ss []string) []cdataText {
	if ss == nil {
		return nil
	}
	out := make([]cdataText, len(ss))
	for i, s := range ss {
		out[i] = cdataText{Value: s}
	}
	return out
}

func cdataTextsTo(cs []cdataText) []string {
	if cs == nil {
		return nil
	}
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Value
	}
	return out
}

type AdSystem struct {
	Version string `xml:"version,attr,omitempty"`
	Value   string `xml:",chardata"`
}

type Pricing struct {
	Model    string `xml:"model,attr"`
	Currency string `xml:"currency,attr"`
	Value    string `xml:",chardata"`
}

type Creatives struct {
	Creative []Creative `xml:"Creative"`
}

type Creative struct {
	ID           string        `xml:"id,attr,omitempty"`
	Sequence     int           `xml:"sequence,attr,omitempty"`
	Linear       *Linear       `xml:"Linear"`
	NonLinearAds *NonLinearAds `xml:"NonLinearAds"`
	CompanionAds *CompanionAds `xml:"CompanionAds"`
}

type Linear struct {
	Duration       string          `xml:"Duration"`
	MediaFiles     *MediaFiles     `xml:"MediaFiles"`
	TrackingEvents *TrackingEvents `xml:"TrackingEvents"`
	VideoClicks    *VideoClicks    `xml:"VideoClicks"`
}

type MediaFiles struct {
	MediaFile []MediaFile `xml:"MediaFile"`
}

type MediaFile struct {
	Delivery string `xml:"delivery,attr,omitempty"`
	Type     string `xml:"type,attr,omitempty"`
	Width    int    `xml:"width,attr,omitempty"`
	Height   int    `xml:"height,attr,omitempty"`
	Bitrate  int    `xml:"bitrate,attr,omitempty"`
	Codec    string `xml:"codec,attr,omitempty"`
	Value    string `xml:",cdata"`
}

type TrackingEvents struct {
	Tracking []Tracking `xml:"Tracking"`
}

// Tracking is one <Tracking event="..." offset="...">URL</Tracking>.
// Offset is only present on "progress" events.
type Tracking struct {
	Event  string `xml:"event,attr"`
	Offset string `xml:"offset,attr,omitempty"`
	Value  string `xml:",cdata"`
}

type VideoClicks struct {
	ClickThrough  string   `xml:"ClickThrough,omitempty"`
	ClickTracking []string `xml:"ClickTracking,omitempty"`
}

type videoClicksShadow struct {
	ClickThrough  *cdataText  `xml:"ClickThrough,omitempty"`
	ClickTracking []cdataText `xml:"ClickTracking,omitempty"`
}

func (v VideoClicks) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return e.EncodeElement(videoClicksShadow{
		ClickThrough:  cdataTextPtrFrom(v.ClickThrough),
		ClickTracking: cdataTextsFrom(v.ClickTracking),
	}, start)
}

func (v *VideoClicks) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var s videoClicksShadow
	if err := d.DecodeElement(&s, &start); err != nil {
		return err
	}
	v.ClickThrough = cdataTextPtrTo(s.ClickThrough)
	v.ClickTracking = cdataTextsTo(s.ClickTracking)
	return nil
}

// cdataTextPtrFrom/cdataTextPtrTo round-trip an omitempty single cdata
// element: a *cdataText (nil when absent) preserves the omitempty semantics
// that a plain cdataText value (never "empty" per encoding/xml's
// isEmptyValue, which doesn't special-case structs) would lose.
func cdataTextPtrFrom(s string) *cdataText {
	if s == "" {
		return nil
	}
	return &cdataText{Value: s}
}

func cdataTextPtrTo(c *cdataText) string {
	if c == nil {
		return ""
	}
	return c.Value
}

type NonLinearAds struct {
	NonLinear      []NonLinear     `xml:"NonLinear"`
	TrackingEvents *TrackingEvents `xml:"TrackingEvents"`
}

type NonLinear struct {
	Width                int    `xml:"width,attr,omitempty"`
	Height               int    `xml:"height,attr,omitempty"`
	StaticResource       string `xml:"StaticResource,omitempty"`
	NonLinearClickThroug string `xml:"NonLinearClickThrough,omitempty"`
}

type nonLinearShadow struct {
	Width                int        `xml:"width,attr,omitempty"`
	Height               int        `xml:"height,attr,omitempty"`
	StaticResource       *cdataText `xml:"StaticResource,omitempty"`
	NonLinearClickThroug *cdataText `xml:"NonLinearClickThrough,omitempty"`
}

func (n NonLinear) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return e.EncodeElement(nonLinearShadow{
		Width:                n.Width,
		Height:               n.Height,
		StaticResource:       cdataTextPtrFrom(n.StaticResource),
		NonLinearClickThroug: cdataTextPtrFrom(n.NonLinearClickThroug),
	}, start)
}

func (n *NonLinear) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var s nonLinearShadow
	if err := d.DecodeElement(&s, &start); err != nil {
		return err
	}
	n.Width = s.Width
	n.Height = s.Height
	n.StaticResource = cdataTextPtrTo(s.StaticResource)
	n.NonLinearClickThroug = cdataTextPtrTo(s.NonLinearClickThroug)
	return nil
}

type CompanionAds struct {
	Companion []Companion `xml:"Companion"`
}

type Companion struct {
	Width                 int    `xml:"width,attr,omitempty"`
	Height                int    `xml:"height,attr,omitempty"`
	StaticResource        string `xml:"StaticResource,omitempty"`
	CompanionClickThrough string `xml:"CompanionClickThrough,omitempty"`
}

type companionShadow struct {
	Width                 int        `xml:"width,attr,omitempty"`
	Height                int        `xml:"height,attr,omitempty"`
	StaticResource        *cdataText `xml:"StaticResource,omitempty"`
	CompanionClickThrough *cdataText `xml:"CompanionClickThrough,omitempty"`
}

func (c Companion) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return e.EncodeElement(companionShadow{
		Width:                 c.Width,
		Height:                c.Height,
		StaticResource:        cdataTextPtrFrom(c.StaticResource),
		CompanionClickThrough: cdataTextPtrFrom(c.CompanionClickThrough),
	}, start)
}

func (c *Companion) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var s companionShadow
	if err := d.DecodeElement(&s, &start); err != nil {
		return err
	}
	c.Width = s.Width
	c.Height = s.Height
	c.StaticResource = cdataTextPtrTo(s.StaticResource)
	c.CompanionClickThrough = cdataTextPtrTo(s.CompanionClickThrough)
	return nil
}

type Extensions struct {
	Extension []Extension `xml:"Extension"`
}

// Extension's body is preserved verbatim via InnerXML since its schema is
// publisher-defined and out of scope for this parser.
type Extension struct {
	Type     string `xml:"type,attr,omitempty"`
	InnerXML string `xml:",innerxml"`
}

// Unmarshal parses raw VAST XML into a Vast document. It performs no
// validation beyond well-formedness; callers that need the tolerant or
// strict semantics of spec.md §4.4 should use Parser.Parse instead.
func Unmarshal(data []byte) (*Vast, error) {
	var v Vast
	if err := xml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Marshal renders v as an indented XML document with a standard header.
func (v *Vast) Marshal() ([]byte, error) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// MarshalCompact renders v as a single-line XML document with a standard
// header, used where payload size matters more than readability.
func (v *Vast) MarshalCompact() ([]byte, error) {
	body, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

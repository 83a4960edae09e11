package vast

import "encoding/xml"

const defaultVersion = "3.0"

func versionOrDefault(version string) string {
	if version == "" {
		return defaultVersion
	}
	return version
}

// BuildNoAdVast renders an empty <VAST> document (no <Ad> elements), the
// standard no-fill response for a source that has nothing to serve.
func BuildNoAdVast(version string) []byte {
	v := &Vast{Version: versionOrDefault(version)}
	body, _ := xml.Marshal(v)
	return append([]byte(xml.Header), body...)
}

// BuildSkeletonInlineVast returns a minimal single-ad, single-creative
// inline VAST document with a zero duration, used as the tolerant-mode
// fallback when a fetched payload cannot be parsed but the caller still
// needs a well-formed ad to hand to the tracker/playback engine.
func BuildSkeletonInlineVast(version string) *Vast {
	return BuildSkeletonInlineVastWithDuration(version, 0)
}

// BuildSkeletonInlineVastWithDuration is BuildSkeletonInlineVast with an
// explicit declared duration in seconds.
func BuildSkeletonInlineVastWithDuration(version string, seconds int) *Vast {
	return &Vast{
		Version: versionOrDefault(version),
		Ads: []Ad{
			{
				ID:       "1",
				Sequence: 1,
				InLine: &InLine{
					AdSystem: &AdSystem{Value: "PBS-CTV"},
					AdTitle:  "Ad",
					Creatives: &Creatives{
						Creative: []Creative{
							{
								ID:       "1",
								Sequence: 1,
								Linear: &Linear{
									Duration: SecToHHMMSS(seconds),
								},
							},
						},
					},
				},
			},
		},
	}
}

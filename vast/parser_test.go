package vast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pv-udpv/vast-client/errortypes"
)

const wellFormedInline = `<?xml version="1.0"?>
<VAST version="3.0">
  <Ad id="ad-1">
    <InLine>
      <AdSystem>TestSystem</AdSystem>
      <AdTitle>Inline Ad</AdTitle>
      <Impression><![CDATA[https://t.example/imp]]></Impression>
      <Creatives>
        <Creative id="c1">
          <Linear>
            <Duration>00:00:30</Duration>
            <MediaFiles>
              <MediaFile type="video/mp4" width="1280" height="720" bitrate="2000" delivery="progressive">
                <![CDATA[https://cdn.example/video.mp4]]>
              </MediaFile>
            </MediaFiles>
            <TrackingEvents>
              <Tracking event="start"><![CDATA[https://t.example/start]]></Tracking>
              <Tracking event="progress" offset="00:00:05"><![CDATA[https://t.example/5s]]></Tracking>
            </TrackingEvents>
          </Linear>
        </Creative>
      </Creatives>
    </InLine>
  </Ad>
</VAST>`

const wellFormedWrapper = `<?xml version="1.0"?>
<VAST version="3.0">
  <Ad id="wrap-1">
    <Wrapper>
      <AdSystem>WrapSystem</AdSystem>
      <VASTAdTagURI><![CDATA[https://upstream.example/vast.xml]]></VASTAdTagURI>
      <Impression><![CDATA[https://t.example/wrap-imp]]></Impression>
    </Wrapper>
  </Ad>
</VAST>`

func TestStrictParserParsesInline(t *testing.T) {
	p := NewStrictParser()
	ad, err := p.Parse([]byte(wellFormedInline))
	require.NoError(t, err)
	assert.Equal(t, "Inline Ad", ad.AdTitle)
	assert.Equal(t, 30, ad.DurationSeconds)
	assert.Equal(t, []string{"https://t.example/imp"}, ad.Impressions)
	require.Len(t, ad.MediaFiles, 1)
	assert.Equal(t, "video/mp4", ad.MediaFiles[0].Type)
	assert.Equal(t, 1280, ad.MediaFiles[0].Width)
	assert.Equal(t, []string{"https://t.example/start"}, ad.TrackingEvents["start"])
	assert.Equal(t, []string{"https://t.example/5s"}, ad.TrackingEvents["progress-5"])
}

func TestStrictParserParsesWrapper(t *testing.T) {
	p := NewStrictParser()
	ad, err := p.Parse([]byte(wellFormedWrapper))
	require.NoError(t, err)
	assert.True(t, ad.IsWrapper())
	assert.Equal(t, "https://upstream.example/vast.xml", ad.WrapperVASTAdTagURI)
}

func TestStrictParserRejectsInvalidXML(t *testing.T) {
	p := NewStrictParser()
	_, err := p.Parse([]byte("<VAST version=\"3.0\"><Ad><InLine>"))
	require.Error(t, err)
	assert.Equal(t, errortypes.KindInvalidXML, err.(*errortypes.FetchError).Kind)
}

func TestStrictParserRejectsMissingImpression(t *testing.T) {
	p := NewStrictParser()
	data := []byte(`<VAST version="3.0"><Ad id="a"><InLine>
		<AdTitle>No Impression</AdTitle>
		<Creatives><Creative><Linear><Duration>00:00:10</Duration></Linear></Creative></Creatives>
	</InLine></Ad></VAST>`)
	_, err := p.Parse(data)
	require.Error(t, err)
	assert.Equal(t, errortypes.KindMissingRequiredField, err.(*errortypes.FetchError).Kind)
}

func TestStrictParserRejectsUnsupportedVersion(t *testing.T) {
	p := NewStrictParser()
	data := []byte(`<VAST version="1.0"><Ad id="a"><InLine>
		<AdTitle>Old</AdTitle>
		<Impression><![CDATA[https://t.example/imp]]></Impression>
		<Creatives><Creative><Linear><Duration>00:00:10</Duration></Linear></Creative></Creatives>
	</InLine></Ad></VAST>`)
	_, err := p.Parse(data)
	require.Error(t, err)
	assert.Equal(t, errortypes.KindUnsupportedVersion, err.(*errortypes.FetchError).Kind)
}

func TestTolerantParserRecoversFromMalformedXML(t *testing.T) {
	p := NewParser()
	ad, err := p.Parse([]byte("this is not xml at all"))
	require.NoError(t, err)
	require.NotNil(t, ad)
	assert.Equal(t, 0, ad.DurationSeconds)
}

func TestTolerantParserAcceptsMissingImpression(t *testing.T) {
	p := NewParser()
	data := []byte(`<VAST version="3.0"><Ad id="a"><InLine>
		<AdTitle>No Impression</AdTitle>
		<Creatives><Creative><Linear><Duration>00:00:10</Duration></Linear></Creative></Creatives>
	</InLine></Ad></VAST>`)
	ad, err := p.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, 10, ad.DurationSeconds)
	assert.Empty(t, ad.Impressions)
}

func TestTolerantParserParsesWrapper(t *testing.T) {
	p := NewParser()
	ad, err := p.Parse([]byte(wellFormedWrapper))
	require.NoError(t, err)
	assert.True(t, ad.IsWrapper())
	assert.Equal(t, "https://upstream.example/vast.xml", ad.WrapperVASTAdTagURI)
}

package vastclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pv-udpv/vast-client/playback"
	"github.com/pv-udpv/vast-client/transport"
	"github.com/pv-udpv/vast-client/vastconfig"
)

const inlineVAST = `<VAST version="3.0">
  <Ad id="1">
    <InLine>
      <AdSystem>sys</AdSystem>
      <AdTitle>title</AdTitle>
      <Impression><![CDATA[%s]]></Impression>
      <Creatives>
        <Creative id="c1">
          <Linear>
            <Duration>00:00:15</Duration>
            <MediaFiles>
              <MediaFile type="video/mp4" width="640" height="480" bitrate="500"><![CDATA[http://media.example/a.mp4]]></MediaFile>
            </MediaFiles>
          </Linear>
        </Creative>
      </Creatives>
    </InLine>
  </Ad>
</VAST>`

func TestFromURLResolvesAndClosesCleanly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, inlineVAST, "")
	}))
	defer server.Close()

	client := FromURL(server.URL)
	defer client.Close()

	result, err := client.Request(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, result.Succeeded())
	assert.Equal(t, server.URL, result.SourceURL)
}

func TestRequestOverridesSourcesWithoutMutatingBaseConfig(t *testing.T) {
	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer first.Close()

	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, inlineVAST, "")
	}))
	defer second.Close()

	client := FromURL(first.URL)
	defer client.Close()

	override := &vastconfig.Config{Sources: []string{second.URL}, Strategy: client.cfg.Strategy}
	override.Strategy.Retries = 0
	result, err := client.Request(context.Background(), override)
	require.NoError(t, err)
	assert.Equal(t, second.URL, result.SourceURL)

	// base config's own source list must be untouched by the override.
	assert.Equal(t, []string{first.URL}, client.cfg.Sources)
}

func TestRequestWithFallbackUsesFallbackOnPrimaryFailure(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, inlineVAST, "")
	}))
	defer good.Close()

	cfg := vastconfig.Defaults()
	cfg.Strategy.Retries = 0
	cfg.Strategy.PerSourceTimeout = time.Second
	cfg.Strategy.OverallTimeout = 2 * time.Second
	client := FromConfig(cfg)
	defer client.Close()

	result, err := client.RequestWithFallback(context.Background(), []string{bad.URL}, []string{good.URL})
	require.NoError(t, err)
	assert.Equal(t, good.URL, result.SourceURL)
}

func TestPlaybackEngineMintsIndependentSessions(t *testing.T) {
	client := FromURL("http://unused.example")
	defer client.Close()

	engine := client.PlaybackEngine()
	s1 := engine.NewSession("creative-a", time.Second, playback.Config{})
	s2 := engine.NewSession("creative-b", time.Second, playback.Config{})
	assert.NotEqual(t, s1.ID(), s2.ID())
}

func TestVirtualPlaybackEngineRejectsZeroSpeed(t *testing.T) {
	client := FromURL("http://unused.example")
	defer client.Close()

	_, err := client.VirtualPlaybackEngine(0)
	assert.Error(t, err)
}

func TestCloseOnSharedPoolDoesNotClosePool(t *testing.T) {
	pool := transport.NewPool(transport.DefaultSettings())
	_, err := pool.Get(vastconfig.TLSVerifyMode{})
	require.NoError(t, err)

	client := FromHTTPClient(pool, vastconfig.Defaults())
	require.NoError(t, client.Close())

	// Close on a caller-owned pool must not tear it down from under
	// other holders.
	assert.Equal(t, 1, pool.Size())
}

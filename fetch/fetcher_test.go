package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pv-udpv/vast-client/transport"
	"github.com/pv-udpv/vast-client/vastconfig"
)

func newTestFetcher() *Fetcher {
	return NewFetcher(transport.NewPool(transport.DefaultSettings()), nil, nil)
}

func strategy(mode vastconfig.FetchMode) vastconfig.FetchStrategy {
	return vastconfig.FetchStrategy{
		Mode:              mode,
		PerSourceTimeout:  time.Second,
		OverallTimeout:    2 * time.Second,
		Retries:           1,
		BackoffBase:       time.Millisecond,
		BackoffMultiplier: 2,
	}
}

func TestFetchSequentialReturnsFirstSuccess(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<VAST/>"))
	}))
	defer good.Close()

	f := newTestFetcher()
	result, err := f.Fetch(context.Background(), Request{
		Sources:  []string{bad.URL, good.URL},
		Strategy: strategy(vastconfig.ModeSequential),
	})

	require.NoError(t, err)
	assert.Equal(t, "<VAST/>", string(result.Body))
	assert.Equal(t, good.URL, result.SourceURL)
	assert.NotEmpty(t, result.Attempts)
}

func TestFetchParallelReturnsFirstSuccess(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte("<VAST>slow</VAST>"))
	}))
	defer slow.Close()

	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<VAST>fast</VAST>"))
	}))
	defer fast.Close()

	f := newTestFetcher()
	result, err := f.Fetch(context.Background(), Request{
		Sources:  []string{slow.URL, fast.URL},
		Strategy: strategy(vastconfig.ModeParallel),
	})

	require.NoError(t, err)
	assert.Equal(t, "<VAST>fast</VAST>", string(result.Body))
	assert.Equal(t, fast.URL, result.SourceURL)
}

func TestFetchRaceCancelsLosers(t *testing.T) {
	var slowHit int32
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(200 * time.Millisecond):
			atomic.AddInt32(&slowHit, 1)
			w.Write([]byte("<VAST>slow</VAST>"))
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()

	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<VAST>fast</VAST>"))
	}))
	defer fast.Close()

	f := newTestFetcher()
	result, err := f.Fetch(context.Background(), Request{
		Sources:  []string{slow.URL, fast.URL},
		Strategy: strategy(vastconfig.ModeRace),
	})

	require.NoError(t, err)
	assert.Equal(t, fast.URL, result.SourceURL)

	// The slow handler only counts a hit if its request outlives 200ms; a
	// cancelled loser's request context ends before that.
	time.Sleep(300 * time.Millisecond)
	assert.EqualValues(t, 0, atomic.LoadInt32(&slowHit))
}

func TestFetchNoContentIsNotSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	f := newTestFetcher()
	result, err := f.Fetch(context.Background(), Request{
		Sources:  []string{server.URL},
		Strategy: strategy(vastconfig.ModeSequential),
	})

	assert.Error(t, err)
	assert.False(t, result.Succeeded())
	require.NotEmpty(t, result.Attempts)
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("<VAST>ok</VAST>"))
	}))
	defer server.Close()

	f := newTestFetcher()
	result, err := f.Fetch(context.Background(), Request{
		Sources:  []string{server.URL},
		Strategy: strategy(vastconfig.ModeSequential),
	})

	require.NoError(t, err)
	assert.Equal(t, "<VAST>ok</VAST>", string(result.Body))
	assert.EqualValues(t, 2, atomic.LoadInt32(&attempts))
}

func TestFetchAllSourcesFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := newTestFetcher()
	result, err := f.Fetch(context.Background(), Request{
		Sources:  []string{server.URL},
		Strategy: strategy(vastconfig.ModeSequential),
	})

	assert.Error(t, err)
	assert.False(t, result.Succeeded())
	assert.Len(t, result.Attempts, 2)
}

func TestFetchOverallTimeoutExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
			w.Write([]byte("<VAST/>"))
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	f := newTestFetcher()
	fast := strategy(vastconfig.ModeSequential)
	fast.OverallTimeout = 20 * time.Millisecond
	fast.PerSourceTimeout = 0
	fast.Retries = 0

	result, err := f.Fetch(context.Background(), Request{
		Sources:  []string{server.URL},
		Strategy: fast,
	})

	assert.Error(t, err)
	assert.False(t, result.Succeeded())
}

func TestApplyParamsMergesQuery(t *testing.T) {
	target, err := applyParams("http://example.com/vast?a=1", map[string]string{"b": "2"})
	require.NoError(t, err)
	assert.Contains(t, target, "a=1")
	assert.Contains(t, target, "b=2")
}

func TestBackoffDelayGrowsByMultiplier(t *testing.T) {
	assert.Equal(t, time.Duration(0), backoffDelay(0, 2, 3))
	assert.Equal(t, 10*time.Millisecond, backoffDelay(10*time.Millisecond, 2, 1))
	assert.Equal(t, 20*time.Millisecond, backoffDelay(10*time.Millisecond, 2, 2))
	assert.Equal(t, 40*time.Millisecond, backoffDelay(10*time.Millisecond, 2, 3))
}

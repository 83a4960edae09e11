package track

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pv-udpv/vast-client/macros"
	"github.com/pv-udpv/vast-client/util/randomutil"
	"github.com/pv-udpv/vast-client/util/timeutil"
	"github.com/pv-udpv/vast-client/vast"
	"github.com/pv-udpv/vast-client/vastconfig"
)

func newTestTracker(t *testing.T, ad *vast.ParsedAd, cfg vastconfig.TrackerConfig) *Tracker {
	t.Helper()
	v, err := timeutil.NewVirtualAt(time.Unix(1700000000, 0), 1.0)
	require.NoError(t, err)
	engine := macros.NewEngine(v, randomutil.NewSeeded(1))
	return NewTracker(ad, http.DefaultClient, engine, cfg, v, nil, nil)
}

func TestTrackFiresAllRegisteredURLs(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ad := &vast.ParsedAd{Impressions: []string{server.URL + "/a", server.URL + "/b"}}
	tr := newTestTracker(t, ad, vastconfig.TrackerConfig{RequestTimeout: time.Second})

	result := tr.Track(context.Background(), "impression", macros.Context{})

	assert.Equal(t, 2, result.TotalCount)
	assert.Equal(t, 2, result.SuccessfulCount)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestTrackSkipsAlreadyTrackedTrackable(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ad := &vast.ParsedAd{Impressions: []string{server.URL}}
	tr := newTestTracker(t, ad, vastconfig.TrackerConfig{RequestTimeout: time.Second})

	first := tr.Track(context.Background(), "impression", macros.Context{})
	second := tr.Track(context.Background(), "impression", macros.Context{})

	assert.Equal(t, 1, first.SuccessfulCount)
	assert.Equal(t, 1, second.SuccessfulCount)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits), "already-tracked trackable must not re-fire")
}

func TestTrackEmptyURLFailsWithoutNetwork(t *testing.T) {
	ad := &vast.ParsedAd{Impressions: []string{""}}
	tr := newTestTracker(t, ad, vastconfig.TrackerConfig{RequestTimeout: time.Second})

	result := tr.Track(context.Background(), "impression", macros.Context{})

	assert.Equal(t, 0, result.SuccessfulCount)
	require.Len(t, result.PerTrackable, 1)
	assert.Error(t, result.PerTrackable[0].Err)
	assert.Equal(t, StateFailed, tr.Trackables("impression")[0].State)
}

func TestTrackRetriesThenSucceeds(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ad := &vast.ParsedAd{Errors: []string{server.URL}}
	cfg := vastconfig.TrackerConfig{RequestTimeout: time.Second, MaxRetries: 2, RetryDelay: time.Millisecond, BackoffMultiplier: 2}
	tr := newTestTracker(t, ad, cfg)

	result := tr.Track(context.Background(), "error", macros.Context{})

	assert.Equal(t, 1, result.SuccessfulCount)
	assert.EqualValues(t, 2, atomic.LoadInt32(&attempts))
}

func TestTrackParallelFiringCountsSuccesses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ad := &vast.ParsedAd{TrackingEvents: map[string][]string{"start": {server.URL + "/1", server.URL + "/2", server.URL + "/3"}}}
	tr := newTestTracker(t, ad, vastconfig.TrackerConfig{RequestTimeout: time.Second, ParallelFiring: true})

	result := tr.Track(context.Background(), "start", macros.Context{})

	assert.Equal(t, 3, result.TotalCount)
	assert.Equal(t, 3, result.SuccessfulCount)
}

func TestTrackResolvesMacrosBeforeFiring(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ad := &vast.ParsedAd{Impressions: []string{server.URL + "/?id=[CREATIVE_ID]"}}
	tr := newTestTracker(t, ad, vastconfig.TrackerConfig{RequestTimeout: time.Second})

	tr.Track(context.Background(), "impression", macros.Context{Explicit: macros.Map{"CREATIVE_ID": "abc123"}})

	assert.Equal(t, "id=abc123", gotQuery)
}

func TestTrackUnknownEventTypeReturnsEmptyResult(t *testing.T) {
	ad := &vast.ParsedAd{}
	tr := newTestTracker(t, ad, vastconfig.TrackerConfig{})

	result := tr.Track(context.Background(), "midpoint", macros.Context{})

	assert.Equal(t, 0, result.TotalCount)
	assert.Equal(t, 0, result.SuccessfulCount)
}

func TestBackoffDelayGrowsByMultiplier(t *testing.T) {
	assert.Equal(t, time.Duration(0), backoffDelay(0, 2, 3))
	assert.Equal(t, 10*time.Millisecond, backoffDelay(10*time.Millisecond, 2, 1))
	assert.Equal(t, 40*time.Millisecond, backoffDelay(10*time.Millisecond, 2, 3))
}

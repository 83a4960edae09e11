// Package vastconfig resolves the four precedence levels a fetch config can
// come from (global, provider, publisher, per-call) into the single
// Config a client facade hands to the orchestrator. Grounded on
// config/ctv_vast.go's CTVVastDefaults/MergeCTVVastConfig, generalized from
// its three levels to four and from scalar/struct overrides to also cover
// deep-merged maps and replace-or-append lists.
package vastconfig

import (
	"time"

	"github.com/pv-udpv/vast-client/vast"
)

// FetchMode selects how the multi-source fetcher races its sources.
type FetchMode string

const (
	ModeParallel   FetchMode = "parallel"
	ModeSequential FetchMode = "sequential"
	ModeRace       FetchMode = "race"
)

// FetchStrategy mirrors spec.md's strategy descriptor: mode, per-source and
// overall timeouts, and retry/backoff parameters.
type FetchStrategy struct {
	Mode              FetchMode     `mapstructure:"mode" json:"mode"`
	PerSourceTimeout  time.Duration `mapstructure:"per_source_timeout" json:"per_source_timeout"`
	OverallTimeout    time.Duration `mapstructure:"overall_timeout" json:"overall_timeout"`
	Retries           int           `mapstructure:"retries" json:"retries"`
	BackoffBase       time.Duration `mapstructure:"backoff_base" json:"backoff_base"`
	BackoffMultiplier float64       `mapstructure:"backoff_multiplier" json:"backoff_multiplier"`
}

// TLSVerifyMode keys the transport pool: either plain bool verification or
// a CA-bundle file path understood by ssl.AppendPEMFileToRootCAPool.
type TLSVerifyMode struct {
	Insecure     bool   `mapstructure:"insecure" json:"insecure"`
	CABundlePath string `mapstructure:"ca_bundle_path" json:"ca_bundle_path,omitempty"`
}

// Key returns a value usable as a map key for the transport pool.
func (m TLSVerifyMode) Key() string {
	if m.CABundlePath != "" {
		return "ca:" + m.CABundlePath
	}
	if m.Insecure {
		return "insecure"
	}
	return "verify"
}

// TrackerConfig mirrors spec.md §4.9's per-trackable retry/backoff and
// firing-order knobs.
type TrackerConfig struct {
	RequestTimeout    time.Duration `mapstructure:"request_timeout" json:"request_timeout"`
	MaxRetries        int           `mapstructure:"max_retries" json:"max_retries"`
	RetryDelay        time.Duration `mapstructure:"retry_delay" json:"retry_delay"`
	BackoffMultiplier float64       `mapstructure:"backoff_multiplier" json:"backoff_multiplier"`
	ParallelFiring    bool          `mapstructure:"parallel_firing" json:"parallel_firing"`
}

// InterruptionRule is the virtual-time-only stochastic interruption rule
// for one playback event type (spec.md §4.10).
type InterruptionRule struct {
	Probability float64       `mapstructure:"probability" json:"probability"`
	JitterMin   time.Duration `mapstructure:"jitter_min" json:"jitter_min"`
	JitterMax   time.Duration `mapstructure:"jitter_max" json:"jitter_max"`
}

// FilterConfig is the mapstructure-friendly mirror of vast.Filter; the
// resolver keeps its own copy so overrides can be merged field-by-field,
// then converts to *vast.Filter for the orchestrator.
type FilterConfig struct {
	AllowedMediaTypes []string  `mapstructure:"allowed_media_types" json:"allowed_media_types,omitempty"`
	MinDuration       int       `mapstructure:"min_duration" json:"min_duration,omitempty"`
	MaxDuration       int       `mapstructure:"max_duration" json:"max_duration,omitempty"`
	MinBitrate        int       `mapstructure:"min_bitrate" json:"min_bitrate,omitempty"`
	MinWidth          int       `mapstructure:"min_width" json:"min_width,omitempty"`
	MinHeight         int       `mapstructure:"min_height" json:"min_height,omitempty"`
	RequiredCodec     string    `mapstructure:"required_codec" json:"required_codec,omitempty"`
	RequiredDelivery  string    `mapstructure:"required_delivery" json:"required_delivery,omitempty"`
	SortBy            string    `mapstructure:"sort_by" json:"sort_by,omitempty"`
	SortOrder         string    `mapstructure:"sort_order" json:"sort_order,omitempty"`
	Limit             int       `mapstructure:"limit" json:"limit,omitempty"`
}

// ToFilter converts the mapstructure-friendly FilterConfig into the
// *vast.Filter the orchestrator applies to a resolved ad.
func (c FilterConfig) ToFilter() *vast.Filter {
	return &vast.Filter{
		AllowedMediaTypes: c.AllowedMediaTypes,
		MinDuration:       c.MinDuration,
		MaxDuration:       c.MaxDuration,
		MinBitrate:        c.MinBitrate,
		MinWidth:          c.MinWidth,
		MinHeight:         c.MinHeight,
		RequiredCodec:     c.RequiredCodec,
		RequiredDelivery:  c.RequiredDelivery,
		SortBy:            vast.SortKey(c.SortBy),
		SortOrder:         vast.SortOrder(c.SortOrder),
		Limit:             c.Limit,
	}
}

// Config is the fully resolved value the client facade hands to the
// orchestrator: the merge of global, provider, publisher and per-call
// layers, already validated.
type Config struct {
	Sources           []string                    `mapstructure:"sources" json:"sources"`
	Fallbacks         []string                    `mapstructure:"fallbacks" json:"fallbacks,omitempty"`
	Strategy          FetchStrategy                `mapstructure:"strategy" json:"strategy"`
	QueryParams       map[string]string            `mapstructure:"query_params" json:"query_params,omitempty"`
	Headers           map[string]string            `mapstructure:"headers" json:"headers,omitempty"`
	Filter            FilterConfig                 `mapstructure:"filter" json:"filter,omitempty"`
	AutoTrack         bool                          `mapstructure:"auto_track" json:"auto_track"`
	WrapperDepthLimit int                           `mapstructure:"wrapper_depth_limit" json:"wrapper_depth_limit"`
	TLSVerify         TLSVerifyMode                 `mapstructure:"tls_verify" json:"tls_verify"`
	Tracker           TrackerConfig                 `mapstructure:"tracker" json:"tracker"`
	StaticMacros      map[string]string             `mapstructure:"static_macros" json:"static_macros,omitempty"`
	Interruptions     map[string]InterruptionRule   `mapstructure:"interruptions" json:"interruptions,omitempty"`
}

// Defaults returns the global-level base configuration, the starting point
// for every merge. Mirrors CTVVastDefaults's role as the host-level base.
func Defaults() Config {
	return Config{
		Strategy: FetchStrategy{
			Mode:              ModeSequential,
			PerSourceTimeout:  2 * time.Second,
			OverallTimeout:    5 * time.Second,
			Retries:           1,
			BackoffBase:       100 * time.Millisecond,
			BackoffMultiplier: 2,
		},
		AutoTrack:         true,
		WrapperDepthLimit: 5,
		Tracker: TrackerConfig{
			RequestTimeout:    2 * time.Second,
			MaxRetries:        2,
			RetryDelay:        200 * time.Millisecond,
			BackoffMultiplier: 2,
			ParallelFiring:    false,
		},
	}
}

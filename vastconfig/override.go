package vastconfig

import "time"

// ListOverride represents an ordered-list override layer. By default the
// override replaces the lower level's list; when Append is set the values
// are concatenated onto the end of the lower level's list instead, per
// spec.md §4.11's "unless explicitly marked append in the override shape".
type ListOverride[T any] struct {
	Values []T
	Append bool
}

// StrategyOverride overrides FetchStrategy field-by-field; nil fields
// inherit from the lower level.
type StrategyOverride struct {
	Mode              *FetchMode
	PerSourceTimeout  *time.Duration
	OverallTimeout    *time.Duration
	Retries           *int
	BackoffBase       *time.Duration
	BackoffMultiplier *float64
}

// TrackerOverride overrides TrackerConfig field-by-field.
type TrackerOverride struct {
	RequestTimeout    *time.Duration
	MaxRetries        *int
	RetryDelay        *time.Duration
	BackoffMultiplier *float64
	ParallelFiring    *bool
}

// FilterOverride overrides FilterConfig field-by-field. AllowedMediaTypes
// follows the same list-override rule as Sources/Fallbacks.
type FilterOverride struct {
	AllowedMediaTypes *ListOverride[string]
	MinDuration       *int
	MaxDuration       *int
	MinBitrate        *int
	MinWidth          *int
	MinHeight         *int
	RequiredCodec     *string
	RequiredDelivery  *string
	SortBy            *string
	SortOrder         *string
	Limit             *int
}

// TLSVerifyOverride overrides TLSVerifyMode as a single unit: it is a
// scalar choice (insecure, verify, or a specific CA bundle), not something
// that makes sense to merge field-by-field.
type TLSVerifyOverride struct {
	Mode *TLSVerifyMode
}

// Override is one precedence layer (global, provider, publisher, or
// per-call) in the four-level merge. Every field is optional; unset fields
// leave the lower level's value untouched. Nested maps (QueryParams,
// Headers, StaticMacros, Interruptions) are deep-merged key by key rather
// than replaced wholesale, matching mergeMacroConfig's mapping-merge
// behavior generalized to every map-shaped field.
type Override struct {
	Sources           *ListOverride[string]
	Fallbacks         *ListOverride[string]
	Strategy          *StrategyOverride
	QueryParams       map[string]string
	Headers           map[string]string
	Filter            *FilterOverride
	AutoTrack         *bool
	WrapperDepthLimit *int
	TLSVerify         *TLSVerifyOverride
	Tracker           *TrackerOverride
	StaticMacros      map[string]string
	Interruptions     map[string]InterruptionRule
}

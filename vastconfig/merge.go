package vastconfig

import "github.com/pv-udpv/vast-client/util/ptrutil"

// mergeInto applies override onto base in place, following spec.md §4.11's
// rules: nested maps deep-merge, scalars replace, ordered lists replace
// unless the override marks itself Append. Mirrors
// config.mergePlacementRules/mergeMacroConfig's per-field override style,
// generalized to four independent call sites (one per precedence level)
// instead of two.
func mergeInto(base *Config, override *Override) {
	if override == nil {
		return
	}

	if override.Sources != nil {
		base.Sources = mergeList(base.Sources, *override.Sources)
	}
	if override.Fallbacks != nil {
		base.Fallbacks = mergeList(base.Fallbacks, *override.Fallbacks)
	}
	if override.Strategy != nil {
		mergeStrategy(&base.Strategy, override.Strategy)
	}
	base.QueryParams = mergeStringMap(base.QueryParams, override.QueryParams)
	base.Headers = mergeStringMap(base.Headers, override.Headers)
	if override.Filter != nil {
		mergeFilter(&base.Filter, override.Filter)
	}
	if override.AutoTrack != nil {
		base.AutoTrack = ptrutil.ValueOrDefault(override.AutoTrack)
	}
	if override.WrapperDepthLimit != nil {
		base.WrapperDepthLimit = ptrutil.ValueOrDefault(override.WrapperDepthLimit)
	}
	if override.TLSVerify != nil && override.TLSVerify.Mode != nil {
		base.TLSVerify = ptrutil.ValueOrDefault(override.TLSVerify.Mode)
	}
	if override.Tracker != nil {
		mergeTracker(&base.Tracker, override.Tracker)
	}
	base.StaticMacros = mergeStringMap(base.StaticMacros, override.StaticMacros)
	base.Interruptions = mergeInterruptions(base.Interruptions, override.Interruptions)
}

func mergeList[T any](base []T, override ListOverride[T]) []T {
	if override.Append {
		merged := make([]T, 0, len(base)+len(override.Values))
		merged = append(merged, base...)
		merged = append(merged, override.Values...)
		return merged
	}
	return override.Values
}

func mergeStringMap(base, override map[string]string) map[string]string {
	if override == nil {
		return base
	}
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

func mergeInterruptions(base, override map[string]InterruptionRule) map[string]InterruptionRule {
	if override == nil {
		return base
	}
	merged := make(map[string]InterruptionRule, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

func mergeStrategy(base *FetchStrategy, o *StrategyOverride) {
	if o.Mode != nil {
		base.Mode = ptrutil.ValueOrDefault(o.Mode)
	}
	if o.PerSourceTimeout != nil {
		base.PerSourceTimeout = ptrutil.ValueOrDefault(o.PerSourceTimeout)
	}
	if o.OverallTimeout != nil {
		base.OverallTimeout = ptrutil.ValueOrDefault(o.OverallTimeout)
	}
	if o.Retries != nil {
		base.Retries = ptrutil.ValueOrDefault(o.Retries)
	}
	if o.BackoffBase != nil {
		base.BackoffBase = ptrutil.ValueOrDefault(o.BackoffBase)
	}
	if o.BackoffMultiplier != nil {
		base.BackoffMultiplier = ptrutil.ValueOrDefault(o.BackoffMultiplier)
	}
}

func mergeTracker(base *TrackerConfig, o *TrackerOverride) {
	if o.RequestTimeout != nil {
		base.RequestTimeout = ptrutil.ValueOrDefault(o.RequestTimeout)
	}
	if o.MaxRetries != nil {
		base.MaxRetries = ptrutil.ValueOrDefault(o.MaxRetries)
	}
	if o.RetryDelay != nil {
		base.RetryDelay = ptrutil.ValueOrDefault(o.RetryDelay)
	}
	if o.BackoffMultiplier != nil {
		base.BackoffMultiplier = ptrutil.ValueOrDefault(o.BackoffMultiplier)
	}
	if o.ParallelFiring != nil {
		base.ParallelFiring = ptrutil.ValueOrDefault(o.ParallelFiring)
	}
}

func mergeFilter(base *FilterConfig, o *FilterOverride) {
	if o.AllowedMediaTypes != nil {
		base.AllowedMediaTypes = mergeList(base.AllowedMediaTypes, *o.AllowedMediaTypes)
	}
	if o.MinDuration != nil {
		base.MinDuration = ptrutil.ValueOrDefault(o.MinDuration)
	}
	if o.MaxDuration != nil {
		base.MaxDuration = ptrutil.ValueOrDefault(o.MaxDuration)
	}
	if o.MinBitrate != nil {
		base.MinBitrate = ptrutil.ValueOrDefault(o.MinBitrate)
	}
	if o.MinWidth != nil {
		base.MinWidth = ptrutil.ValueOrDefault(o.MinWidth)
	}
	if o.MinHeight != nil {
		base.MinHeight = ptrutil.ValueOrDefault(o.MinHeight)
	}
	if o.RequiredCodec != nil {
		base.RequiredCodec = ptrutil.ValueOrDefault(o.RequiredCodec)
	}
	if o.RequiredDelivery != nil {
		base.RequiredDelivery = ptrutil.ValueOrDefault(o.RequiredDelivery)
	}
	if o.SortBy != nil {
		base.SortBy = ptrutil.ValueOrDefault(o.SortBy)
	}
	if o.SortOrder != nil {
		base.SortOrder = ptrutil.ValueOrDefault(o.SortOrder)
	}
	if o.Limit != nil {
		base.Limit = ptrutil.ValueOrDefault(o.Limit)
	}
}

package metrics

import (
	"sort"
	"strings"
)

// SortedKeys returns the label keys in sorted order, deduplicated. Used by
// the go-metrics and Prometheus collectors to derive a stable metric
// identity from a variadic label list.
func SortedKeys(labels []Label) []string {
	keys := make([]string, 0, len(labels))
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if !seen[l.Key] {
			seen[l.Key] = true
			keys = append(keys, l.Key)
		}
	}
	sort.Strings(keys)
	return keys
}

// ValuesFor returns the values from labels matching keys, in the same
// order as keys, using "" when a key is absent.
func ValuesFor(labels []Label, keys []string) []string {
	byKey := make(map[string]string, len(labels))
	for _, l := range labels {
		byKey[l.Key] = l.Value
	}
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = byKey[k]
	}
	return values
}

// Suffix builds a go-metrics-style dotted metric name from a base name and
// label values, mirroring meter_metrics.go's
// fmt.Sprintf("%[1]s.%[2]s.requests", adapterOrAccount, exchange) pattern.
func Suffix(name string, labels []Label) string {
	if len(labels) == 0 {
		return name
	}
	keys := SortedKeys(labels)
	values := ValuesFor(labels, keys)
	return name + "." + strings.Join(values, ".")
}

package macros

import (
	"fmt"
	"strings"
)

// Map is a macro name to value mapping. Values are looked up either by a
// flat key or, for nested context (e.g. ad-request fields), by a
// dot-separated path walking nested maps.
type Map map[string]any

// lookup resolves name against m. A name containing "." is walked as a
// nested-map path (e.g. "user.geo.country" looks up m["user"]["geo"]["country"]).
// The second return value is false if name is absent anywhere along the path.
func lookup(m Map, name string) (string, bool) {
	if m == nil {
		return "", false
	}
	if !strings.Contains(name, ".") {
		v, ok := m[name]
		if !ok {
			return "", false
		}
		return stringify(v), true
	}

	parts := strings.Split(name, ".")
	cur := any(m)
	for i, part := range parts {
		asMap, ok := asStringMap(cur)
		if !ok {
			return "", false
		}
		v, ok := asMap[part]
		if !ok {
			return "", false
		}
		if i == len(parts)-1 {
			return stringify(v), true
		}
		cur = v
	}
	return "", false
}

func asStringMap(v any) (Map, bool) {
	switch m := v.(type) {
	case Map:
		return m, true
	case map[string]any:
		return Map(m), true
	default:
		return nil, false
	}
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

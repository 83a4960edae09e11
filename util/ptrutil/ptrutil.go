// Package ptrutil wraps the pointer/zero-value idiom vastconfig's override
// merging leans on: an override field is either a pointer to the value the
// caller wants or nil to mean "no override for this field."
package ptrutil

// ValueOrDefault dereferences v, or returns T's zero value if v is nil.
func ValueOrDefault[T any](v *T) T {
	if v != nil {
		return *v
	}

	var def T
	return def
}

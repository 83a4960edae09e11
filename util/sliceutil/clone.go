package sliceutil

// Clone returns a copy of s backed by a new array. A nil s clones to nil.
func Clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	clone := make([]T, len(s))
	copy(clone, s)
	return clone
}

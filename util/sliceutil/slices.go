package sliceutil

// IndexPointerFunc returns the index of the first element in s for which
// match returns true, given a pointer to that element, or -1 if none match.
func IndexPointerFunc[T any](s []T, match func(v *T) bool) int {
	for i := range s {
		if match(&s[i]) {
			return i
		}
	}
	return -1
}

// DeletePointerFunc removes every element of s for which match returns true,
// given a pointer to that element, preserving order of the remaining elements.
func DeletePointerFunc[T any](s []T, match func(v *T) bool) []T {
	kept := s[:0]
	for i := range s {
		if !match(&s[i]) {
			kept = append(kept, s[i])
		}
	}
	return kept
}

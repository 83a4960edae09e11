package errortypes

// Severity represents how much a fetch/parse/select/track error should
// concern a caller deciding whether to keep trying other candidates or to
// give up.
type Severity int

const (
	// SeverityUnknown is reported for an error that does not implement Coder.
	SeverityUnknown Severity = iota

	// SeverityFatal marks a candidate as genuinely broken: a transport
	// failure, invalid XML, a missing required field, or similar.
	SeverityFatal

	// SeverityWarning marks an outcome that is expected noise on the way to
	// a working candidate: an empty response, a filter rejection, or a
	// caller-initiated cancellation.
	SeverityWarning
)

func isFatal(err error) bool {
	s, ok := err.(Coder)
	return !ok || s.Severity() == SeverityFatal
}

// IsWarning returns true if err is labeled with a Severity of
// SeverityWarning. Every *FetchError built from KindNoContent,
// KindFilterRejected, or KindCancelled is a Warning.
func IsWarning(err error) bool {
	s, ok := err.(Coder)
	return ok && s.Severity() == SeverityWarning
}

// ContainsFatalError checks if the error list contains a fatal error.
func ContainsFatalError(errors []error) bool {
	for _, err := range errors {
		if isFatal(err) {
			return true
		}
	}

	return false
}

// FatalOnly returns a new error list with only the fatal severity errors.
func FatalOnly(errs []error) []error {
	errsFatal := make([]error, 0, len(errs))

	for _, err := range errs {
		if isFatal(err) {
			errsFatal = append(errsFatal, err)
		}
	}

	return errsFatal
}

// WarningOnly returns a new error list with only the warning severity errors.
func WarningOnly(errs []error) []error {
	errsWarning := make([]error, 0, len(errs))

	for _, err := range errs {
		if IsWarning(err) {
			errsWarning = append(errsWarning, err)
		}
	}

	return errsWarning
}

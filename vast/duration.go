package vast

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseDuration parses a VAST duration string in "HH:MM:SS" or
// "HH:MM:SS.mmm" form into whole seconds, rounding half to even
// (spec.md §4.4). A negative or malformed input is an error.
func ParseDuration(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("vast: empty duration")
	}

	frac := 0.0
	whole := s
	if idx := strings.IndexByte(s, '.'); idx != -1 {
		whole = s[:idx]
		msDigits := s[idx+1:]
		if msDigits != "" {
			ms, err := strconv.Atoi(msDigits)
			if err != nil {
				return 0, fmt.Errorf("vast: invalid duration %q: %w", s, err)
			}
			frac = float64(ms) / math.Pow(10, float64(len(msDigits)))
		}
	}

	parts := strings.Split(whole, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("vast: invalid duration %q: expected HH:MM:SS", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("vast: invalid duration %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("vast: invalid duration %q: %w", s, err)
	}
	sec, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, fmt.Errorf("vast: invalid duration %q: %w", s, err)
	}
	if h < 0 || m < 0 || sec < 0 {
		return 0, fmt.Errorf("vast: invalid duration %q: negative component", s)
	}

	total := float64(h*3600+m*60+sec) + frac
	return int(math.RoundToEven(total)), nil
}

// FormatDuration renders seconds as "HH:MM:SS", clamping negative input to
// zero. Also known as SecToHHMMSS in its grounding file.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds / 60) % 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// SecToHHMMSS is an alias for FormatDuration, named to match the helper
// vast/skeleton.go's builders call directly.
func SecToHHMMSS(seconds int) string { return FormatDuration(seconds) }

// ParseSignedDuration is ParseDuration but accepts a leading "-" for
// progress-offset attributes that name a point before the creative's end
// (spec.md §9 open question 4 / SPEC_FULL.md's resolution: "fire at
// duration + offset" for a negative offset).
func ParseSignedDuration(s string) (int, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		secs, err := ParseDuration(s[1:])
		if err != nil {
			return 0, err
		}
		return -secs, nil
	}
	return ParseDuration(s)
}

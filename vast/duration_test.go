package vast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDurationWholeSeconds(t *testing.T) {
	secs, err := ParseDuration("00:01:05")
	require.NoError(t, err)
	assert.Equal(t, 65, secs)
}

func TestParseDurationRoundsHalfToEven(t *testing.T) {
	// 0.5 rounds to even: 10.5 -> 10, 11.5 -> 12
	secs, err := ParseDuration("00:00:10.500")
	require.NoError(t, err)
	assert.Equal(t, 10, secs)

	secs, err = ParseDuration("00:00:11.500")
	require.NoError(t, err)
	assert.Equal(t, 12, secs)
}

func TestParseDurationRejectsMalformed(t *testing.T) {
	_, err := ParseDuration("not-a-duration")
	assert.Error(t, err)

	_, err = ParseDuration("")
	assert.Error(t, err)

	_, err = ParseDuration("1:2")
	assert.Error(t, err)
}

func TestFormatDurationRoundTrip(t *testing.T) {
	for _, secs := range []int{0, 5, 65, 3661} {
		formatted := FormatDuration(secs)
		parsed, err := ParseDuration(formatted)
		require.NoError(t, err)
		assert.Equal(t, secs, parsed)
	}
}

func TestFormatDurationClampsNegative(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatDuration(-30))
}

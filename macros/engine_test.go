package macros

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pv-udpv/vast-client/util/randomutil"
	"github.com/pv-udpv/vast-client/util/timeutil"
)

func newTestEngine(t *testing.T) (*Engine, *timeutil.Virtual) {
	t.Helper()
	v, err := timeutil.NewVirtualAt(time.Unix(1700000000, 0), 1.0)
	require.NoError(t, err)
	return NewEngine(v, randomutil.NewSeeded(42)), v
}

func TestSubstituteBracketsBeforeBraces(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := Context{Explicit: Map{"NAME": "${NESTED}", "NESTED": "world"}}

	got := e.Substitute("hello [NAME]", ctx)
	assert.Equal(t, "hello world", got)
}

func TestSubstituteMissingNameLeftUntouched(t *testing.T) {
	e, _ := newTestEngine(t)
	got := e.Substitute("http://t.example/?x=[MISSING]&y=${ALSO_MISSING}", Context{})
	assert.Equal(t, "http://t.example/?x=[MISSING]&y=${ALSO_MISSING}", got)
}

func TestSubstitutePrecedenceExplicitOverridesEverything(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := Context{
		Static:    Map{"NAME": "static"},
		AdRequest: Map{"NAME": "adrequest"},
		Explicit:  Map{"NAME": "explicit"},
	}
	assert.Equal(t, "explicit", e.Substitute("[NAME]", ctx))
}

func TestSubstitutePrecedenceAdRequestOverStatic(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := Context{
		Static:    Map{"NAME": "static"},
		AdRequest: Map{"NAME": "adrequest"},
	}
	assert.Equal(t, "adrequest", e.Substitute("[NAME]", ctx))
}

func TestSubstituteNestedDottedPath(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := Context{AdRequest: Map{"user": Map{"geo": Map{"country": "US"}}}}
	assert.Equal(t, "US", e.Substitute("${user.geo.country}", ctx))
}

func TestSubstituteContentPlayheadFormat(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := Context{ContentPlayhead: 65*time.Second + 250*time.Millisecond}
	assert.Equal(t, "00:01:05.250", e.Substitute("[CONTENTPLAYHEAD]", ctx))
}

func TestSubstituteTimestampAdvancesBetweenCalls(t *testing.T) {
	e, v := newTestEngine(t)
	first := e.Substitute("[TIMESTAMP]", Context{})
	v.Advance(time.Hour)
	second := e.Substitute("[TIMESTAMP]", Context{})
	assert.NotEqual(t, first, second)
}

func TestSubstituteCachesIdenticalFingerprint(t *testing.T) {
	e, v := newTestEngine(t)
	v2, err := timeutil.NewVirtualAt(v.Now(), 1.0)
	require.NoError(t, err)
	_ = v2

	ctx := Context{Static: Map{"NAME": "same"}}
	first := e.Substitute("[NAME]", ctx)
	second := e.Substitute("[NAME]", ctx)
	assert.Equal(t, first, second)
}

func TestFingerprintIsOrderIndependent(t *testing.T) {
	a := Map{"A": "1", "B": "2"}
	b := Map{"B": "2", "A": "1"}
	assert.Equal(t, fingerprint(a), fingerprint(b))
}

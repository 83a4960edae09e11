package macros

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pv-udpv/vast-client/util/randomutil"
	"github.com/pv-udpv/vast-client/util/timeutil"
)

// Builtin macro names, auto-resolved fresh on every Substitute call.
// Grounded on the MacroKey* constants in macros/provider.go, replaced
// with the automatic macros spec.md §4.3 requires.
const (
	MacroCachebuster     = "CACHEBUSTER"
	MacroTimestamp       = "TIMESTAMP"
	MacroContentPlayhead = "CONTENTPLAYHEAD"
)

// Context holds the inputs to one Substitute call, already separated by
// precedence tier. Per spec.md §9 Open Question 2, the precedence from
// highest to lowest is: Explicit > automatic builtins > AdRequest > Static.
type Context struct {
	// Explicit macros passed by the caller for this one call; highest
	// precedence, overrides everything including the builtins below.
	Explicit Map
	// AdRequest is the caller's ad-request context (flat or nested);
	// resolved via dotted paths, below builtins but above Static.
	AdRequest Map
	// Static are provider-level static macros; lowest precedence.
	Static Map
	// ContentPlayhead is the current playback offset, used to resolve the
	// CONTENTPLAYHEAD builtin as HH:MM:SS.mmm.
	ContentPlayhead time.Duration
}

// merged layers the four precedence tiers into one lookup map, builtins
// computed fresh from clock and rng so CACHEBUSTER/TIMESTAMP differ call to
// call even for an identical template and explicit/static macro set.
func merged(ctx Context, clock timeutil.Clock, rng randomutil.Generator) Map {
	out := Map{}
	for k, v := range ctx.Static {
		out[k] = v
	}
	for k, v := range ctx.AdRequest {
		out[k] = v
	}
	out[MacroCachebuster] = strconv.FormatInt(rng.GenerateInt63(), 10)
	out[MacroTimestamp] = strconv.FormatInt(clock.Now().Unix(), 10)
	out[MacroContentPlayhead] = formatPlayhead(ctx.ContentPlayhead)
	for k, v := range ctx.Explicit {
		out[k] = v
	}
	return out
}

func formatPlayhead(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := d.Milliseconds()
	ms := total % 1000
	totalSeconds := total / 1000
	s := totalSeconds % 60
	m := (totalSeconds / 60) % 60
	h := totalSeconds / 3600
	return pad2(h) + ":" + pad2(m) + ":" + pad2(s) + "." + pad3(ms)
}

func pad2(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) < 2 {
		return strings.Repeat("0", 2-len(s)) + s
	}
	return s
}

func pad3(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) < 3 {
		return strings.Repeat("0", 3-len(s)) + s
	}
	return s
}

// fingerprint produces a stable string identifying the content of m, used
// to key the per-trackable substitution cache (spec.md §4.3: "cached per
// (template, macro-map-fingerprint)"). Order-independent: two maps with the
// same key/value pairs fingerprint identically regardless of Go's random
// map iteration order.
func fingerprint(m Map) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(stringify(m[k]))
		b.WriteByte('\x1f')
	}
	return b.String()
}

package macros

import (
	"sync"

	"github.com/pv-udpv/vast-client/util/randomutil"
	"github.com/pv-udpv/vast-client/util/timeutil"
)

// Engine substitutes macros in template strings. It supports the two
// syntactic forms spec.md §4.3 requires: "[NAME]" is replaced first, then
// "${NAME}" is replaced in what remains. Missing names are left untouched.
//
// Grounded on the Replacer/stringBasedProcessor split
// (macros/replacer.go, macros/processor/stringBasedProcessor.go): same
// per-template-structure cache to avoid re-scanning delimiters on every
// retry of the same tracking URL, generalized from one "##NAME##" delimiter
// to the bracket/brace pair above, plus a result-level cache keyed by
// (template, macro fingerprint) within one trackable's lifetime.
type Engine struct {
	clock timeutil.Clock
	rng   randomutil.Generator

	brackets *templateCache
	braces   *templateCache

	mu      sync.RWMutex
	results map[resultKey]string
}

type resultKey struct {
	template    string
	fingerprint string
}

// NewEngine returns a macro Engine. clock and rng supply the CACHEBUSTER
// and TIMESTAMP builtins; pass a deterministic clock/rng pair in tests.
func NewEngine(clock timeutil.Clock, rng randomutil.Generator) *Engine {
	return &Engine{
		clock:    clock,
		rng:      rng,
		brackets: newTemplateCache("[", "]"),
		braces:   newTemplateCache("${", "}"),
		results:  make(map[resultKey]string),
	}
}

// Substitute applies ctx's macros to template, returning the fully
// substituted string. Repeated calls with an identical template and an
// identical macro fingerprint (same Explicit/AdRequest/Static content, same
// ContentPlayhead) return the cached result without rescanning the
// template — the builtins CACHEBUSTER/TIMESTAMP are still folded into that
// fingerprint, so a genuinely fresh call (new random/time) always recomputes.
func (e *Engine) Substitute(template string, ctx Context) string {
	macros := merged(ctx, e.clock, e.rng)
	fp := fingerprint(macros)
	key := resultKey{template: template, fingerprint: fp}

	e.mu.RLock()
	if cached, ok := e.results[key]; ok {
		e.mu.RUnlock()
		return cached
	}
	e.mu.RUnlock()

	resolve := func(name string) (string, bool) { return lookup(macros, name) }

	afterBrackets := applyTemplate(template, e.brackets.get(template), resolve)
	result := applyTemplate(afterBrackets, e.braces.get(afterBrackets), resolve)

	e.mu.Lock()
	e.results[key] = result
	e.mu.Unlock()
	return result
}

// Reset discards all cached results and template parses. Call this between
// trackables that do not share a creative, to bound cache growth over a
// long-running client.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.results = make(map[resultKey]string)
	e.mu.Unlock()

	e.brackets = newTemplateCache("[", "]")
	e.braces = newTemplateCache("${", "}")
}

package vastconfig

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Resolver merges the four precedence levels into a validated Config,
// memoizing by a fingerprint of the four input layers so repeated
// resolution on a hot request path (spec.md §4.11's "avoid re-merging on
// hot paths") is a cache lookup rather than four merge passes. Mirrors the
// Engine's resultKey-cache shape in macros/replacer.go, generalized from a
// single template string to four override layers.
type Resolver struct {
	mu    sync.Mutex
	cache map[string]Config
}

// NewResolver returns a Resolver with an empty cache.
func NewResolver() *Resolver {
	return &Resolver{cache: make(map[string]Config)}
}

// Resolve merges global < provider < publisher < perCall (lowest to
// highest precedence) starting from Defaults(), validates the result, and
// returns it. Any of the four override layers may be nil.
func (r *Resolver) Resolve(global, provider, publisher, perCall *Override) (Config, error) {
	key := fingerprint(global, provider, publisher, perCall)

	r.mu.Lock()
	if cached, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	resolved := Defaults()
	mergeInto(&resolved, global)
	mergeInto(&resolved, provider)
	mergeInto(&resolved, publisher)
	mergeInto(&resolved, perCall)

	if err := Validate(resolved); err != nil {
		return Config{}, err
	}

	r.mu.Lock()
	r.cache[key] = resolved
	r.mu.Unlock()

	return resolved, nil
}

// Clear empties the memoization cache.
func (r *Resolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]Config)
}

// fingerprint serializes the four override layers to JSON and concatenates
// them; two calls with structurally identical overrides produce the same
// key regardless of which *Override pointers were passed.
func fingerprint(layers ...*Override) string {
	out := make([]byte, 0, 256)
	for i, layer := range layers {
		data, err := json.Marshal(layer)
		if err != nil {
			// Override is built entirely from this package's own types;
			// Marshal failing here would mean a programming error, not a
			// runtime condition callers need to recover from.
			panic(fmt.Sprintf("vastconfig: override layer %d is not marshalable: %v", i, err))
		}
		out = append(out, byte(i))
		out = append(out, data...)
	}
	return string(out)
}

package vastconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseGlobal() *Override {
	return &Override{
		Sources: &ListOverride[string]{Values: []string{"https://global.example/vast.xml"}},
		QueryParams: map[string]string{
			"fmt": "vast4",
			"cb":  "1",
		},
		Strategy: &StrategyOverride{
			PerSourceTimeout: durPtr(2 * time.Second),
		},
	}
}

func TestResolveAppliesFourLevelPrecedence(t *testing.T) {
	r := NewResolver()

	global := baseGlobal()
	provider := &Override{
		Strategy: &StrategyOverride{Mode: modePtr(ModeParallel)},
	}
	publisher := &Override{
		QueryParams: map[string]string{"cb": "2"},
	}
	perCall := &Override{
		Sources: &ListOverride[string]{Values: []string{"https://percall.example/vast.xml"}},
	}

	cfg, err := r.Resolve(global, provider, publisher, perCall)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://percall.example/vast.xml"}, cfg.Sources)
	assert.Equal(t, ModeParallel, cfg.Strategy.Mode)
	assert.Equal(t, 2*time.Second, cfg.Strategy.PerSourceTimeout)
	assert.Equal(t, "vast4", cfg.QueryParams["fmt"])
	assert.Equal(t, "2", cfg.QueryParams["cb"], "publisher overrides global for the same key")
}

func TestResolveAppendOverride(t *testing.T) {
	r := NewResolver()

	global := &Override{
		Sources: &ListOverride[string]{Values: []string{"a"}},
	}
	perCall := &Override{
		Sources: &ListOverride[string]{Values: []string{"b"}, Append: true},
	}

	cfg, err := r.Resolve(global, nil, nil, perCall)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cfg.Sources)
}

func TestResolveRejectsInvalidConfig(t *testing.T) {
	r := NewResolver()
	global := &Override{
		Sources: &ListOverride[string]{Values: []string{"a"}},
		Strategy: &StrategyOverride{
			BackoffMultiplier: floatPtr(0.5),
		},
	}
	_, err := r.Resolve(global, nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backoff_multiplier")
}

func TestResolveCachesByFingerprint(t *testing.T) {
	r := NewResolver()
	global := baseGlobal()

	first, err := r.Resolve(global, nil, nil, nil)
	require.NoError(t, err)

	// A structurally identical but distinct Override pointer must hit the
	// same cache entry.
	second, err := r.Resolve(baseGlobal(), nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, r.cache, 1)
}

func TestResolveClearEmptiesCache(t *testing.T) {
	r := NewResolver()
	global := baseGlobal()

	_, err := r.Resolve(global, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, r.cache, 1)

	r.Clear()
	assert.Len(t, r.cache, 0)
}

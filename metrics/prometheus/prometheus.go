// Package prometheusmetrics backs metrics.Collector with a Prometheus
// registry, grounded on metrics/prometheus/prometheus.go's
// newCounter/newHistogramVec construction-helper style, generalized from a
// fixed set of named fields to an arbitrary name+label-set Collector call.
package prometheusmetrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pv-udpv/vast-client/metrics"
)

// Metrics backs metrics.Collector with a Prometheus registry. Vectors are
// created lazily, keyed by metric name plus the sorted label-key set seen
// on the first call for that name; every subsequent call for the same name
// must carry the same label keys (the one constraint Prometheus itself
// imposes on a CounterVec/HistogramVec/GaugeVec).
type Metrics struct {
	Registry *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	gauges     map[string]*prometheus.GaugeVec
}

// NewMetrics returns a Metrics collector backed by a fresh registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Registry:   prometheus.NewRegistry(),
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}
}

// New wraps Metrics as a metrics.Collector, composing alongside
// metrics.NewGoMetrics as the client facade's alternate real-metrics
// backend.
func New(m *Metrics) metrics.Collector {
	return m
}

func vecKey(name string, keys []string) string {
	return name + "|" + strings.Join(keys, ",")
}

func (m *Metrics) counterVec(name string, keys []string) *prometheus.CounterVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := vecKey(name, keys)
	if vec, ok := m.counters[key]; ok {
		return vec
	}
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: sanitize(name), Help: name}, keys)
	m.Registry.MustRegister(vec)
	m.counters[key] = vec
	return vec
}

func (m *Metrics) histogramVec(name string, keys []string) *prometheus.HistogramVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := vecKey(name, keys)
	if vec, ok := m.histograms[key]; ok {
		return vec
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: sanitize(name), Help: name}, keys)
	m.Registry.MustRegister(vec)
	m.histograms[key] = vec
	return vec
}

func (m *Metrics) gaugeVec(name string, keys []string) *prometheus.GaugeVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := vecKey(name, keys)
	if vec, ok := m.gauges[key]; ok {
		return vec
	}
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: sanitize(name), Help: name}, keys)
	m.Registry.MustRegister(vec)
	m.gauges[key] = vec
	return vec
}

func (m *Metrics) IncrCounter(name string, labels ...metrics.Label) {
	keys := metrics.SortedKeys(labels)
	values := labelMap(keys, labels)
	m.counterVec(name, keys).With(values).Inc()
}

func (m *Metrics) ObserveHistogram(name string, value float64, labels ...metrics.Label) {
	keys := metrics.SortedKeys(labels)
	values := labelMap(keys, labels)
	m.histogramVec(name, keys).With(values).Observe(value)
}

func (m *Metrics) SetGauge(name string, value float64, labels ...metrics.Label) {
	keys := metrics.SortedKeys(labels)
	values := labelMap(keys, labels)
	m.gaugeVec(name, keys).With(values).Set(value)
}

func labelMap(keys []string, labels []metrics.Label) prometheus.Labels {
	byKey := make(map[string]string, len(labels))
	for _, l := range labels {
		byKey[l.Key] = l.Value
	}
	out := make(prometheus.Labels, len(keys))
	for _, k := range keys {
		out[k] = byKey[k]
	}
	return out
}

// sanitize replaces characters Prometheus metric names disallow. VAST
// metric names in this module are already snake_case, so this only guards
// against stray separators like "." sneaking in from callers.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

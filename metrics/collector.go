// Package metrics defines the pluggable metrics seam the orchestrator,
// fetcher, and tracker emit through. Grounded on metrics/nometrics.go's
// no-op default and metrics/meter_metrics.go's registry-backed pattern,
// generalized from a fixed auction/adapter metric surface to an arbitrary
// counter/histogram/gauge interface keyed by name and label pairs.
package metrics

// Label is a single name/value pair attached to a metric observation.
type Label struct {
	Key   string
	Value string
}

// Collector is the metrics seam every core component depends on. A no-op
// implementation is the client facade's default; callers that want real
// metrics supply a go-metrics- or Prometheus-backed Collector.
type Collector interface {
	IncrCounter(name string, labels ...Label)
	ObserveHistogram(name string, value float64, labels ...Label)
	SetGauge(name string, value float64, labels ...Label)
}

type noop struct{}

// NewNoop returns a Collector that discards every observation. This is the
// client facade's default, mirroring nilPBSMetrics's role in
// metrics/nometrics.go.
func NewNoop() Collector {
	return noop{}
}

func (noop) IncrCounter(name string, labels ...Label)                       {}
func (noop) ObserveHistogram(name string, value float64, labels ...Label) {}
func (noop) SetGauge(name string, value float64, labels ...Label)          {}

package metrics

import (
	gometrics "github.com/rcrowley/go-metrics"
)

// goMetricsCollector backs Collector with an rcrowley/go-metrics registry,
// grounded on metrics/meter_metrics.go's GetOrRegisterMeter/Histogram
// pattern: metric identity comes from a dotted name built from the base
// name plus sorted label values (go-metrics has no native label-vector
// concept), and each distinct name+label combination lazily registers its
// own meter/histogram/gauge on first use.
type goMetricsCollector struct {
	registry gometrics.Registry
}

// NewGoMetrics wraps registry as a Collector. A nil registry uses
// go-metrics' global default registry.
func NewGoMetrics(registry gometrics.Registry) Collector {
	if registry == nil {
		registry = gometrics.DefaultRegistry
	}
	return &goMetricsCollector{registry: registry}
}

func (c *goMetricsCollector) IncrCounter(name string, labels ...Label) {
	meter := gometrics.GetOrRegisterMeter(Suffix(name, labels), c.registry)
	meter.Mark(1)
}

func (c *goMetricsCollector) ObserveHistogram(name string, value float64, labels ...Label) {
	sample := gometrics.NewExpDecaySample(1028, 0.015)
	histogram := gometrics.GetOrRegisterHistogram(Suffix(name, labels), c.registry, sample)
	histogram.Update(int64(value))
}

func (c *goMetricsCollector) SetGauge(name string, value float64, labels ...Label) {
	gauge := gometrics.GetOrRegisterGaugeFloat64(Suffix(name, labels), c.registry)
	gauge.Update(value)
}

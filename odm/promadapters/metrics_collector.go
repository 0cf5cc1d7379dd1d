// Package promadapters provides a Prometheus implementation of the odm metrics interfaces.
// It lets users expose repository metrics through an existing Prometheus registry
// without implementing the interfaces themselves.
package promadapters

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AntonStoeckl/schemaless-documents-odm-go/odm"
)

// Default histogram buckets for operation latency metrics (in seconds).
var defaultBuckets = []float64{
	.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10,
}

// MetricsCollector implements odm.MetricsCollector using Prometheus instruments:
//   - RecordDuration -> HistogramVec (for measuring operation durations)
//   - IncrementCounter -> CounterVec (for counting operations and errors)
//   - RecordValue -> GaugeVec (for current values like documents read)
//
// Instruments are created and registered lazily on first use. The label names
// of an instrument are fixed by the labels of its first observation;
// observations with a different label set are dropped.
type MetricsCollector struct {
	registerer prometheus.Registerer
	mu         sync.Mutex
	histograms map[string]*prometheus.HistogramVec
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
}

// NewMetricsCollector creates a new Prometheus metrics collector registering
// its instruments with the given registerer. A nil registerer falls back to
// the Prometheus default registerer.
func NewMetricsCollector(registerer prometheus.Registerer) *MetricsCollector {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &MetricsCollector{
		registerer: registerer,
		histograms: make(map[string]*prometheus.HistogramVec),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}
}

// RecordDuration records a duration measurement in seconds using a Prometheus histogram.
func (m *MetricsCollector) RecordDuration(metricName string, duration time.Duration, labels map[string]string) {
	histogram := m.getOrCreateHistogram(metricName, labelKeys(labels))
	if histogram == nil {
		return
	}

	observer, err := histogram.GetMetricWith(labels)
	if err != nil {
		return
	}

	observer.Observe(duration.Seconds())
}

// RecordDurationContext records a duration measurement, ignoring the context.
// Prometheus instruments carry no context; this variant exists so the collector
// satisfies odm.ContextualMetricsCollector.
func (m *MetricsCollector) RecordDurationContext(_ context.Context, metricName string, duration time.Duration, labels map[string]string) {
	m.RecordDuration(metricName, duration, labels)
}

// IncrementCounter increments a Prometheus counter.
func (m *MetricsCollector) IncrementCounter(metricName string, labels map[string]string) {
	counter := m.getOrCreateCounter(metricName, labelKeys(labels))
	if counter == nil {
		return
	}

	counterMetric, err := counter.GetMetricWith(labels)
	if err != nil {
		return
	}

	counterMetric.Inc()
}

// IncrementCounterContext increments a counter, ignoring the context.
func (m *MetricsCollector) IncrementCounterContext(_ context.Context, metricName string, labels map[string]string) {
	m.IncrementCounter(metricName, labels)
}

// RecordValue records a float64 value using a Prometheus gauge.
func (m *MetricsCollector) RecordValue(metricName string, value float64, labels map[string]string) {
	gauge := m.getOrCreateGauge(metricName, labelKeys(labels))
	if gauge == nil {
		return
	}

	gaugeMetric, err := gauge.GetMetricWith(labels)
	if err != nil {
		return
	}

	gaugeMetric.Set(value)
}

// RecordValueContext records a float64 value, ignoring the context.
func (m *MetricsCollector) RecordValueContext(_ context.Context, metricName string, value float64, labels map[string]string) {
	m.RecordValue(metricName, value, labels)
}

// getOrCreateHistogram gets an existing histogram vec or creates and registers a new one.
func (m *MetricsCollector) getOrCreateHistogram(name string, labelNames []string) *prometheus.HistogramVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if histogram, exists := m.histograms[name]; exists {
		return histogram
	}

	histogram := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name,
		Help:    "Document store operation duration in seconds",
		Buckets: defaultBuckets,
	}, labelNames)

	if err := m.registerer.Register(histogram); err != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if !errors.As(err, &alreadyRegistered) {
			return nil
		}

		existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil
		}

		histogram = existing
	}

	m.histograms[name] = histogram
	return histogram
}

// getOrCreateCounter gets an existing counter vec or creates and registers a new one.
func (m *MetricsCollector) getOrCreateCounter(name string, labelNames []string) *prometheus.CounterVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if counter, exists := m.counters[name]; exists {
		return counter
	}

	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: "Document store operation counter",
	}, labelNames)

	if err := m.registerer.Register(counter); err != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if !errors.As(err, &alreadyRegistered) {
			return nil
		}

		existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil
		}

		counter = existing
	}

	m.counters[name] = counter
	return counter
}

// getOrCreateGauge gets an existing gauge vec or creates and registers a new one.
func (m *MetricsCollector) getOrCreateGauge(name string, labelNames []string) *prometheus.GaugeVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gauge, exists := m.gauges[name]; exists {
		return gauge
	}

	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: name,
		Help: "Document store current value",
	}, labelNames)

	if err := m.registerer.Register(gauge); err != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if !errors.As(err, &alreadyRegistered) {
			return nil
		}

		existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.GaugeVec)
		if !ok {
			return nil
		}

		gauge = existing
	}

	m.gauges[name] = gauge
	return gauge
}

// labelKeys extracts the sorted label names of a labels map.
func labelKeys(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for key := range labels {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}

// Ensure MetricsCollector implements odm.MetricsCollector.
var _ odm.MetricsCollector = (*MetricsCollector)(nil)

// Ensure MetricsCollector implements odm.ContextualMetricsCollector.
var _ odm.ContextualMetricsCollector = (*MetricsCollector)(nil)

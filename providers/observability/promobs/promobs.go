package promobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/leofalp/batchcalc/providers/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultBuckets are the histogram buckets used when none are configured.
// They cover poll loops from sub-second fakes up to a day-long batch.
var DefaultBuckets = []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600, 21600, 86400}

// Metrics implements observability.Metrics on top of a Prometheus registry.
type Metrics struct {
	registerer prometheus.Registerer
	labels     map[string][]string
	buckets    map[string][]float64
	help       map[string]string

	mu         sync.Mutex
	counters   map[string]*counter
	histograms map[string]*histogram
}

// Ensure Metrics implements observability.Metrics
var _ observability.Metrics = (*Metrics)(nil)

// Option configures Metrics.
type Option func(*Metrics)

// WithLabels declares the attribute keys that become labels of metric name.
func WithLabels(name string, attrKeys ...string) Option {
	return func(m *Metrics) {
		m.labels[name] = append([]string{}, attrKeys...)
	}
}

// WithBuckets overrides the histogram buckets of metric name.
func WithBuckets(name string, buckets ...float64) Option {
	return func(m *Metrics) {
		m.buckets[name] = append([]float64{}, buckets...)
	}
}

// WithHelp sets the help text of metric name.
func WithHelp(name, help string) Option {
	return func(m *Metrics) {
		m.help[name] = help
	}
}

// New creates Metrics registering its collectors on registerer. A nil
// registerer falls back to prometheus.DefaultRegisterer.
//
// The batch metrics defined in the observability package come preconfigured
// with their labels and help texts; options override them.
func New(registerer prometheus.Registerer, opts ...Option) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		registerer: registerer,
		labels: map[string][]string{
			observability.MetricItemsResolved: {observability.AttrItemOutcome},
			observability.MetricPollDuration:  {observability.AttrBatchStatus},
		},
		buckets: map[string][]float64{},
		help: map[string]string{
			observability.MetricBatchesSubmitted: "Number of batches submitted.",
			observability.MetricPollRequests:     "Number of batch status requests issued while polling.",
			observability.MetricPollRetries:      "Number of failed batch status requests that were retried.",
			observability.MetricItemsResolved:    "Number of batch items resolved, by outcome.",
			observability.MetricPollDuration:     "Time spent polling a batch until it ended or polling stopped.",
		},
		counters:   make(map[string]*counter),
		histograms: make(map[string]*histogram),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Counter returns the counter called name, registering it on first use.
func (m *Metrics) Counter(name string) observability.Counter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.counters[name]; ok {
		return c
	}

	keys := m.labels[name]
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: SanitizeName(name),
		Help: m.helpFor(name),
	}, labelNames(keys))
	c := &counter{vec: register(m.registerer, vec), keys: keys}
	m.counters[name] = c
	return c
}

// Histogram returns the histogram called name, registering it on first use.
func (m *Metrics) Histogram(name string) observability.Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.histograms[name]; ok {
		return h
	}

	buckets, ok := m.buckets[name]
	if !ok {
		buckets = DefaultBuckets
	}
	keys := m.labels[name]
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    SanitizeName(name),
		Help:    m.helpFor(name),
		Buckets: buckets,
	}, labelNames(keys))
	h := &histogram{vec: register(m.registerer, vec), keys: keys}
	m.histograms[name] = h
	return h
}

func (m *Metrics) helpFor(name string) string {
	if help, ok := m.help[name]; ok {
		return help
	}
	return fmt.Sprintf("%s metric.", name)
}

// register adds collector to registerer. When an identical collector is
// already registered (a second Metrics on the same registry) the existing one
// is reused.
func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) C {
	if err := registerer.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		slog.Warn("promobs: collector registration failed", "error", err)
	}
	return collector
}

type counter struct {
	vec  *prometheus.CounterVec
	keys []string
}

// Add increments the counter. Negative values are ignored since Prometheus
// counters only go up.
func (c *counter) Add(_ context.Context, value int64, attrs ...observability.Attribute) {
	if value < 0 {
		return
	}
	c.vec.WithLabelValues(labelValues(c.keys, attrs)...).Add(float64(value))
}

type histogram struct {
	vec  *prometheus.HistogramVec
	keys []string
}

func (h *histogram) Record(_ context.Context, value float64, attrs ...observability.Attribute) {
	h.vec.WithLabelValues(labelValues(h.keys, attrs)...).Observe(value)
}

func labelNames(keys []string) []string {
	names := make([]string, len(keys))
	for i, key := range keys {
		names[i] = SanitizeName(key)
	}
	return names
}

// labelValues picks the value of every declared key from attrs, in key order.
// Keys without a matching attribute get an empty value.
func labelValues(keys []string, attrs []observability.Attribute) []string {
	values := make([]string, len(keys))
	for i, key := range keys {
		for _, attr := range attrs {
			if attr.Key == key {
				values[i] = fmt.Sprint(attr.Value)
			}
		}
	}
	return values
}

// SanitizeName maps s onto the Prometheus metric and label name alphabet.
func SanitizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

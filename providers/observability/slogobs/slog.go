package slogobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/leofalp/batchcalc/providers/observability"
)

// Observer implements observability.Provider using log/slog.
type Observer struct {
	logger  *slog.Logger
	metrics observability.Metrics
}

// Ensure Observer implements observability.Provider
var _ observability.Provider = (*Observer)(nil)

// New creates a slog-based observer. Without options it writes compact lines
// to stderr at the level named by BATCHCALC_LOG_LEVEL (INFO when unset).
//
//	observer := slogobs.New(
//	    slogobs.WithFormat(slogobs.FormatJSON),
//	    slogobs.WithMetrics(promobs.New(registry)),
//	)
func New(opts ...Option) *Observer {
	cfg := applyOptions(opts...)

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(NewHandler(&HandlerOptions{
			Format: cfg.format,
			Level:  cfg.level,
			Output: cfg.output,
		}))
	}

	metrics := cfg.metrics
	if metrics == nil {
		metrics = newMetricsStore(logger)
	}

	return &Observer{
		logger:  logger,
		metrics: metrics,
	}
}

// Logger returns the underlying slog.Logger.
func (o *Observer) Logger() *slog.Logger {
	return o.logger
}

// --- TRACING ---

// StartSpan begins a named span, logs its start at debug level and returns a
// context carrying the span.
func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	span := &slogSpan{
		name:      name,
		startTime: time.Now(),
		logger:    o.logger,
		attrs:     append([]observability.Attribute{}, attrs...),
	}

	o.logger.LogAttrs(ctx, slog.LevelDebug, "Span started",
		append([]slog.Attr{slog.String("span", name)}, toSlogAttrs(attrs)...)...)

	return observability.ContextWithSpan(ctx, span), span
}

type slogSpan struct {
	name      string
	startTime time.Time
	logger    *slog.Logger
	mu        sync.Mutex
	attrs     []observability.Attribute
	status    observability.StatusCode
	ended     bool
}

// End logs the span duration together with every attribute collected so far.
// Calls after the first are ignored.
func (s *slogSpan) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return
	}
	s.ended = true

	logAttrs := []slog.Attr{
		slog.String("span", s.name),
		slog.Duration(observability.AttrDuration, time.Since(s.startTime)),
	}
	logAttrs = append(logAttrs, toSlogAttrs(s.attrs)...)

	level := slog.LevelDebug
	if s.status == observability.StatusError {
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(context.Background(), level, "Span ended", logAttrs...)
}

func (s *slogSpan) SetAttributes(attrs ...observability.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, attrs...)
}

func (s *slogSpan) SetStatus(code observability.StatusCode, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = code
	statusStr := "unset"
	switch code {
	case observability.StatusOK:
		statusStr = "ok"
	case observability.StatusError:
		statusStr = "error"
	}

	s.attrs = append(s.attrs, observability.String(observability.AttrStatus, statusStr))
	if description != "" {
		s.attrs = append(s.attrs, observability.String(observability.AttrStatusDescription, description))
	}
}

// RecordError attaches err to the span; it is reported when the span ends.
func (s *slogSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, observability.Error(err))
}

func (s *slogSpan) AddEvent(name string, attrs ...observability.Attribute) {
	logAttrs := append([]slog.Attr{slog.String("span", s.name), slog.String("event", name)}, toSlogAttrs(attrs)...)
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "Span event", logAttrs...)
}

// --- METRICS ---

func (o *Observer) Counter(name string) observability.Counter {
	return o.metrics.Counter(name)
}

func (o *Observer) Histogram(name string) observability.Histogram {
	return o.metrics.Histogram(name)
}

// metricsStore keeps counters in memory and echoes every update at debug
// level. It is the fallback when no metrics backend is configured.
type metricsStore struct {
	logger     *slog.Logger
	mu         sync.Mutex
	counters   map[string]*slogCounter
	histograms map[string]*slogHistogram
}

func newMetricsStore(logger *slog.Logger) *metricsStore {
	return &metricsStore{
		logger:     logger,
		counters:   make(map[string]*slogCounter),
		histograms: make(map[string]*slogHistogram),
	}
}

func (m *metricsStore) Counter(name string) observability.Counter {
	m.mu.Lock()
	defer m.mu.Unlock()

	counter, ok := m.counters[name]
	if !ok {
		counter = &slogCounter{name: name, logger: m.logger}
		m.counters[name] = counter
	}
	return counter
}

func (m *metricsStore) Histogram(name string) observability.Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()

	histogram, ok := m.histograms[name]
	if !ok {
		histogram = &slogHistogram{name: name, logger: m.logger}
		m.histograms[name] = histogram
	}
	return histogram
}

type slogCounter struct {
	name   string
	logger *slog.Logger
	mu     sync.Mutex
	value  int64
}

func (c *slogCounter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	c.mu.Lock()
	c.value += value
	current := c.value
	c.mu.Unlock()

	logAttrs := []slog.Attr{
		slog.String("metric", c.name),
		slog.Int64("value", current),
		slog.Int64("delta", value),
	}
	c.logger.LogAttrs(ctx, slog.LevelDebug, "Counter", append(logAttrs, toSlogAttrs(attrs)...)...)
}

type slogHistogram struct {
	name   string
	logger *slog.Logger
}

func (h *slogHistogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	logAttrs := []slog.Attr{
		slog.String("metric", h.name),
		slog.Float64("value", value),
	}
	h.logger.LogAttrs(ctx, slog.LevelDebug, "Histogram", append(logAttrs, toSlogAttrs(attrs)...)...)
}

// --- LOGGING ---

// Trace logs below DEBUG; it is filtered out unless the level is TRACE.
func (o *Observer) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, LevelTrace, msg, toSlogAttrs(attrs)...)
}

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelDebug, msg, toSlogAttrs(attrs)...)
}

func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelInfo, msg, toSlogAttrs(attrs)...)
}

func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelWarn, msg, toSlogAttrs(attrs)...)
}

func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.logger.LogAttrs(ctx, slog.LevelError, msg, toSlogAttrs(attrs)...)
}

func toSlogAttrs(attrs []observability.Attribute) []slog.Attr {
	logAttrs := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(attr.Key, attr.Value))
	}
	return logAttrs
}

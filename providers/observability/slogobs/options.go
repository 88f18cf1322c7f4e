package slogobs

import (
	"io"
	"log/slog"
	"os"

	"github.com/leofalp/batchcalc/providers/observability"
)

// Option is a functional option for configuring the Observer.
type Option func(*config)

type config struct {
	format  Format
	level   slog.Level
	output  io.Writer
	logger  *slog.Logger
	metrics observability.Metrics
}

// WithFormat sets the log output format.
func WithFormat(format Format) Option {
	return func(c *config) {
		c.format = format
	}
}

// WithLevel sets the minimum log level.
func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithOutput sets the output writer for logs.
func WithOutput(output io.Writer) Option {
	return func(c *config) {
		c.output = output
	}
}

// WithLogger uses an existing slog.Logger instead of creating a Handler.
// It takes precedence over format, level and output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMetrics routes Counter and Histogram to metrics instead of the
// in-memory store.
func WithMetrics(metrics observability.Metrics) Option {
	return func(c *config) {
		c.metrics = metrics
	}
}

func applyOptions(opts ...Option) *config {
	cfg := &config{
		format: GetFormatFromEnv(),
		level:  GetLogLevelFromEnv(),
		output: os.Stderr,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

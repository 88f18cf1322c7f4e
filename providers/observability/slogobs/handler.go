package slogobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Handler is a slog.Handler writing either compact lines or JSON objects.
type Handler struct {
	format Format
	level  slog.Level
	output io.Writer
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string
}

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	Format Format
	Level  slog.Level
	// Output defaults to os.Stderr so results printed on stdout stay clean.
	Output io.Writer
}

// NewHandler creates a new Handler with the given options.
func NewHandler(opts *HandlerOptions) *Handler {
	if opts == nil {
		opts = &HandlerOptions{}
	}
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}
	format := opts.Format
	if format == "" {
		format = FormatCompact
	}

	return &Handler{
		format: format,
		level:  opts.Level,
		output: output,
		mu:     &sync.Mutex{},
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle formats and writes a log record.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var line []byte
	var err error
	if h.format == FormatJSON {
		line, err = h.formatJSON(r)
	} else {
		line, err = h.formatCompact(r)
	}
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.output.Write(line)
	return err
}

// WithAttrs returns a new Handler with additional attributes.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup returns a new Handler that prefixes attribute keys with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

// formatCompact renders "2006-01-02 15:04:05 LEVEL message | {attrs}".
func (h *Handler) formatCompact(r slog.Record) ([]byte, error) {
	buf := make([]byte, 0, 256)
	buf = append(buf, r.Time.Format("2006-01-02 15:04:05")...)
	buf = append(buf, fmt.Sprintf(" %5s ", levelString(r.Level))...)
	buf = append(buf, r.Message...)

	if attrs := h.collectAttrs(r); len(attrs) > 0 {
		encoded, err := json.Marshal(attrs)
		if err != nil {
			return nil, fmt.Errorf("encode log attributes: %w", err)
		}
		buf = append(buf, " | "...)
		buf = append(buf, encoded...)
	}

	return append(buf, '\n'), nil
}

func (h *Handler) formatJSON(r slog.Record) ([]byte, error) {
	data := h.collectAttrs(r)
	data["time"] = r.Time.Format("2006-01-02T15:04:05.000Z07:00")
	data["level"] = levelString(r.Level)
	data["msg"] = r.Message

	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode log record: %w", err)
	}
	return append(encoded, '\n'), nil
}

func (h *Handler) collectAttrs(r slog.Record) map[string]any {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}

	add := func(attr slog.Attr) {
		value := attr.Value.Resolve().Any()
		switch v := value.(type) {
		case error:
			value = v.Error()
		case time.Duration:
			value = v.String()
		}
		attrs[prefix+attr.Key] = value
	}

	for _, attr := range h.attrs {
		add(attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		add(attr)
		return true
	})

	return attrs
}

func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return "TRACE"
	case level < slog.LevelInfo:
		return "DEBUG"
	case level < slog.LevelWarn:
		return "INFO"
	case level < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

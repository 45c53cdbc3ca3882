package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// LogRecord is one captured log entry
type LogRecord struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// CaptureHandler is an slog.Handler that buffers records so tests can
// assert on structured log output
type CaptureHandler struct {
	mu      sync.Mutex
	base    []slog.Attr
	records []LogRecord
}

// NewCaptureHandler creates an empty capture handler
func NewCaptureHandler() *CaptureHandler {
	return &CaptureHandler{}
}

// NewCaptureLogger returns a logger wired to a fresh capture handler
func NewCaptureLogger() (*slog.Logger, *CaptureHandler) {
	h := NewCaptureHandler()
	return slog.New(h), h
}

func (h *CaptureHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs()+len(h.base))
	for _, a := range h.base {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.mu.Lock()
	h.records = append(h.records, LogRecord{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})
	h.mu.Unlock()
	return nil
}

func (h *CaptureHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

// WithAttrs folds logger-level attributes into every subsequent record
// while sharing the same buffer, so a test sees the whole stream
func (h *CaptureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	base := append(append([]slog.Attr{}, h.base...), attrs...)
	return &childHandler{parent: h, base: base}
}

func (h *CaptureHandler) WithGroup(string) slog.Handler { return h }

// Records returns a copy of everything captured so far
func (h *CaptureHandler) Records() []LogRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]LogRecord, len(h.records))
	copy(out, h.records)
	return out
}

// ContainsMessage reports whether any record's message contains s
func (h *CaptureHandler) ContainsMessage(s string) bool {
	for _, r := range h.Records() {
		if strings.Contains(r.Message, s) {
			return true
		}
	}
	return false
}

// ContainsAttr reports whether any record carries key=value
func (h *CaptureHandler) ContainsAttr(key string, value any) bool {
	for _, r := range h.Records() {
		if v, ok := r.Attrs[key]; ok && v == value {
			return true
		}
	}
	return false
}

// AttrValues collects every value logged under key, in order
func (h *CaptureHandler) AttrValues(key string) []any {
	var out []any
	for _, r := range h.Records() {
		if v, ok := r.Attrs[key]; ok {
			out = append(out, v)
		}
	}
	return out
}

// childHandler writes into its parent's buffer with extra base attrs
type childHandler struct {
	parent *CaptureHandler
	base   []slog.Attr
}

func (c *childHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs()+len(c.base))
	for _, a := range c.base {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	c.parent.mu.Lock()
	c.parent.records = append(c.parent.records, LogRecord{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})
	c.parent.mu.Unlock()
	return nil
}

func (c *childHandler) Enabled(context.Context, slog.Level) bool { return true }

func (c *childHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &childHandler{parent: c.parent, base: append(append([]slog.Attr{}, c.base...), attrs...)}
}

func (c *childHandler) WithGroup(string) slog.Handler { return c }

package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// Capture holds every record logged while it is installed.
type Capture struct {
	mu        sync.Mutex
	records   []slog.Record
	prev      *slog.Logger
	prevLevel slog.Level
}

// CaptureForTest routes all component loggers into a new Capture at debug
// level. Pair it with a deferred Restore.
func CaptureForTest() *Capture {
	c := &Capture{
		prev:      slog.Default(),
		prevLevel: level.Level(),
	}
	slog.SetDefault(slog.New(&captureHandler{capture: c}))
	SetLevel(slog.LevelDebug)
	return c
}

// Restore puts back the logger and level active before CaptureForTest.
func (c *Capture) Restore() {
	slog.SetDefault(c.prev)
	level.Set(c.prevLevel)
}

// Records returns the captured records in logging order.
func (c *Capture) Records() []slog.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]slog.Record, len(c.records))
	copy(out, c.records)
	return out
}

// Has reports whether a record at level has a message containing msgSubstring.
func (c *Capture) Has(level slog.Level, msgSubstring string) bool {
	return c.find(level, msgSubstring, nil)
}

// HasAttr is like Has but also requires an attribute key whose value renders
// as value. Attributes added through With are included.
func (c *Capture) HasAttr(level slog.Level, msgSubstring, key, value string) bool {
	return c.find(level, msgSubstring, func(r slog.Record) bool {
		found := false
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == key && a.Value.String() == value {
				found = true
				return false
			}
			return true
		})
		return found
	})
}

func (c *Capture) find(level slog.Level, msgSubstring string, pred func(slog.Record) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.records {
		if r.Level != level || !strings.Contains(r.Message, msgSubstring) {
			continue
		}
		if pred == nil || pred(r) {
			return true
		}
	}
	return false
}

// Count reports how many records were logged at level.
func (c *Capture) Count(level slog.Level) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, r := range c.records {
		if r.Level == level {
			n++
		}
	}
	return n
}

// captureHandler appends records to a Capture, folding in attributes added
// through WithAttrs. Groups are recorded but not applied to keys.
type captureHandler struct {
	capture *Capture
	attrs   []slog.Attr
	group   string
}

func (h *captureHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	if len(h.attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(h.attrs...)
	}
	h.capture.mu.Lock()
	defer h.capture.mu.Unlock()
	h.capture.records = append(h.capture.records, r)
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	return &captureHandler{
		capture: h.capture,
		attrs:   append(merged, attrs...),
		group:   h.group,
	}
}

func (h *captureHandler) WithGroup(name string) slog.Handler {
	return &captureHandler{
		capture: h.capture,
		attrs:   h.attrs,
		group:   name,
	}
}

// Package clock provides the timestamp source for record metadata.
package clock

import (
	"sync/atomic"
	"time"
)

// Layout is the wire format for createdAt/updatedAt: ISO-8601, UTC, millisecond precision.
const Layout = "2006-01-02T15:04:05.000Z"

// Clock hands out strictly increasing wall-clock timestamps at millisecond
// resolution. When the wall clock stalls or steps backwards the clock keeps
// counting from the last value it issued. It is safe for concurrent use.
type Clock struct {
	last atomic.Int64 // unix millis of the last issued or witnessed stamp
	now  func() time.Time
}

// New returns a Clock reading the system time.
func New() *Clock {
	return &Clock{now: time.Now}
}

// NewWithSource returns a Clock reading from src. Used by tests to freeze time.
func NewWithSource(src func() time.Time) *Clock {
	return &Clock{now: src}
}

// Now returns a timestamp strictly after every value previously returned
// or witnessed.
func (c *Clock) Now() time.Time {
	wall := c.now().UnixMilli()
	for {
		current := c.last.Load()
		next := wall
		if next <= current {
			next = current + 1
		}
		if c.last.CompareAndSwap(current, next) {
			return time.UnixMilli(next).UTC()
		}
	}
}

// Witness raises the floor to t without issuing a stamp. Used at startup so
// timestamps keep advancing past whatever was persisted.
func (c *Clock) Witness(t time.Time) {
	observed := t.UnixMilli()
	for {
		current := c.last.Load()
		if current >= observed {
			return
		}
		if c.last.CompareAndSwap(current, observed) {
			return
		}
	}
}

// Last returns the most recent stamp issued or witnessed (zero time if none).
func (c *Clock) Last() time.Time {
	ms := c.last.Load()
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// Format renders t in Layout.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Parse accepts any RFC 3339 timestamp, including the Layout form.
func Parse(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

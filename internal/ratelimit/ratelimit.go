// Package ratelimit throttles API clients with per-client token buckets.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultIdleTTL is how long a client may stay silent before its bucket is
// dropped by Cleanup.
const DefaultIdleTTL = 5 * time.Minute

type clientState struct {
	tokens    float64
	lastCheck time.Time
}

// Limiter enforces a per-client request rate using a token bucket.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*clientState
	perSec  float64
	burst   float64 // max tokens (2× perSec)
	idleTTL time.Duration
	now     func() time.Time
}

// New creates a limiter allowing perSec requests per client, with bursts of
// up to twice that.
func New(perSec float64) *Limiter {
	return &Limiter{
		clients: make(map[string]*clientState),
		perSec:  perSec,
		burst:   max(perSec*2, 1),
		idleTTL: DefaultIdleTTL,
		now:     time.Now,
	}
}

// Allow reports whether client is within its rate. Each call consumes one
// token.
func (l *Limiter) Allow(client string) bool {
	_, ok := l.Reserve(client)
	return ok
}

// Reserve is Allow that also reports how long the client must wait for the
// next token when it is throttled.
func (l *Limiter) Reserve(client string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	state, ok := l.clients[client]
	if !ok {
		l.clients[client] = &clientState{
			tokens:    l.burst - 1,
			lastCheck: now,
		}
		return 0, true
	}

	elapsed := now.Sub(state.lastCheck).Seconds()
	state.tokens = min(state.tokens+elapsed*l.perSec, l.burst)
	state.lastCheck = now

	if state.tokens >= 1 {
		state.tokens--
		return 0, true
	}
	if l.perSec <= 0 {
		return time.Duration(1<<63 - 1), false
	}
	wait := time.Duration((1 - state.tokens) / l.perSec * float64(time.Second))
	return wait, false
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// CleanupLoop periodically drops idle clients until ctx is cancelled.
func (l *Limiter) CleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Cleanup()
		case <-ctx.Done():
			return
		}
	}
}

// Cleanup drops clients idle for longer than the idle TTL.
func (l *Limiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.idleTTL)
	for id, state := range l.clients {
		if state.lastCheck.Before(cutoff) {
			delete(l.clients, id)
		}
	}
}

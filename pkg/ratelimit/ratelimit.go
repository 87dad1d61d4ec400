// Package ratelimit implements a fixed-window per-key request limiter.
//
// The window resets lazily: the first request arriving after a key's
// reset deadline starts a fresh window. Counters live in process memory
// only, which is the intended scaling boundary for a single-instance
// deployment; a scaled-out deployment needs a shared counter instead.
package ratelimit

import (
	"sync"
	"time"
)

// Default limiter configuration.
const (
	defaultWindow      = time.Minute
	defaultMaxRequests = 20
)

// entry tracks one key's count within the current window.
type entry struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window limiter keyed by an arbitrary string,
// typically a client IP.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry

	window time.Duration
	limit  int
	now    func() time.Time
}

// Option applies a configuration option to the Limiter.
type Option func(*Limiter)

// WithWindow sets the window duration.
func WithWindow(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.window = d
		}
	}
}

// WithLimit sets the maximum number of requests per window.
func WithLimit(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.limit = n
		}
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a Limiter with the given options.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		entries: make(map[string]*entry),
		window:  defaultWindow,
		limit:   defaultMaxRequests,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records a request for key and reports whether it fits in the
// current window. When the limit is exceeded, retryAfter holds the time
// remaining until the window resets, rounded up to a whole second.
// The increment-and-compare runs under the limiter lock so concurrent
// bursts from the same key cannot undercount.
func (l *Limiter) Allow(key string) (ok bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, exists := l.entries[key]
	if !exists || now.After(e.resetAt) {
		l.entries[key] = &entry{count: 1, resetAt: now.Add(l.window)}
		return true, 0
	}

	if e.count >= l.limit {
		remaining := e.resetAt.Sub(now)
		retry := remaining.Truncate(time.Second)
		if retry < remaining {
			retry += time.Second
		}
		return false, retry
	}

	e.count++
	return true, 0
}

// Len returns the number of keys currently tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Package ratelimit provides fixed-window request limiting keyed by client.
package ratelimit

import (
	"sync"
	"time"
)

// sweepThreshold bounds per-client state growth. Once the window map holds
// this many clients, expired windows are purged on the next Allow call.
const sweepThreshold = 10000

type window struct {
	start time.Time
	count int
}

// Limiter counts requests per client within discrete, non-overlapping time
// buckets. A client bursting across a window boundary can be allowed up to
// 2*max requests - an accepted property of fixed-window limiting, not a bug.
type Limiter struct {
	mu      sync.Mutex
	max     int
	length  time.Duration
	windows map[string]*window
	now     func() time.Time
}

// New creates a limiter allowing max requests per client per window.
func New(max int, length time.Duration) *Limiter {
	return &Limiter{
		max:     max,
		length:  length,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// SetClock overrides the limiter's time source for tests.
func (l *Limiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Allow records a request for clientKey and reports whether it is within
// the window's budget.
func (l *Limiter) Allow(clientKey string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	if len(l.windows) >= sweepThreshold {
		l.sweep(now)
	}

	w, ok := l.windows[clientKey]
	if !ok || now.Sub(w.start) >= l.length {
		l.windows[clientKey] = &window{start: now, count: 1}
		return true
	}

	w.count++
	return w.count <= l.max
}

// sweep drops expired windows. Caller must hold the mutex.
func (l *Limiter) sweep(now time.Time) {
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.length {
			delete(l.windows, key)
		}
	}
}

// Clients returns the number of tracked client windows.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

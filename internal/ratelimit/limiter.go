// Package ratelimit gates inbound requests per connection with a
// fixed-window requests-per-minute budget, adapted from the tiered
// API-key limiter this server's ancestor used to gate Hedera calls.
// Connections here are not API keys, but the shape is the same: a
// counter and a window-start timestamp per identity, reset once a
// minute has elapsed since the window opened.
package ratelimit

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned by Allow once an identity has exhausted
// its budget for the current window. wsserver maps it to a JSON-RPC
// server error (-32000); httpserver answers with HTTP 429.
var ErrRateLimited = errors.New("rate limit exceeded")

// Limiter enforces a single requests-per-minute ceiling shared by every
// identity it tracks. Unlike the tiered limiter it's grounded on, there
// is only one tier: every connection gets the same budget, since this
// server has no notion of API-key plans.
type Limiter struct {
	requestsPerMinute int
	mu                sync.Mutex
	counters          map[string]int
	windowStart       map[string]time.Time
}

// New creates a Limiter allowing requestsPerMinute requests per
// identity per fixed one-minute window. A non-positive value
// disables limiting: Allow always returns nil.
func New(requestsPerMinute int) *Limiter {
	return &Limiter{
		requestsPerMinute: requestsPerMinute,
		counters:          make(map[string]int),
		windowStart:       make(map[string]time.Time),
	}
}

// Allow charges one request against identity's current window,
// resetting the window if more than a minute has elapsed since it
// opened. It returns ErrRateLimited if identity has no budget left.
func (l *Limiter) Allow(identity string) error {
	if l.requestsPerMinute <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	start, seen := l.windowStart[identity]
	if !seen || now.Sub(start) > time.Minute {
		l.counters[identity] = 0
		l.windowStart[identity] = now
	}

	if l.counters[identity] >= l.requestsPerMinute {
		return ErrRateLimited
	}
	l.counters[identity]++
	return nil
}

// Forget drops identity's counters, for use on connection teardown so
// long-lived WebSocket connections don't pin memory for the life of
// the process once they disconnect.
func (l *Limiter) Forget(identity string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counters, identity)
	delete(l.windowStart, identity)
}

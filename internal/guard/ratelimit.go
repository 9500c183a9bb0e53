// Package guard implements the request-handling policies every tress
// endpoint applies: rate limiting, content sanitization and validation,
// content-type inference, and conditional-caching (ETag) negotiation.
//
// These are deliberately plain components — no HTTP types in their
// signatures — so the handler layer composes them per endpoint and the
// tests exercise them with direct calls.
package guard

import (
	"sync"
	"time"
)

// EndpointClass names a rate-limit bucket. A client's usage in one class
// never affects another.
type EndpointClass string

const (
	ClassPublicRead EndpointClass = "public_read"
	ClassRawContent EndpointClass = "raw_content"
	ClassDefault    EndpointClass = "default"
)

// limitPolicy is the per-class budget: maxRequests per rolling window.
type limitPolicy struct {
	maxRequests int
	window      time.Duration
}

// policies is keyed by endpoint class. Unknown classes fall back to ClassDefault.
var policies = map[EndpointClass]limitPolicy{
	ClassPublicRead: {maxRequests: 100, window: time.Hour},
	ClassRawContent: {maxRequests: 200, window: time.Hour},
	ClassDefault:    {maxRequests: 1000, window: time.Hour},
}

// RateLimiter is a per-client, per-endpoint-class sliding-window request
// counter. State is in-process only: each serving process enforces its own
// independent budget, which is the documented deployment model.
//
// CONCURRENCY:
// Requests are handled in parallel, so the map of recorded instants is
// shared mutable state. A single mutex guards it; each check is a few map
// operations and a slice scan, so contention is negligible next to the
// database work on the same request.
//
// Construct one per process with NewRateLimiter and inject it — tests build
// a fresh instance each so state never leaks between test cases.
type RateLimiter struct {
	mu  sync.Mutex
	now func() time.Time // injectable clock for tests

	// requests maps client identity → endpoint class → recorded instants,
	// oldest first. Entries older than the class window are evicted on
	// every check, so a bucket never grows beyond its request budget.
	requests map[string]map[EndpointClass][]time.Time
}

// NewRateLimiter creates an empty RateLimiter using the real clock.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		now:      time.Now,
		requests: make(map[string]map[EndpointClass][]time.Time),
	}
}

// newRateLimiterWithClock is used by tests to control time.
func newRateLimiterWithClock(now func() time.Time) *RateLimiter {
	rl := NewRateLimiter()
	rl.now = now
	return rl
}

// Allow checks and records one request for the client in the given class.
//
// It evicts instants older than now-window, rejects if the bucket is at its
// limit, and otherwise records the new instant and admits. The check and
// the record happen under one lock acquisition, so two concurrent requests
// from the same client can never both be admitted past the ceiling.
func (rl *RateLimiter) Allow(client string, class EndpointClass) bool {
	policy := policyFor(class)
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	times := rl.evictLocked(client, class, now, policy)
	if len(times) >= policy.maxRequests {
		return false
	}

	byClass, ok := rl.requests[client]
	if !ok {
		byClass = make(map[EndpointClass][]time.Time)
		rl.requests[client] = byClass
	}
	byClass[class] = append(times, now)
	return true
}

// Remaining returns how many requests the client has left in the current
// window for the class. It evicts expired instants but records nothing.
func (rl *RateLimiter) Remaining(client string, class EndpointClass) int {
	policy := policyFor(class)
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	times := rl.evictLocked(client, class, now, policy)
	if remaining := policy.maxRequests - len(times); remaining > 0 {
		return remaining
	}
	return 0
}

// Reset returns the instant at which the client's oldest recorded request
// falls out of the window — the earliest moment a rejected client can retry.
// With no recorded requests the window is already open, so "now" is returned.
func (rl *RateLimiter) Reset(client string, class EndpointClass) time.Time {
	policy := policyFor(class)
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	times := rl.evictLocked(client, class, now, policy)
	if len(times) == 0 {
		return now
	}
	return times[0].Add(policy.window)
}

// evictLocked drops instants older than the window and stores the trimmed
// slice back. Callers must hold rl.mu.
func (rl *RateLimiter) evictLocked(client string, class EndpointClass, now time.Time, policy limitPolicy) []time.Time {
	byClass, ok := rl.requests[client]
	if !ok {
		return nil
	}
	times := byClass[class]

	cutoff := now.Add(-policy.window)
	// Instants are appended in order, so the live suffix starts at the
	// first instant after the cutoff.
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	if i > 0 {
		times = append([]time.Time(nil), times[i:]...)
		if len(times) == 0 {
			delete(byClass, class)
			if len(byClass) == 0 {
				delete(rl.requests, client)
			}
		} else {
			byClass[class] = times
		}
	}
	return times
}

func policyFor(class EndpointClass) limitPolicy {
	if p, ok := policies[class]; ok {
		return p
	}
	return policies[ClassDefault]
}

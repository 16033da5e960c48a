// Package ratelimit bounds request frequency per caller and scope. Each
// (caller key, scope) pair owns an independent token bucket; the bucket's
// burst equals the per-minute ceiling, refilled evenly across the window.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Scope names a logical endpoint class with its own ceiling.
type Scope string

const (
	ScopeReviewListAnon Scope = "review-list-anon"
	ScopeReviewList     Scope = "review-list"
	ScopeReviewCreate   Scope = "review-create"
	ScopeReviewDetail   Scope = "review-detail"
)

// Limits maps scopes to per-minute ceilings. A missing or non-positive entry
// disables limiting for that scope.
type Limits map[Scope]int

// Decision is the outcome of an Allow call. RetryAfter is a hint for the
// Retry-After header when the request is shed.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

type entryKey struct {
	key   string
	scope Scope
}

type entry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per (caller, scope) with periodic cleanup
// of idle entries.
type Limiter struct {
	mu           sync.Mutex
	limits       Limits
	entries      map[entryKey]*entry
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

// Option tweaks Limiter housekeeping.
type Option func(*Limiter)

// WithIdleTTL sets how long an unused bucket survives before cleanup.
func WithIdleTTL(d time.Duration) Option {
	return func(l *Limiter) { l.idleTTL = d }
}

// WithCleanupEvery sets the janitor interval.
func WithCleanupEvery(d time.Duration) Option {
	return func(l *Limiter) { l.cleanupEvery = d }
}

// New constructs a Limiter with the given per-scope ceilings.
func New(limits Limits, opts ...Option) *Limiter {
	l := &Limiter{
		limits:       limits,
		entries:      make(map[entryKey]*entry),
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether the caller may proceed in the given scope now.
func (l *Limiter) Allow(key string, scope Scope) Decision {
	return l.allowAt(time.Now(), key, scope)
}

func (l *Limiter) allowAt(now time.Time, key string, scope Scope) Decision {
	perMin, ok := l.limits[scope]
	if !ok || perMin <= 0 {
		return Decision{Allowed: true}
	}

	lim := l.limiter(now, key, scope, perMin)

	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return Decision{Allowed: false, RetryAfter: time.Minute}
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return Decision{Allowed: false, RetryAfter: delay}
	}
	return Decision{Allowed: true}
}

func (l *Limiter) limiter(now time.Time, key string, scope Scope, perMin int) *rate.Limiter {
	k := entryKey{key: key, scope: scope}

	l.mu.Lock()
	defer l.mu.Unlock()

	if ent, ok := l.entries[k]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	lim := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin)
	l.entries[k] = &entry{lim: lim, lastSeen: now}
	return lim
}

// Cleanup drops buckets idle for longer than the configured TTL.
func (l *Limiter) Cleanup() {
	cutoff := time.Now().Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	for k, ent := range l.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(l.entries, k)
		}
	}
}

// StartJanitor periodically runs Cleanup until the context is cancelled.
func (l *Limiter) StartJanitor(ctx context.Context) {
	if l.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(l.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.Cleanup()
			}
		}
	}()
}

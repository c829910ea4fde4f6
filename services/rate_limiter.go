package services

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter throttles redemption attempts with one token bucket per key.
// The admission controller keys it twice per attempt: once by source address
// (stops scanning many codes from one host) and once by code+address (stops
// hammering a single code). Buckets idle past the window are evicted so the
// map does not grow without bound.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Allow consumes one attempt for the key and reports whether it was within
// the limit.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	b, ok := r.buckets[key]
	if !ok {
		b = &bucket{
			limiter: rate.NewLimiter(rate.Every(r.window/time.Duration(r.limit)), r.limit),
		}
		r.buckets[key] = b
		r.maybeEvict(now)
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// maybeEvict drops buckets that have been idle for longer than two windows.
// Called with the lock held, only when a new key is added, so steady-state
// traffic pays nothing.
func (r *RateLimiter) maybeEvict(now time.Time) {
	cutoff := now.Add(-2 * r.window)
	for key, b := range r.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(r.buckets, key)
		}
	}
}

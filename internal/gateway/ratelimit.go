package gateway

import (
	"context"
	"sync"
	"time"
)

// HostPolicy configures the token bucket and identification headers applied
// to every request against a given hostname.
type HostPolicy struct {
	RefillRate float64 // tokens per second
	Burst      int     // bucket capacity
	APIKey     string  // optional, sent as a header per-adapter convention
	Email      string  // optional, for polite-client identification
}

// tokenBucket is a process-global, per-hostname rate limiter. Mutation is
// guarded by a single mutex per bucket (the design calls for "a single
// atomic counter-plus-timestamp"; a mutex-guarded float is the straightforward
// Go rendition of that without a lock-free CAS dance across two fields).
type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	refillRate float64
	lastRefill time.Time
}

func newTokenBucket(policy HostPolicy) *tokenBucket {
	return &tokenBucket{
		tokens:     float64(policy.Burst),
		capacity:   float64(policy.Burst),
		refillRate: policy.RefillRate,
		lastRefill: time.Now(),
	}
}

func (b *tokenBucket) refillLocked(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now
}

// Acquire blocks until a token is available or ctx is done, returning
// ctx.Err() in the latter case so callers can classify it as rate-limit-timeout.
func (b *tokenBucket) Acquire(ctx context.Context) error {
	for {
		b.mu.Lock()
		now := time.Now()
		b.refillLocked(now)
		if b.tokens >= 1 {
			b.tokens--
			b.mu.Unlock()
			return nil
		}
		// Compute wait time for the next token.
		deficit := 1 - b.tokens
		wait := time.Duration(deficit/b.refillRate*float64(time.Second)) + time.Millisecond
		b.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RateLimiter keys token buckets by canonical hostname, never by full URL.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*tokenBucket
	policies map[string]HostPolicy
	defaultP HostPolicy
}

func NewRateLimiter(defaultPolicy HostPolicy) *RateLimiter {
	return &RateLimiter{
		buckets:  make(map[string]*tokenBucket),
		policies: make(map[string]HostPolicy),
		defaultP: defaultPolicy,
	}
}

// SetPolicy registers a per-host policy. Must be called before first use
// of that host to take effect (buckets are created lazily on first Acquire).
func (r *RateLimiter) SetPolicy(host string, policy HostPolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[host] = policy
}

func (r *RateLimiter) Policy(host string) HostPolicy {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.policies[host]; ok {
		return p
	}
	return r.defaultP
}

func (r *RateLimiter) bucketFor(host string) *tokenBucket {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.buckets[host]; ok {
		return b
	}
	policy, ok := r.policies[host]
	if !ok {
		policy = r.defaultP
	}
	b := newTokenBucket(policy)
	r.buckets[host] = b
	return b
}

// Acquire blocks for a token for host, up to ctx's deadline.
func (r *RateLimiter) Acquire(ctx context.Context, host string) error {
	return r.bucketFor(host).Acquire(ctx)
}

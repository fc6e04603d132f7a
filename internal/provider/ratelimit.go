package provider

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Default bridge call limits: 5 calls per second per endpoint, burst of 10.
const (
	DefaultRatePerSecond = 5
	DefaultBurst         = 10
)

// RateLimiter throttles non-prompting bridge calls with one token bucket per
// endpoint, so a misbehaving page cannot hammer a wallet bridge.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewRateLimiter creates a limiter allowing ratePerSecond calls per endpoint
// with the given burst. A non-positive rate disables limiting.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(ratePerSecond)
	if ratePerSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

// DefaultRateLimiter returns a limiter with the default settings.
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(DefaultRatePerSecond, DefaultBurst)
}

// Allow reports whether a call to endpoint may proceed now.
func (r *RateLimiter) Allow(endpoint string) bool {
	return r.limiter(endpoint).Allow()
}

// Wait blocks until a call to endpoint is allowed or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context, endpoint string) error {
	return r.limiter(endpoint).Wait(ctx)
}

func (r *RateLimiter) limiter(endpoint string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[endpoint]
	if !ok {
		l = rate.NewLimiter(r.limit, r.burst)
		r.limiters[endpoint] = l
	}
	return l
}

package providers

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a token bucket limiter shared by all in-flight
// requests to one provider deployment.
type RateLimiter struct {
	mu sync.Mutex

	// Configuration
	requestsPerMinute int
	windowSeconds     float64

	// Token bucket state
	tokens     float64
	lastUpdate time.Time

	// Statistics
	totalConsumed int64
	totalWaited   time.Duration
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 150 // Default
	}
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		windowSeconds:     60.0,
		tokens:            float64(requestsPerMinute),
		lastUpdate:        time.Now(),
	}
}

// Wait blocks until a token is available or context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		r.refill()

		if r.tokens >= 1.0 {
			r.tokens--
			r.totalConsumed++
			r.mu.Unlock()
			return nil
		}

		// Calculate wait time for next token
		tokensNeeded := 1.0 - r.tokens
		refillRate := float64(r.requestsPerMinute) / r.windowSeconds
		waitTime := time.Duration(tokensNeeded/refillRate*1000) * time.Millisecond
		r.mu.Unlock()

		// Wait outside lock
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
			r.mu.Lock()
			r.totalWaited += waitTime
			r.mu.Unlock()
		}
	}
}

// refill adds tokens based on elapsed time. Caller must hold the lock.
func (r *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(r.lastUpdate).Seconds()
	r.lastUpdate = now

	refillRate := float64(r.requestsPerMinute) / r.windowSeconds
	r.tokens += elapsed * refillRate
	if r.tokens > float64(r.requestsPerMinute) {
		r.tokens = float64(r.requestsPerMinute)
	}
}

// Consumed returns the number of tokens consumed so far.
func (r *RateLimiter) Consumed() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalConsumed
}

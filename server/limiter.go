package server

import (
	"time"

	"github.com/kselvad/scoregrid/logger"

	"golang.org/x/time/rate"
)

// RateLimiter bounds how fast one connection may submit actions.
type RateLimiter interface {
	Allow() bool
}

// tokenBucketLimiter implements RateLimiter with a token bucket: a steady
// refill of maxRequests per window, and a burst allowance on top.
type tokenBucketLimiter struct {
	limiter *rate.Limiter
}

// newTokenBucketLimiter builds a limiter allowing maxRequests per window
// with the given burst. Degenerate inputs disable limiting rather than
// blocking everything.
func newTokenBucketLimiter(maxRequests, burst int, window time.Duration, log logger.Logger) RateLimiter {
	rps := rate.Inf
	if window > 0 {
		rps = rate.Limit(float64(maxRequests) / window.Seconds())
	} else {
		log.Warnw("rate limit window is zero or negative, limiter disabled", "window", window)
	}
	if burst <= 0 {
		burst = 1
	}
	return &tokenBucketLimiter{limiter: rate.NewLimiter(rps, burst)}
}

// Allow reports whether one more action may proceed immediately.
func (l *tokenBucketLimiter) Allow() bool {
	return l.limiter.Allow()
}

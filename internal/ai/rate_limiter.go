package ai

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/ayusman/mudra/internal/logger"
)

// DefaultRateLimit is the default number of analysis requests per second.
const DefaultRateLimit = 2

// RateLimiter spaces out analysis requests across every Client sharing it.
// Captures are user-driven, so the burst equals the per-second limit.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows qps requests per second, or DefaultRateLimit when qps
// is not positive.
func NewRateLimiter(qps int) *RateLimiter {
	if qps <= 0 {
		qps = DefaultRateLimit
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(qps), qps)}
}

// Wait blocks until a request may be sent or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r.limiter.Allow() {
		return nil
	}
	logger.Debug("analysis request throttled", "module", "ai", "action", "rate_limit", "result", "waiting")
	return r.limiter.Wait(ctx)
}

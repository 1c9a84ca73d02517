// Package ai turns a captured frame into a sign language translation by asking
// a remote vision model.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/logger"
)

// DefaultTimeout bounds one analysis round trip.
const DefaultTimeout = 30 * time.Second

// Client analyzes captured frames. Analyze never fails: every error is logged
// and reported as the fallback result.
type Client struct {
	provider Provider
	limiter  *RateLimiter
	timeout  time.Duration
	now      func() time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRateLimiter shares limiter across clients.
func WithRateLimiter(limiter *RateLimiter) ClientOption {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock overrides the completion clock.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a client calling provider.
func NewClient(provider Provider, opts ...ClientOption) *Client {
	c := &Client{
		provider: provider,
		timeout:  DefaultTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.limiter == nil {
		c.limiter = NewRateLimiter(DefaultRateLimit)
	}
	return c
}

// Analyze asks the model to identify the sign in imageDataURL and translate it
// into targetLanguage. The result is timestamped when the round trip
// completes.
func (c *Client) Analyze(ctx context.Context, imageDataURL, targetLanguage string) TranslationResult {
	requestID := uuid.NewString()
	start := time.Now()

	result, err := c.analyze(ctx, imageDataURL, targetLanguage)
	if err != nil {
		logger.Error("gesture analysis failed", "module", "ai", "action", "analyze", "result", "failed",
			"request_id", requestID, "provider", c.provider.Name(), "language", targetLanguage,
			"duration_ms", time.Since(start).Milliseconds(), "error", err)
		return Fallback(c.now())
	}

	result.Timestamp = c.now().UnixMilli()
	logger.Info("gesture analyzed", "module", "ai", "action", "analyze", "result", "ok",
		"request_id", requestID, "provider", c.provider.Name(), "language", targetLanguage,
		"confidence", result.Confidence, "duration_ms", time.Since(start).Milliseconds())
	return result
}

func (c *Client) analyze(ctx context.Context, imageDataURL, targetLanguage string) (TranslationResult, error) {
	img, err := ParseDataURL(imageDataURL)
	if err != nil {
		return TranslationResult{}, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return TranslationResult{}, fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reply, err := c.provider.Describe(ctx, BuildPrompt(targetLanguage), img)
	if err != nil {
		return TranslationResult{}, fmt.Errorf("%s: %w", c.provider.Name(), err)
	}

	result, err := ParseReply(reply)
	if err != nil {
		return TranslationResult{}, fmt.Errorf("parse reply: %w", err)
	}
	return result, nil
}

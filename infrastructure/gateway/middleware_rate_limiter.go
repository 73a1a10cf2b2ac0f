package gateway

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// rateLimitedModel paces outbound calls with a token bucket so the
// engine stays inside provider rate limits even when the three criteria
// are dispatched concurrently.
type rateLimitedModel struct {
	next    CoreModel
	limiter *rate.Limiter
}

// RateLimitMiddleware creates middleware that enforces a sustained
// request rate with a burst allowance. The limiter is shared by every
// wrapped call, so one chain paces all concurrent requests together.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)

	return func(next CoreModel) CoreModel {
		return &rateLimitedModel{next: next, limiter: limiter}
	}
}

func (r *rateLimitedModel) Complete(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return r.next.Complete(ctx, prompt)
}

func (r *rateLimitedModel) Model() string { return r.next.Model() }

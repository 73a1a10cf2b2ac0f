package gateway

import (
	"context"
	"time"
)

// timeoutModel bounds each request with a deadline so a stalled provider
// cannot hang the analysis pipeline.
type timeoutModel struct {
	next    CoreModel
	timeout time.Duration
}

// TimeoutMiddleware creates middleware that enforces a per-request
// deadline.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next CoreModel) CoreModel {
		return &timeoutModel{next: next, timeout: timeout}
	}
}

func (t *timeoutModel) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Complete(ctx, prompt)
}

func (t *timeoutModel) Model() string { return t.next.Model() }

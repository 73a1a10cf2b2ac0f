// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the engine testable
// without any network dependency.
package ports

import (
	"context"

	"github.com/ahrav/go-sentinel/internal/domain"
)

// ReasoningGateway is the boundary to the external reasoning oracle.
// The gateway takes the structured evidence context assembled by the
// engine and returns a refined narrative judgment for one criterion.
//
// The gateway is optional: the criterion reasoner produces a complete
// deterministic assessment without it. Implementations may fail, time out,
// or return malformed output; callers treat all three identically by
// substituting a local fallback, so implementations should surface errors
// rather than inventing content.
type ReasoningGateway interface {
	// Analyze sends one criterion's evidence context to the oracle and
	// returns its structured judgment. The context carries the per-call
	// timeout; implementations must respect cancellation.
	Analyze(ctx context.Context, req domain.ReasoningRequest) (domain.ReasoningResponse, error)

	// Model returns the oracle model identifier, for diagnostics.
	Model() string
}

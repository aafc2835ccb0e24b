// Package embedding provides the vector-embedding provider consumed by the
// resolver's batch pipeline. Providers are external collaborators and may be
// entirely unavailable; the resolver degrades to non-embedding strategies
// when they are.
package embedding

import (
	"context"
	"errors"
)

// ErrUnavailable indicates that the embedding provider cannot be reached at
// all. The resolver treats this as whole-run degradation, not a failure.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Provider turns text into fixed-size vectors. One batched call covers a
// whole resolution run; implementations must preserve input order in the
// returned slice.
type Provider interface {
	// EmbedBatch returns one embedding per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// GetModel returns the embedding model name.
	GetModel() string

	// HealthCheck verifies the provider is reachable.
	HealthCheck(ctx context.Context) error
}

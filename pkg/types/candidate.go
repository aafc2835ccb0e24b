package types

import "fmt"

// Candidate is a raw external search term plus its commercial-importance
// rank, pending resolution against the catalog. Candidates are transient:
// they exist only for the duration of one resolution pass and are never
// persisted themselves.
type Candidate struct {
	Term         string `json:"term"`                    // Raw search term as received
	Rank         int    `json:"rank"`                    // Lower = more commercially important
	CategoryHint string `json:"category_hint,omitempty"` // Optional category suggestion
	Scope        string `json:"scope"`                   // Resolution scope (e.g. country code)

	// Embedding is filled in by the orchestrator's batched provider call.
	// It is nil when the provider is unavailable or degraded.
	Embedding []float32 `json:"-"`
}

// Validate checks that the candidate carries the minimum fields required
// for resolution.
func (c *Candidate) Validate() error {
	if c == nil {
		return fmt.Errorf("candidate is nil")
	}
	if c.Term == "" {
		return fmt.Errorf("candidate term is required")
	}
	if c.Scope == "" {
		return fmt.Errorf("candidate scope is required")
	}
	if c.Rank < 0 {
		return fmt.Errorf("candidate rank must be non-negative, got %d", c.Rank)
	}
	return nil
}

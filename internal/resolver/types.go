package resolver

import (
	"github.com/scrypster/topicmatch/pkg/types"
)

// Options holds the policy knobs for a resolver engine.
type Options struct {
	// FuzzyThreshold is the minimum trigram similarity for fuzzy matches.
	FuzzyThreshold float64

	// EmbeddingThreshold is the minimum cosine similarity for embedding matches.
	EmbeddingThreshold float64

	// NewEntityRankThreshold is the maximum candidate rank eligible for
	// automatic entity creation. The zero value falls back to the default.
	NewEntityRankThreshold int

	// EmbeddingBatchSize is the number of terms per provider call.
	EmbeddingBatchSize int

	// ForceReprocess re-resolves terms that already have a record.
	ForceReprocess bool

	// SkipUnmatched treats previously unmatched terms as already resolved.
	// Off by default so unmatched terms are re-attempted as the catalog
	// grows richer over time.
	SkipUnmatched bool
}

// DefaultOptions returns the standard resolver policy.
func DefaultOptions() Options {
	return Options{
		FuzzyThreshold:         0.85,
		EmbeddingThreshold:     0.72,
		NewEntityRankThreshold: 500,
		EmbeddingBatchSize:     64,
	}
}

// Summary reports the outcome of one resolution run for a scope.
type Summary struct {
	Scope              string                  `json:"scope"`
	Processed          int                     `json:"processed"`
	Skipped            int                     `json:"skipped"` // already resolved, not reprocessed
	Matched            int                     `json:"matched"`
	Unmatched          int                     `json:"unmatched"`
	NewlyCreated       int                     `json:"newly_created"`
	Errors             int                     `json:"errors"`
	MatchTypeBreakdown map[types.MatchType]int `json:"match_type_breakdown"`
}

func newSummary(scope string) *Summary {
	return &Summary{
		Scope:              scope,
		MatchTypeBreakdown: make(map[types.MatchType]int),
	}
}

func (s *Summary) record(mt types.MatchType) {
	s.MatchTypeBreakdown[mt]++
	switch mt {
	case types.MatchUnmatched:
		s.Unmatched++
	case types.MatchNewEntity:
		s.NewlyCreated++
	default:
		s.Matched++
	}
}

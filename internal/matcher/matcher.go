// Package matcher implements the ranked strategy chain that reconciles one
// candidate term against the live catalog. Strategies run in fixed order:
// the two exact strategies short-circuit, the remaining four accumulate a
// running best across all catalog entities before a single result (or none)
// is returned.
package matcher

import (
	"strings"

	"github.com/scrypster/topicmatch/internal/catalog"
	"github.com/scrypster/topicmatch/pkg/types"
)

// Default acceptance thresholds.
const (
	// DefaultFuzzyThreshold is the minimum trigram Jaccard similarity for
	// the fuzzy and fuzzy_keyword strategies.
	DefaultFuzzyThreshold = 0.85

	// DefaultEmbeddingThreshold is the minimum cosine similarity for the
	// embedding strategy.
	DefaultEmbeddingThreshold = 0.72

	// containsMinLength gates the contains strategy: the shorter normalized
	// string must be longer than this to avoid spurious substring hits.
	containsMinLength = 4
)

// Result is the outcome of a successful match.
type Result struct {
	EntityID   string
	MatchType  types.MatchType
	Confidence float64
	Label      string // entity name or keyword that produced the match
}

// Matcher evaluates the strategy chain with configurable thresholds.
type Matcher struct {
	FuzzyThreshold     float64
	EmbeddingThreshold float64
}

// New returns a matcher with the default thresholds.
func New() *Matcher {
	return &Matcher{
		FuzzyThreshold:     DefaultFuzzyThreshold,
		EmbeddingThreshold: DefaultEmbeddingThreshold,
	}
}

// Match runs the strategy chain for one candidate. normTerm is the
// normalizer output for cand.Term. It returns the best result and true, or
// nil and false when no strategy produced an acceptable match.
//
// exact_name and exact_keyword short-circuit on the first hit even when a
// later strategy could score higher. Each exact strategy scans the whole
// catalog before the next strategy runs: a name hit on any entity beats a
// keyword hit on any other. contains, fuzzy, fuzzy_keyword and embedding
// are evaluated for every entity and only the single highest-confidence
// result survives.
func (m *Matcher) Match(cand *types.Candidate, normTerm string, cat *catalog.Catalog) (*Result, bool) {
	entries := cat.Entries()

	// Strategy 1: exact name, case-insensitive. Confidence 1.0.
	for _, entry := range entries {
		if e := entry.Entity; strings.EqualFold(e.Name, cand.Term) {
			return &Result{EntityID: e.ID, MatchType: types.MatchExactName, Confidence: 1.0, Label: e.Name}, true
		}
	}

	// Strategy 2: exact keyword membership. Confidence 0.98.
	for _, entry := range entries {
		if kw, ok := matchingKeyword(entry.Entity, cand.Term); ok {
			return &Result{EntityID: entry.Entity.ID, MatchType: types.MatchExactKeyword, Confidence: 0.98, Label: kw}, true
		}
	}

	var best *Result

	for _, entry := range entries {
		e := entry.Entity

		// Strategy 3: bidirectional substring on normalized strings.
		if score, ok := containsScore(normTerm, entry.NormalizedName); ok {
			best = adopt(best, &Result{EntityID: e.ID, MatchType: types.MatchContains, Confidence: score, Label: e.Name})
		}

		// Strategy 4: trigram similarity against the normalized name.
		if sim := trigramJaccard(normTerm, entry.NormalizedName); sim >= m.FuzzyThreshold {
			best = adopt(best, &Result{EntityID: e.ID, MatchType: types.MatchFuzzy, Confidence: sim, Label: e.Name})
		}

		// Strategy 5: trigram similarity against each keyword.
		for _, kw := range e.Keywords {
			if sim := trigramJaccard(normTerm, strings.ToLower(kw)); sim >= m.FuzzyThreshold {
				best = adopt(best, &Result{EntityID: e.ID, MatchType: types.MatchFuzzyKeyword, Confidence: sim, Label: kw})
			}
		}

		// Strategy 6: cosine similarity between embeddings. Skipped unless
		// both vectors are present (degraded provider leaves cand.Embedding nil).
		if len(cand.Embedding) > 0 && len(e.Embedding) > 0 {
			if sim := cosineSimilarity(cand.Embedding, e.Embedding); sim >= m.EmbeddingThreshold {
				best = adopt(best, &Result{EntityID: e.ID, MatchType: types.MatchEmbedding, Confidence: sim, Label: e.Name})
			}
		}
	}

	if best == nil {
		return nil, false
	}
	return best, true
}

// matchingKeyword returns the entity keyword equal to the term
// (case-insensitively), preserving the keyword's stored casing for the
// matched label.
func matchingKeyword(e *types.CanonicalEntity, term string) (string, bool) {
	for _, kw := range e.Keywords {
		if strings.EqualFold(kw, term) {
			return kw, true
		}
	}
	return "", false
}

// adopt keeps the higher-confidence of the current best and a challenger.
// Earlier strategies win ties, preserving chain order.
func adopt(best, challenger *Result) *Result {
	if best == nil || challenger.Confidence > best.Confidence {
		return challenger
	}
	return best
}

// containsScore implements the contains strategy. Both inputs are
// normalized. The shorter string must exceed containsMinLength. When the
// entity name is contained in the candidate the score is capped at 0.95;
// the symmetric case caps at 0.93 with a lower base, reflecting that a
// candidate naming only part of an entity is weaker evidence.
func containsScore(candNorm, entityNorm string) (float64, bool) {
	if candNorm == "" || entityNorm == "" {
		return 0, false
	}

	shorter := len(candNorm)
	if len(entityNorm) < shorter {
		shorter = len(entityNorm)
	}
	if shorter <= containsMinLength {
		return 0, false
	}

	if strings.Contains(candNorm, entityNorm) {
		ratio := float64(len(entityNorm)) / float64(len(candNorm))
		return min(0.95, 0.7+ratio*0.3), true
	}
	if strings.Contains(entityNorm, candNorm) {
		ratio := float64(len(candNorm)) / float64(len(entityNorm))
		return min(0.93, 0.65+ratio*0.3), true
	}
	return 0, false
}

// Package types defines the core data structures for the topicmatch resolver:
// canonical product-topic entities, candidate terms pending resolution, and
// the persisted resolution records that link the two.
package types

// MatchType classifies how a candidate term was resolved against the catalog.
type MatchType string

// Match type constants, in strategy-chain order.
const (
	// MatchExactName indicates a case-insensitive equality match on an entity name.
	MatchExactName MatchType = "exact_name"

	// MatchExactKeyword indicates membership in an entity's keyword set.
	MatchExactKeyword MatchType = "exact_keyword"

	// MatchContains indicates a bidirectional substring match on normalized text.
	MatchContains MatchType = "contains"

	// MatchFuzzy indicates a trigram-similarity match against an entity name.
	MatchFuzzy MatchType = "fuzzy"

	// MatchFuzzyKeyword indicates a trigram-similarity match against an entity keyword.
	MatchFuzzyKeyword MatchType = "fuzzy_keyword"

	// MatchEmbedding indicates a cosine-similarity match between embeddings.
	MatchEmbedding MatchType = "embedding"

	// MatchNewEntity indicates a new canonical entity was minted for the term.
	MatchNewEntity MatchType = "new_entity"

	// MatchUnmatched indicates no strategy produced an acceptable match.
	MatchUnmatched MatchType = "unmatched"
)

// ValidMatchTypes is a slice of all valid match types for validation.
var ValidMatchTypes = []MatchType{
	MatchExactName,
	MatchExactKeyword,
	MatchContains,
	MatchFuzzy,
	MatchFuzzyKeyword,
	MatchEmbedding,
	MatchNewEntity,
	MatchUnmatched,
}

// IsValidMatchType checks if the given match type is valid.
func IsValidMatchType(mt MatchType) bool {
	for _, valid := range ValidMatchTypes {
		if valid == mt {
			return true
		}
	}
	return false
}

// EmbeddingDimension is the expected length of entity and candidate
// embedding vectors. Catalog snapshots and embedding providers must agree
// on this dimension.
const EmbeddingDimension = 384

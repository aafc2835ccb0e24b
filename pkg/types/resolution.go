package types

import (
	"fmt"
	"time"
)

// ResolutionRecord is the persisted decision linking a (term, scope) pair to
// a canonical entity, or marking it unmatched. Exactly one current record
// exists per (term, scope); re-resolution overwrites, never appends.
type ResolutionRecord struct {
	ID           string    `json:"id"`                  // Row identifier (UUID)
	Term         string    `json:"term"`                // Raw term, part of the logical key
	Scope        string    `json:"scope"`               // Scope, part of the logical key
	EntityID     string    `json:"entity_id,omitempty"` // Empty when unmatched
	MatchType    MatchType `json:"match_type"`
	Confidence   float64   `json:"confidence"`              // 0.0 .. 1.0
	MatchedLabel string    `json:"matched_label,omitempty"` // Name or keyword that matched
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewResolutionRecord constructs a validated resolution record. It enforces
// the invariants that confidence stays within [0,1], that unmatched records
// carry no entity and zero confidence, and that every other match type
// references an entity.
func NewResolutionRecord(term, scope, entityID string, matchType MatchType, confidence float64, label string) (*ResolutionRecord, error) {
	if term == "" {
		return nil, fmt.Errorf("resolution record: term is required")
	}
	if scope == "" {
		return nil, fmt.Errorf("resolution record: scope is required")
	}
	if !IsValidMatchType(matchType) {
		return nil, fmt.Errorf("resolution record: unknown match type %q", matchType)
	}
	if confidence < 0.0 || confidence > 1.0 {
		return nil, fmt.Errorf("resolution record: confidence %f out of range [0,1]", confidence)
	}

	if matchType == MatchUnmatched {
		if entityID != "" {
			return nil, fmt.Errorf("resolution record: unmatched record must not reference entity %q", entityID)
		}
		if confidence != 0.0 {
			return nil, fmt.Errorf("resolution record: unmatched record must have zero confidence, got %f", confidence)
		}
	} else if entityID == "" {
		return nil, fmt.Errorf("resolution record: match type %q requires an entity ID", matchType)
	}

	return &ResolutionRecord{
		Term:         term,
		Scope:        scope,
		EntityID:     entityID,
		MatchType:    matchType,
		Confidence:   confidence,
		MatchedLabel: label,
		UpdatedAt:    time.Now(),
	}, nil
}

// Unmatched is a convenience constructor for the unmatched terminal state.
func Unmatched(term, scope string) *ResolutionRecord {
	return &ResolutionRecord{
		Term:      term,
		Scope:     scope,
		MatchType: MatchUnmatched,
		UpdatedAt: time.Now(),
	}
}

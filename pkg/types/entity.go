package types

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidEntity indicates a canonical entity failed validation.
var ErrInvalidEntity = errors.New("invalid canonical entity")

// CanonicalEntity is a deduplicated product-topic record that external
// search terms are mapped onto. Entities are created once (seeded from the
// catalog snapshot or minted by the entity creator) and only ever grow their
// keyword set afterwards; this subsystem never deletes them.
type CanonicalEntity struct {
	ID             string    `json:"id"`                        // Stable identifier (format: topic:slug)
	Name           string    `json:"name"`                      // Display name
	NormalizedName string    `json:"normalized_name"`           // Normalizer output for Name
	Keywords       []string  `json:"keywords,omitempty"`        // Alternative terms (set semantics, case-insensitive)
	Category       string    `json:"category,omitempty"`        // Product category
	Embedding      []float32 `json:"embedding,omitempty"`       // Optional vector embedding
	CreatedAt      time.Time `json:"created_at"`                // Creation timestamp
}

// Validate checks the structural invariants of an entity.
func (e *CanonicalEntity) Validate() error {
	if e == nil {
		return ErrInvalidEntity
	}
	if e.ID == "" {
		return errors.New("invalid canonical entity: ID is required")
	}
	if e.Name == "" {
		return errors.New("invalid canonical entity: name is required")
	}
	if len(e.Embedding) != 0 && len(e.Embedding) != EmbeddingDimension {
		return errors.New("invalid canonical entity: embedding has wrong dimension")
	}
	return nil
}

// HasKeyword reports whether the entity's keyword set contains the given
// term, compared case-insensitively.
func (e *CanonicalEntity) HasKeyword(term string) bool {
	for _, kw := range e.Keywords {
		if strings.EqualFold(kw, term) {
			return true
		}
	}
	return false
}

// AddKeyword appends a keyword unless an equivalent one is already present.
// It returns true when the keyword set actually grew.
func (e *CanonicalEntity) AddKeyword(term string) bool {
	if term == "" || e.HasKeyword(term) {
		return false
	}
	e.Keywords = append(e.Keywords, term)
	return true
}

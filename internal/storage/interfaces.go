// Package storage provides composable storage interfaces for the topicmatch
// resolver. The catalog of canonical entities and the resolution mapping are
// behind small, focused interfaces so backends can be implemented
// independently and composed as needed.
package storage

import (
	"context"

	"github.com/scrypster/topicmatch/pkg/types"
)

// EntityStore persists the canonical entity catalog. Entities are created
// once (seed or entity creator) and never deleted by this subsystem.
type EntityStore interface {
	// ListEntities returns every entity in the catalog, in creation order.
	// This is the catalog snapshot a resolution run starts from.
	ListEntities(ctx context.Context) ([]*types.CanonicalEntity, error)

	// StoreEntity inserts a new entity. Inserting an ID that already exists
	// returns ErrDuplicate; entities are append-only.
	StoreEntity(ctx context.Context, entity *types.CanonicalEntity) error

	// GetEntity retrieves an entity by ID.
	// Returns ErrNotFound if the entity doesn't exist.
	GetEntity(ctx context.Context, id string) (*types.CanonicalEntity, error)
}

// ResolutionStore persists the idempotent (term, scope) → entity mapping.
type ResolutionStore interface {
	// Upsert writes a resolution record with replace-on-write semantics
	// keyed by (term, scope). Re-running a batch is safe and convergent.
	Upsert(ctx context.Context, record *types.ResolutionRecord) error

	// AlreadyResolved returns the set of terms that already have a current
	// record for the scope, supporting resumable batches. When
	// includeUnmatched is false, unmatched records are excluded so those
	// terms are re-attempted as the catalog grows.
	AlreadyResolved(ctx context.Context, scope string, includeUnmatched bool) (map[string]struct{}, error)

	// Get retrieves the current record for a (term, scope) pair. This is
	// the read contract consumed by downstream linking.
	// Returns ErrNotFound when the pair has never been resolved.
	Get(ctx context.Context, term, scope string) (*types.ResolutionRecord, error)
}

// Store combines both storage concerns; each backend implements the full set
// against a single database.
type Store interface {
	EntityStore
	ResolutionStore

	// Close releases any resources held by the store.
	Close() error
}

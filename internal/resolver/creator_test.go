package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scrypster/topicmatch/internal/catalog"
	"github.com/scrypster/topicmatch/pkg/types"
)

func seededCatalog(entities ...*types.CanonicalEntity) *catalog.Catalog {
	return catalog.New(entities)
}

func TestCreator_MintsEntityFromCandidate(t *testing.T) {
	store := newTestStore(t)
	creator := NewCreator(store)
	cat := seededCatalog()

	cand := &types.Candidate{Term: "smart bird feeder", Rank: 12, Scope: "2026-08", CategoryHint: "outdoors"}
	entity, err := creator.Create(context.Background(), cand, "smart bird feeder", cat)
	require.NoError(t, err)

	require.Equal(t, "topic:smart-bird-feeder", entity.ID)
	require.Equal(t, "Smart Bird Feeder", entity.Name)
	require.Equal(t, "smart bird feeder", entity.NormalizedName)
	require.Equal(t, []string{"smart bird feeder"}, entity.Keywords)
	require.Equal(t, "outdoors", entity.Category)

	// Persisted and visible on the live catalog.
	stored, err := store.GetEntity(context.Background(), entity.ID)
	require.NoError(t, err)
	require.Equal(t, entity.Name, stored.Name)
	require.NotNil(t, cat.FindBySlug("smart-bird-feeder"))
}

func TestCreator_SuffixesSlugOnUnrelatedCollision(t *testing.T) {
	store := newTestStore(t)
	creator := NewCreator(store)

	// Same slug, different normalized name: a legitimately distinct topic.
	existing := &types.CanonicalEntity{
		ID:             "topic:apple-watch",
		Name:           "Apple Watch",
		NormalizedName: "apple watch series ultra",
		CreatedAt:      time.Now(),
	}
	cat := seededCatalog(existing)

	cand := &types.Candidate{Term: "apple watch", Rank: 9, Scope: "2026-08"}
	entity, err := creator.Create(context.Background(), cand, "apple watch", cat)
	require.NoError(t, err)
	require.Equal(t, "topic:apple-watch-2", entity.ID)
}

func TestCreator_AbortsWhenCollisionSharesNormalizedName(t *testing.T) {
	store := newTestStore(t)
	creator := NewCreator(store)

	// Identical normalized name means the matcher should have claimed the
	// term; a suffixed twin would be a duplicate entity.
	existing := &types.CanonicalEntity{
		ID:             "topic:quantum-sprocket",
		Name:           "Quantum Sprocket",
		NormalizedName: "quantum sprocket",
		CreatedAt:      time.Now(),
	}
	cat := seededCatalog(existing)

	cand := &types.Candidate{Term: "quantum sprocket", Rank: 3, Scope: "2026-08"}
	_, err := creator.Create(context.Background(), cand, "quantum sprocket", cat)
	require.ErrorIs(t, err, ErrSlugConflict)
}

func TestCreator_AbortsWhenSuffixesExhausted(t *testing.T) {
	store := newTestStore(t)
	creator := NewCreator(store)

	entities := []*types.CanonicalEntity{
		{ID: "topic:widget", Name: "Widget", NormalizedName: "widget one", CreatedAt: time.Now()},
	}
	for i := 2; i <= maxSlugSuffix; i++ {
		entities = append(entities, &types.CanonicalEntity{
			ID:             "topic:widget-" + string(rune('0'+i)),
			Name:           "Widget",
			NormalizedName: "widget variant",
			CreatedAt:      time.Now(),
		})
	}
	cat := seededCatalog(entities...)

	cand := &types.Candidate{Term: "widget", Rank: 1, Scope: "2026-08"}
	_, err := creator.Create(context.Background(), cand, "widget", cat)
	require.ErrorIs(t, err, ErrSlugConflict)
}

func TestCreator_DuplicateInsertReportedAsConflict(t *testing.T) {
	store := newTestStore(t)
	creator := NewCreator(store)

	seedEntity(t, store, "topic:smart-bird-feeder", "Smart Bird Feeder Camera", "smart bird feeder camera", nil, nil)

	// Empty catalog simulates a writer that raced past the in-memory check.
	cat := seededCatalog()
	cand := &types.Candidate{Term: "smart bird feeder", Rank: 12, Scope: "2026-08"}
	_, err := creator.Create(context.Background(), cand, "smart bird feeder", cat)
	require.ErrorIs(t, err, ErrSlugConflict)
}

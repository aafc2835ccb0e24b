package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scrypster/topicmatch/internal/storage"
	"github.com/scrypster/topicmatch/pkg/types"
)

// newTestStore creates an in-memory SQLite store for testing.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreEntity_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	embedding := make([]float32, types.EmbeddingDimension)
	embedding[0], embedding[383] = 0.5, -0.25

	entity := &types.CanonicalEntity{
		ID:             "topic:cold-plunge-tub",
		Name:           "Cold Plunge Tub",
		NormalizedName: "cold plunge tub",
		Keywords:       []string{"cold plunge", "ice bath tub"},
		Category:       "wellness",
		Embedding:      embedding,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
	if err := store.StoreEntity(ctx, entity); err != nil {
		t.Fatalf("StoreEntity failed: %v", err)
	}

	got, err := store.GetEntity(ctx, entity.ID)
	if err != nil {
		t.Fatalf("GetEntity failed: %v", err)
	}
	if got.Name != entity.Name || got.NormalizedName != entity.NormalizedName {
		t.Errorf("names did not round-trip: %+v", got)
	}
	if len(got.Keywords) != 2 || got.Keywords[0] != "cold plunge" {
		t.Errorf("keywords did not round-trip: %v", got.Keywords)
	}
	if got.Category != "wellness" {
		t.Errorf("category did not round-trip: %q", got.Category)
	}
	if len(got.Embedding) != types.EmbeddingDimension || got.Embedding[0] != 0.5 || got.Embedding[383] != -0.25 {
		t.Errorf("embedding did not round-trip")
	}
}

func TestStoreEntity_DuplicateID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entity := &types.CanonicalEntity{ID: "topic:sauna", Name: "Sauna"}
	if err := store.StoreEntity(ctx, entity); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	err := store.StoreEntity(ctx, &types.CanonicalEntity{ID: "topic:sauna", Name: "Other Sauna"})
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetEntity_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetEntity(context.Background(), "topic:missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListEntities_CreationOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"topic:a", "topic:b", "topic:c"} {
		entity := &types.CanonicalEntity{ID: id, Name: id, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := store.StoreEntity(ctx, entity); err != nil {
			t.Fatalf("StoreEntity(%s) failed: %v", id, err)
		}
	}

	entities, err := store.ListEntities(ctx)
	if err != nil {
		t.Fatalf("ListEntities failed: %v", err)
	}
	if len(entities) != 3 {
		t.Fatalf("expected 3 entities, got %d", len(entities))
	}
	for i, want := range []string{"topic:a", "topic:b", "topic:c"} {
		if entities[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, entities[i].ID)
		}
	}
}

func TestUpsert_ReplaceOnWrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := types.NewResolutionRecord("cold plunge tub", "US", "topic:old", types.MatchFuzzy, 0.88, "Old")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Upsert(ctx, first); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	second, err := types.NewResolutionRecord("cold plunge tub", "US", "topic:new", types.MatchExactName, 1.0, "New")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Upsert(ctx, second); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	got, err := store.Get(ctx, "cold plunge tub", "US")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.EntityID != "topic:new" || got.MatchType != types.MatchExactName {
		t.Errorf("replace-on-write failed: %+v", got)
	}

	// Exactly one current record per (term, scope).
	resolved, err := store.AlreadyResolved(ctx, "US", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(resolved) != 1 {
		t.Errorf("expected 1 resolved term, got %d", len(resolved))
	}
}

func TestUpsert_ScopesAreIndependent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, scope := range []string{"US", "DE"} {
		rec, err := types.NewResolutionRecord("sauna", scope, "topic:sauna", types.MatchExactName, 1.0, "Sauna")
		if err != nil {
			t.Fatal(err)
		}
		if err := store.Upsert(ctx, rec); err != nil {
			t.Fatalf("upsert %s failed: %v", scope, err)
		}
	}

	us, err := store.Get(ctx, "sauna", "US")
	if err != nil {
		t.Fatal(err)
	}
	de, err := store.Get(ctx, "sauna", "DE")
	if err != nil {
		t.Fatal(err)
	}
	if us.Scope == de.Scope {
		t.Error("scopes collided")
	}
}

func TestAlreadyResolved_ExcludesUnmatchedByDefault(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	matched, err := types.NewResolutionRecord("sauna", "US", "topic:sauna", types.MatchExactName, 1.0, "Sauna")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Upsert(ctx, matched); err != nil {
		t.Fatal(err)
	}
	if err := store.Upsert(ctx, types.Unmatched("xyzzy gadget", "US")); err != nil {
		t.Fatal(err)
	}

	withoutUnmatched, err := store.AlreadyResolved(ctx, "US", false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := withoutUnmatched["sauna"]; !ok {
		t.Error("matched term missing from skip-list")
	}
	if _, ok := withoutUnmatched["xyzzy gadget"]; ok {
		t.Error("unmatched term should be re-attempted by default")
	}

	withUnmatched, err := store.AlreadyResolved(ctx, "US", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(withUnmatched) != 2 {
		t.Errorf("expected 2 terms with unmatched included, got %d", len(withUnmatched))
	}
}

func TestGet_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "never seen", "US")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsert_UnmatchedRecordShape(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Upsert(ctx, types.Unmatched("odd term", "US")); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "odd term", "US")
	if err != nil {
		t.Fatal(err)
	}
	if got.EntityID != "" {
		t.Errorf("unmatched record has entity ID %q", got.EntityID)
	}
	if got.Confidence != 0 {
		t.Errorf("unmatched record has confidence %f", got.Confidence)
	}
	if got.MatchType != types.MatchUnmatched {
		t.Errorf("unexpected match type %q", got.MatchType)
	}
}

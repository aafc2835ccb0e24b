package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/scrypster/topicmatch/internal/catalog"
	"github.com/scrypster/topicmatch/internal/normalize"
	"github.com/scrypster/topicmatch/internal/storage"
	"github.com/scrypster/topicmatch/pkg/types"
)

// ErrSlugConflict indicates entity creation was aborted because the
// candidate's slug collides with an existing, unrelated entity. The
// candidate falls back to unmatched; the resolver never merges a term into
// an unrelated entity.
var ErrSlugConflict = errors.New("slug conflicts with an existing entity")

// maxSlugSuffix bounds the numeric suffixes tried to disambiguate a slug.
const maxSlugSuffix = 5

// Creator mints new canonical entities for commercially significant terms
// that matched nothing. New entities are persisted immediately and appended
// to the live catalog so later candidates in the same run match them
// instead of spawning near-duplicates.
type Creator struct {
	entities storage.EntityStore
	titler   cases.Caser
}

// NewCreator creates an entity creator backed by the given store.
func NewCreator(entities storage.EntityStore) *Creator {
	return &Creator{
		entities: entities,
		titler:   cases.Title(language.English),
	}
}

// Create builds and persists a canonical entity for the candidate, appends
// it to the live catalog, and returns it. normTerm is the normalizer output
// for cand.Term.
func (c *Creator) Create(ctx context.Context, cand *types.Candidate, normTerm string, cat *catalog.Catalog) (*types.CanonicalEntity, error) {
	name := c.titler.String(cand.Term)

	slug, err := c.resolveSlug(name, normTerm, cat)
	if err != nil {
		return nil, err
	}

	entity := &types.CanonicalEntity{
		ID:             "topic:" + slug,
		Name:           name,
		NormalizedName: normTerm,
		Keywords:       []string{cand.Term},
		Category:       cand.CategoryHint,
		Embedding:      cand.Embedding,
		CreatedAt:      time.Now(),
	}

	if err := c.entities.StoreEntity(ctx, entity); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			// Another writer claimed the ID between our catalog check and
			// the insert. Treat it like any other collision.
			return nil, fmt.Errorf("%w: %s", ErrSlugConflict, entity.ID)
		}
		return nil, fmt.Errorf("failed to persist new entity: %w", err)
	}

	cat.Append(entity)
	return entity, nil
}

// resolveSlug picks a collision-free slug for the new entity. A base-slug
// collision with an entity of the same normalized name means the matcher
// should have resolved the term there; creating a suffixed twin would mint a
// near-duplicate, so creation is aborted. Collisions with differently-named
// entities are disambiguated with numeric suffixes, up to a bound.
func (c *Creator) resolveSlug(name, normTerm string, cat *catalog.Catalog) (string, error) {
	base := normalize.Slugify(name)
	if base == "" {
		return "", fmt.Errorf("%w: name %q produced an empty slug", ErrSlugConflict, name)
	}

	existing := cat.FindBySlug(base)
	if existing == nil {
		return base, nil
	}
	if existing.NormalizedName == normTerm {
		return "", fmt.Errorf("%w: %q collides with %s", ErrSlugConflict, base, existing.ID)
	}

	for i := 2; i <= maxSlugSuffix; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if cat.FindBySlug(candidate) == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: exhausted suffixes for %q", ErrSlugConflict, base)
}

// Package catalog holds the live in-run view of the canonical entity
// catalog. The catalog is exclusively owned by one resolve pass for its
// duration: the entity creator appends to it mid-run so that later
// candidates in the same batch can match freshly minted entities instead of
// spawning near-duplicates.
package catalog

import (
	"strings"

	"github.com/scrypster/topicmatch/internal/normalize"
	"github.com/scrypster/topicmatch/pkg/types"
)

// Entry pairs an entity with its precomputed normalized name so the matcher
// does not re-normalize catalog entries for every candidate.
type Entry struct {
	Entity         *types.CanonicalEntity
	NormalizedName string
}

// Catalog is an append-only, in-memory snapshot of canonical entities.
// It is not safe for concurrent use; the resolver serializes access per scope.
type Catalog struct {
	entries []Entry
	bySlug  map[string]*types.CanonicalEntity
}

// New builds a catalog from a seeded entity list. Entities whose names fail
// normalization keep an empty normalized name and simply never match the
// normalized strategies.
func New(entities []*types.CanonicalEntity) *Catalog {
	c := &Catalog{
		entries: make([]Entry, 0, len(entities)),
		bySlug:  make(map[string]*types.CanonicalEntity, len(entities)),
	}
	for _, e := range entities {
		c.Append(e)
	}
	return c
}

// Append adds an entity to the live catalog, making it visible to all
// subsequently matched candidates in the same run.
func (c *Catalog) Append(e *types.CanonicalEntity) {
	norm := e.NormalizedName
	if norm == "" {
		if n, err := normalize.Normalize(e.Name); err == nil {
			norm = n
		}
	}
	c.entries = append(c.entries, Entry{Entity: e, NormalizedName: norm})
	c.bySlug[slugOf(e)] = e
}

// Entries returns the catalog in stable append order. Callers must not
// mutate the returned slice.
func (c *Catalog) Entries() []Entry {
	return c.entries
}

// FindBySlug returns the entity whose ID slug matches, or nil.
func (c *Catalog) FindBySlug(slug string) *types.CanonicalEntity {
	return c.bySlug[slug]
}

// Len returns the number of entities currently in the catalog.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// slugOf extracts the slug portion of a topic:slug ID, falling back to
// slugifying the name for externally seeded IDs in other formats.
func slugOf(e *types.CanonicalEntity) string {
	if rest, ok := strings.CutPrefix(e.ID, "topic:"); ok {
		return rest
	}
	return normalize.Slugify(e.Name)
}

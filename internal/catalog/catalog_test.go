package catalog

import (
	"testing"

	"github.com/scrypster/topicmatch/pkg/types"
)

func TestNew_PrecomputesNormalizedNames(t *testing.T) {
	c := New([]*types.CanonicalEntity{
		{ID: "topic:cold-plunge-tub", Name: "Cold Plunge Tub"},
		{ID: "topic:sauna", Name: "Sauna", NormalizedName: "sauna"},
	})

	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	if got := c.Entries()[0].NormalizedName; got != "cold plunge tub" {
		t.Errorf("expected normalized name to be computed, got %q", got)
	}
	if got := c.Entries()[1].NormalizedName; got != "sauna" {
		t.Errorf("expected existing normalized name to be kept, got %q", got)
	}
}

func TestAppend_VisibleImmediately(t *testing.T) {
	c := New(nil)
	c.Append(&types.CanonicalEntity{ID: "topic:widget", Name: "Widget"})

	if c.Len() != 1 {
		t.Fatalf("expected 1 entry after append, got %d", c.Len())
	}
	if c.FindBySlug("widget") == nil {
		t.Error("appended entity not findable by slug")
	}
}

func TestEntries_StableAppendOrder(t *testing.T) {
	c := New(nil)
	ids := []string{"topic:a", "topic:b", "topic:c"}
	for _, id := range ids {
		c.Append(&types.CanonicalEntity{ID: id, Name: id})
	}
	for i, entry := range c.Entries() {
		if entry.Entity.ID != ids[i] {
			t.Errorf("entry %d: expected %q, got %q", i, ids[i], entry.Entity.ID)
		}
	}
}

func TestFindBySlug_ExternallySeededID(t *testing.T) {
	// Seed catalogs may carry IDs in other formats; slug lookup falls back
	// to the slugified name.
	c := New([]*types.CanonicalEntity{{ID: "ext-00042", Name: "Cold Plunge Tub"}})
	if c.FindBySlug("cold-plunge-tub") == nil {
		t.Error("expected slug fallback via entity name")
	}
}

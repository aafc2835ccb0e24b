// Package resolver implements the batch orchestrator that reconciles a
// candidate feed against the canonical entity catalog for one scope at a
// time. The pipeline is a stateful fold, not a parallel map: the entity
// creator mutates the live catalog mid-run and those mutations must be
// visible to subsequently processed candidates.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/scrypster/topicmatch/internal/catalog"
	"github.com/scrypster/topicmatch/internal/embedding"
	"github.com/scrypster/topicmatch/internal/matcher"
	"github.com/scrypster/topicmatch/internal/normalize"
	"github.com/scrypster/topicmatch/internal/storage"
	"github.com/scrypster/topicmatch/pkg/types"
)

// upsertRetries bounds the retry attempts for a transient resolution write.
const upsertRetries = 3

// Engine sequences normalization, embedding, matching, entity creation and
// persistence for one scope. Different scopes may resolve concurrently; two
// runs for the same scope are serialized internally to avoid
// duplicate-entity creation races.
type Engine struct {
	store    storage.Store
	provider embedding.Provider // nil when embeddings are disabled
	matcher  *matcher.Matcher
	creator  *Creator
	opts     Options

	scopeLocks sync.Map // scope → *sync.Mutex
}

// NewEngine creates a resolver engine. provider may be nil, in which case
// the embedding strategy never fires.
func NewEngine(store storage.Store, provider embedding.Provider, opts Options) *Engine {
	if opts.EmbeddingBatchSize < 1 {
		opts.EmbeddingBatchSize = DefaultOptions().EmbeddingBatchSize
	}
	// A zero rank threshold would make every candidate ineligible for
	// entity creation, so the zero value falls back to the default too.
	if opts.NewEntityRankThreshold < 1 {
		opts.NewEntityRankThreshold = DefaultOptions().NewEntityRankThreshold
	}

	m := matcher.New()
	if opts.FuzzyThreshold > 0 {
		m.FuzzyThreshold = opts.FuzzyThreshold
	}
	if opts.EmbeddingThreshold > 0 {
		m.EmbeddingThreshold = opts.EmbeddingThreshold
	}

	return &Engine{
		store:    store,
		provider: provider,
		matcher:  m,
		creator:  NewCreator(store),
		opts:     opts,
	}
}

// workItem pairs a candidate with its normalized term for the pipeline.
type workItem struct {
	cand *types.Candidate
	norm string
}

// Resolve runs the full pipeline for one scope. Per-candidate failures are
// logged, recorded as unmatched and counted in the summary; only
// infrastructure-level failures (catalog or skip-list unreadable) abort the
// run, which is then safe to re-trigger wholesale.
func (e *Engine) Resolve(ctx context.Context, scope string, candidates []*types.Candidate) (*Summary, error) {
	if scope == "" {
		return nil, fmt.Errorf("resolver: scope is required")
	}

	// One in-flight batch per scope at a time.
	lock, _ := e.scopeLocks.LoadOrStore(scope, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	entities, err := e.store.ListEntities(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolver: failed to load catalog: %w", err)
	}
	cat := catalog.New(entities)

	resolved, err := e.store.AlreadyResolved(ctx, scope, e.opts.SkipUnmatched)
	if err != nil {
		return nil, fmt.Errorf("resolver: failed to load resolved terms: %w", err)
	}

	summary := newSummary(scope)
	items := e.prepare(ctx, scope, candidates, resolved, summary)

	e.embedAll(ctx, items)

	// Ascending rank order: most commercially important first. Order
	// matters because newly created entities are visible to later
	// candidates in the same run.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].cand.Rank < items[j].cand.Rank
	})

	for _, item := range items {
		e.processCandidate(ctx, item, cat, summary)
	}

	log.Printf("resolver: scope=%s processed=%d skipped=%d matched=%d unmatched=%d created=%d errors=%d",
		scope, summary.Processed, summary.Skipped, summary.Matched,
		summary.Unmatched, summary.NewlyCreated, summary.Errors)

	return summary, nil
}

// prepare validates and normalizes candidates and applies the resumable
// skip-list. Candidates that fail normalization are recorded unmatched
// immediately; the batch continues.
func (e *Engine) prepare(ctx context.Context, scope string, candidates []*types.Candidate, resolved map[string]struct{}, summary *Summary) []workItem {
	items := make([]workItem, 0, len(candidates))
	for _, cand := range candidates {
		if err := cand.Validate(); err != nil {
			log.Printf("resolver: dropping invalid candidate: %v", err)
			summary.Errors++
			continue
		}
		if cand.Scope != scope {
			log.Printf("resolver: dropping candidate %q: scope %q does not match batch scope %q", cand.Term, cand.Scope, scope)
			summary.Errors++
			continue
		}

		if _, done := resolved[cand.Term]; done && !e.opts.ForceReprocess {
			summary.Skipped++
			continue
		}

		norm, err := normalize.Normalize(cand.Term)
		if err != nil {
			log.Printf("resolver: candidate %q: %v", cand.Term, err)
			summary.Processed++
			summary.Errors++
			e.recordUnmatched(ctx, cand, summary)
			summary.record(types.MatchUnmatched)
			continue
		}

		items = append(items, workItem{cand: cand, norm: norm})
	}
	return items
}

// embedAll computes embeddings for all work items in chunked batched
// provider calls. Provider failure degrades the whole run to non-embedding
// strategies: it is logged once and never fails the batch.
func (e *Engine) embedAll(ctx context.Context, items []workItem) {
	if e.provider == nil || len(items) == 0 {
		return
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.norm
	}

	for start := 0; start < len(texts); start += e.opts.EmbeddingBatchSize {
		end := start + e.opts.EmbeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := e.provider.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			log.Printf("resolver: embedding provider degraded, continuing without embeddings: %v", err)
			return
		}
		for i, vec := range vectors {
			items[start+i].cand.Embedding = vec
		}
	}
}

// processCandidate runs one candidate through match, create and persist.
// Failures are contained to the candidate, which is then accounted as
// unmatched so that every processed candidate lands in exactly one
// breakdown bucket.
func (e *Engine) processCandidate(ctx context.Context, item workItem, cat *catalog.Catalog, summary *Summary) {
	summary.Processed++
	cand := item.cand

	if res, ok := e.matcher.Match(cand, item.norm, cat); ok {
		record, err := types.NewResolutionRecord(cand.Term, cand.Scope, res.EntityID, res.MatchType, res.Confidence, res.Label)
		if err != nil {
			log.Printf("resolver: candidate %q: invalid match result: %v", cand.Term, err)
			summary.Errors++
			e.recordUnmatched(ctx, cand, summary)
			summary.record(types.MatchUnmatched)
			return
		}
		if err := e.upsertWithRetry(ctx, record); err != nil {
			log.Printf("resolver: candidate %q: failed to persist resolution: %v", cand.Term, err)
			summary.Errors++
			summary.record(types.MatchUnmatched)
			return
		}
		summary.record(res.MatchType)
		return
	}

	if cand.Rank > e.opts.NewEntityRankThreshold {
		e.recordUnmatched(ctx, cand, summary)
		summary.record(types.MatchUnmatched)
		return
	}

	entity, err := e.creator.Create(ctx, cand, item.norm, cat)
	if err != nil {
		if errors.Is(err, ErrSlugConflict) {
			log.Printf("resolver: candidate %q: %v; falling back to unmatched", cand.Term, err)
		} else {
			log.Printf("resolver: candidate %q: entity creation failed: %v", cand.Term, err)
			summary.Errors++
		}
		e.recordUnmatched(ctx, cand, summary)
		summary.record(types.MatchUnmatched)
		return
	}

	record, err := types.NewResolutionRecord(cand.Term, cand.Scope, entity.ID, types.MatchNewEntity, 1.0, entity.Name)
	if err != nil {
		log.Printf("resolver: candidate %q: invalid new-entity record: %v", cand.Term, err)
		summary.Errors++
		summary.record(types.MatchUnmatched)
		return
	}
	if err := e.upsertWithRetry(ctx, record); err != nil {
		log.Printf("resolver: candidate %q: failed to persist resolution: %v", cand.Term, err)
		summary.Errors++
		summary.record(types.MatchUnmatched)
		return
	}
	summary.record(types.MatchNewEntity)
}

// recordUnmatched persists the unmatched terminal state for a candidate.
// A write failure here is counted but cannot abort the batch.
func (e *Engine) recordUnmatched(ctx context.Context, cand *types.Candidate, summary *Summary) {
	if err := e.upsertWithRetry(ctx, types.Unmatched(cand.Term, cand.Scope)); err != nil {
		log.Printf("resolver: candidate %q: failed to persist unmatched record: %v", cand.Term, err)
		summary.Errors++
	}
}

// upsertWithRetry retries a transient resolution write a bounded number of
// times before giving up on the candidate.
func (e *Engine) upsertWithRetry(ctx context.Context, record *types.ResolutionRecord) error {
	var err error
	for attempt := 1; attempt <= upsertRetries; attempt++ {
		if err = e.store.Upsert(ctx, record); err == nil {
			return nil
		}
		if errors.Is(err, storage.ErrInvalidInput) || ctx.Err() != nil {
			return err
		}
		if attempt < upsertRetries {
			time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
		}
	}
	return err
}

// Lookup returns the entity ID a (term, scope) pair resolved to, or empty
// when the pair is unmatched. This is the read contract consumed by
// downstream linking.
func (e *Engine) Lookup(ctx context.Context, term, scope string) (string, error) {
	record, err := e.store.Get(ctx, term, scope)
	if err != nil {
		return "", err
	}
	return record.EntityID, nil
}

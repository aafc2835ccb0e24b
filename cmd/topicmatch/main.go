// cmd/topicmatch is the batch entry point for the topic resolver. It reads a
// ranked candidate feed from a JSON file, resolves every scope found in the
// feed against the canonical entity catalog, and prints one summary per
// scope to stdout as JSON.
//
// Startup sequence:
//  1. Load configuration from a YAML file (when -config is given) with
//     environment variable overrides, or from the environment alone.
//  2. Open the configured storage backend (SQLite or PostgreSQL).
//  3. Create the embedding provider and health-check it; an unreachable
//     provider degrades the run to lexical strategies instead of failing it.
//  4. Run the resolver engine once per scope, ascending rank order within
//     each scope.
//
// All logging goes to stderr; stdout carries only the summary JSON so the
// output can be piped into downstream tooling.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/scrypster/topicmatch/internal/config"
	"github.com/scrypster/topicmatch/internal/embedding"
	"github.com/scrypster/topicmatch/internal/resolver"
	"github.com/scrypster/topicmatch/internal/storage"
	"github.com/scrypster/topicmatch/internal/storage/postgres"
	"github.com/scrypster/topicmatch/internal/storage/sqlite"
	"github.com/scrypster/topicmatch/pkg/types"
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetPrefix("topicmatch: ")
	log.SetFlags(log.LstdFlags)

	var (
		candidatesPath = flag.String("candidates", "", "path to the candidate feed JSON file (required)")
		scopeFilter    = flag.String("scope", "", "resolve only this scope; default is every scope in the feed")
		configPath     = flag.String("config", "", "path to a YAML config file; environment variables override it")
		force          = flag.Bool("force", false, "re-resolve terms that already have a resolution record")
	)
	flag.Parse()

	if *candidatesPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *force {
		cfg.Resolver.ForceReprocess = true
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received %s, finishing current candidate and shutting down", sig)
		cancel()
	}()

	provider := openProvider(ctx, cfg)

	byScope, err := loadCandidates(*candidatesPath, *scopeFilter)
	if err != nil {
		log.Fatalf("failed to load candidates: %v", err)
	}
	if len(byScope) == 0 {
		log.Fatalf("no candidates to resolve (feed empty or scope filter %q matched nothing)", *scopeFilter)
	}

	engine := resolver.NewEngine(store, provider, resolver.Options{
		FuzzyThreshold:         cfg.Resolver.FuzzyThreshold,
		EmbeddingThreshold:     cfg.Resolver.EmbeddingThreshold,
		NewEntityRankThreshold: cfg.Resolver.NewEntityRankThreshold,
		EmbeddingBatchSize:     cfg.Embedding.BatchSize,
		ForceReprocess:         cfg.Resolver.ForceReprocess,
		SkipUnmatched:          cfg.Resolver.SkipUnmatched,
	})

	scopes := make([]string, 0, len(byScope))
	for scope := range byScope {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)

	summaries := make([]*resolver.Summary, 0, len(scopes))
	failed := false
	for _, scope := range scopes {
		summary, err := engine.Resolve(ctx, scope, byScope[scope])
		if err != nil {
			log.Printf("scope %s failed: %v", scope, err)
			failed = true
			continue
		}
		summaries = append(summaries, summary)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summaries); err != nil {
		log.Fatalf("failed to write summaries: %v", err)
	}

	if failed {
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfigFromFile(path)
	}
	return config.LoadConfig()
}

// openStore opens the configured backend. For SQLite the parent directory is
// created on demand so a fresh checkout works without setup.
func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Engine {
	case "sqlite":
		if dir := filepath.Dir(cfg.Storage.DSN); dir != "." && cfg.Storage.DSN != ":memory:" {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("failed to create data directory %q: %w", dir, err)
			}
		}
		return sqlite.NewStore(cfg.Storage.DSN)
	case "postgres":
		return postgres.NewStore(cfg.Storage.DSN)
	default:
		return nil, fmt.Errorf("unsupported storage engine %q", cfg.Storage.Engine)
	}
}

// openProvider builds the embedding provider and verifies it is reachable.
// Any failure degrades the run to the lexical strategies rather than
// aborting it: a nil provider simply disables the embedding strategy.
func openProvider(ctx context.Context, cfg *config.Config) embedding.Provider {
	provider, err := embedding.NewProvider(cfg.Embedding)
	if err != nil {
		log.Printf("embedding disabled: %v", err)
		return nil
	}
	if provider == nil {
		return nil
	}
	if err := provider.HealthCheck(ctx); err != nil {
		log.Printf("embedding provider %s unreachable, continuing without embeddings: %v", provider.GetModel(), err)
		return nil
	}
	log.Printf("embedding provider ready (model %s)", provider.GetModel())
	return provider
}

// loadCandidates reads the feed and groups candidates by scope, optionally
// keeping a single scope.
func loadCandidates(path, scopeFilter string) (map[string][]*types.Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var feed []*types.Candidate
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	byScope := make(map[string][]*types.Candidate)
	for _, cand := range feed {
		if scopeFilter != "" && cand.Scope != scopeFilter {
			continue
		}
		byScope[cand.Scope] = append(byScope[cand.Scope], cand)
	}
	return byScope, nil
}

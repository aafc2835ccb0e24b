// Package sqlite provides a SQLite implementation of the storage interfaces.
// It is the default backend: a single-file database suitable for one
// resolver process per host.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/topicmatch/internal/storage"
	"github.com/scrypster/topicmatch/pkg/types"
)

// Store implements storage.Store using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database, configures WAL mode, and creates the
// schema.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Using a single open
	// connection serialises writes and avoids SQLITE_BUSY errors when
	// multiple scopes resolve concurrently. WAL mode allows concurrent
	// readers to proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set busy timeout so that callers wait instead of getting an immediate
	// SQLITE_BUSY error when the connection is held by another goroutine.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// ListEntities returns the full catalog snapshot in creation order.
func (s *Store) ListEntities(ctx context.Context) ([]*types.CanonicalEntity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, normalized_name, keywords, category, embedding, created_at
		FROM entities
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	var entities []*types.CanonicalEntity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}

	return entities, rows.Err()
}

// StoreEntity inserts a new entity. Entities are append-only; a duplicate ID
// returns storage.ErrDuplicate.
func (s *Store) StoreEntity(ctx context.Context, entity *types.CanonicalEntity) error {
	if err := entity.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}

	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = time.Now()
	}

	keywordsJSON, err := marshalKeywords(entity.Keywords)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entities (id, name, normalized_name, keywords, category, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		entity.ID,
		entity.Name,
		entity.NormalizedName,
		keywordsJSON,
		nullableString(entity.Category),
		storage.SerializeEmbedding(entity.Embedding),
		entity.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: entity %s", storage.ErrDuplicate, entity.ID)
		}
		return fmt.Errorf("failed to store entity: %w", err)
	}

	return nil
}

// GetEntity retrieves an entity by ID.
func (s *Store) GetEntity(ctx context.Context, id string) (*types.CanonicalEntity, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: entity ID is required", storage.ErrInvalidInput)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, normalized_name, keywords, category, embedding, created_at
		FROM entities
		WHERE id = ?
	`, id)

	entity, err := scanEntity(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	return entity, err
}

// Upsert writes a resolution record, replacing any existing record for the
// same (term, scope).
func (s *Store) Upsert(ctx context.Context, record *types.ResolutionRecord) error {
	if record == nil || record.Term == "" || record.Scope == "" {
		return fmt.Errorf("%w: term and scope are required", storage.ErrInvalidInput)
	}

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resolutions (id, term, scope, entity_id, match_type, confidence, matched_label, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(term, scope) DO UPDATE SET
			entity_id = excluded.entity_id,
			match_type = excluded.match_type,
			confidence = excluded.confidence,
			matched_label = excluded.matched_label,
			updated_at = excluded.updated_at
	`,
		record.ID,
		record.Term,
		record.Scope,
		nullableString(record.EntityID),
		string(record.MatchType),
		record.Confidence,
		nullableString(record.MatchedLabel),
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert resolution: %w", err)
	}

	return nil
}

// AlreadyResolved returns the set of terms with a current record for the
// scope. Unmatched records are excluded unless includeUnmatched is set, so
// unmatched terms are re-attempted as the catalog grows richer.
func (s *Store) AlreadyResolved(ctx context.Context, scope string, includeUnmatched bool) (map[string]struct{}, error) {
	if scope == "" {
		return nil, fmt.Errorf("%w: scope is required", storage.ErrInvalidInput)
	}

	query := `SELECT term FROM resolutions WHERE scope = ?`
	if !includeUnmatched {
		query += ` AND match_type != 'unmatched'`
	}

	rows, err := s.db.QueryContext(ctx, query, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolved terms: %w", err)
	}
	defer rows.Close()

	resolved := make(map[string]struct{})
	for rows.Next() {
		var term string
		if err := rows.Scan(&term); err != nil {
			return nil, fmt.Errorf("failed to scan resolved term: %w", err)
		}
		resolved[term] = struct{}{}
	}

	return resolved, rows.Err()
}

// Get retrieves the current resolution record for a (term, scope) pair.
func (s *Store) Get(ctx context.Context, term, scope string) (*types.ResolutionRecord, error) {
	if term == "" || scope == "" {
		return nil, fmt.Errorf("%w: term and scope are required", storage.ErrInvalidInput)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, term, scope, entity_id, match_type, confidence, matched_label, updated_at
		FROM resolutions
		WHERE term = ? AND scope = ?
	`, term, scope)

	var (
		record       types.ResolutionRecord
		entityID     sql.NullString
		matchedLabel sql.NullString
	)
	err := row.Scan(
		&record.ID,
		&record.Term,
		&record.Scope,
		&entityID,
		&record.MatchType,
		&record.Confidence,
		&matchedLabel,
		&record.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resolution: %w", err)
	}

	record.EntityID = entityID.String
	record.MatchedLabel = matchedLabel.String
	return &record, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// scanner abstracts *sql.Row and *sql.Rows for shared entity scanning.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntity(row scanner) (*types.CanonicalEntity, error) {
	var (
		entity        types.CanonicalEntity
		keywordsJSON  sql.NullString
		category      sql.NullString
		embeddingBlob []byte
	)

	err := row.Scan(
		&entity.ID,
		&entity.Name,
		&entity.NormalizedName,
		&keywordsJSON,
		&category,
		&embeddingBlob,
		&entity.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan entity: %w", err)
	}

	if keywordsJSON.Valid && keywordsJSON.String != "" {
		if err := json.Unmarshal([]byte(keywordsJSON.String), &entity.Keywords); err != nil {
			return nil, fmt.Errorf("failed to unmarshal keywords for %s: %w", entity.ID, err)
		}
	}
	entity.Category = category.String

	embedding, err := storage.DeserializeEmbedding(embeddingBlob)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize embedding for %s: %w", entity.ID, err)
	}
	entity.Embedding = embedding

	return &entity, nil
}

func marshalKeywords(keywords []string) (sql.NullString, error) {
	if len(keywords) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(keywords)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal keywords: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Compile-time assertion that Store satisfies the combined interface.
var _ storage.Store = (*Store)(nil)

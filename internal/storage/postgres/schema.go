package postgres

// Schema is the base PostgreSQL schema. All statements are idempotent.
// Embeddings are always stored as BYTEA for portability; the pgvector
// migration below adds a typed vector column when the extension is present.
const Schema = `
CREATE TABLE IF NOT EXISTS entities (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    normalized_name TEXT NOT NULL DEFAULT '',
    keywords        JSONB,
    category        TEXT,
    embedding       BYTEA,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_entities_normalized_name ON entities(normalized_name);

CREATE TABLE IF NOT EXISTS resolutions (
    id            TEXT NOT NULL,
    term          TEXT NOT NULL,
    scope         TEXT NOT NULL,
    entity_id     TEXT,
    match_type    TEXT NOT NULL,
    confidence    DOUBLE PRECISION NOT NULL DEFAULT 0,
    matched_label TEXT,
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (term, scope)
);

CREATE INDEX IF NOT EXISTS idx_resolutions_scope ON resolutions(scope);
CREATE INDEX IF NOT EXISTS idx_resolutions_entity ON resolutions(entity_id);
`

// MigrationPgvector adds a typed vector column for entity embeddings when
// the pgvector extension is available. The 384 dimension matches the
// catalog snapshot contract.
const MigrationPgvector = `
ALTER TABLE entities ADD COLUMN IF NOT EXISTS embedding_vec vector(384);
`

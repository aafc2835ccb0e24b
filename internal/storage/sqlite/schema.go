package sqlite

// Schema is the SQLite schema for the topicmatch resolver. All statements
// are idempotent so re-opening a store is safe.
const Schema = `
CREATE TABLE IF NOT EXISTS entities (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    normalized_name TEXT NOT NULL DEFAULT '',
    keywords        TEXT,               -- JSON array of strings
    category        TEXT,
    embedding       BLOB,               -- little-endian float32 vector
    created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_entities_normalized_name ON entities(normalized_name);

CREATE TABLE IF NOT EXISTS resolutions (
    id            TEXT NOT NULL,
    term          TEXT NOT NULL,
    scope         TEXT NOT NULL,
    entity_id     TEXT,
    match_type    TEXT NOT NULL,
    confidence    REAL NOT NULL DEFAULT 0,
    matched_label TEXT,
    updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (term, scope)
);

CREATE INDEX IF NOT EXISTS idx_resolutions_scope ON resolutions(scope);
CREATE INDEX IF NOT EXISTS idx_resolutions_entity ON resolutions(entity_id);
`

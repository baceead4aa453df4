package storage

const schema = `
-- The 'kv' table holds one encoded document per top-level piece of state.
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME NOT NULL
);
`

package db

const schema = `
-- One row per signed-in browser session
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    subject_id TEXT NOT NULL,
    name TEXT,
    email TEXT,
    picture_url TEXT,
    sort_order TEXT NOT NULL DEFAULT 'newest',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Current query state per session; replaced wholesale on every transition
CREATE TABLE IF NOT EXISTS queries (
    session_id TEXT PRIMARY KEY,
    state TEXT NOT NULL,
    result_json TEXT,        -- NULL when no result is present
    error_message TEXT,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY(session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_sessions_subject ON sessions(subject_id);
`

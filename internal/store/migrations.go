package store

// Timestamps are stored as RFC 3339 strings so the uniqueness constraints
// compare at the granularity the monitor writes them.
const schema = `
CREATE TABLE IF NOT EXISTS video_info_cache (
    video_id      TEXT PRIMARY KEY,
    title         TEXT NOT NULL DEFAULT '',
    channel_title TEXT NOT NULL DEFAULT '',
    description   TEXT NOT NULL DEFAULT '',
    published_at  TEXT NOT NULL DEFAULT '',
    view_count    INTEGER NOT NULL DEFAULT 0,
    like_count    INTEGER NOT NULL DEFAULT 0,
    comment_count INTEGER NOT NULL DEFAULT 0,
    last_updated  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS video_sentiment_history (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    video_id       TEXT NOT NULL,
    timestamp      TEXT NOT NULL,
    avg_sentiment  REAL,
    positive_count INTEGER,
    negative_count INTEGER,
    neutral_count  INTEGER,
    total_comments INTEGER,
    UNIQUE(video_id, timestamp)
);

CREATE INDEX IF NOT EXISTS idx_history_video_timestamp
    ON video_sentiment_history(video_id, timestamp);

CREATE TABLE IF NOT EXISTS comment_snapshots (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    video_id     TEXT NOT NULL,
    comment_id   TEXT NOT NULL,
    timestamp    TEXT NOT NULL,
    comment_text TEXT,
    sentiment    REAL,
    author       TEXT,
    like_count   INTEGER,
    UNIQUE(video_id, comment_id, timestamp)
);

CREATE TABLE IF NOT EXISTS alerts (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    video_id      TEXT NOT NULL,
    alert_type    TEXT NOT NULL,
    timestamp     TEXT NOT NULL,
    message       TEXT,
    threshold     REAL,
    current_value REAL
);
`

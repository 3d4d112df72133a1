// Package store persists sentiment monitoring state in SQLite: cached video
// metadata, the per-fetch sentiment time series, raw comment snapshots, and
// alerts.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// VideoInfo is cached video metadata, one row per video.
type VideoInfo struct {
	VideoID      string    `json:"video_id"`
	Title        string    `json:"title"`
	ChannelTitle string    `json:"channel_title"`
	Description  string    `json:"description"`
	PublishedAt  string    `json:"published_at"`
	ViewCount    int64     `json:"view_count"`
	LikeCount    int64     `json:"like_count"`
	CommentCount int64     `json:"comment_count"`
	LastUpdated  time.Time `json:"last_updated"`
}

// HistoryEntry is one point of the append-only sentiment time series.
type HistoryEntry struct {
	ID            int64     `json:"id"`
	VideoID       string    `json:"video_id"`
	Timestamp     time.Time `json:"timestamp"`
	AvgSentiment  float64   `json:"avg_sentiment"`
	PositiveCount int       `json:"positive_count"`
	NegativeCount int       `json:"negative_count"`
	NeutralCount  int       `json:"neutral_count"`
	TotalComments int       `json:"total_comments"`
}

// CommentSnapshot is one audit-log row of a comment as observed at a
// specific cycle timestamp.
type CommentSnapshot struct {
	CommentID string  `json:"comment_id"`
	Text      string  `json:"comment_text"`
	Sentiment float64 `json:"sentiment"`
	Author    string  `json:"author"`
	LikeCount int     `json:"like_count"`
}

// Alert is a persisted alert row. Alerts are derived facts: the triggering
// history entry always exists independently.
type Alert struct {
	ID           int64     `json:"id"`
	VideoID      string    `json:"video_id"`
	AlertType    string    `json:"alert_type"`
	Timestamp    time.Time `json:"timestamp"`
	Message      string    `json:"message"`
	Threshold    float64   `json:"threshold"`
	CurrentValue float64   `json:"current_value"`
}

// Store is the persistence interface.
type Store interface {
	UpsertVideoInfo(ctx context.Context, info *VideoInfo) error
	GetVideoInfo(ctx context.Context, videoID string) (*VideoInfo, error)

	AppendHistory(ctx context.Context, entry *HistoryEntry) error
	History(ctx context.Context, videoID string, since time.Time) ([]HistoryEntry, error)
	LatestHistory(ctx context.Context, videoID string, before time.Time) (*HistoryEntry, error)

	AppendCommentSnapshots(ctx context.Context, videoID string, ts time.Time, comments []CommentSnapshot) error

	InsertAlert(ctx context.Context, a *Alert) error
	RecentAlerts(ctx context.Context, since time.Time) ([]Alert, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertVideoInfo replaces the cached metadata row for the video.
func (s *SQLiteStore) UpsertVideoInfo(ctx context.Context, info *VideoInfo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO video_info_cache
		(video_id, title, channel_title, description, published_at,
		 view_count, like_count, comment_count, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, info.VideoID, info.Title, info.ChannelTitle, info.Description,
		info.PublishedAt, info.ViewCount, info.LikeCount, info.CommentCount,
		formatTime(info.LastUpdated))
	if err != nil {
		return fmt.Errorf("upsert video info %s: %w", info.VideoID, err)
	}
	return nil
}

func (s *SQLiteStore) GetVideoInfo(ctx context.Context, videoID string) (*VideoInfo, error) {
	row := s.db.QueryRowxContext(ctx, `
		SELECT video_id, title, channel_title, description, published_at,
		       view_count, like_count, comment_count, last_updated
		FROM video_info_cache WHERE video_id = ?
	`, videoID)

	var info VideoInfo
	var lastUpdated string
	err := row.Scan(&info.VideoID, &info.Title, &info.ChannelTitle,
		&info.Description, &info.PublishedAt, &info.ViewCount,
		&info.LikeCount, &info.CommentCount, &lastUpdated)
	if err != nil {
		return nil, fmt.Errorf("get video info %s: %w", videoID, err)
	}
	info.LastUpdated = parseTime(lastUpdated)
	return &info, nil
}

// AppendHistory inserts a time-series point with replace-on-conflict for
// (video_id, timestamp): the latest write for a given instant wins, so
// retrying a cycle at coarse timestamp granularity is idempotent.
func (s *SQLiteStore) AppendHistory(ctx context.Context, entry *HistoryEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO video_sentiment_history
		(video_id, timestamp, avg_sentiment, positive_count, negative_count,
		 neutral_count, total_comments)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.VideoID, formatTime(entry.Timestamp), entry.AvgSentiment,
		entry.PositiveCount, entry.NegativeCount, entry.NeutralCount,
		entry.TotalComments)
	if err != nil {
		return fmt.Errorf("append history %s: %w", entry.VideoID, err)
	}
	return nil
}

// History returns the sentiment time series for a video since the given
// time, ascending by timestamp. Numeric columns are read through CAST so a
// malformed stored value coerces to zero instead of failing the scan.
func (s *SQLiteStore) History(ctx context.Context, videoID string, since time.Time) ([]HistoryEntry, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, video_id, timestamp,
		       CAST(avg_sentiment AS REAL),
		       CAST(positive_count AS INTEGER),
		       CAST(negative_count AS INTEGER),
		       CAST(neutral_count AS INTEGER),
		       CAST(total_comments AS INTEGER)
		FROM video_sentiment_history
		WHERE video_id = ? AND timestamp >= ?
		ORDER BY timestamp ASC
	`, videoID, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", videoID, err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("history %s: %w", videoID, err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// LatestHistory returns the most recent entry strictly before the given
// time, or (nil, nil) when the video has no prior history.
func (s *SQLiteStore) LatestHistory(ctx context.Context, videoID string, before time.Time) (*HistoryEntry, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, video_id, timestamp,
		       CAST(avg_sentiment AS REAL),
		       CAST(positive_count AS INTEGER),
		       CAST(negative_count AS INTEGER),
		       CAST(neutral_count AS INTEGER),
		       CAST(total_comments AS INTEGER)
		FROM video_sentiment_history
		WHERE video_id = ? AND timestamp < ?
		ORDER BY timestamp DESC
		LIMIT 1
	`, videoID, formatTime(before))
	if err != nil {
		return nil, fmt.Errorf("latest history %s: %w", videoID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	entry, err := scanHistory(rows)
	if err != nil {
		return nil, fmt.Errorf("latest history %s: %w", videoID, err)
	}
	return entry, nil
}

// AppendCommentSnapshots writes one cycle's comment rows in a single
// transaction, with ignore-on-conflict for (video_id, comment_id,
// timestamp): re-persisting identical data is a no-op, never a duplicate.
func (s *SQLiteStore) AppendCommentSnapshots(ctx context.Context, videoID string, ts time.Time, comments []CommentSnapshot) error {
	if len(comments) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append snapshots %s: %w", videoID, err)
	}
	defer tx.Rollback()

	stamp := formatTime(ts)
	for _, c := range comments {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO comment_snapshots
			(video_id, comment_id, timestamp, comment_text, sentiment, author, like_count)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, videoID, c.CommentID, stamp, c.Text, c.Sentiment, c.Author, c.LikeCount)
		if err != nil {
			return fmt.Errorf("append snapshot %s/%s: %w", videoID, c.CommentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append snapshots %s: %w", videoID, err)
	}
	return nil
}

func (s *SQLiteStore) InsertAlert(ctx context.Context, a *Alert) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (video_id, alert_type, timestamp, message, threshold, current_value)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.VideoID, a.AlertType, formatTime(a.Timestamp), a.Message, a.Threshold, a.CurrentValue)
	if err != nil {
		return fmt.Errorf("insert alert %s/%s: %w", a.VideoID, a.AlertType, err)
	}
	a.ID, _ = res.LastInsertId()
	return nil
}

// RecentAlerts returns alerts since the given time, most recent first.
func (s *SQLiteStore) RecentAlerts(ctx context.Context, since time.Time) ([]Alert, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, video_id, alert_type, timestamp, message,
		       CAST(threshold AS REAL), CAST(current_value AS REAL)
		FROM alerts
		WHERE timestamp >= ?
		ORDER BY timestamp DESC
	`, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("recent alerts: %w", err)
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		var a Alert
		var stamp string
		if err := rows.Scan(&a.ID, &a.VideoID, &a.AlertType, &stamp,
			&a.Message, &a.Threshold, &a.CurrentValue); err != nil {
			return nil, fmt.Errorf("recent alerts: %w", err)
		}
		a.Timestamp = parseTime(stamp)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func scanHistory(rows *sqlx.Rows) (*HistoryEntry, error) {
	var entry HistoryEntry
	var stamp string
	err := rows.Scan(&entry.ID, &entry.VideoID, &stamp, &entry.AvgSentiment,
		&entry.PositiveCount, &entry.NegativeCount, &entry.NeutralCount,
		&entry.TotalComments)
	if err != nil {
		return nil, err
	}
	entry.Timestamp = parseTime(stamp)
	return &entry, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime is tolerant: an unparseable stored timestamp reads as the zero
// time rather than failing the query.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

package youtube

import (
	"errors"
	"time"
)

// Comment is a single comment or reply fetched from a video's comment
// threads. Replies carry the ID of their top-level parent in ParentID.
type Comment struct {
	ID          string    `json:"comment_id"`
	VideoID     string    `json:"video_id"`
	Text        string    `json:"comment_text"`
	Author      string    `json:"author"`
	LikeCount   int       `json:"like_count"`
	PublishedAt time.Time `json:"published_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ParentID    string    `json:"parent_id,omitempty"`
}

// IsReply reports whether the comment is a reply to another comment.
func (c Comment) IsReply() bool { return c.ParentID != "" }

// Video is the metadata for a single video.
type Video struct {
	ID           string    `json:"video_id"`
	Title        string    `json:"title"`
	ChannelTitle string    `json:"channel_title"`
	Description  string    `json:"description"`
	PublishedAt  time.Time `json:"published_at"`
	ViewCount    int64     `json:"view_count"`
	LikeCount    int64     `json:"like_count"`
	CommentCount int64     `json:"comment_count"`
}

// VideoSummary is one entry of a channel video listing.
type VideoSummary struct {
	ID           string    `json:"video_id"`
	Title        string    `json:"title"`
	ChannelID    string    `json:"channel_id"`
	ChannelTitle string    `json:"channel_title"`
	Description  string    `json:"description"`
	Thumbnail    string    `json:"thumbnail,omitempty"`
	PublishedAt  time.Time `json:"published_at"`
}

// Failure kinds the caller can distinguish with errors.Is. Everything else
// the client returns is a generic wrapped transport or decode error.
var (
	ErrNotFound      = errors.New("youtube: not found")
	ErrQuotaExceeded = errors.New("youtube: quota exceeded or access denied")
)

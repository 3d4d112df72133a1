// Package monitor drives the fetch, score, persist, alert cycle over a
// tracked set of videos.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vidpulse/vidpulse/internal/store"
	"github.com/vidpulse/vidpulse/pkg/notify"
	"github.com/vidpulse/vidpulse/pkg/sentiment"
	"github.com/vidpulse/vidpulse/pkg/youtube"
)

// Status is the terminal state of one video within a cycle.
type Status string

const (
	// StatusSuccess: comments were fetched, scored and persisted.
	StatusSuccess Status = "success"
	// StatusNoComments: the fetch returned nothing. Comments may be
	// disabled, the video private, or the ID invalid.
	StatusNoComments Status = "no_comments"
	// StatusAnalysisFailed: the fetch was non-empty but scoring produced an
	// empty result.
	StatusAnalysisFailed Status = "analysis_failed"
	// StatusError: an unexpected failure in any step, caught at the
	// per-video boundary.
	StatusError Status = "error"
)

// Result is the per-video outcome of one cycle, consumed by reporting.
type Result struct {
	VideoID       string    `json:"video_id"`
	Status        Status    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	TotalComments int       `json:"total_comments,omitempty"`
	AvgSentiment  float64   `json:"avg_sentiment,omitempty"`
	PositivePct   float64   `json:"positive_pct,omitempty"`
	NegativePct   float64   `json:"negative_pct,omitempty"`
	NeutralPct    float64   `json:"neutral_pct,omitempty"`
	AlertCount    int       `json:"alert_count,omitempty"`
	Message       string    `json:"message,omitempty"`
}

// Fetcher is the slice of the API client the monitor needs.
type Fetcher interface {
	FetchComments(ctx context.Context, videoID string, maxResults int) ([]youtube.Comment, error)
	VideoInfo(ctx context.Context, videoID string) (*youtube.Video, error)
}

// Config holds the monitor's tunables.
type Config struct {
	Interval    time.Duration
	MaxComments int
	CheckAlerts bool
}

// Monitor owns the tracked video set and runs monitoring cycles over it.
// Videos are processed sequentially within a cycle: the API quota is one
// shared budget, so there is no parallel fan-out.
type Monitor struct {
	client    Fetcher
	scorer    *sentiment.Scorer
	store     store.Store
	evaluator *Evaluator
	notifier  *notify.Manager

	interval    time.Duration
	maxComments int
	checkAlerts bool

	mu          sync.Mutex
	videoIDs    []string
	lastResults []Result
}

// New creates a monitor over an injected tracked-video set. The set lives in
// process memory only; it is not persisted.
func New(client Fetcher, scorer *sentiment.Scorer, st store.Store, evaluator *Evaluator, notifier *notify.Manager, cfg Config, videoIDs []string) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Minute
	}
	if cfg.MaxComments <= 0 {
		cfg.MaxComments = 100
	}
	return &Monitor{
		client:      client,
		scorer:      scorer,
		store:       st,
		evaluator:   evaluator,
		notifier:    notifier,
		interval:    cfg.Interval,
		maxComments: cfg.MaxComments,
		checkAlerts: cfg.CheckAlerts,
		videoIDs:    slices.Clone(videoIDs),
	}
}

// AddVideo adds a video to the tracked set, effective next cycle.
func (m *Monitor) AddVideo(videoID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(m.videoIDs, videoID) {
		m.videoIDs = append(m.videoIDs, videoID)
	}
}

// RemoveVideo removes a video from the tracked set, effective next cycle.
func (m *Monitor) RemoveVideo(videoID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videoIDs = slices.DeleteFunc(m.videoIDs, func(id string) bool { return id == videoID })
}

// Videos returns a copy of the tracked set.
func (m *Monitor) Videos() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.videoIDs)
}

// LastResults returns the results of the most recently completed cycle.
func (m *Monitor) LastResults() []Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.lastResults)
}

// MonitorVideo runs one fetch, score, persist, alert pass for a single
// video. It never panics out: unexpected failures become StatusError.
func (m *Monitor) MonitorVideo(ctx context.Context, videoID string) (result Result) {
	now := time.Now().UTC().Truncate(time.Second)
	result = Result{VideoID: videoID, Timestamp: now}

	defer func() {
		if r := recover(); r != nil {
			result.Status = StatusError
			result.Message = fmt.Sprintf("panic: %v", r)
			log.Error().Str("video_id", videoID).Any("panic", r).Msg("monitoring panicked")
		}
	}()

	title := m.videoTitle(ctx, videoID)
	log.Info().Str("video_id", videoID).Str("title", title).Msg("monitoring video")

	comments, err := m.client.FetchComments(ctx, videoID, m.maxComments)
	if err != nil {
		// Quota and not-found are per-video conditions, not cycle failures.
		if errors.Is(err, youtube.ErrNotFound) || errors.Is(err, youtube.ErrQuotaExceeded) {
			log.Warn().Str("video_id", videoID).Err(err).Msg("video not accessible")
			result.Status = StatusNoComments
			result.Message = err.Error()
			return result
		}
		result.Status = StatusError
		result.Message = err.Error()
		return result
	}
	if len(comments) == 0 {
		result.Status = StatusNoComments
		return result
	}

	scored := m.scorer.ScoreAll(comments)
	if len(scored) == 0 {
		result.Status = StatusAnalysisFailed
		return result
	}
	summary := m.scorer.Summarize(scored)

	if err := m.persist(ctx, videoID, now, scored, summary); err != nil {
		result.Status = StatusError
		result.Message = err.Error()
		return result
	}

	var alerts []store.Alert
	if m.checkAlerts {
		alerts, err = m.evaluator.Check(ctx, videoID, summary.AvgSentiment, now)
		if err != nil {
			result.Status = StatusError
			result.Message = err.Error()
			return result
		}
		for i := range alerts {
			log.Warn().Str("video_id", videoID).Str("alert_type", alerts[i].AlertType).
				Msg(alerts[i].Message)
		}
		m.broadcast(ctx, videoID, title, alerts)
	}

	log.Info().Str("video_id", videoID).Int("comments", summary.TotalComments).
		Float64("avg_sentiment", summary.AvgSentiment).Msg("video monitored")

	result.Status = StatusSuccess
	result.TotalComments = summary.TotalComments
	result.AvgSentiment = summary.AvgSentiment
	result.PositivePct = summary.PositivePct()
	result.NegativePct = summary.NegativePct()
	result.NeutralPct = summary.NeutralPct()
	result.AlertCount = len(alerts)
	return result
}

// persist writes the cycle's history entry and comment snapshots at one
// shared timestamp. History uses replace-on-conflict, snapshots
// ignore-on-conflict; the different policies are deliberate.
func (m *Monitor) persist(ctx context.Context, videoID string, now time.Time, scored []sentiment.ScoredComment, summary sentiment.Summary) error {
	snapshots := make([]store.CommentSnapshot, len(scored))
	for i, c := range scored {
		snapshots[i] = store.CommentSnapshot{
			CommentID: c.ID,
			Text:      c.Text,
			Sentiment: c.Polarity,
			Author:    c.Author,
			LikeCount: c.LikeCount,
		}
	}
	if err := m.store.AppendCommentSnapshots(ctx, videoID, now, snapshots); err != nil {
		return err
	}

	return m.store.AppendHistory(ctx, &store.HistoryEntry{
		VideoID:       videoID,
		Timestamp:     now,
		AvgSentiment:  summary.AvgSentiment,
		PositiveCount: summary.PositiveCount,
		NegativeCount: summary.NegativeCount,
		NeutralCount:  summary.NeutralCount,
		TotalComments: summary.TotalComments,
	})
}

// RunCycle runs one pass over the tracked set. A failing video never aborts
// the cycle; the result list always covers every tracked video.
func (m *Monitor) RunCycle(ctx context.Context) []Result {
	videos := m.Videos()
	results := make([]Result, 0, len(videos))
	for _, videoID := range videos {
		results = append(results, m.MonitorVideo(ctx, videoID))
	}

	m.mu.Lock()
	m.lastResults = slices.Clone(results)
	m.mu.Unlock()
	return results
}

// Run executes cycles until ctx is cancelled. The inter-cycle wait polls
// the context about once a second, so shutdown latency is bounded no matter
// how long the interval is.
func (m *Monitor) Run(ctx context.Context) error {
	if len(m.Videos()) == 0 {
		return errors.New("monitor: no videos to monitor")
	}

	log.Info().Int("videos", len(m.Videos())).Dur("interval", m.interval).
		Msg("monitor started")

	for cycle := 1; ; cycle++ {
		log.Info().Int("cycle", cycle).Msg("starting cycle")
		results := m.RunCycle(ctx)

		succeeded := 0
		for _, r := range results {
			if r.Status == StatusSuccess {
				succeeded++
			}
		}
		log.Info().Int("cycle", cycle).Int("succeeded", succeeded).
			Int("total", len(results)).Msg("cycle complete")

		if err := m.wait(ctx); err != nil {
			log.Info().Msg("monitor stopped")
			return err
		}
	}
}

func (m *Monitor) wait(ctx context.Context) error {
	tick := time.Second
	if m.interval < tick {
		tick = m.interval
	}

	deadline := time.Now().Add(m.interval)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !time.Now().Before(deadline) {
				return nil
			}
		}
	}
}

// videoTitle returns the cached title, fetching and caching metadata on a
// miss. Falls back to the raw ID when the API cannot provide it.
func (m *Monitor) videoTitle(ctx context.Context, videoID string) string {
	if info, err := m.store.GetVideoInfo(ctx, videoID); err == nil && info.Title != "" {
		return info.Title
	}

	video, err := m.client.VideoInfo(ctx, videoID)
	if err != nil {
		return videoID
	}

	info := &store.VideoInfo{
		VideoID:      video.ID,
		Title:        video.Title,
		ChannelTitle: video.ChannelTitle,
		Description:  video.Description,
		PublishedAt:  video.PublishedAt.UTC().Format(time.RFC3339),
		ViewCount:    video.ViewCount,
		LikeCount:    video.LikeCount,
		CommentCount: video.CommentCount,
		LastUpdated:  time.Now().UTC(),
	}
	if err := m.store.UpsertVideoInfo(ctx, info); err != nil {
		log.Warn().Str("video_id", videoID).Err(err).Msg("video info cache write failed")
	}
	return video.Title
}

func (m *Monitor) broadcast(ctx context.Context, videoID, title string, alerts []store.Alert) {
	if m.notifier == nil || !m.notifier.HasNotifiers() {
		return
	}
	for i := range alerts {
		n := &notify.Notification{VideoID: videoID, VideoTitle: title, Alert: alerts[i]}
		if err := m.notifier.Broadcast(ctx, n); err != nil {
			log.Warn().Str("video_id", videoID).Err(err).Msg("alert notification failed")
		}
	}
}

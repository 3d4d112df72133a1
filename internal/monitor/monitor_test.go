package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidpulse/vidpulse/pkg/sentiment"
	"github.com/vidpulse/vidpulse/pkg/youtube"
)

// fakeFetcher serves canned comments per video ID. A nil entry means the
// fetch errors with the given failure.
type fakeFetcher struct {
	comments map[string][]youtube.Comment
	errs     map[string]error
	calls    int
}

func (f *fakeFetcher) FetchComments(ctx context.Context, videoID string, maxResults int) ([]youtube.Comment, error) {
	f.calls++
	if err, ok := f.errs[videoID]; ok {
		return nil, err
	}
	return f.comments[videoID], nil
}

func (f *fakeFetcher) VideoInfo(ctx context.Context, videoID string) (*youtube.Video, error) {
	return &youtube.Video{ID: videoID, Title: "Title of " + videoID}, nil
}

func comment(id, text string) youtube.Comment {
	return youtube.Comment{ID: id, Text: text, Author: "tester"}
}

func newTestMonitor(t *testing.T, f Fetcher, videoIDs ...string) *Monitor {
	t.Helper()
	st := newTestStore(t)
	scorer := sentiment.NewScorer(sentiment.DefaultThresholds())
	eval := NewEvaluator(st, DefaultThresholds())
	cfg := Config{Interval: 30 * time.Minute, MaxComments: 100, CheckAlerts: true}
	return New(f, scorer, st, eval, nil, cfg, videoIDs)
}

func TestMonitorVideoSuccess(t *testing.T) {
	f := &fakeFetcher{comments: map[string][]youtube.Comment{
		"vid1": {
			comment("c1", "This is absolutely wonderful, I love it!"),
			comment("c2", "Terrible video, complete waste of time."),
			comment("c3", "It's a video about cats."),
		},
	}}
	m := newTestMonitor(t, f, "vid1")

	r := m.MonitorVideo(context.Background(), "vid1")
	assert.Equal(t, StatusSuccess, r.Status)
	assert.Equal(t, 3, r.TotalComments)
	assert.InDelta(t, 100.0, r.PositivePct+r.NegativePct+r.NeutralPct, 1e-6)

	// The history entry is queryable afterwards.
	entries, err := m.store.History(context.Background(), "vid1", time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].TotalComments)
}

func TestMonitorVideoNoComments(t *testing.T) {
	f := &fakeFetcher{comments: map[string][]youtube.Comment{"vid1": nil}}
	m := newTestMonitor(t, f, "vid1")

	r := m.MonitorVideo(context.Background(), "vid1")
	assert.Equal(t, StatusNoComments, r.Status)

	entries, err := m.store.History(context.Background(), "vid1", time.Time{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMonitorVideoNotFoundIsNoComments(t *testing.T) {
	f := &fakeFetcher{errs: map[string]error{"vid1": youtube.ErrNotFound}}
	m := newTestMonitor(t, f, "vid1")

	r := m.MonitorVideo(context.Background(), "vid1")
	assert.Equal(t, StatusNoComments, r.Status)
	assert.NotEmpty(t, r.Message)
}

func TestMonitorVideoQuotaIsNoComments(t *testing.T) {
	f := &fakeFetcher{errs: map[string]error{"vid1": youtube.ErrQuotaExceeded}}
	m := newTestMonitor(t, f, "vid1")

	r := m.MonitorVideo(context.Background(), "vid1")
	assert.Equal(t, StatusNoComments, r.Status)
}

func TestMonitorVideoFetchErrorIsError(t *testing.T) {
	f := &fakeFetcher{errs: map[string]error{"vid1": errors.New("connection reset")}}
	m := newTestMonitor(t, f, "vid1")

	r := m.MonitorVideo(context.Background(), "vid1")
	assert.Equal(t, StatusError, r.Status)
	assert.Contains(t, r.Message, "connection reset")
}

func TestMonitorVideoAnalysisFailed(t *testing.T) {
	// All comments are whitespace, so scoring drops every one of them.
	f := &fakeFetcher{comments: map[string][]youtube.Comment{
		"vid1": {comment("c1", "   "), comment("c2", "\n\t")},
	}}
	m := newTestMonitor(t, f, "vid1")

	r := m.MonitorVideo(context.Background(), "vid1")
	assert.Equal(t, StatusAnalysisFailed, r.Status)
}

func TestRunCycleIsolatesFailures(t *testing.T) {
	f := &fakeFetcher{
		comments: map[string][]youtube.Comment{
			"good": {comment("c1", "great stuff, really enjoyed this")},
		},
		errs: map[string]error{"bad": errors.New("boom")},
	}
	m := newTestMonitor(t, f, "good", "bad", "empty")

	results := m.RunCycle(context.Background())
	require.Len(t, results, 3)

	byID := map[string]Result{}
	for _, r := range results {
		byID[r.VideoID] = r
	}
	assert.Equal(t, StatusSuccess, byID["good"].Status)
	assert.Equal(t, StatusError, byID["bad"].Status)
	assert.Equal(t, StatusNoComments, byID["empty"].Status)

	assert.Equal(t, results, m.LastResults())
}

func TestAddRemoveVideo(t *testing.T) {
	m := newTestMonitor(t, &fakeFetcher{}, "vid1")

	m.AddVideo("vid2")
	m.AddVideo("vid2")
	assert.Equal(t, []string{"vid1", "vid2"}, m.Videos())

	m.RemoveVideo("vid1")
	assert.Equal(t, []string{"vid2"}, m.Videos())

	m.RemoveVideo("absent")
	assert.Equal(t, []string{"vid2"}, m.Videos())
}

func TestRunRefusesEmptySet(t *testing.T) {
	m := newTestMonitor(t, &fakeFetcher{})
	err := m.Run(context.Background())
	require.Error(t, err)
}

func TestRunStopsPromptlyOnCancel(t *testing.T) {
	f := &fakeFetcher{comments: map[string][]youtube.Comment{"vid1": nil}}
	m := newTestMonitor(t, f, "vid1")
	m.interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	// Let the first cycle complete and the wait begin.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("monitor did not stop after cancellation")
	}
	assert.Equal(t, 1, f.calls)
}

package youtube

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const defaultFeedBaseURL = "https://www.youtube.com/feeds/videos.xml"

// FeedClient lists a channel's recent uploads through the public Atom feed.
// It needs no API key and no quota, at the cost of returning only the most
// recent uploads (the feed carries roughly the last 15 videos).
type FeedClient struct {
	client  *http.Client
	parser  *gofeed.Parser
	baseURL string
}

// NewFeedClient creates an uploads-feed reader.
func NewFeedClient() *FeedClient {
	return &FeedClient{
		client:  &http.Client{Timeout: 30 * time.Second},
		parser:  gofeed.NewParser(),
		baseURL: defaultFeedBaseURL,
	}
}

// ChannelUploads fetches the channel's uploads feed. The reference must be a
// canonical channel ID; handle resolution requires the Data API.
func (f *FeedClient) ChannelUploads(ctx context.Context, channelID string) ([]VideoSummary, error) {
	if !looksLikeChannelID(channelID) {
		return nil, fmt.Errorf("uploads feed needs a channel ID (UC...), got %q: %w", channelID, ErrNotFound)
	}

	feedURL := f.baseURL + "?channel_id=" + channelID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create uploads feed request: %w", err)
	}
	req.Header.Set("User-Agent", "vidpulse/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch uploads feed %s: %w", channelID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("channel %s uploads feed: %w", channelID, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("uploads feed %s status %d", channelID, resp.StatusCode)
	}

	parsed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse uploads feed %s: %w", channelID, err)
	}

	var videos []VideoSummary
	for _, entry := range parsed.Items {
		published := time.Time{}
		if entry.PublishedParsed != nil {
			published = entry.PublishedParsed.UTC()
		}

		author := ""
		if entry.Author != nil {
			author = entry.Author.Name
		}

		videos = append(videos, VideoSummary{
			ID:           videoIDFromFeedGUID(entry.GUID),
			Title:        entry.Title,
			ChannelID:    channelID,
			ChannelTitle: author,
			Description:  truncate(entry.Description, 200),
			PublishedAt:  published,
		})
	}
	return videos, nil
}

// Feed entry GUIDs look like "yt:video:dQw4w9WgXcQ".
func videoIDFromFeedGUID(guid string) string {
	if id, ok := strings.CutPrefix(guid, "yt:video:"); ok {
		return id
	}
	return guid
}

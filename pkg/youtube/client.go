package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"

	// Per-request page caps imposed by the Data API.
	commentPageSize = 100
	searchPageSize  = 50

	// Pause inserted after each complete fetch, not per page.
	defaultFetchDelay = 100 * time.Millisecond
)

// Client talks to the YouTube Data API v3.
type Client struct {
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithFetchDelay sets the pause honored after each complete fetch.
func WithFetchDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// New creates a Data API client. The API key is required; an empty key is a
// construction error so a misconfigured process fails before its first cycle.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("youtube: API key required (set YOUTUBE_API_KEY)")
	}

	c := &Client{
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(defaultFetchDelay), 1),
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchComments retrieves up to maxResults comments for a video, newest
// first, following continuation tokens across pages. Top-level comments and
// their replies are flattened into one sequence, replies immediately after
// their parent with ParentID set.
func (c *Client) FetchComments(ctx context.Context, videoID string, maxResults int) ([]Comment, error) {
	if maxResults <= 0 {
		maxResults = commentPageSize
	}

	var comments []Comment
	pageToken := ""

	for len(comments) < maxResults {
		params := url.Values{}
		params.Set("part", "snippet,replies")
		params.Set("videoId", videoID)
		params.Set("maxResults", fmt.Sprintf("%d", min(maxResults-len(comments), commentPageSize)))
		params.Set("order", "time")
		params.Set("textFormat", "plainText")
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page commentThreadList
		if err := c.get(ctx, "commentThreads", params, &page); err != nil {
			return nil, fmt.Errorf("fetch comments for %s: %w", videoID, err)
		}

		for _, thread := range page.Items {
			top := thread.Snippet.TopLevelComment
			comments = append(comments, top.toComment(videoID, ""))
			for _, reply := range thread.Replies.Comments {
				comments = append(comments, reply.toComment(videoID, top.ID))
			}
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	// One delay per logical fetch, to stay inside the shared quota budget.
	if err := c.limiter.Wait(ctx); err != nil {
		return comments, err
	}
	return comments, nil
}

// VideoInfo fetches the metadata and statistics of a single video.
func (c *Client) VideoInfo(ctx context.Context, videoID string) (*Video, error) {
	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("id", videoID)

	var result videoList
	if err := c.get(ctx, "videos", params, &result); err != nil {
		return nil, fmt.Errorf("fetch video info for %s: %w", videoID, err)
	}
	if len(result.Items) == 0 {
		return nil, fmt.Errorf("video %s: %w", videoID, ErrNotFound)
	}

	item := result.Items[0]
	return &Video{
		ID:           videoID,
		Title:        item.Snippet.Title,
		ChannelTitle: item.Snippet.ChannelTitle,
		Description:  truncate(item.Snippet.Description, 200),
		PublishedAt:  item.Snippet.PublishedAt,
		ViewCount:    item.Statistics.ViewCount,
		LikeCount:    item.Statistics.LikeCount,
		CommentCount: item.Statistics.CommentCount,
	}, nil
}

// FetchChannelVideos lists up to maxResults videos of a channel, ordered by
// the given search order ("date", "rating", "relevance", "title",
// "viewCount"). channelRef may be a raw channel ID, a handle or username, or
// a full channel URL.
func (c *Client) FetchChannelVideos(ctx context.Context, channelRef string, maxResults int, order string) ([]VideoSummary, error) {
	channelID, err := c.ResolveChannel(ctx, channelRef)
	if err != nil {
		return nil, err
	}

	if maxResults <= 0 {
		maxResults = searchPageSize
	}
	if order == "" {
		order = "date"
	}

	var videos []VideoSummary
	pageToken := ""

	for len(videos) < maxResults {
		params := url.Values{}
		params.Set("part", "snippet")
		params.Set("channelId", channelID)
		params.Set("type", "video")
		params.Set("maxResults", fmt.Sprintf("%d", min(maxResults-len(videos), searchPageSize)))
		params.Set("order", order)
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page searchList
		if err := c.get(ctx, "search", params, &page); err != nil {
			return nil, fmt.Errorf("fetch channel videos for %s: %w", channelID, err)
		}

		for _, item := range page.Items {
			if item.ID.VideoID == "" {
				continue
			}
			videos = append(videos, VideoSummary{
				ID:           item.ID.VideoID,
				Title:        item.Snippet.Title,
				ChannelID:    item.Snippet.ChannelID,
				ChannelTitle: item.Snippet.ChannelTitle,
				Description:  truncate(item.Snippet.Description, 200),
				Thumbnail:    item.Snippet.Thumbnails.Default.URL,
				PublishedAt:  item.Snippet.PublishedAt,
			})
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return videos, err
	}
	return videos, nil
}

// ResolveChannel normalizes a channel reference (ID, @handle/username, or
// URL) to a canonical channel ID. Username resolution tries the legacy
// forUsername lookup first and falls back to a channel search.
func (c *Client) ResolveChannel(ctx context.Context, ref string) (string, error) {
	channelID, username := parseChannelRef(ref)
	if channelID != "" {
		return channelID, nil
	}
	if username == "" {
		return "", fmt.Errorf("channel reference %q: %w", ref, ErrNotFound)
	}

	params := url.Values{}
	params.Set("part", "id")
	params.Set("forUsername", username)

	var channels channelList
	if err := c.get(ctx, "channels", params, &channels); err != nil {
		return "", fmt.Errorf("resolve channel %q: %w", username, err)
	}
	if len(channels.Items) > 0 {
		return channels.Items[0].ID, nil
	}

	// Handles are not covered by forUsername; search for the channel.
	params = url.Values{}
	params.Set("part", "snippet")
	params.Set("q", username)
	params.Set("type", "channel")
	params.Set("maxResults", "1")

	var results searchList
	if err := c.get(ctx, "search", params, &results); err != nil {
		return "", fmt.Errorf("resolve channel %q: %w", username, err)
	}
	if len(results.Items) == 0 {
		return "", fmt.Errorf("channel %q: %w", username, ErrNotFound)
	}
	return results.Items[0].Snippet.ChannelID, nil
}

// parseChannelRef splits a channel reference into either a canonical channel
// ID or a username/handle, from a raw ID, an @handle, or a channel URL.
func parseChannelRef(ref string) (channelID, username string) {
	ref = strings.TrimSpace(ref)

	switch {
	case strings.Contains(ref, "/channel/"):
		id := after(ref, "/channel/")
		return trimPath(id), ""
	case strings.Contains(ref, "/@"):
		return "", trimPath(after(ref, "/@"))
	case strings.Contains(ref, "/c/"):
		return "", trimPath(after(ref, "/c/"))
	case strings.Contains(ref, "/user/"):
		return "", trimPath(after(ref, "/user/"))
	}

	ref = strings.TrimPrefix(ref, "@")
	if looksLikeChannelID(ref) {
		return ref, ""
	}
	return "", ref
}

// Canonical channel IDs are 24 characters starting with "UC".
func looksLikeChannelID(s string) bool {
	return len(s) == 24 && strings.HasPrefix(s, "UC")
}

func after(s, sep string) string {
	_, rest, _ := strings.Cut(s, sep)
	return rest
}

func trimPath(s string) string {
	s = strings.SplitN(s, "/", 2)[0]
	s = strings.SplitN(s, "?", 2)[0]
	return s
}

// get performs one API call and decodes the result, translating quota and
// not-found responses into their sentinel errors.
func (c *Client) get(ctx context.Context, resource string, params url.Values, v any) error {
	params.Set("key", c.apiKey)
	reqURL := c.baseURL + "/" + resource + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", resource, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", resource, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		return fmt.Errorf("%s: %w", apiErrorMessage(resp), ErrQuotaExceeded)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", apiErrorMessage(resp), ErrNotFound)
	default:
		return fmt.Errorf("%s status %d: %s", resource, resp.StatusCode, apiErrorMessage(resp))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s response: %w", resource, err)
	}
	return nil
}

func apiErrorMessage(resp *http.Response) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
			Errors  []struct {
				Reason string `json:"reason"`
			} `json:"errors"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error.Message == "" {
		return "api error"
	}
	if len(body.Error.Errors) > 0 && body.Error.Errors[0].Reason != "" {
		return fmt.Sprintf("%s (%s)", body.Error.Message, body.Error.Errors[0].Reason)
	}
	return body.Error.Message
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

type commentThreadList struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			TopLevelComment commentResource `json:"topLevelComment"`
		} `json:"snippet"`
		Replies struct {
			Comments []commentResource `json:"comments"`
		} `json:"replies"`
	} `json:"items"`
}

type commentResource struct {
	ID      string `json:"id"`
	Snippet struct {
		TextDisplay       string    `json:"textDisplay"`
		AuthorDisplayName string    `json:"authorDisplayName"`
		LikeCount         int       `json:"likeCount"`
		PublishedAt       time.Time `json:"publishedAt"`
		UpdatedAt         time.Time `json:"updatedAt"`
	} `json:"snippet"`
}

func (r commentResource) toComment(videoID, parentID string) Comment {
	return Comment{
		ID:          r.ID,
		VideoID:     videoID,
		Text:        r.Snippet.TextDisplay,
		Author:      r.Snippet.AuthorDisplayName,
		LikeCount:   r.Snippet.LikeCount,
		PublishedAt: r.Snippet.PublishedAt,
		UpdatedAt:   r.Snippet.UpdatedAt,
		ParentID:    parentID,
	}
}

type videoList struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string    `json:"title"`
			ChannelTitle string    `json:"channelTitle"`
			Description  string    `json:"description"`
			PublishedAt  time.Time `json:"publishedAt"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount    int64 `json:"viewCount,string"`
			LikeCount    int64 `json:"likeCount,string"`
			CommentCount int64 `json:"commentCount,string"`
		} `json:"statistics"`
	} `json:"items"`
}

type searchList struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			VideoID   string `json:"videoId"`
			ChannelID string `json:"channelId"`
		} `json:"id"`
		Snippet struct {
			Title        string    `json:"title"`
			ChannelID    string    `json:"channelId"`
			ChannelTitle string    `json:"channelTitle"`
			Description  string    `json:"description"`
			PublishedAt  time.Time `json:"publishedAt"`
			Thumbnails   struct {
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type channelList struct {
	Items []struct {
		ID string `json:"id"`
	} `json:"items"`
}

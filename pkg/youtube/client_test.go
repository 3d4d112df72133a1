package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New("test-key",
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithFetchDelay(time.Nanosecond))
	require.NoError(t, err)
	return c
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
}

func TestFetchCommentsPagination(t *testing.T) {
	var tokens []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/commentThreads", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "vid1", r.URL.Query().Get("videoId"))

		token := r.URL.Query().Get("pageToken")
		tokens = append(tokens, token)
		switch token {
		case "":
			fmt.Fprint(w, `{
				"nextPageToken": "page2",
				"items": [
					{"snippet": {"topLevelComment": {"id": "c1", "snippet": {"textDisplay": "first", "authorDisplayName": "a", "likeCount": 3}}}},
					{"snippet": {"topLevelComment": {"id": "c2", "snippet": {"textDisplay": "second"}}}}
				]
			}`)
		case "page2":
			fmt.Fprint(w, `{
				"items": [
					{"snippet": {"topLevelComment": {"id": "c3", "snippet": {"textDisplay": "third"}}}}
				]
			}`)
		default:
			t.Fatalf("unexpected page token %q", token)
		}
	})

	c := newTestClient(t, handler)
	comments, err := c.FetchComments(context.Background(), "vid1", 10)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, []string{"", "page2"}, tokens)
	assert.Equal(t, "c1", comments[0].ID)
	assert.Equal(t, "first", comments[0].Text)
	assert.Equal(t, 3, comments[0].LikeCount)
	assert.Equal(t, "vid1", comments[0].VideoID)
	assert.Equal(t, "c3", comments[2].ID)
}

func TestFetchCommentsStopsAtMaxResults(t *testing.T) {
	pages := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		fmt.Fprintf(w, `{
			"nextPageToken": "more",
			"items": [
				{"snippet": {"topLevelComment": {"id": "c%d", "snippet": {"textDisplay": "x"}}}},
				{"snippet": {"topLevelComment": {"id": "d%d", "snippet": {"textDisplay": "y"}}}}
			]
		}`, pages, pages)
	})

	c := newTestClient(t, handler)
	comments, err := c.FetchComments(context.Background(), "vid1", 4)
	require.NoError(t, err)
	assert.Len(t, comments, 4)
	assert.Equal(t, 2, pages)
}

func TestFetchCommentsFlattensReplies(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"items": [{
				"snippet": {"topLevelComment": {"id": "top", "snippet": {"textDisplay": "parent"}}},
				"replies": {"comments": [
					{"id": "r1", "snippet": {"textDisplay": "reply one"}},
					{"id": "r2", "snippet": {"textDisplay": "reply two"}}
				]}
			}]
		}`)
	})

	c := newTestClient(t, handler)
	comments, err := c.FetchComments(context.Background(), "vid1", 100)
	require.NoError(t, err)
	require.Len(t, comments, 3)

	assert.Equal(t, "top", comments[0].ID)
	assert.False(t, comments[0].IsReply())
	assert.Equal(t, "r1", comments[1].ID)
	assert.Equal(t, "top", comments[1].ParentID)
	assert.True(t, comments[1].IsReply())
	assert.Equal(t, "top", comments[2].ParentID)
}

func TestFetchCommentsQuotaExceeded(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error": {"message": "quota exceeded", "errors": [{"reason": "quotaExceeded"}]}}`)
	})

	c := newTestClient(t, handler)
	_, err := c.FetchComments(context.Background(), "vid1", 100)
	require.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Contains(t, err.Error(), "quotaExceeded")
}

func TestFetchCommentsNotFound(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": {"message": "video not found"}}`)
	})

	c := newTestClient(t, handler)
	_, err := c.FetchComments(context.Background(), "gone", 100)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestVideoInfo(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/videos", r.URL.Path)
		fmt.Fprint(w, `{
			"items": [{
				"id": "vid1",
				"snippet": {"title": "A Video", "channelTitle": "A Channel", "description": "words"},
				"statistics": {"viewCount": "1234", "likeCount": "56", "commentCount": "7"}
			}]
		}`)
	})

	c := newTestClient(t, handler)
	v, err := c.VideoInfo(context.Background(), "vid1")
	require.NoError(t, err)
	assert.Equal(t, "A Video", v.Title)
	assert.Equal(t, int64(1234), v.ViewCount)
	assert.Equal(t, int64(56), v.LikeCount)
	assert.Equal(t, int64(7), v.CommentCount)
}

func TestVideoInfoEmptyItemsIsNotFound(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items": []}`)
	})

	c := newTestClient(t, handler)
	_, err := c.VideoInfo(context.Background(), "gone")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestParseChannelRef(t *testing.T) {
	tests := []struct {
		ref       string
		channelID string
		username  string
	}{
		{"UCabcdefghijklmnopqrstuv", "UCabcdefghijklmnopqrstuv", ""},
		{"@somehandle", "", "somehandle"},
		{"somename", "", "somename"},
		{"https://www.youtube.com/channel/UCabcdefghijklmnopqrstuv", "UCabcdefghijklmnopqrstuv", ""},
		{"https://www.youtube.com/channel/UCabcdefghijklmnopqrstuv/videos", "UCabcdefghijklmnopqrstuv", ""},
		{"https://www.youtube.com/@somehandle", "", "somehandle"},
		{"https://www.youtube.com/@somehandle?tab=videos", "", "somehandle"},
		{"https://www.youtube.com/c/SomeChannel", "", "SomeChannel"},
		{"https://www.youtube.com/user/legacyname", "", "legacyname"},
		{"  @padded  ", "", "padded"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			id, user := parseChannelRef(tt.ref)
			assert.Equal(t, tt.channelID, id)
			assert.Equal(t, tt.username, user)
		})
	}
}

func TestResolveChannelFallsBackToSearch(t *testing.T) {
	var paths []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/channels":
			// Handles are not resolvable via forUsername.
			fmt.Fprint(w, `{"items": []}`)
		case "/search":
			assert.Equal(t, "somehandle", r.URL.Query().Get("q"))
			fmt.Fprint(w, `{"items": [{"snippet": {"channelId": "UCabcdefghijklmnopqrstuv"}}]}`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	c := newTestClient(t, handler)
	id, err := c.ResolveChannel(context.Background(), "@somehandle")
	require.NoError(t, err)
	assert.Equal(t, "UCabcdefghijklmnopqrstuv", id)
	assert.Equal(t, []string{"/channels", "/search"}, paths)
}

func TestResolveChannelCanonicalIDSkipsNetwork(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for a canonical channel ID")
	})

	c := newTestClient(t, handler)
	id, err := c.ResolveChannel(context.Background(), "UCabcdefghijklmnopqrstuv")
	require.NoError(t, err)
	assert.Equal(t, "UCabcdefghijklmnopqrstuv", id)
}

func TestFetchChannelVideos(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "UCabcdefghijklmnopqrstuv", r.URL.Query().Get("channelId"))
		assert.Equal(t, "date", r.URL.Query().Get("order"))
		fmt.Fprint(w, `{
			"items": [
				{"id": {"videoId": "v1"}, "snippet": {"title": "One", "channelTitle": "Chan"}},
				{"id": {"channelId": "UCother"}, "snippet": {"title": "not a video"}},
				{"id": {"videoId": "v2"}, "snippet": {"title": "Two"}}
			]
		}`)
	})

	c := newTestClient(t, handler)
	videos, err := c.FetchChannelVideos(context.Background(), "UCabcdefghijklmnopqrstuv", 10, "")
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "v1", videos[0].ID)
	assert.Equal(t, "v2", videos[1].ID)
}

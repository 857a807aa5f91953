package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yt "google.golang.org/api/youtube/v3"

	"yt_exporter/internal/domain"
	"yt_exporter/internal/metrics"
)

const testAPIKey = "test-key"

func newTestSource(t *testing.T, mux *http.ServeMux) *Source {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != testAPIKey {
			http.Error(w, `{"error":{"code":403,"message":"missing key"}}`, http.StatusForbidden)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	src, err := New(context.Background(), Config{
		APIKey:          testAPIKey,
		BaseURL:         srv.URL,
		Timeout:         5 * time.Second,
		PageSize:        50,
		CommentPageSize: 50,
	}, logger)
	require.NoError(t, err)
	return src
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func commentSnippet(author, published string, likes int64) *yt.CommentSnippet {
	return &yt.CommentSnippet{
		TextDisplay:       "text by " + author,
		AuthorDisplayName: author,
		PublishedAt:       published,
		LikeCount:         likes,
	}
}

func thread(id, author string, replies ...string) *yt.CommentThread {
	th := &yt.CommentThread{
		Id: id,
		Snippet: &yt.CommentThreadSnippet{
			TopLevelComment: &yt.Comment{
				Id:      id,
				Snippet: commentSnippet(author, "2024-01-01T00:00:00Z", 1),
			},
		},
	}
	if len(replies) > 0 {
		th.Replies = &yt.CommentThreadReplies{}
		for i, r := range replies {
			th.Replies.Comments = append(th.Replies.Comments, &yt.Comment{
				Id:      fmt.Sprintf("%s.r%d", id, i),
				Snippet: commentSnippet(r, "2024-01-01T01:00:00Z", 0),
			})
		}
	}
	return th
}

func TestResolveChannelID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "channel", q.Get("type"))
		assert.Equal(t, "1", q.Get("maxResults"))
		assert.Equal(t, "Some Channel", q.Get("q"))

		writeJSON(t, w, yt.SearchListResponse{Items: []*yt.SearchResult{{
			Id:      &yt.ResourceId{Kind: "youtube#channel", ChannelId: "UC123"},
			Snippet: &yt.SearchResultSnippet{ChannelId: "UC123", Title: "Some Channel"},
		}}})
	})

	src := newTestSource(t, mux)

	id, err := src.ResolveChannelID(context.Background(), "Some Channel")
	require.NoError(t, err)
	assert.Equal(t, "UC123", id)
}

func TestResolveChannelID_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/search", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, yt.SearchListResponse{})
	})

	src := newTestSource(t, mux)

	_, err := src.ResolveChannelID(context.Background(), "nobody")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrChannelNotFound))
}

func TestResolveChannelID_APIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/search", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":500,"message":"backend"}}`, http.StatusInternalServerError)
	})

	src := newTestSource(t, mux)
	before := testutil.ToFloat64(metrics.APIErrors.WithLabelValues("search"))

	_, err := src.ResolveChannelID(context.Background(), "x")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrChannelNotFound))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.APIErrors.WithLabelValues("search")))
}

func TestListVideos_SinglePage(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/search", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "video", q.Get("type"))
		assert.Equal(t, "UC123", q.Get("channelId"))
		assert.Equal(t, "50", q.Get("maxResults"))

		resp := yt.SearchListResponse{NextPageToken: "more"}
		for i := 0; i < 50; i++ {
			resp.Items = append(resp.Items, &yt.SearchResult{
				Id:      &yt.ResourceId{VideoId: fmt.Sprintf("v%d", i)},
				Snippet: &yt.SearchResultSnippet{Title: fmt.Sprintf("Video %d", i)},
			})
		}
		writeJSON(t, w, resp)
	})

	src := newTestSource(t, mux)

	stubs, err := src.ListVideos(context.Background(), "UC123", 50)
	require.NoError(t, err)
	assert.Len(t, stubs, 50)
	assert.Equal(t, domain.VideoStub{ID: "v0", Title: "Video 0"}, stubs[0])
	assert.Equal(t, int32(1), calls.Load())
}

func TestListVideos_FollowsPagesUpToLimit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/search", func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("pageToken")
		resp := yt.SearchListResponse{}
		switch page {
		case "":
			resp.NextPageToken = "p2"
			resp.Items = []*yt.SearchResult{
				{Id: &yt.ResourceId{VideoId: "a"}},
				{Id: &yt.ResourceId{VideoId: "b"}},
			}
		case "p2":
			assert.Equal(t, "1", r.URL.Query().Get("maxResults"))
			resp.NextPageToken = "p3"
			resp.Items = []*yt.SearchResult{
				{Id: &yt.ResourceId{VideoId: "c"}},
			}
		default:
			t.Errorf("unexpected page %q", page)
		}
		writeJSON(t, w, resp)
	})

	src := newTestSource(t, mux)
	src.pageSize = 2

	stubs, err := src.ListVideos(context.Background(), "UC123", 3)
	require.NoError(t, err)
	require.Len(t, stubs, 3)
	assert.Equal(t, "c", stubs[2].ID)
}

func TestListVideos_SkipsRepeatedIDsAcrossPages(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/search", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		resp := yt.SearchListResponse{}
		switch r.URL.Query().Get("pageToken") {
		case "":
			resp.NextPageToken = "p2"
			resp.Items = []*yt.SearchResult{
				{Id: &yt.ResourceId{VideoId: "a"}},
				{Id: &yt.ResourceId{VideoId: "b"}},
			}
		case "p2":
			resp.Items = []*yt.SearchResult{
				{Id: &yt.ResourceId{VideoId: "b"}},
				{Id: &yt.ResourceId{VideoId: "c"}},
			}
		}
		writeJSON(t, w, resp)
	})

	src := newTestSource(t, mux)
	src.pageSize = 2

	stubs, err := src.ListVideos(context.Background(), "UC123", 10)
	require.NoError(t, err)

	ids := make([]string, 0, len(stubs))
	for _, s := range stubs {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListVideos_ErrorKeepsCollected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageToken") == "" {
			writeJSON(t, w, yt.SearchListResponse{
				NextPageToken: "p2",
				Items:         []*yt.SearchResult{{Id: &yt.ResourceId{VideoId: "a"}}},
			})
			return
		}
		http.Error(w, `{"error":{"code":503,"message":"unavailable"}}`, http.StatusServiceUnavailable)
	})

	src := newTestSource(t, mux)
	src.pageSize = 1

	stubs, err := src.ListVideos(context.Background(), "UC123", 5)
	require.Error(t, err)
	assert.Len(t, stubs, 1)
}

func TestFetchVideoDetails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "snippet,statistics,contentDetails", q.Get("part"))
		assert.Equal(t, "vid1", q.Get("id"))

		_, _ = io.WriteString(w, `{"items":[{
			"id":"vid1",
			"snippet":{"title":"Hello","description":"desc","publishedAt":"2024-03-01T18:45:00Z",
				"thumbnails":{"high":{"url":"https://i.ytimg.com/vi/vid1/hqdefault.jpg"}}},
			"statistics":{"viewCount":"1200","likeCount":"0","commentCount":"7"},
			"contentDetails":{"duration":"PT1H2M"}
		}]}`)
	})

	src := newTestSource(t, mux)

	video, err := src.FetchVideoDetails(context.Background(), "vid1")
	require.NoError(t, err)
	assert.Equal(t, &domain.Video{
		VideoID:       "vid1",
		Title:         "Hello",
		Description:   "desc",
		PublishedDate: "02-03-2024 00:15:00",
		ViewCount:     "1200",
		LikeCount:     "0",
		CommentCount:  "7",
		Duration:      "1 hours 2 minutes",
		ThumbnailURL:  "https://i.ytimg.com/vi/vid1/hqdefault.jpg",
	}, video)
}

func TestFetchVideoDetails_MissingStatisticsAreNotAvailable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"items":[{
			"id":"vid2",
			"snippet":{"title":"Hidden","publishedAt":"2024-03-01T00:00:00Z","thumbnails":{}},
			"statistics":{"viewCount":"10"},
			"contentDetails":{"duration":"PT0S"}
		}]}`)
	})

	src := newTestSource(t, mux)

	video, err := src.FetchVideoDetails(context.Background(), "vid2")
	require.NoError(t, err)
	assert.Equal(t, "10", video.ViewCount)
	assert.Equal(t, domain.NotAvailable, video.LikeCount)
	assert.Equal(t, domain.NotAvailable, video.CommentCount)
	assert.Equal(t, domain.NotAvailable, video.Description)
	assert.Equal(t, domain.NotAvailable, video.ThumbnailURL)
	assert.Equal(t, "0 seconds", video.Duration)
}

func TestFetchVideoDetails_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"items":[]}`)
	})

	src := newTestSource(t, mux)

	video, err := src.FetchVideoDetails(context.Background(), "gone")
	assert.Nil(t, video)
	assert.True(t, errors.Is(err, domain.ErrVideoNotFound))
}

func TestFetchVideoDetails_MalformedTimestamp(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"items":[{"id":"v","snippet":{"title":"t","publishedAt":"yesterday"}}]}`)
	})

	src := newTestSource(t, mux)

	video, err := src.FetchVideoDetails(context.Background(), "v")
	assert.Nil(t, video)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse timestamp")
}

func TestFetchComments_CapsTopLevelAt100(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/commentThreads", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "plainText", q.Get("textFormat"))
		assert.Equal(t, "50", q.Get("maxResults"))
		assert.Equal(t, "vid", q.Get("videoId"))

		page := int(calls.Add(1)) - 1
		resp := yt.CommentThreadListResponse{}
		for i := 0; i < 50; i++ {
			n := page*50 + i
			resp.Items = append(resp.Items, thread(fmt.Sprintf("t%d", n), fmt.Sprintf("user%d", n)))
		}
		if page < 2 {
			resp.NextPageToken = fmt.Sprintf("p%d", page+1)
		}
		writeJSON(t, w, resp)
	})

	src := newTestSource(t, mux)

	comments, err := src.FetchComments(context.Background(), "vid", 100)
	require.NoError(t, err)
	assert.Len(t, comments, 100)
	assert.Equal(t, int32(2), calls.Load())
	for _, c := range comments {
		assert.Nil(t, c.ReplyTo)
		assert.Equal(t, "vid", c.VideoID)
	}
	assert.Equal(t, "t0", comments[0].CommentID)
	assert.Equal(t, "t99", comments[99].CommentID)
}

func TestFetchComments_RepliesCarryParentAuthor(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/commentThreads", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, yt.CommentThreadListResponse{Items: []*yt.CommentThread{
			thread("t1", "alice", "bob", "carol"),
			thread("t2", "dave"),
		}})
	})

	src := newTestSource(t, mux)

	comments, err := src.FetchComments(context.Background(), "vid", 100)
	require.NoError(t, err)
	require.Len(t, comments, 4)

	assert.Equal(t, "t1", comments[0].CommentID)
	assert.Nil(t, comments[0].ReplyTo)
	assert.Equal(t, "01-01-2024 05:30:00", comments[0].PublishedDate)
	assert.Equal(t, int64(1), comments[0].LikeCount)

	for _, reply := range comments[1:3] {
		require.NotNil(t, reply.ReplyTo)
		assert.Equal(t, "alice", *reply.ReplyTo)
		assert.True(t, reply.IsReply())
	}
	assert.Equal(t, "t1.r0", comments[1].CommentID)
	assert.Equal(t, "bob", comments[1].AuthorName)

	assert.Equal(t, "t2", comments[3].CommentID)
	assert.Nil(t, comments[3].ReplyTo)
}

func TestFetchComments_CapReachedInsideReplies(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/commentThreads", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, yt.CommentThreadListResponse{
			NextPageToken: "never-fetched",
			Items: []*yt.CommentThread{
				thread("t1", "alice", "r1", "r2", "r3", "r4"),
				thread("t2", "bob"),
			},
		})
	})

	src := newTestSource(t, mux)

	comments, err := src.FetchComments(context.Background(), "vid", 3)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "t1", comments[0].CommentID)
	assert.Equal(t, "r2", comments[2].AuthorName)
}

func TestFetchComments_ErrorReturnsPartial(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/commentThreads", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageToken") == "" {
			writeJSON(t, w, yt.CommentThreadListResponse{
				NextPageToken: "p2",
				Items:         []*yt.CommentThread{thread("t1", "alice", "bob")},
			})
			return
		}
		http.Error(w, `{"error":{"code":500,"message":"boom"}}`, http.StatusInternalServerError)
	})

	src := newTestSource(t, mux)

	comments, err := src.FetchComments(context.Background(), "vid", 100)
	require.Error(t, err)
	assert.Len(t, comments, 2)
}

func TestFetchComments_MalformedTimestampStopsFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/commentThreads", func(w http.ResponseWriter, r *http.Request) {
		bad := thread("t2", "bob")
		bad.Snippet.TopLevelComment.Snippet.PublishedAt = "not-a-time"
		writeJSON(t, w, yt.CommentThreadListResponse{Items: []*yt.CommentThread{
			thread("t1", "alice"),
			bad,
			thread("t3", "carol"),
		}})
	})

	src := newTestSource(t, mux)

	comments, err := src.FetchComments(context.Background(), "vid", 100)
	require.Error(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "t1", comments[0].CommentID)
}

func TestFetchComments_CommentsDisabled(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/commentThreads", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"comments disabled","errors":[{"reason":"commentsDisabled"}]}}`, http.StatusForbidden)
	})

	src := newTestSource(t, mux)

	comments, err := src.FetchComments(context.Background(), "vid", 100)
	require.Error(t, err)
	assert.Empty(t, comments)
}

package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"yt_exporter/internal/convert"
	"yt_exporter/internal/domain"
	"yt_exporter/internal/metrics"
)

const SourceID = "youtube"

// Config holds YouTube Data API settings.
type Config struct {
	APIKey string
	// BaseURL overrides the API endpoint, e.g. for a local test server.
	BaseURL         string
	Timeout         time.Duration
	PageSize        int64
	CommentPageSize int64
}

// Source reads channel, video and comment data from the YouTube Data API v3.
// One Source owns one HTTP client and is shared by every call of a run.
type Source struct {
	service         *yt.Service
	httpClient      *http.Client
	pageSize        int64
	commentPageSize int64
	logger          *slog.Logger
}

// New creates a Source authenticated with a developer key.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Source, error) {
	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &transport.APIKey{
			Key:       cfg.APIKey,
			Transport: http.DefaultTransport,
		},
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}

	service, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &Source{
		service:         service,
		httpClient:      httpClient,
		pageSize:        cfg.PageSize,
		commentPageSize: cfg.CommentPageSize,
		logger:          logger.With("source", SourceID),
	}, nil
}

// ResolveChannelID returns the ID of the first channel matching name.
func (s *Source) ResolveChannelID(ctx context.Context, name string) (string, error) {
	resp, err := s.service.Search.List([]string{"snippet"}).
		Q(name).
		Type("channel").
		MaxResults(1).
		Context(ctx).
		Do()
	s.observe("search", err)
	if err != nil {
		return "", fmt.Errorf("search channel: %w", err)
	}

	for _, item := range resp.Items {
		if item.Snippet != nil && item.Snippet.ChannelId != "" {
			return item.Snippet.ChannelId, nil
		}
		if item.Id != nil && item.Id.ChannelId != "" {
			return item.Id.ChannelId, nil
		}
	}

	return "", fmt.Errorf("%w: %q", domain.ErrChannelNotFound, name)
}

// ListVideos returns up to limit videos uploaded to the channel, following
// result pages as needed. On error the videos collected so far are returned
// with it.
func (s *Source) ListVideos(ctx context.Context, channelID string, limit int) ([]domain.VideoStub, error) {
	var stubs []domain.VideoStub
	seen := make(map[string]struct{})
	pageToken := ""

	for page := 0; len(stubs) < limit; page++ {
		call := s.service.Search.List([]string{"snippet"}).
			ChannelId(channelID).
			Type("video").
			MaxResults(min(s.pageSize, int64(limit-len(stubs)))).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		s.observe("search", err)
		if err != nil {
			return stubs, fmt.Errorf("list videos page %d: %w", page, err)
		}

		for _, item := range resp.Items {
			if item.Id == nil || item.Id.VideoId == "" {
				continue
			}
			// Search pages may overlap.
			if _, ok := seen[item.Id.VideoId]; ok {
				continue
			}
			seen[item.Id.VideoId] = struct{}{}
			stub := domain.VideoStub{ID: item.Id.VideoId}
			if item.Snippet != nil {
				stub.Title = item.Snippet.Title
			}
			stubs = append(stubs, stub)
		}

		s.logger.Debug("fetched video page",
			"page", page,
			"videos", len(resp.Items),
			"total", len(stubs),
		)

		if resp.NextPageToken == "" || len(resp.Items) == 0 {
			break
		}
		pageToken = resp.NextPageToken
	}

	if len(stubs) > limit {
		stubs = stubs[:limit]
	}
	return stubs, nil
}

// FetchVideoDetails returns the flattened snippet, statistics and content
// details of one video.
func (s *Source) FetchVideoDetails(ctx context.Context, videoID string) (*domain.Video, error) {
	q := url.Values{}
	q.Set("part", "snippet,statistics,contentDetails")
	q.Set("id", videoID)
	endpoint := s.service.BasePath + "youtube/v3/videos?" + q.Encode()

	resp, err := s.getVideos(ctx, endpoint)
	s.observe("videos", err)
	if err != nil {
		return nil, fmt.Errorf("fetch video %s: %w", videoID, err)
	}

	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrVideoNotFound, videoID)
	}

	return toVideo(videoID, resp.Items[0])
}

func (s *Source) getVideos(ctx context.Context, endpoint string) (*videoListResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return nil, err
	}

	var out videoListResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// FetchComments walks the video's comment threads in API order and returns at
// most limit comments, replies included. On error the comments collected so
// far are returned with it.
func (s *Source) FetchComments(ctx context.Context, videoID string, limit int) ([]domain.Comment, error) {
	comments := make([]domain.Comment, 0)
	pageToken := ""

	for page := 0; len(comments) < limit; page++ {
		call := s.service.CommentThreads.List([]string{"snippet", "replies"}).
			VideoId(videoID).
			TextFormat("plainText").
			MaxResults(s.commentPageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		s.observe("commentThreads", err)
		if err != nil {
			return comments, fmt.Errorf("fetch comment page %d: %w", page, err)
		}

		for _, thread := range resp.Items {
			if len(comments) >= limit {
				break
			}

			top, err := topLevelComment(videoID, thread)
			if err != nil {
				return comments, err
			}
			comments = append(comments, top)

			if thread.Replies == nil {
				continue
			}
			parent := top.AuthorName
			for _, reply := range thread.Replies.Comments {
				if len(comments) >= limit {
					break
				}
				c, err := toComment(videoID, reply, &parent)
				if err != nil {
					return comments, err
				}
				comments = append(comments, c)
			}
		}

		s.logger.Debug("fetched comment page",
			"video_id", videoID,
			"page", page,
			"threads", len(resp.Items),
			"total", len(comments),
		)

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return comments, nil
}

func (s *Source) observe(endpoint string, err error) {
	metrics.APIRequests.WithLabelValues(endpoint).Inc()
	if err == nil {
		return
	}
	metrics.APIErrors.WithLabelValues(endpoint).Inc()

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		s.logger.Debug("youtube api error",
			"endpoint", endpoint,
			"code", apiErr.Code,
			"message", apiErr.Message,
		)
	}
}

func topLevelComment(videoID string, thread *yt.CommentThread) (domain.Comment, error) {
	if thread.Snippet == nil || thread.Snippet.TopLevelComment == nil {
		return domain.Comment{}, fmt.Errorf("thread %s: missing top-level comment", thread.Id)
	}
	c, err := toComment(videoID, thread.Snippet.TopLevelComment, nil)
	if err != nil {
		return domain.Comment{}, err
	}
	// Top-level rows are keyed by the thread ID.
	c.CommentID = thread.Id
	return c, nil
}

func toComment(videoID string, comment *yt.Comment, replyTo *string) (domain.Comment, error) {
	if comment == nil || comment.Snippet == nil {
		return domain.Comment{}, fmt.Errorf("video %s: comment without snippet", videoID)
	}
	published, err := convert.ToIST(comment.Snippet.PublishedAt)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("comment %s: %w", comment.Id, err)
	}
	return domain.Comment{
		VideoID:       videoID,
		CommentID:     comment.Id,
		Text:          comment.Snippet.TextDisplay,
		AuthorName:    comment.Snippet.AuthorDisplayName,
		PublishedDate: published,
		LikeCount:     comment.Snippet.LikeCount,
		ReplyTo:       replyTo,
	}, nil
}

func toVideo(videoID string, item videoItem) (*domain.Video, error) {
	if item.Snippet == nil {
		return nil, fmt.Errorf("video %s: missing snippet", videoID)
	}

	published, err := convert.ToIST(item.Snippet.PublishedAt)
	if err != nil {
		return nil, fmt.Errorf("video %s: %w", videoID, err)
	}

	video := &domain.Video{
		VideoID:       videoID,
		Title:         item.Snippet.Title,
		Description:   orNotAvailable(item.Snippet.Description),
		PublishedDate: published,
		ViewCount:     domain.NotAvailable,
		LikeCount:     domain.NotAvailable,
		CommentCount:  domain.NotAvailable,
		Duration:      convert.HumanDuration(""),
		ThumbnailURL:  domain.NotAvailable,
	}

	if stats := item.Statistics; stats != nil {
		video.ViewCount = orNotAvailable(stats.ViewCount)
		video.LikeCount = orNotAvailable(stats.LikeCount)
		video.CommentCount = orNotAvailable(stats.CommentCount)
	}
	if item.ContentDetails != nil {
		video.Duration = convert.HumanDuration(item.ContentDetails.Duration)
	}
	if high := item.Snippet.Thumbnails.High; high != nil && high.URL != "" {
		video.ThumbnailURL = high.URL
	}

	return video, nil
}

func orNotAvailable(v *string) string {
	if v == nil {
		return domain.NotAvailable
	}
	return *v
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"yt_exporter/internal/config"
	"yt_exporter/internal/domain"
	"yt_exporter/internal/metrics"
)

// Archive groups the optional persistence of exported runs. A nil *Archive
// disables it.
type Archive struct {
	Videos    VideoStore
	Comments  CommentStore
	Channels  ChannelStateStore
	TxManager TransactionManager
}

type ExportService struct {
	source     Source
	exporter   Exporter
	archive    *Archive
	publisher  Publisher
	logger     *slog.Logger
	config     config.RunConfig
	outputPath string
}

func NewExportService(
	source Source,
	exporter Exporter,
	archive *Archive,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.RunConfig,
	outputPath string,
) *ExportService {
	return &ExportService{
		source:     source,
		exporter:   exporter,
		archive:    archive,
		publisher:  publisher,
		logger:     logger,
		config:     cfg,
		outputPath: outputPath,
	}
}

// Run exports one channel: resolve, list videos, collect details and
// comments per video, then write the workbook. Only a failed channel lookup,
// a cancelled context or a failed workbook write end the run with an error;
// per-video failures are logged and counted in the returned stats.
func (s *ExportService) Run(ctx context.Context, channelName string) (*domain.RunStats, error) {
	startTime := time.Now()
	stats := &domain.RunStats{
		RunID:       uuid.NewString(),
		ChannelName: channelName,
		OutputPath:  s.outputPath,
		StartedAt:   startTime,
	}
	logger := s.logger.With("run_id", stats.RunID)

	logger.Info("fetching channel data", "channel_name", channelName)

	channelID, err := s.source.ResolveChannelID(ctx, channelName)
	if err != nil {
		return nil, fmt.Errorf("resolve channel: %w", err)
	}
	stats.ChannelID = channelID
	logger = logger.With("channel_id", channelID)

	logger.Info("fetching video data", "max_videos", s.config.MaxVideos)

	stubs, err := s.source.ListVideos(ctx, channelID, s.config.MaxVideos)
	if err != nil {
		stats.Errors++
		logger.Error("failed to list videos", "listed", len(stubs), "error", err)
	}
	stats.VideosListed = len(stubs)

	videos := make([]domain.Video, 0, len(stubs))
	comments := make([]domain.Comment, 0)

	for _, stub := range stubs {
		if err := ctx.Err(); err != nil {
			stats.Duration = time.Since(startTime)
			return stats, fmt.Errorf("fetch videos: %w", err)
		}

		video, videoComments := s.collectVideo(ctx, logger, stub, stats)
		if video != nil {
			videos = append(videos, *video)
		}
		comments = append(comments, videoComments...)
	}

	stats.VideosExported = len(videos)
	stats.CommentsExported = len(comments)

	logger.Info("saving workbook",
		"path", s.outputPath,
		"videos", len(videos),
		"comments", len(comments),
	)

	if err := s.exporter.Export(s.outputPath, videos, comments); err != nil {
		stats.Duration = time.Since(startTime)
		return stats, fmt.Errorf("export workbook: %w", err)
	}
	metrics.VideosExported.Add(float64(len(videos)))
	metrics.CommentsExported.Add(float64(len(comments)))

	if s.archive != nil {
		if err := s.saveArchive(ctx, stats, videos, comments); err != nil {
			stats.Errors++
			logger.Error("failed to archive run", "error", err)
		}
	}

	stats.Duration = time.Since(startTime)

	if s.publisher != nil {
		if err := s.publisher.PublishRun(ctx, stats); err != nil {
			stats.Errors++
			logger.Error("failed to publish run", "error", err)
		}
	}

	metrics.LastRunTimestamp.SetToCurrentTime()

	logger.Info("export completed",
		"videos_listed", stats.VideosListed,
		"videos", stats.VideosExported,
		"comments", stats.CommentsExported,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	return stats, nil
}

// collectVideo fetches one video's details and comments. Comments are
// fetched even when the details are unavailable.
func (s *ExportService) collectVideo(
	ctx context.Context,
	logger *slog.Logger,
	stub domain.VideoStub,
	stats *domain.RunStats,
) (*domain.Video, []domain.Comment) {
	logger = logger.With("video_id", stub.ID)
	logger.Info("processing video", "title", stub.Title)

	video, err := s.source.FetchVideoDetails(ctx, stub.ID)
	switch {
	case errors.Is(err, domain.ErrVideoNotFound):
		stats.Skipped++
		logger.Warn("video details not returned, skipping")
	case err != nil:
		stats.Skipped++
		stats.Errors++
		logger.Error("failed to fetch video details", "error", err)
		video = nil
	}

	comments, err := s.source.FetchComments(ctx, stub.ID, s.config.CommentCap)
	if err != nil {
		stats.Errors++
		logger.Error("failed to fetch comments", "kept", len(comments), "error", err)
	}
	if len(comments) > s.config.CommentCap {
		comments = comments[:s.config.CommentCap]
	}

	logger.Debug("video collected", "comments", len(comments))
	return video, comments
}

func (s *ExportService) saveArchive(ctx context.Context, stats *domain.RunStats, videos []domain.Video, comments []domain.Comment) error {
	return s.archive.TxManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.archive.Videos.UpsertBatch(txCtx, stats.ChannelID, videos); err != nil {
			return fmt.Errorf("upsert videos: %w", err)
		}

		if err := s.archive.Comments.UpsertBatch(txCtx, comments); err != nil {
			return fmt.Errorf("upsert comments: %w", err)
		}

		state, err := s.archive.Channels.Get(txCtx, stats.ChannelID)
		if err != nil {
			return fmt.Errorf("get channel state: %w", err)
		}

		state.ChannelID = stats.ChannelID
		state.ChannelName = stats.ChannelName
		state.LastExportedAt = time.Now()
		state.LastRunID = stats.RunID
		state.TotalExports++

		if err := s.archive.Channels.Update(txCtx, state); err != nil {
			return fmt.Errorf("update channel state: %w", err)
		}
		return nil
	})
}

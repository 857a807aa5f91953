package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"yt_exporter/internal/domain"
)

type Source interface {
	ResolveChannelID(ctx context.Context, name string) (string, error)
	ListVideos(ctx context.Context, channelID string, limit int) ([]domain.VideoStub, error)
	FetchVideoDetails(ctx context.Context, videoID string) (*domain.Video, error)
	FetchComments(ctx context.Context, videoID string, limit int) ([]domain.Comment, error)
}

type Exporter interface {
	Export(path string, videos []domain.Video, comments []domain.Comment) error
}

type VideoStore interface {
	UpsertBatch(ctx context.Context, channelID string, videos []domain.Video) error
}

type CommentStore interface {
	UpsertBatch(ctx context.Context, comments []domain.Comment) error
}

type ChannelStateStore interface {
	Get(ctx context.Context, channelID string) (*domain.ChannelState, error)
	Update(ctx context.Context, state *domain.ChannelState) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	PublishRun(ctx context.Context, stats *domain.RunStats) error
	Close() error
}

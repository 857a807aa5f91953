package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"yt_exporter/internal/domain"
)

// batchSize keeps multi-row inserts well below the 65535 bind parameter limit.
const batchSize = 500

type VideoStore struct {
	db *sqlx.DB
}

func NewVideoStore(db *sqlx.DB) *VideoStore {
	return &VideoStore{db: db}
}

// UpsertBatch stores the videos of one channel. Statistics exported as
// "N/A" are stored as NULL. Later duplicates within the batch are dropped
// since one statement cannot update a row twice.
func (s *VideoStore) UpsertBatch(ctx context.Context, channelID string, videos []domain.Video) error {
	videos = dedupeVideos(videos)
	exec := GetExecutor(ctx, s.db)

	for start := 0; start < len(videos); start += batchSize {
		chunk := videos[start:min(start+batchSize, len(videos))]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO videos (
			video_id, channel_id, title, description, published_date,
			view_count, like_count, comment_count, duration, thumbnail_url
		) VALUES `)

		const cols = 10
		args := make([]any, 0, len(chunk)*cols)
		for i, v := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			writePlaceholders(&sb, i*cols, cols)
			args = append(args,
				v.VideoID,
				channelID,
				v.Title,
				v.Description,
				v.PublishedDate,
				countOrNull(v.ViewCount),
				countOrNull(v.LikeCount),
				countOrNull(v.CommentCount),
				v.Duration,
				v.ThumbnailURL,
			)
		}
		sb.WriteString(`
		ON CONFLICT (video_id) DO UPDATE SET
			channel_id = EXCLUDED.channel_id,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			published_date = EXCLUDED.published_date,
			view_count = EXCLUDED.view_count,
			like_count = EXCLUDED.like_count,
			comment_count = EXCLUDED.comment_count,
			duration = EXCLUDED.duration,
			thumbnail_url = EXCLUDED.thumbnail_url,
			exported_at = NOW()`)

		if _, err := exec.ExecContext(ctx, sb.String(), args...); err != nil {
			return err
		}
	}
	return nil
}

// GetByChannel reads back archived videos; used by the integration tests.
func (s *VideoStore) GetByChannel(ctx context.Context, channelID string) ([]domain.Video, error) {
	query := `
		SELECT video_id, title, description, published_date,
			COALESCE(view_count::text, 'N/A') AS view_count,
			COALESCE(like_count::text, 'N/A') AS like_count,
			COALESCE(comment_count::text, 'N/A') AS comment_count,
			duration, thumbnail_url
		FROM videos
		WHERE channel_id = $1
		ORDER BY video_id`

	var videos []domain.Video
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &videos, query, channelID)
	return videos, err
}

func dedupeVideos(videos []domain.Video) []domain.Video {
	seen := make(map[string]struct{}, len(videos))
	out := make([]domain.Video, 0, len(videos))
	for _, v := range videos {
		if _, ok := seen[v.VideoID]; ok {
			continue
		}
		seen[v.VideoID] = struct{}{}
		out = append(out, v)
	}
	return out
}

// writePlaceholders appends "($offset+1, ..., $offset+n)".
func writePlaceholders(sb *strings.Builder, offset, n int) {
	sb.WriteString("(")
	for j := 1; j <= n; j++ {
		if j > 1 {
			sb.WriteString(", ")
		}
		sb.WriteString("$")
		sb.WriteString(strconv.Itoa(offset + j))
	}
	sb.WriteString(")")
}

func countOrNull(v string) *int64 {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

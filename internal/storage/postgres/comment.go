package postgres

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"yt_exporter/internal/domain"
)

type CommentStore struct {
	db *sqlx.DB
}

func NewCommentStore(db *sqlx.DB) *CommentStore {
	return &CommentStore{db: db}
}

// UpsertBatch stores comments keyed by comment ID. Later duplicates within
// the batch are dropped since one statement cannot update a row twice.
func (s *CommentStore) UpsertBatch(ctx context.Context, comments []domain.Comment) error {
	comments = dedupeComments(comments)
	exec := GetExecutor(ctx, s.db)

	for start := 0; start < len(comments); start += batchSize {
		chunk := comments[start:min(start+batchSize, len(comments))]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO comments (
			comment_id, video_id, comment_text, author_name, published_date, like_count, reply_to
		) VALUES `)

		const cols = 7
		args := make([]any, 0, len(chunk)*cols)
		for i, c := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			writePlaceholders(&sb, i*cols, cols)
			args = append(args,
				c.CommentID,
				c.VideoID,
				c.Text,
				c.AuthorName,
				c.PublishedDate,
				c.LikeCount,
				c.ReplyTo,
			)
		}
		sb.WriteString(`
		ON CONFLICT (comment_id) DO UPDATE SET
			comment_text = EXCLUDED.comment_text,
			author_name = EXCLUDED.author_name,
			like_count = EXCLUDED.like_count,
			reply_to = EXCLUDED.reply_to,
			exported_at = NOW()`)

		if _, err := exec.ExecContext(ctx, sb.String(), args...); err != nil {
			return err
		}
	}
	return nil
}

// GetByVideo reads back archived comments; used by the integration tests.
func (s *CommentStore) GetByVideo(ctx context.Context, videoID string) ([]domain.Comment, error) {
	query := `
		SELECT video_id, comment_id, comment_text, author_name, published_date, like_count, reply_to
		FROM comments
		WHERE video_id = $1
		ORDER BY comment_id`

	var comments []domain.Comment
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &comments, query, videoID)
	return comments, err
}

func dedupeComments(comments []domain.Comment) []domain.Comment {
	seen := make(map[string]struct{}, len(comments))
	out := make([]domain.Comment, 0, len(comments))
	for _, c := range comments {
		if _, ok := seen[c.CommentID]; ok {
			continue
		}
		seen[c.CommentID] = struct{}{}
		out = append(out, c)
	}
	return out
}

package domain

// Comment is either a top-level comment or a reply. Replies carry the
// parent's author in ReplyTo; top-level comments leave it nil.
type Comment struct {
	VideoID       string  `json:"video_id" db:"video_id"`
	CommentID     string  `json:"comment_id" db:"comment_id"`
	Text          string  `json:"comment_text" db:"comment_text"`
	AuthorName    string  `json:"author_name" db:"author_name"`
	PublishedDate string  `json:"published_date" db:"published_date"`
	LikeCount     int64   `json:"like_count" db:"like_count"`
	ReplyTo       *string `json:"reply_to" db:"reply_to"`
}

func (c Comment) IsReply() bool {
	return c.ReplyTo != nil
}

func (Comment) Columns() []string {
	return []string{
		"video_id",
		"comment_id",
		"comment_text",
		"author_name",
		"published_date",
		"like_count",
		"reply_to",
	}
}

func (c Comment) Values() []any {
	var replyTo any
	if c.ReplyTo != nil {
		replyTo = *c.ReplyTo
	}
	return []any{
		c.VideoID,
		c.CommentID,
		c.Text,
		c.AuthorName,
		c.PublishedDate,
		c.LikeCount,
		replyTo,
	}
}

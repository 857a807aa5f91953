package domain

// NotAvailable is written in place of statistics the platform does not return.
const NotAvailable = "N/A"

// VideoStub is a search hit for a channel's video.
type VideoStub struct {
	ID    string
	Title string
}

type Video struct {
	VideoID       string `json:"video_id" db:"video_id"`
	Title         string `json:"title" db:"title"`
	Description   string `json:"description" db:"description"`
	PublishedDate string `json:"published_date" db:"published_date"`
	ViewCount     string `json:"view_count" db:"view_count"`
	LikeCount     string `json:"like_count" db:"like_count"`
	CommentCount  string `json:"comment_count" db:"comment_count"`
	Duration      string `json:"duration" db:"duration"`
	ThumbnailURL  string `json:"thumbnail_url" db:"thumbnail_url"`
}

func (Video) Columns() []string {
	return []string{
		"video_id",
		"title",
		"description",
		"published_date",
		"view_count",
		"like_count",
		"comment_count",
		"duration",
		"thumbnail_url",
	}
}

func (v Video) Values() []any {
	return []any{
		v.VideoID,
		v.Title,
		v.Description,
		v.PublishedDate,
		v.ViewCount,
		v.LikeCount,
		v.CommentCount,
		v.Duration,
		v.ThumbnailURL,
	}
}

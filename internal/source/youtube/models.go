package youtube

// videoListResponse mirrors videos.list. Statistics are decoded as optional
// strings: the API omits hidden counts, and the generated client would
// report those as zero.
type videoListResponse struct {
	Items []videoItem `json:"items"`
}

type videoItem struct {
	ID             string          `json:"id"`
	Snippet        *videoSnippet   `json:"snippet"`
	Statistics     *videoStats     `json:"statistics"`
	ContentDetails *contentDetails `json:"contentDetails"`
}

type videoSnippet struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	PublishedAt string     `json:"publishedAt"`
	Thumbnails  thumbnails `json:"thumbnails"`
}

type videoStats struct {
	ViewCount    *string `json:"viewCount"`
	LikeCount    *string `json:"likeCount"`
	CommentCount *string `json:"commentCount"`
}

type contentDetails struct {
	Duration string `json:"duration"`
}

type thumbnails struct {
	High *thumbnail `json:"high"`
}

type thumbnail struct {
	URL string `json:"url"`
}

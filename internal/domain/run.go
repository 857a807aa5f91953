package domain

import "time"

// RunStats holds statistics about one export run.
type RunStats struct {
	RunID            string        `json:"run_id"`
	ChannelName      string        `json:"channel_name"`
	ChannelID        string        `json:"channel_id"`
	VideosListed     int           `json:"videos_listed"`
	VideosExported   int           `json:"videos_exported"`
	CommentsExported int           `json:"comments_exported"`
	Skipped          int           `json:"skipped"`
	Errors           int           `json:"errors"`
	OutputPath       string        `json:"output_path"`
	StartedAt        time.Time     `json:"started_at"`
	Duration         time.Duration `json:"duration"`
}

type ChannelState struct {
	ChannelID      string    `db:"channel_id"`
	ChannelName    string    `db:"channel_name"`
	LastExportedAt time.Time `db:"last_exported_at"`
	LastRunID      string    `db:"last_run_id"`
	TotalExports   int64     `db:"total_exports"`
}

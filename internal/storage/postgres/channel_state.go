package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"yt_exporter/internal/domain"
)

type ChannelStateStore struct {
	db *sqlx.DB
}

func NewChannelStateStore(db *sqlx.DB) *ChannelStateStore {
	return &ChannelStateStore{db: db}
}

func (s *ChannelStateStore) Get(ctx context.Context, channelID string) (*domain.ChannelState, error) {
	var state domain.ChannelState
	query := `
		SELECT channel_id, channel_name, last_exported_at, last_run_id, total_exports
		FROM channel_state
		WHERE channel_id = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &state, query, channelID)
	if errors.Is(err, sql.ErrNoRows) {
		// Channels exported for the first time start from zero.
		return &domain.ChannelState{ChannelID: channelID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *ChannelStateStore) Update(ctx context.Context, state *domain.ChannelState) error {
	query := `
		INSERT INTO channel_state (channel_id, channel_name, last_exported_at, last_run_id, total_exports)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (channel_id) DO UPDATE SET
			channel_name = EXCLUDED.channel_name,
			last_exported_at = EXCLUDED.last_exported_at,
			last_run_id = EXCLUDED.last_run_id,
			total_exports = EXCLUDED.total_exports`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		state.ChannelID,
		state.ChannelName,
		state.LastExportedAt,
		state.LastRunID,
		state.TotalExports,
	)
	return err
}

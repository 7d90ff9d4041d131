package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/WatchParty/internal/domain"
)

func (s *Store) FetchPlayback(ctx context.Context, id domain.RoomID) (*domain.PlaybackSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, errNoDB
	}
	var (
		snap      domain.PlaybackSnapshot
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, s.exec(`
		SELECT is_playing, current_time_seconds, updated_at
		FROM playback_states
		WHERE room_id = ?
	`), id).Scan(&snap.IsPlaying, &snap.CurrentTimeSeconds, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: fetch playback %d: %w", id, err)
	}
	snap.UpdatedAt = time.Unix(updatedAt, 0)
	return &snap, nil
}

// UpsertPlayback creates the row when absent.
func (s *Store) UpsertPlayback(ctx context.Context, id domain.RoomID, snap domain.PlaybackSnapshot) error {
	if s == nil || s.db == nil {
		return errNoDB
	}
	updatedAt := snap.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, s.exec(`
		INSERT INTO playback_states (room_id, is_playing, current_time_seconds, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(room_id) DO UPDATE SET
			is_playing=excluded.is_playing,
			current_time_seconds=excluded.current_time_seconds,
			updated_at=excluded.updated_at
	`), id, snap.IsPlaying, snap.CurrentTimeSeconds, updatedAt.Unix())
	if err != nil {
		return fmt.Errorf("storage: upsert playback %d: %w", id, err)
	}
	return nil
}

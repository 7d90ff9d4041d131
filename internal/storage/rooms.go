package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkeye/WatchParty/internal/domain"
)

// FetchRoom returns a non-deleted room row.
func (s *Store) FetchRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	if s == nil || s.db == nil {
		return nil, errNoDB
	}
	room := &domain.Room{}
	err := s.db.QueryRowContext(ctx, s.exec(`
		SELECT id, owner_id, name, stream_url, movie_title, provider_type, stream_version,
			chat_enabled, spam_protection_enabled, spam_cooldown_seconds
		FROM rooms
		WHERE id = ? AND deleted_at IS NULL
	`), id).Scan(
		&room.ID,
		&room.OwnerID,
		&room.Name,
		&room.StreamURL,
		&room.MovieTitle,
		&room.ProviderType,
		&room.StreamVersion,
		&room.ChatEnabled,
		&room.SpamProtectionEnabled,
		&room.SpamCooldownSeconds,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: fetch room %d: %w", id, err)
	}
	return room, nil
}

// RoomOwner looks at deleted rooms too, so the owner can still announce the deletion.
func (s *Store) RoomOwner(ctx context.Context, id domain.RoomID) (domain.UserID, error) {
	if s == nil || s.db == nil {
		return 0, errNoDB
	}
	var owner domain.UserID
	err := s.db.QueryRowContext(ctx, s.exec(`SELECT owner_id FROM rooms WHERE id = ?`), id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("storage: room owner %d: %w", id, err)
	}
	return owner, nil
}

// UpdateStream stores new stream fields and bumps the stream version.
func (s *Store) UpdateStream(ctx context.Context, id domain.RoomID, streamURL, providerType string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errNoDB
	}
	var version int64
	err := s.db.QueryRowContext(ctx, s.exec(`
		UPDATE rooms
		SET stream_url = ?, provider_type = ?, stream_version = stream_version + 1
		WHERE id = ? AND deleted_at IS NULL
		RETURNING stream_version
	`), streamURL, providerType, id).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("storage: update stream %d: %w", id, err)
	}
	return version, nil
}

func (s *Store) UpdateRoomSettings(ctx context.Context, id domain.RoomID, settings domain.RoomSettings) error {
	if s == nil || s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, s.exec(`
		UPDATE rooms
		SET chat_enabled = ?, spam_protection_enabled = ?, spam_cooldown_seconds = ?
		WHERE id = ? AND deleted_at IS NULL
	`), settings.ChatEnabled, settings.SpamProtectionEnabled, settings.SpamCooldownSeconds, id)
	if err != nil {
		return fmt.Errorf("storage: update settings %d: %w", id, err)
	}
	return expectRow(res)
}

func (s *Store) UserRole(ctx context.Context, id domain.UserID) (domain.Role, error) {
	if s == nil || s.db == nil {
		return "", errNoDB
	}
	var role string
	err := s.db.QueryRowContext(ctx, s.exec(`SELECT role FROM users WHERE id = ?`), id).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("storage: user role %d: %w", id, err)
	}
	return domain.Role(role), nil
}

func (s *Store) IsBanned(ctx context.Context, room domain.RoomID, user domain.UserID) (bool, error) {
	if s == nil || s.db == nil {
		return false, errNoDB
	}
	var one int
	err := s.db.QueryRowContext(ctx, s.exec(`
		SELECT 1 FROM room_bans WHERE room_id = ? AND user_id = ?
	`), room, user).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: ban check %d/%d: %w", room, user, err)
	}
	return true, nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/WatchParty/internal/domain"
)

func (s *Store) CreateMessage(ctx context.Context, msg domain.NewMessage) (*domain.Message, error) {
	if s == nil || s.db == nil {
		return nil, errNoDB
	}
	created := s.now()
	var id domain.MessageID
	err := s.db.QueryRowContext(ctx, s.exec(`
		INSERT INTO messages (room_id, user_id, author_username, author_role, author_vip, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`),
		msg.RoomID,
		msg.Author.ID,
		msg.Author.Username,
		string(msg.Author.Role),
		msg.Author.VIP,
		msg.Content,
		created.Unix(),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("storage: create message in room %d: %w", msg.RoomID, err)
	}
	return &domain.Message{
		ID:        id,
		RoomID:    msg.RoomID,
		Content:   msg.Content,
		Author:    msg.Author,
		CreatedAt: time.Unix(created.Unix(), 0),
	}, nil
}

// SoftDeleteMessage marks a message deleted; deleting twice reports ErrNotFound.
func (s *Store) SoftDeleteMessage(ctx context.Context, room domain.RoomID, id domain.MessageID) error {
	if s == nil || s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, s.exec(`
		UPDATE messages SET deleted_at = ?
		WHERE id = ? AND room_id = ? AND deleted_at IS NULL
	`), s.now().Unix(), id, room)
	if err != nil {
		return fmt.Errorf("storage: delete message %d: %w", id, err)
	}
	return expectRow(res)
}

package storage

import (
	"fmt"
	"strings"
)

// The tables below are the subset of the application schema the session core
// touches. The rooms/users CRUD service owns them in production; EnsureSchema
// exists for local runs and tests.
const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
	id BIGINT PRIMARY KEY,
	username TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'user',
	is_vip BOOLEAN NOT NULL DEFAULT FALSE
);`

const schemaRooms = `
CREATE TABLE IF NOT EXISTS rooms (
	id BIGINT PRIMARY KEY,
	owner_id BIGINT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	stream_url TEXT NOT NULL DEFAULT '',
	movie_title TEXT NOT NULL DEFAULT '',
	provider_type TEXT NOT NULL DEFAULT '',
	stream_version BIGINT NOT NULL DEFAULT 0,
	chat_enabled BOOLEAN NOT NULL DEFAULT TRUE,
	spam_protection_enabled BOOLEAN NOT NULL DEFAULT FALSE,
	spam_cooldown_seconds INTEGER NOT NULL DEFAULT 5,
	deleted_at BIGINT
);`

const schemaRoomBans = `
CREATE TABLE IF NOT EXISTS room_bans (
	room_id BIGINT NOT NULL,
	user_id BIGINT NOT NULL,
	created_at BIGINT NOT NULL DEFAULT 0,
	PRIMARY KEY (room_id, user_id)
);`

const schemaPlaybackStates = `
CREATE TABLE IF NOT EXISTS playback_states (
	room_id BIGINT PRIMARY KEY,
	is_playing BOOLEAN NOT NULL DEFAULT FALSE,
	current_time_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
	updated_at BIGINT NOT NULL
);`

const schemaMessages = `
CREATE TABLE IF NOT EXISTS messages (
	id {{serial}},
	room_id BIGINT NOT NULL,
	user_id BIGINT NOT NULL,
	author_username TEXT NOT NULL,
	author_role TEXT NOT NULL,
	author_vip BOOLEAN NOT NULL DEFAULT FALSE,
	content TEXT NOT NULL,
	created_at BIGINT NOT NULL,
	deleted_at BIGINT
);`

const schemaMessagesIndexes = `
CREATE INDEX IF NOT EXISTS idx_messages_room_created ON messages(room_id, created_at);`

func (s *Store) EnsureSchema() error {
	if s == nil || s.db == nil {
		return errNoDB
	}
	for _, stmt := range []string{
		schemaUsers,
		schemaRooms,
		schemaRoomBans,
		schemaPlaybackStates,
		schemaMessages,
		schemaMessagesIndexes,
	} {
		stmt = strings.ReplaceAll(stmt, "{{serial}}", s.dialect.serialPK)
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("storage: ensure schema: %w", err)
		}
	}
	return nil
}

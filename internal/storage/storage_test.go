package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkeye/WatchParty/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(DriverSQLite, ":memory:", Options{BusyTimeout: time.Second})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	if err := store.EnsureSchema(); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	store.now = func() time.Time { return time.Unix(1700000000, 0) }
	return store
}

func insertRoom(t *testing.T, store *Store, id, owner int64, deleted bool) {
	t.Helper()
	var deletedAt any
	if deleted {
		deletedAt = int64(1700000000)
	}
	_, err := store.db.Exec(`
		INSERT INTO rooms (id, owner_id, name, stream_url, movie_title, chat_enabled, spam_protection_enabled, spam_cooldown_seconds, deleted_at)
		VALUES (?, ?, 'Friday', 'https://cdn.example/a.m3u8', 'Alien', TRUE, TRUE, 7, ?)
	`, id, owner, deletedAt)
	if err != nil {
		t.Fatalf("insert room: %v", err)
	}
}

func TestEnsureSchema(t *testing.T) {
	store := newTestStore(t)

	if err := store.EnsureSchema(); err != nil {
		t.Fatalf("EnsureSchema() second run error = %v", err)
	}

	rows, err := store.db.Query(`SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan sqlite_master: %v", err)
		}
		found[name] = true
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("sqlite_master rows: %v", err)
	}

	for _, table := range []string{"users", "rooms", "room_bans", "playback_states", "messages"} {
		if !found[table] {
			t.Fatalf("expected table %q to exist", table)
		}
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open("mysql", "x", Options{}); err == nil {
		t.Fatalf("Open() with unsupported driver: expected error")
	}
}

func TestFetchRoom(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	insertRoom(t, store, 1, 10, false)
	insertRoom(t, store, 2, 10, true)

	room, err := store.FetchRoom(ctx, 1)
	if err != nil {
		t.Fatalf("FetchRoom() error = %v", err)
	}
	if room.OwnerID != 10 || room.MovieTitle != "Alien" || !room.ChatEnabled || !room.SpamProtectionEnabled || room.SpamCooldownSeconds != 7 {
		t.Fatalf("unexpected room: %+v", room)
	}

	if _, err := store.FetchRoom(ctx, 2); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("FetchRoom(deleted) error = %v, want ErrNotFound", err)
	}
	if _, err := store.FetchRoom(ctx, 3); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("FetchRoom(missing) error = %v, want ErrNotFound", err)
	}

	owner, err := store.RoomOwner(ctx, 2)
	if err != nil || owner != 10 {
		t.Fatalf("RoomOwner(deleted) = %d, %v; want 10", owner, err)
	}
}

func TestUpsertPlayback(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.FetchPlayback(ctx, 5); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("FetchPlayback(missing) error = %v", err)
	}

	if err := store.UpsertPlayback(ctx, 5, domain.PlaybackSnapshot{IsPlaying: true, CurrentTimeSeconds: 12.5}); err != nil {
		t.Fatalf("UpsertPlayback() create error = %v", err)
	}
	if err := store.UpsertPlayback(ctx, 5, domain.PlaybackSnapshot{IsPlaying: false, CurrentTimeSeconds: 99}); err != nil {
		t.Fatalf("UpsertPlayback() update error = %v", err)
	}

	snap, err := store.FetchPlayback(ctx, 5)
	if err != nil {
		t.Fatalf("FetchPlayback() error = %v", err)
	}
	if snap.IsPlaying || snap.CurrentTimeSeconds != 99 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.UpdatedAt.Unix() != 1700000000 {
		t.Fatalf("unexpected updated_at: %v", snap.UpdatedAt)
	}
}

func TestUpdateStreamBumpsVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	insertRoom(t, store, 1, 10, false)

	for want := int64(1); want <= 2; want++ {
		got, err := store.UpdateStream(ctx, 1, "https://cdn.example/b.mp4", "direct")
		if err != nil {
			t.Fatalf("UpdateStream() error = %v", err)
		}
		if got != want {
			t.Fatalf("stream version: got %d want %d", got, want)
		}
	}

	room, err := store.FetchRoom(ctx, 1)
	if err != nil {
		t.Fatalf("FetchRoom() error = %v", err)
	}
	if room.StreamURL != "https://cdn.example/b.mp4" || room.ProviderType != "direct" {
		t.Fatalf("stream fields not stored: %+v", room)
	}

	if _, err := store.UpdateStream(ctx, 42, "x", "y"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("UpdateStream(missing) error = %v", err)
	}
}

func TestUpdateRoomSettings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	insertRoom(t, store, 1, 10, false)

	err := store.UpdateRoomSettings(ctx, 1, domain.RoomSettings{ChatEnabled: false, SpamProtectionEnabled: false, SpamCooldownSeconds: 2})
	if err != nil {
		t.Fatalf("UpdateRoomSettings() error = %v", err)
	}
	room, err := store.FetchRoom(ctx, 1)
	if err != nil {
		t.Fatalf("FetchRoom() error = %v", err)
	}
	if room.ChatEnabled || room.SpamProtectionEnabled || room.SpamCooldownSeconds != 2 {
		t.Fatalf("settings not stored: %+v", room)
	}
}

func TestMessages(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	msg, err := store.CreateMessage(ctx, domain.NewMessage{
		RoomID:  3,
		Content: "hello",
		Author:  domain.Author{ID: 7, Username: "ann", Role: domain.RoleUser, VIP: true},
	})
	if err != nil {
		t.Fatalf("CreateMessage() error = %v", err)
	}
	if msg.ID == 0 || msg.Author.Username != "ann" || msg.Content != "hello" {
		t.Fatalf("unexpected message: %+v", msg)
	}

	if err := store.SoftDeleteMessage(ctx, 4, msg.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("SoftDeleteMessage(wrong room) error = %v", err)
	}
	if err := store.SoftDeleteMessage(ctx, 3, msg.ID); err != nil {
		t.Fatalf("SoftDeleteMessage() error = %v", err)
	}
	if err := store.SoftDeleteMessage(ctx, 3, msg.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("SoftDeleteMessage(twice) error = %v", err)
	}
}

func TestUserRoleAndBans(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.db.Exec(`INSERT INTO users (id, username, role) VALUES (1, 'root', 'admin')`); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if _, err := store.db.Exec(`INSERT INTO room_bans (room_id, user_id) VALUES (9, 2)`); err != nil {
		t.Fatalf("insert ban: %v", err)
	}

	role, err := store.UserRole(ctx, 1)
	if err != nil || role != domain.RoleAdmin {
		t.Fatalf("UserRole() = %q, %v", role, err)
	}
	if _, err := store.UserRole(ctx, 2); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("UserRole(missing) error = %v", err)
	}

	banned, err := store.IsBanned(ctx, 9, 2)
	if err != nil || !banned {
		t.Fatalf("IsBanned(9,2) = %v, %v", banned, err)
	}
	banned, err = store.IsBanned(ctx, 9, 1)
	if err != nil || banned {
		t.Fatalf("IsBanned(9,1) = %v, %v", banned, err)
	}
}

func TestRebind(t *testing.T) {
	pg := dialects[DriverPostgres]
	got := pg.rebind("UPDATE t SET a = ? WHERE id = ? AND b = ?")
	if got != "UPDATE t SET a = $1 WHERE id = $2 AND b = $3" {
		t.Fatalf("rebind = %q", got)
	}
	lite := dialects[DriverSQLite]
	if lite.rebind("a = ?") != "a = ?" {
		t.Fatalf("sqlite rebind must be identity")
	}
}

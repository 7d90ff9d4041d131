package domain

import "time"

type RoomID int64

const (
	DefaultSpamCooldownSeconds = 5
	MaxSpamCooldownSeconds     = 24 * 60 * 60
	MaxMessageLength           = 500
)

// Room is the persisted room row as seen by the session core.
type Room struct {
	ID                    RoomID
	OwnerID               UserID
	Name                  string
	StreamURL             string
	MovieTitle            string
	ProviderType          string
	StreamVersion         int64
	ChatEnabled           bool
	SpamProtectionEnabled bool
	SpamCooldownSeconds   int
}

// IsOwner reports whether identity owns the room.
func (r *Room) IsOwner(identity Identity) bool {
	return r != nil && identity.Is(r.OwnerID)
}

// SpamCooldown converts a stored cooldown to a duration clamped to
// [0, MaxSpamCooldownSeconds].
func SpamCooldown(seconds int) time.Duration {
	seconds = min(max(seconds, 0), MaxSpamCooldownSeconds)
	return time.Duration(seconds) * time.Second
}

// PlaybackSnapshot is the persisted shadow of the live playback position.
type PlaybackSnapshot struct {
	IsPlaying          bool
	CurrentTimeSeconds float64
	UpdatedAt          time.Time
}

// RoomSettings carries the chat policy flags of a room.
type RoomSettings struct {
	ChatEnabled           bool `json:"chatEnabled"`
	SpamProtectionEnabled bool `json:"spamProtectionEnabled"`
	SpamCooldownSeconds   int  `json:"spamCooldownSeconds"`
}

// PlaybackState is the in-memory, authoritative state of one room.
type PlaybackState struct {
	IsPlaying          bool      `json:"isPlaying"`
	CurrentTimeSeconds float64   `json:"currentTimeSeconds"`
	StreamURL          string    `json:"streamUrl"`
	MovieTitle         string    `json:"movieTitle"`
	ProviderType       string    `json:"providerType,omitempty"`
	LastUpdated        time.Time `json:"lastUpdated"`
	RoomSettings
}

func DefaultPlaybackState(now time.Time) PlaybackState {
	return PlaybackState{
		LastUpdated: now,
		RoomSettings: RoomSettings{
			ChatEnabled:         true,
			SpamCooldownSeconds: DefaultSpamCooldownSeconds,
		},
	}
}

// Snapshot returns the part of the state that is persisted.
func (s PlaybackState) Snapshot() PlaybackSnapshot {
	return PlaybackSnapshot{
		IsPlaying:          s.IsPlaying,
		CurrentTimeSeconds: s.CurrentTimeSeconds,
		UpdatedAt:          s.LastUpdated,
	}
}

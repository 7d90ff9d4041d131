package core

import "github.com/dkeye/WatchParty/internal/domain"

// Outbound event names.
const (
	OutParticipants        = "participants"
	OutRoomState           = "room_state"
	OutHostGranted         = "host_granted"
	OutHostTaken           = "host_taken"
	OutHostChanged         = "host_changed"
	OutPlayerSyncRequest   = "player_sync_request"
	OutURLChanged          = "url_changed"
	OutRoomSettingsChanged = "room_settings_changed"
	OutNewMessage          = "new_message"
	OutSpamBlocked         = "spam_blocked"
	OutNewReaction         = "new_reaction"
	OutMessageDeleted      = "message_deleted"
	OutRoomDeleted         = "room_deleted"
	OutError               = "error"
	OutPong                = "pong"
)

type ParticipantsPayload struct {
	RoomID       domain.RoomID        `json:"roomId"`
	Participants []domain.Participant `json:"participants"`
}

type RoomStatePayload struct {
	RoomID domain.RoomID `json:"roomId"`
	domain.PlaybackState
	HostConnected bool `json:"hostConnected"`
	IsHost        bool `json:"isHost"`
}

type HostGrantedPayload struct {
	RoomID domain.RoomID `json:"roomId"`
}

type HostTakenPayload struct {
	RoomID domain.RoomID `json:"roomId"`
}

type HostChangedPayload struct {
	RoomID        domain.RoomID `json:"roomId"`
	Username      string        `json:"username,omitempty"`
	HostConnected bool          `json:"hostConnected"`
}

type SyncRequestPayload struct {
	RoomID      domain.RoomID `json:"roomId"`
	RequesterID SessionID     `json:"requesterId"`
}

type URLChangedPayload struct {
	RoomID       domain.RoomID `json:"roomId"`
	StreamURL    string        `json:"streamUrl"`
	ProviderType string        `json:"providerType"`
}

type RoomSettingsPayload struct {
	RoomID domain.RoomID `json:"roomId"`
	domain.RoomSettings
}

type SpamBlockedPayload struct {
	Remaining int `json:"remaining"`
}

type ReactionPayload struct {
	RoomID    domain.RoomID `json:"roomId"`
	Username  string        `json:"username"`
	Reaction  string        `json:"reaction"`
	Timestamp int64         `json:"timestamp"`
}

type MessageDeletedPayload struct {
	RoomID    domain.RoomID    `json:"roomId"`
	MessageID domain.MessageID `json:"messageId"`
}

type RoomDeletedPayload struct {
	RoomID domain.RoomID `json:"roomId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

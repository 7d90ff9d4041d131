package core

import (
	"errors"
	"math"
	"strings"

	"github.com/dkeye/WatchParty/internal/domain"
)

// Inbound event names.
const (
	EventJoinRoom            = "join_room"
	EventClaimHost           = "claim_host"
	EventRoomStateUpdate     = "room_state_update"
	EventPlayerSyncRequest   = "player_sync_request"
	EventPlayerSyncResponse  = "player_sync_response"
	EventURLChanged          = "url_changed"
	EventRoomSettingsChanged = "room_settings_changed"
	EventLeaveRoom           = "leave_room"
	EventSendMessage         = "send_message"
	EventSendReaction        = "send_reaction"
	EventAdminDeleteMessage  = "admin_delete_message"
	EventRoomDeleted         = "room_deleted"
	EventPing                = "ping"
)

var (
	ErrMissingRoom   = errors.New("missing roomId")
	ErrBadTime       = errors.New("currentTimeSeconds must be a finite number >= 0")
	ErrMissingURL    = errors.New("missing streamUrl")
	ErrMissingTarget = errors.New("missing requesterId")
	ErrMissingID     = errors.New("missing messageId")
	ErrBadCooldown   = errors.New("spamCooldownSeconds out of range")
)

// Event is the closed set of inbound events. Only types in this package
// implement it.
type Event interface {
	Name() string
	Room() domain.RoomID
	Validate() error
	event()
}

type roomRef struct {
	RoomID domain.RoomID `json:"roomId"`
}

func (r roomRef) Room() domain.RoomID { return r.RoomID }

func (r roomRef) Validate() error {
	if r.RoomID <= 0 {
		return ErrMissingRoom
	}
	return nil
}

func (roomRef) event() {}

type JoinRoom struct{ roomRef }

type ClaimHost struct{ roomRef }

type LeaveRoom struct{ roomRef }

type PlayerSyncRequest struct{ roomRef }

type RoomDeleted struct{ roomRef }

// RoomStateUpdate is a partial update: nil fields keep their previous value.
type RoomStateUpdate struct {
	roomRef
	IsPlaying          *bool    `json:"isPlaying,omitempty"`
	CurrentTimeSeconds *float64 `json:"currentTimeSeconds,omitempty"`
	StreamURL          *string  `json:"streamUrl,omitempty"`
	MovieTitle         *string  `json:"movieTitle,omitempty"`
}

type PlayerSyncResponse struct {
	roomRef
	RequesterID        SessionID `json:"requesterId"`
	CurrentTimeSeconds float64   `json:"currentTimeSeconds"`
	IsPlaying          bool      `json:"isPlaying"`
}

type URLChanged struct {
	roomRef
	StreamURL    string `json:"streamUrl"`
	ProviderType string `json:"providerType"`
}

type RoomSettingsChanged struct {
	roomRef
	ChatEnabled           *bool `json:"chatEnabled,omitempty"`
	SpamProtectionEnabled *bool `json:"spamProtectionEnabled,omitempty"`
	SpamCooldownSeconds   *int  `json:"spamCooldownSeconds,omitempty"`
}

type SendMessage struct {
	roomRef
	Content string `json:"content"`
}

type SendReaction struct {
	roomRef
	Reaction string `json:"reaction"`
}

type AdminDeleteMessage struct {
	roomRef
	MessageID domain.MessageID `json:"messageId"`
}

// Ping is a transport keepalive; it carries no room.
type Ping struct{}

func (Ping) Name() string        { return EventPing }
func (Ping) Room() domain.RoomID { return 0 }
func (Ping) Validate() error     { return nil }
func (Ping) event()              {}

func (JoinRoom) Name() string            { return EventJoinRoom }
func (ClaimHost) Name() string           { return EventClaimHost }
func (LeaveRoom) Name() string           { return EventLeaveRoom }
func (PlayerSyncRequest) Name() string   { return EventPlayerSyncRequest }
func (RoomDeleted) Name() string         { return EventRoomDeleted }
func (RoomStateUpdate) Name() string     { return EventRoomStateUpdate }
func (PlayerSyncResponse) Name() string  { return EventPlayerSyncResponse }
func (URLChanged) Name() string          { return EventURLChanged }
func (RoomSettingsChanged) Name() string { return EventRoomSettingsChanged }
func (SendMessage) Name() string         { return EventSendMessage }
func (SendReaction) Name() string        { return EventSendReaction }
func (AdminDeleteMessage) Name() string  { return EventAdminDeleteMessage }

func validTime(t float64) bool {
	return t >= 0 && !math.IsNaN(t) && !math.IsInf(t, 0)
}

func (u RoomStateUpdate) Validate() error {
	if err := u.roomRef.Validate(); err != nil {
		return err
	}
	if u.CurrentTimeSeconds != nil && !validTime(*u.CurrentTimeSeconds) {
		return ErrBadTime
	}
	return nil
}

// Apply copies the present fields onto state.
func (u RoomStateUpdate) Apply(state *domain.PlaybackState) {
	if u.IsPlaying != nil {
		state.IsPlaying = *u.IsPlaying
	}
	if u.CurrentTimeSeconds != nil {
		state.CurrentTimeSeconds = *u.CurrentTimeSeconds
	}
	if u.StreamURL != nil {
		state.StreamURL = *u.StreamURL
	}
	if u.MovieTitle != nil {
		state.MovieTitle = *u.MovieTitle
	}
}

func (r PlayerSyncResponse) Validate() error {
	if err := r.roomRef.Validate(); err != nil {
		return err
	}
	if r.RequesterID == "" {
		return ErrMissingTarget
	}
	if !validTime(r.CurrentTimeSeconds) {
		return ErrBadTime
	}
	return nil
}

func (u URLChanged) Validate() error {
	if err := u.roomRef.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(u.StreamURL) == "" {
		return ErrMissingURL
	}
	return nil
}

func (s RoomSettingsChanged) Validate() error {
	if err := s.roomRef.Validate(); err != nil {
		return err
	}
	if c := s.SpamCooldownSeconds; c != nil && (*c < 0 || *c > domain.MaxSpamCooldownSeconds) {
		return ErrBadCooldown
	}
	return nil
}

// Apply copies the present flags onto settings.
func (s RoomSettingsChanged) Apply(settings *domain.RoomSettings) {
	if s.ChatEnabled != nil {
		settings.ChatEnabled = *s.ChatEnabled
	}
	if s.SpamProtectionEnabled != nil {
		settings.SpamProtectionEnabled = *s.SpamProtectionEnabled
	}
	if c := s.SpamCooldownSeconds; c != nil && *c >= 0 && *c <= domain.MaxSpamCooldownSeconds {
		settings.SpamCooldownSeconds = *c
	}
}

func (d AdminDeleteMessage) Validate() error {
	if err := d.roomRef.Validate(); err != nil {
		return err
	}
	if d.MessageID <= 0 {
		return ErrMissingID
	}
	return nil
}

// NewJoinRoom and friends build events outside the wire decoder.
func NewJoinRoom(id domain.RoomID) JoinRoom                   { return JoinRoom{roomRef{id}} }
func NewClaimHost(id domain.RoomID) ClaimHost                 { return ClaimHost{roomRef{id}} }
func NewLeaveRoom(id domain.RoomID) LeaveRoom                 { return LeaveRoom{roomRef{id}} }
func NewPlayerSyncRequest(id domain.RoomID) PlayerSyncRequest { return PlayerSyncRequest{roomRef{id}} }
func NewRoomDeleted(id domain.RoomID) RoomDeleted             { return RoomDeleted{roomRef{id}} }

func NewRoomStateUpdate(id domain.RoomID) RoomStateUpdate {
	return RoomStateUpdate{roomRef: roomRef{id}}
}

func NewPlayerSyncResponse(id domain.RoomID, requester SessionID, at float64, playing bool) PlayerSyncResponse {
	return PlayerSyncResponse{roomRef: roomRef{id}, RequesterID: requester, CurrentTimeSeconds: at, IsPlaying: playing}
}

func NewURLChanged(id domain.RoomID, streamURL, providerType string) URLChanged {
	return URLChanged{roomRef: roomRef{id}, StreamURL: streamURL, ProviderType: providerType}
}

func NewRoomSettingsChanged(id domain.RoomID) RoomSettingsChanged {
	return RoomSettingsChanged{roomRef: roomRef{id}}
}

func NewSendMessage(id domain.RoomID, content string) SendMessage {
	return SendMessage{roomRef: roomRef{id}, Content: content}
}

func NewSendReaction(id domain.RoomID, reaction string) SendReaction {
	return SendReaction{roomRef: roomRef{id}, Reaction: reaction}
}

func NewAdminDeleteMessage(id domain.RoomID, msg domain.MessageID) AdminDeleteMessage {
	return AdminDeleteMessage{roomRef: roomRef{id}, MessageID: msg}
}

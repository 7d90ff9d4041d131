package signal

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/WatchParty/internal/core"
)

var (
	ErrBadJSON      = errors.New("bad json")
	ErrUnknownEvent = errors.New("unknown event")
)

type decoder func(json.RawMessage) (core.Event, error)

func decodeAs[T core.Event](data json.RawMessage) (core.Event, error) {
	var ev T
	if len(data) == 0 {
		return ev, nil
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return ev, nil
}

var decoders = map[string]decoder{
	core.EventJoinRoom:            decodeAs[core.JoinRoom],
	core.EventClaimHost:           decodeAs[core.ClaimHost],
	core.EventRoomStateUpdate:     decodeAs[core.RoomStateUpdate],
	core.EventPlayerSyncRequest:   decodeAs[core.PlayerSyncRequest],
	core.EventPlayerSyncResponse:  decodeAs[core.PlayerSyncResponse],
	core.EventURLChanged:          decodeAs[core.URLChanged],
	core.EventRoomSettingsChanged: decodeAs[core.RoomSettingsChanged],
	core.EventLeaveRoom:           decodeAs[core.LeaveRoom],
	core.EventSendMessage:         decodeAs[core.SendMessage],
	core.EventSendReaction:        decodeAs[core.SendReaction],
	core.EventAdminDeleteMessage:  decodeAs[core.AdminDeleteMessage],
	core.EventRoomDeleted:         decodeAs[core.RoomDeleted],
	core.EventPing:                decodeAs[core.Ping],
}

// Decode parses one inbound frame into its event variant and validates it.
func Decode(frame []byte) (core.Event, error) {
	var env core.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadJSON, err)
	}
	dec, ok := decoders[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
	ev, err := dec(env.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", env.Type, ErrBadJSON, err)
	}
	if err := ev.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", env.Type, err)
	}
	return ev, nil
}

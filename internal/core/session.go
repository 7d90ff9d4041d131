package core

import "github.com/dkeye/WatchParty/internal/domain"

type SessionID string

// Session is the per-connection state owned by the hub.
// Identity is resolved once at connect and never changes afterwards.
type Session struct {
	ID       SessionID
	Identity domain.Identity
	signal   SignalConnection

	room    domain.RoomID
	joining domain.RoomID
}

func NewSession(id SessionID, identity domain.Identity, signal SignalConnection) *Session {
	return &Session{ID: id, Identity: identity, signal: signal}
}

func (s *Session) Signal() SignalConnection { return s.signal }

// Room returns the joined room, if any.
func (s *Session) Room() (domain.RoomID, bool) { return s.room, s.room != 0 }

func (s *Session) InRoom(id domain.RoomID) bool { return id != 0 && s.room == id }

func (s *Session) SetRoom(id domain.RoomID) { s.room = id }

func (s *Session) ClearRoom() { s.room = 0 }

// BeginJoin marks a join waiting on persistence. A later BeginJoin or
// CancelJoin supersedes it.
func (s *Session) BeginJoin(id domain.RoomID) { s.joining = id }

func (s *Session) CancelJoin() { s.joining = 0 }

// CompleteJoin reports whether the pending join for id is still wanted and clears it.
func (s *Session) CompleteJoin(id domain.RoomID) bool {
	if s.joining != id {
		return false
	}
	s.joining = 0
	return true
}

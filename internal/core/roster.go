package core

import (
	"errors"

	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/rs/zerolog"
)

// PublishResult reports delivery stats/backpressure to the hub.
type PublishResult struct {
	SendTo  int
	Dropped []*Session
}

func (r *PublishResult) merge(o PublishResult) {
	r.SendTo += o.SendTo
	r.Dropped = append(r.Dropped, o.Dropped...)
}

type rosterEntry struct {
	session     *Session
	participant domain.Participant
}

// Roster is the presence list of one room in join order.
// It is not safe for concurrent use; the hub goroutine owns it.
type Roster struct {
	room    domain.RoomID
	entries []rosterEntry
	log     zerolog.Logger
}

func NewRoster(room domain.RoomID, log zerolog.Logger) *Roster {
	return &Roster{room: room, log: log}
}

func (r *Roster) Len() int { return len(r.entries) }

func (r *Roster) Has(sid SessionID) bool { return r.index(sid) >= 0 }

func (r *Roster) index(sid SessionID) int {
	for i, e := range r.entries {
		if e.session.ID == sid {
			return i
		}
	}
	return -1
}

// Add appends the session with its identity as of now. Adding a session that
// is already present keeps its original position and snapshot.
func (r *Roster) Add(s *Session) bool {
	if r.Has(s.ID) {
		return false
	}
	r.entries = append(r.entries, rosterEntry{
		session:     s,
		participant: domain.NewParticipant(string(s.ID), s.Identity),
	})
	r.log.Info().Str("module", "core.room").Int64("room", int64(r.room)).Str("sid", string(s.ID)).Msg("member added")
	return true
}

func (r *Roster) Remove(sid SessionID) bool {
	i := r.index(sid)
	if i < 0 {
		return false
	}
	r.entries = append(r.entries[:i], r.entries[i+1:]...)
	r.log.Info().Str("module", "core.room").Int64("room", int64(r.room)).Str("sid", string(sid)).Msg("member removed")
	return true
}

// Participants is a read-only copy of the roster for the wire.
func (r *Roster) Participants() []domain.Participant {
	out := make([]domain.Participant, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.participant)
	}
	return out
}

func (r *Roster) Sessions() []*Session {
	out := make([]*Session, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.session)
	}
	return out
}

// Broadcast sends data to every member except from. An empty from reaches everyone.
func (r *Roster) Broadcast(from SessionID, data Frame) PublishResult {
	res := PublishResult{}
	for _, e := range r.entries {
		if e.session.ID == from {
			continue
		}
		res.merge(Deliver(e.session, data))
	}
	r.log.Debug().Str("module", "core.room").Str("from", string(from)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

// Deliver sends data to a single session without blocking.
func Deliver(s *Session, data Frame) PublishResult {
	if s == nil || s.signal == nil {
		return PublishResult{}
	}
	if err := s.signal.TrySend(data); err != nil {
		if errors.Is(err, ErrConnClosed) {
			return PublishResult{}
		}
		return PublishResult{Dropped: []*Session{s}}
	}
	return PublishResult{SendTo: 1}
}

package app

import (
	"time"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/rs/zerolog"
)

// Registry owns every piece of ephemeral state: connection sessions, room
// playback states, rosters and host assignments.
// It is not safe for concurrent use; the hub goroutine is its only caller.
type Registry struct {
	sessions map[core.SessionID]*core.Session
	rooms    map[domain.RoomID]*roomEntry
	now      func() time.Time
	log      zerolog.Logger
}

func NewRegistry(log zerolog.Logger, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		sessions: make(map[core.SessionID]*core.Session),
		rooms:    make(map[domain.RoomID]*roomEntry),
		now:      now,
		log:      log,
	}
}

func (r *Registry) Bind(s *core.Session) {
	r.sessions[s.ID] = s
	r.log.Info().Str("module", "app.registry").Str("sid", string(s.ID)).Str("user", s.Identity.Username).Msg("bound session")
}

func (r *Registry) Session(sid core.SessionID) (*core.Session, bool) {
	s, ok := r.sessions[sid]
	return s, ok
}

func (r *Registry) Unbind(sid core.SessionID) {
	delete(r.sessions, sid)
	r.log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

func (r *Registry) SessionCount() int { return len(r.sessions) }

// Sessions lists every bound session in no particular order.
func (r *Registry) Sessions() []*core.Session {
	out := make([]*core.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

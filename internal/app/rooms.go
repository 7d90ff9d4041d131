package app

import (
	"sort"
	"time"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

type roomEntry struct {
	state  domain.PlaybackState
	roster *core.Roster
	host   *core.Session
}

type RoomInfo struct {
	ID            domain.RoomID `json:"id"`
	MemberCount   int           `json:"memberCount"`
	HostConnected bool          `json:"hostConnected"`
}

func (r *Registry) entry(id domain.RoomID) *roomEntry {
	e, ok := r.rooms[id]
	if ok {
		return e
	}
	e = &roomEntry{
		state:  domain.DefaultPlaybackState(r.now()),
		roster: core.NewRoster(id, r.log),
	}
	r.rooms[id] = e
	r.log.Debug().Str("module", "app.registry").Int64("room", int64(id)).Msg("room state created")
	return e
}

// GetOrCreate returns the live playback state of a room, creating the default
// one on first touch. The pointer stays valid for the life of the entry.
func (r *Registry) GetOrCreate(id domain.RoomID) *domain.PlaybackState {
	return &r.entry(id).state
}

// State looks a room up without creating it.
func (r *Registry) State(id domain.RoomID) (domain.PlaybackState, bool) {
	e, ok := r.rooms[id]
	if !ok {
		return domain.PlaybackState{}, false
	}
	return e.state, true
}

// Seed merges persisted data into the live state. A playback snapshot wins
// for position; a room row wins for flags and stream metadata.
func (r *Registry) Seed(id domain.RoomID, room *domain.Room, snap *domain.PlaybackSnapshot) {
	st := r.GetOrCreate(id)
	if snap != nil {
		st.IsPlaying = snap.IsPlaying
		st.CurrentTimeSeconds = snap.CurrentTimeSeconds
	}
	if room != nil {
		st.ChatEnabled = room.ChatEnabled
		st.SpamProtectionEnabled = room.SpamProtectionEnabled
		st.SpamCooldownSeconds = min(max(room.SpamCooldownSeconds, 0), domain.MaxSpamCooldownSeconds)
		st.StreamURL = room.StreamURL
		st.MovieTitle = room.MovieTitle
		st.ProviderType = room.ProviderType
	}
}

// Touch refreshes lastUpdated and returns the state for mutation.
func (r *Registry) Touch(id domain.RoomID) *domain.PlaybackState {
	st := r.GetOrCreate(id)
	st.LastUpdated = r.now()
	return st
}

func (r *Registry) Roster(id domain.RoomID) *core.Roster {
	return r.entry(id).roster
}

// Join records s as a participant of room id.
func (r *Registry) Join(id domain.RoomID, s *core.Session) bool {
	added := r.entry(id).roster.Add(s)
	s.SetRoom(id)
	return added
}

// Leave removes sid from room id. It reports whether sid was a participant.
func (r *Registry) Leave(id domain.RoomID, sid core.SessionID) bool {
	e, ok := r.rooms[id]
	if !ok {
		return false
	}
	return e.roster.Remove(sid)
}

// RoomsOf lists every room whose roster holds sid, in ascending id order.
func (r *Registry) RoomsOf(sid core.SessionID) []domain.RoomID {
	var out []domain.RoomID
	for id, e := range r.rooms {
		if e.roster.Has(sid) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) Host(id domain.RoomID) (*core.Session, bool) {
	e, ok := r.rooms[id]
	if !ok || e.host == nil {
		return nil, false
	}
	return e.host, true
}

// IsHost is an exact connection match; the same user on another connection
// is not the host.
func (r *Registry) IsHost(id domain.RoomID, sid core.SessionID) bool {
	h, ok := r.Host(id)
	return ok && h.ID == sid
}

// SetHost replaces the host of a room and returns the previous one, if any.
func (r *Registry) SetHost(id domain.RoomID, s *core.Session) (prev *core.Session) {
	e := r.entry(id)
	prev, e.host = e.host, s
	r.log.Info().Str("module", "app.registry").Int64("room", int64(id)).Str("sid", string(s.ID)).Msg("host assigned")
	return prev
}

// ClearHostIf drops the assignment only when sid currently holds it.
func (r *Registry) ClearHostIf(id domain.RoomID, sid core.SessionID) bool {
	if !r.IsHost(id, sid) {
		return false
	}
	r.rooms[id].host = nil
	r.log.Info().Str("module", "app.registry").Int64("room", int64(id)).Str("sid", string(sid)).Msg("host cleared")
	return true
}

// Evict empties a room's roster and host and returns the removed sessions.
// The playback state is kept.
func (r *Registry) Evict(id domain.RoomID) []*core.Session {
	e, ok := r.rooms[id]
	if !ok {
		return nil
	}
	members := e.roster.Sessions()
	for _, s := range members {
		e.roster.Remove(s.ID)
		if s.InRoom(id) {
			s.ClearRoom()
		}
	}
	e.host = nil
	return members
}

// Sweep forgets rooms that have no members, no host, and no update for
// longer than idle. It returns the forgotten ids.
func (r *Registry) Sweep(idle time.Duration) []domain.RoomID {
	if idle <= 0 {
		return nil
	}
	cutoff := r.now().Add(-idle)
	var out []domain.RoomID
	for id, e := range r.rooms {
		if e.roster.Len() == 0 && e.host == nil && e.state.LastUpdated.Before(cutoff) {
			delete(r.rooms, id)
			out = append(out, id)
		}
	}
	if len(out) > 0 {
		r.log.Info().Str("module", "app.registry").Int("rooms", len(out)).Msg("swept idle rooms")
	}
	return out
}

func (r *Registry) List() []RoomInfo {
	out := make([]RoomInfo, 0, len(r.rooms))
	for id, e := range r.rooms {
		out = append(out, RoomInfo{ID: id, MemberCount: e.roster.Len(), HostConnected: e.host != nil})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

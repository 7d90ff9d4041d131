package orch

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

type roomSeed struct {
	room   *domain.Room
	snap   *domain.PlaybackSnapshot
	banned bool
}

// loadSeed gathers what a join needs. Each read is independent: whatever
// succeeded is returned together with the joined errors of the rest.
func (o *Orchestrator) loadSeed(ctx context.Context, id domain.RoomID, identity domain.Identity) (roomSeed, error) {
	var seed roomSeed
	var errs []error

	room, err := o.Store.FetchRoom(ctx, id)
	switch {
	case err == nil:
		seed.room = room
	case !errors.Is(err, domain.ErrNotFound):
		errs = append(errs, fmt.Errorf("fetch room: %w", err))
	}

	snap, err := o.Store.FetchPlayback(ctx, id)
	switch {
	case err == nil:
		seed.snap = snap
	case !errors.Is(err, domain.ErrNotFound):
		errs = append(errs, fmt.Errorf("fetch playback: %w", err))
	}

	if identity.ID != nil {
		banned, err := o.Store.IsBanned(ctx, id, *identity.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("ban check: %w", err))
		}
		seed.banned = banned
	}
	return seed, errors.Join(errs...)
}

func (o *Orchestrator) join(s *core.Session, e core.JoinRoom) {
	id := e.Room()
	s.BeginJoin(id)
	identity := s.Identity
	await(o, func(ctx context.Context) (roomSeed, error) {
		return o.loadSeed(ctx, id, identity)
	}, func(seed roomSeed, err error) {
		if _, ok := o.Registry.Session(s.ID); !ok || !s.CompleteJoin(id) {
			return
		}
		if err != nil {
			o.log.Warn().Err(err).Str("module", "orch").Int64("room", int64(id)).Msg("join seed incomplete, keeping ephemeral state")
		}
		if seed.banned {
			o.sendError(s, "You are banned from this room")
			return
		}
		o.enter(s, id, seed)
	})
}

func (o *Orchestrator) enter(s *core.Session, id domain.RoomID, seed roomSeed) {
	if prev, ok := s.Room(); ok && prev != id {
		o.leaveAll(s)
	}
	// A hosted room, or one with writes in flight, is newer than anything
	// just read back from persistence.
	if _, hosted := o.Registry.Host(id); !hosted && !o.writing(id) {
		o.Registry.Seed(id, seed.room, seed.snap)
	}
	o.Registry.Join(id, s)
	o.log.Info().Str("module", "orch").Str("sid", string(s.ID)).Int64("room", int64(id)).Msg("joined room")

	o.sendTo(s, core.OutRoomState, o.roomState(id, s.ID))
	o.broadcastRoster(id)
}

func (o *Orchestrator) broadcastRoster(id domain.RoomID) {
	o.broadcast(id, "", core.OutParticipants, core.ParticipantsPayload{
		RoomID:       id,
		Participants: o.Registry.Roster(id).Participants(),
	})
}

func (o *Orchestrator) leave(s *core.Session, _ core.LeaveRoom) {
	s.CancelJoin()
	o.leaveAll(s)
}

// leaveAll removes s from every roster it appears in. Normally that is a
// single room.
func (o *Orchestrator) leaveAll(s *core.Session) {
	for _, id := range o.Registry.RoomsOf(s.ID) {
		o.Registry.Leave(id, s.ID)
		if o.Registry.ClearHostIf(id, s.ID) {
			o.broadcast(id, "", core.OutHostChanged, core.HostChangedPayload{RoomID: id, HostConnected: false})
		}
		o.broadcastRoster(id)
		o.log.Info().Str("module", "orch").Str("sid", string(s.ID)).Int64("room", int64(id)).Msg("left room")
	}
	s.ClearRoom()
}

func (o *Orchestrator) disconnect(sid core.SessionID) {
	s, ok := o.Registry.Session(sid)
	if !ok {
		return
	}
	s.CancelJoin()
	o.leaveAll(s)
	o.Registry.Unbind(sid)
}

// deleteRoom tells everyone in a room that it is gone and empties it.
// Admins are trusted directly; anyone else must own the room.
func (o *Orchestrator) deleteRoom(s *core.Session, e core.RoomDeleted) {
	id := e.Room()
	if s.Identity.IsAdmin() {
		o.closeRoom(id)
		return
	}
	if !s.Identity.Authenticated() {
		return
	}
	await(o, func(ctx context.Context) (domain.UserID, error) {
		return o.Store.RoomOwner(ctx, id)
	}, func(owner domain.UserID, err error) {
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				o.log.Warn().Err(err).Str("module", "orch").Int64("room", int64(id)).Msg("room owner lookup failed")
			}
			return
		}
		if !s.Identity.Is(owner) {
			return
		}
		o.closeRoom(id)
	})
}

func (o *Orchestrator) closeRoom(id domain.RoomID) {
	o.broadcast(id, "", core.OutRoomDeleted, core.RoomDeletedPayload{RoomID: id})
	evicted := o.Registry.Evict(id)
	o.Cooldowns.Forget(id)
	o.log.Info().Str("module", "orch").Int64("room", int64(id)).Int("evicted", len(evicted)).Msg("room deleted")
}

package orch

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

type hostGrant struct {
	room *domain.Room
	role domain.Role
}

// claimHost verifies ownership or the admin role against persistence on
// every claim; nothing about the claimant is cached.
func (o *Orchestrator) claimHost(s *core.Session, e core.ClaimHost) {
	id := e.Room()
	if !s.Identity.Authenticated() {
		o.sendError(s, "Sign in to host this room")
		return
	}
	if !s.InRoom(id) {
		o.sendError(s, "Join the room before claiming host")
		return
	}
	uid := *s.Identity.ID

	await(o, func(ctx context.Context) (hostGrant, error) {
		room, err := o.Store.FetchRoom(ctx, id)
		if err != nil {
			return hostGrant{}, err
		}
		role, err := o.Store.UserRole(ctx, uid)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			role = domain.RoleGuest
		case err != nil:
			return hostGrant{}, fmt.Errorf("user role: %w", err)
		}
		return hostGrant{room: room, role: role}, nil
	}, func(g hostGrant, err error) {
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				o.log.Warn().Err(err).Str("module", "orch").Int64("room", int64(id)).Msg("host claim lookup failed")
			}
			return
		}
		if _, ok := o.Registry.Session(s.ID); !ok || !s.InRoom(id) {
			return
		}
		if !g.room.IsOwner(s.Identity) && g.role != domain.RoleAdmin {
			o.sendError(s, "Only the room owner or an admin can host")
			return
		}
		o.grantHost(id, s)
	})
}

func (o *Orchestrator) grantHost(id domain.RoomID, s *core.Session) {
	prev := o.Registry.SetHost(id, s)
	if prev != nil && prev.ID != s.ID {
		o.sendTo(prev, core.OutHostTaken, core.HostTakenPayload{RoomID: id})
	}
	o.broadcast(id, "", core.OutHostChanged, core.HostChangedPayload{
		RoomID:        id,
		Username:      s.Identity.Username,
		HostConnected: true,
	})
	o.sendTo(s, core.OutHostGranted, core.HostGrantedPayload{RoomID: id})
}

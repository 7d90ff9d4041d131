package orch

import (
	"context"
	"errors"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

func (o *Orchestrator) sendMessage(s *core.Session, e core.SendMessage) {
	id := e.Room()
	if !s.Identity.Authenticated() {
		o.sendError(s, "Sign in to chat")
		return
	}
	content := domain.NormalizeContent(e.Content)
	if content == "" || !s.InRoom(id) {
		return
	}

	// Chat flags are read live from persistence, not from the cached state.
	await(o, func(ctx context.Context) (*domain.Room, error) {
		return o.Store.FetchRoom(ctx, id)
	}, func(room *domain.Room, err error) {
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				o.sendError(s, "Room not found")
				return
			}
			o.log.Warn().Err(err).Str("module", "orch").Int64("room", int64(id)).Msg("chat room lookup failed")
			return
		}
		if !room.ChatEnabled {
			o.sendError(s, "Chat is disabled in this room")
			return
		}
		privileged := room.IsOwner(s.Identity) || s.Identity.IsAdmin()
		if !privileged && room.SpamProtectionEnabled {
			cooldown := domain.SpamCooldown(room.SpamCooldownSeconds)
			if ok, remaining := o.Cooldowns.Allow(id, *s.Identity.ID, cooldown); !ok {
				o.sendTo(s, core.OutSpamBlocked, core.SpamBlockedPayload{Remaining: remaining})
				return
			}
		}
		o.postMessage(domain.NewMessage{
			RoomID:  id,
			Content: content,
			Author:  domain.AuthorOf(s.Identity),
		})
	})
}

func (o *Orchestrator) postMessage(msg domain.NewMessage) {
	await(o, func(ctx context.Context) (*domain.Message, error) {
		return o.Store.CreateMessage(ctx, msg)
	}, func(m *domain.Message, err error) {
		if err != nil {
			o.log.Warn().Err(err).Str("module", "orch").Int64("room", int64(msg.RoomID)).Msg("message not persisted, dropped")
			return
		}
		o.broadcast(msg.RoomID, "", core.OutNewMessage, m)
	})
}

// sendReaction is fire-and-forget: nothing is stored.
func (o *Orchestrator) sendReaction(s *core.Session, e core.SendReaction) {
	id := e.Room()
	o.broadcast(id, "", core.OutNewReaction, core.ReactionPayload{
		RoomID:    id,
		Username:  s.Identity.Username,
		Reaction:  e.Reaction,
		Timestamp: o.now().UnixMilli(),
	})
}

func (o *Orchestrator) deleteMessage(s *core.Session, e core.AdminDeleteMessage) {
	id := e.Room()
	if !o.Registry.IsHost(id, s.ID) && !s.Identity.IsAdmin() {
		return
	}
	await(o, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, o.Store.SoftDeleteMessage(ctx, id, e.MessageID)
	}, func(_ struct{}, err error) {
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				o.log.Warn().Err(err).Str("module", "orch").Int64("room", int64(id)).Msg("message delete failed")
			}
			return
		}
		o.broadcast(id, "", core.OutMessageDeleted, core.MessageDeletedPayload{RoomID: id, MessageID: e.MessageID})
	})
}

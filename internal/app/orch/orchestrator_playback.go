package orch

import (
	"context"

	"github.com/dkeye/WatchParty/internal/core"
)

// Host-only handlers are silent no-ops for every other connection.

func (o *Orchestrator) updateState(s *core.Session, e core.RoomStateUpdate) {
	id := e.Room()
	if !o.Registry.IsHost(id, s.ID) {
		return
	}
	st := o.Registry.Touch(id)
	e.Apply(st)
	o.broadcast(id, s.ID, core.OutRoomState, core.RoomStatePayload{
		RoomID:        id,
		PlaybackState: *st,
		HostConnected: true,
	})

	snap := st.Snapshot()
	o.persist("upsert playback", id, func(ctx context.Context) error {
		return o.Store.UpsertPlayback(ctx, id, snap)
	})
}

func (o *Orchestrator) syncRequest(s *core.Session, e core.PlayerSyncRequest) {
	id := e.Room()
	if !s.InRoom(id) {
		return
	}
	if host, ok := o.Registry.Host(id); ok {
		o.sendTo(host, core.OutPlayerSyncRequest, core.SyncRequestPayload{RoomID: id, RequesterID: s.ID})
		return
	}
	o.sendTo(s, core.OutRoomState, o.roomState(id, s.ID))
}

// syncResponse answers one requester only; it is for seek-on-join, not for
// periodic sync.
func (o *Orchestrator) syncResponse(s *core.Session, e core.PlayerSyncResponse) {
	id := e.Room()
	if !o.Registry.IsHost(id, s.ID) {
		return
	}
	target, ok := o.Registry.Session(e.RequesterID)
	if !ok || !target.InRoom(id) {
		return
	}
	st := o.Registry.Touch(id)
	st.IsPlaying = e.IsPlaying
	st.CurrentTimeSeconds = e.CurrentTimeSeconds
	o.sendTo(target, core.OutRoomState, core.RoomStatePayload{
		RoomID:        id,
		PlaybackState: *st,
		HostConnected: true,
	})
}

// changeURL always restarts playback from zero.
func (o *Orchestrator) changeURL(s *core.Session, e core.URLChanged) {
	id := e.Room()
	if !o.Registry.IsHost(id, s.ID) {
		return
	}
	st := o.Registry.Touch(id)
	st.StreamURL = e.StreamURL
	st.ProviderType = e.ProviderType
	st.IsPlaying = false
	st.CurrentTimeSeconds = 0
	o.broadcast(id, "", core.OutURLChanged, core.URLChangedPayload{
		RoomID:       id,
		StreamURL:    e.StreamURL,
		ProviderType: e.ProviderType,
	})

	snap := st.Snapshot()
	o.persist("update stream", id, func(ctx context.Context) error {
		version, err := o.Store.UpdateStream(ctx, id, e.StreamURL, e.ProviderType)
		if err != nil {
			return err
		}
		o.log.Debug().Str("module", "orch").Int64("room", int64(id)).Int64("stream_version", version).Msg("stream updated")
		return o.Store.UpsertPlayback(ctx, id, snap)
	})
}

func (o *Orchestrator) changeSettings(s *core.Session, e core.RoomSettingsChanged) {
	id := e.Room()
	if !o.Registry.IsHost(id, s.ID) {
		return
	}
	st := o.Registry.Touch(id)
	e.Apply(&st.RoomSettings)
	settings := st.RoomSettings
	o.broadcast(id, "", core.OutRoomSettingsChanged, core.RoomSettingsPayload{RoomID: id, RoomSettings: settings})

	o.persist("update settings", id, func(ctx context.Context) error {
		return o.Store.UpdateRoomSettings(ctx, id, settings)
	})
}

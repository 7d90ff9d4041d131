// Package orch runs the room coordination loop: every inbound event and every
// persistence continuation executes on one goroutine, so the registry needs no
// locks and host checks always see a consistent snapshot.
package orch

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/WatchParty/internal/app"
	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/rs/zerolog"
)

var ErrStopped = errors.New("orchestrator stopped")

// Store is the persistence adapter the orchestrator consumes. Absent or
// soft-deleted rows are reported as domain.ErrNotFound.
type Store interface {
	FetchRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	RoomOwner(ctx context.Context, id domain.RoomID) (domain.UserID, error)
	FetchPlayback(ctx context.Context, id domain.RoomID) (*domain.PlaybackSnapshot, error)
	UpsertPlayback(ctx context.Context, id domain.RoomID, snap domain.PlaybackSnapshot) error
	UpdateStream(ctx context.Context, id domain.RoomID, streamURL, providerType string) (int64, error)
	UpdateRoomSettings(ctx context.Context, id domain.RoomID, settings domain.RoomSettings) error
	CreateMessage(ctx context.Context, msg domain.NewMessage) (*domain.Message, error)
	SoftDeleteMessage(ctx context.Context, room domain.RoomID, id domain.MessageID) error
	UserRole(ctx context.Context, id domain.UserID) (domain.Role, error)
	IsBanned(ctx context.Context, room domain.RoomID, user domain.UserID) (bool, error)
}

type Options struct {
	InboxSize   int
	IdleTTL     time.Duration
	SweepPeriod time.Duration
	Policy      app.Policy
	Now         func() time.Time
}

type Orchestrator struct {
	Registry  *app.Registry
	Cooldowns *app.CooldownLimiter
	Policy    app.Policy
	Store     Store

	log  zerolog.Logger
	now  func() time.Time
	opts Options

	inbox chan func()
	done  chan struct{}
	// base is the context of all persistence calls; connection lifetimes
	// never cancel writes.
	base context.Context
	// pending counts async operations whose continuation has not run yet.
	pending int
	// writes holds each room's queued persistence writes; the head is in flight.
	writes map[domain.RoomID][]write
}

func New(store Store, log zerolog.Logger, opts Options) *Orchestrator {
	if opts.InboxSize <= 0 {
		opts.InboxSize = 1024
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Policy == nil {
		opts.Policy = app.SimplePolicy{}
	}
	if opts.SweepPeriod <= 0 {
		opts.SweepPeriod = time.Minute
	}
	return &Orchestrator{
		Registry:  app.NewRegistry(log, opts.Now),
		Cooldowns: app.NewCooldownLimiter(opts.Now),
		Policy:    opts.Policy,
		Store:     store,
		log:       log,
		now:       opts.Now,
		opts:      opts,
		inbox:     make(chan func(), opts.InboxSize),
		done:      make(chan struct{}),
		base:      context.Background(),
		writes:    make(map[domain.RoomID][]write),
	}
}

// Run executes queued work until ctx is done.
func (o *Orchestrator) Run(ctx context.Context) {
	defer close(o.done)

	var sweep <-chan time.Time
	if o.opts.IdleTTL > 0 {
		t := time.NewTicker(o.opts.SweepPeriod)
		defer t.Stop()
		sweep = t.C
	}

	o.log.Info().Str("module", "orch").Msg("orchestrator started")
	for {
		select {
		case <-ctx.Done():
			o.log.Info().Str("module", "orch").Int("pending", o.pending).Msg("orchestrator stopped")
			return
		case fn := <-o.inbox:
			fn()
		case <-sweep:
			o.sweep()
		}
	}
}

func (o *Orchestrator) post(fn func()) bool {
	select {
	case o.inbox <- fn:
		return true
	case <-o.done:
		return false
	}
}

// await runs io off the loop and resumes with then on the loop.
func await[T any](o *Orchestrator, io func(context.Context) (T, error), then func(T, error)) {
	o.pending++
	go func() {
		v, err := io(o.base)
		o.post(func() {
			o.pending--
			then(v, err)
		})
	}()
}

type write struct {
	op string
	io func(context.Context) error
}

// persist is a best-effort, at-most-once, non-blocking write. Writes to one
// room commit in the order they were issued; rooms do not wait on each other.
// Failures are logged on the loop and never reach clients.
func (o *Orchestrator) persist(op string, room domain.RoomID, io func(context.Context) error) {
	o.pending++
	q := o.writes[room]
	o.writes[room] = append(q, write{op: op, io: io})
	if len(q) == 0 {
		o.startWrite(room)
	}
}

// startWrite runs the head of room's queue off the loop.
func (o *Orchestrator) startWrite(room domain.RoomID) {
	w := o.writes[room][0]
	go func() {
		err := w.io(o.base)
		o.post(func() {
			o.pending--
			if err != nil {
				o.log.Warn().Err(err).Str("module", "orch").Str("op", w.op).Int64("room", int64(room)).Msg("persistence failed")
			}
			q := o.writes[room][1:]
			if len(q) == 0 {
				delete(o.writes, room)
				return
			}
			o.writes[room] = q
			o.startWrite(room)
		})
	}()
}

// writing reports whether room has writes that have not committed yet.
func (o *Orchestrator) writing(room domain.RoomID) bool { return len(o.writes[room]) > 0 }

// Connect registers a freshly accepted connection.
func (o *Orchestrator) Connect(sid core.SessionID, identity domain.Identity, conn core.SignalConnection) bool {
	return o.post(func() {
		o.Registry.Bind(core.NewSession(sid, identity, conn))
	})
}

// Dispatch queues an inbound event from sid.
func (o *Orchestrator) Dispatch(sid core.SessionID, ev core.Event) bool {
	return o.post(func() {
		s, ok := o.Registry.Session(sid)
		if !ok {
			return
		}
		o.handle(s, ev)
	})
}

// Disconnect forces a leave from every room and forgets the session.
func (o *Orchestrator) Disconnect(sid core.SessionID) {
	o.post(func() { o.disconnect(sid) })
}

func (o *Orchestrator) handle(s *core.Session, ev core.Event) {
	switch e := ev.(type) {
	case core.JoinRoom:
		o.join(s, e)
	case core.LeaveRoom:
		o.leave(s, e)
	case core.ClaimHost:
		o.claimHost(s, e)
	case core.RoomStateUpdate:
		o.updateState(s, e)
	case core.PlayerSyncRequest:
		o.syncRequest(s, e)
	case core.PlayerSyncResponse:
		o.syncResponse(s, e)
	case core.URLChanged:
		o.changeURL(s, e)
	case core.RoomSettingsChanged:
		o.changeSettings(s, e)
	case core.SendMessage:
		o.sendMessage(s, e)
	case core.SendReaction:
		o.sendReaction(s, e)
	case core.AdminDeleteMessage:
		o.deleteMessage(s, e)
	case core.RoomDeleted:
		o.deleteRoom(s, e)
	case core.Ping:
		o.sendTo(s, core.OutPong, nil)
	default:
		o.log.Warn().Str("module", "orch").Str("event", ev.Name()).Msg("unhandled event")
	}
}

func (o *Orchestrator) encode(eventType string, payload any) (core.Frame, bool) {
	f, err := core.Encode(eventType, payload)
	if err != nil {
		o.log.Error().Err(err).Str("module", "orch").Str("event", eventType).Msg("encode")
		return nil, false
	}
	return f, true
}

func (o *Orchestrator) sendTo(s *core.Session, eventType string, payload any) {
	f, ok := o.encode(eventType, payload)
	if !ok {
		return
	}
	room, _ := s.Room()
	o.backpressure(room, core.Deliver(s, f))
}

func (o *Orchestrator) sendError(s *core.Session, msg string) {
	o.sendTo(s, core.OutError, core.ErrorPayload{Message: msg})
}

// broadcast reaches every member of room except the session except; pass ""
// to include everyone.
// Rooms nobody has touched are not created.
func (o *Orchestrator) broadcast(room domain.RoomID, except core.SessionID, eventType string, payload any) {
	if _, ok := o.Registry.State(room); !ok {
		return
	}
	f, ok := o.encode(eventType, payload)
	if !ok {
		return
	}
	o.backpressure(room, o.Registry.Roster(room).Broadcast(except, f))
}

func (o *Orchestrator) backpressure(room domain.RoomID, res core.PublishResult) {
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			o.log.Warn().Str("module", "orch").Str("sid", string(slow.ID)).Msg("slow member kicked")
			slow.Signal().Close()
		case app.DropFrame, app.NoAction:
		}
	}
}

func (o *Orchestrator) roomState(id domain.RoomID, sid core.SessionID) core.RoomStatePayload {
	_, hosted := o.Registry.Host(id)
	return core.RoomStatePayload{
		RoomID:        id,
		PlaybackState: *o.Registry.GetOrCreate(id),
		HostConnected: hosted,
		IsHost:        o.Registry.IsHost(id, sid),
	}
}

func (o *Orchestrator) sweep() {
	for _, id := range o.Registry.Sweep(o.opts.IdleTTL) {
		o.Cooldowns.Forget(id)
	}
}

// Snapshot reads a room's live state through the loop. It never creates state.
func (o *Orchestrator) Snapshot(ctx context.Context, id domain.RoomID) (core.RoomStatePayload, bool, error) {
	type reply struct {
		state core.RoomStatePayload
		ok    bool
	}
	ch := make(chan reply, 1)
	if !o.post(func() {
		if _, ok := o.Registry.State(id); !ok {
			ch <- reply{}
			return
		}
		ch <- reply{state: o.roomState(id, ""), ok: true}
	}) {
		return core.RoomStatePayload{}, false, ErrStopped
	}
	select {
	case r := <-ch:
		return r.state, r.ok, nil
	case <-ctx.Done():
		return core.RoomStatePayload{}, false, ctx.Err()
	}
}

// Rooms lists the rooms held in memory.
func (o *Orchestrator) Rooms(ctx context.Context) ([]app.RoomInfo, error) {
	ch := make(chan []app.RoomInfo, 1)
	if !o.post(func() { ch <- o.Registry.List() }) {
		return nil, ErrStopped
	}
	select {
	case rooms := <-ch:
		return rooms, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CloseAll closes every connection; their read loops then disconnect them.
func (o *Orchestrator) CloseAll() {
	o.post(func() {
		for _, s := range o.Registry.Sessions() {
			s.Signal().Close()
		}
	})
}

// Drain waits until no persistence work is in flight.
func (o *Orchestrator) Drain(ctx context.Context) error {
	for {
		idle := make(chan bool, 1)
		if !o.post(func() { idle <- o.pending == 0 }) {
			return ErrStopped
		}
		select {
		case ok := <-idle:
			if ok {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
		select {
		case <-time.After(5 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

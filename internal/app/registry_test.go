package app

import (
	"testing"
	"time"

	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/rs/zerolog"
)

type nopConn struct{ closed bool }

func (c *nopConn) TrySend(core.Frame) error { return nil }
func (c *nopConn) Close()                   { c.closed = true }

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRegistry() (*Registry, *clock) {
	clk := &clock{t: time.Unix(1700000000, 0)}
	return NewRegistry(zerolog.Nop(), clk.Now), clk
}

func userSession(sid string, id domain.UserID, name string) *core.Session {
	identity, _ := domain.NewIdentity(id, name, domain.RoleUser, false)
	return core.NewSession(core.SessionID(sid), identity, &nopConn{})
}

func TestGetOrCreateDefaults(t *testing.T) {
	reg, clk := newTestRegistry()

	if _, ok := reg.State(5); ok {
		t.Fatal("State must not create rooms")
	}
	st := reg.GetOrCreate(5)
	if st.IsPlaying || st.CurrentTimeSeconds != 0 || st.StreamURL != "" || st.MovieTitle != "" {
		t.Fatalf("unexpected playback defaults: %+v", st)
	}
	if !st.ChatEnabled || st.SpamProtectionEnabled || st.SpamCooldownSeconds != 5 {
		t.Fatalf("unexpected settings defaults: %+v", st.RoomSettings)
	}
	if !st.LastUpdated.Equal(clk.Now()) {
		t.Fatalf("lastUpdated %v", st.LastUpdated)
	}
	if reg.GetOrCreate(5) != st {
		t.Fatal("second call must return the same state")
	}
}

func TestSeedMerge(t *testing.T) {
	reg, _ := newTestRegistry()

	reg.Seed(1, &domain.Room{
		ID:                    1,
		StreamURL:             "https://cdn/a.m3u8",
		MovieTitle:            "Alien",
		ChatEnabled:           false,
		SpamProtectionEnabled: true,
		SpamCooldownSeconds:   -4,
	}, &domain.PlaybackSnapshot{IsPlaying: true, CurrentTimeSeconds: 33})

	st, _ := reg.State(1)
	if !st.IsPlaying || st.CurrentTimeSeconds != 33 {
		t.Fatalf("snapshot not applied: %+v", st)
	}
	if st.ChatEnabled || !st.SpamProtectionEnabled || st.SpamCooldownSeconds != 0 {
		t.Fatalf("room flags not applied: %+v", st.RoomSettings)
	}
	if st.StreamURL != "https://cdn/a.m3u8" || st.MovieTitle != "Alien" {
		t.Fatalf("stream metadata not applied: %+v", st)
	}

	// Nothing persisted leaves the defaults untouched.
	reg.Seed(2, nil, nil)
	st, _ = reg.State(2)
	if !st.ChatEnabled || st.SpamCooldownSeconds != 5 {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestRosterOrderAndRestore(t *testing.T) {
	reg, _ := newTestRegistry()
	a := userSession("a", 1, "ann")
	b := userSession("b", 2, "bob")
	c := userSession("c", 3, "cat")

	reg.Join(9, a)
	reg.Join(9, b)
	before := reg.Roster(9).Participants()

	reg.Join(9, c)
	if got := reg.Roster(9).Participants(); got[2].Username != "cat" {
		t.Fatalf("insertion order broken: %+v", got)
	}
	if !reg.Leave(9, "c") {
		t.Fatal("leave reported no member")
	}

	after := reg.Roster(9).Participants()
	if len(after) != len(before) {
		t.Fatalf("got %d participants, want %d", len(after), len(before))
	}
	for i := range before {
		if before[i].ConnectionID != after[i].ConnectionID {
			t.Fatalf("roster not restored: %+v vs %+v", before, after)
		}
	}

	if reg.Join(9, a) {
		t.Fatal("duplicate join must not add")
	}
	if reg.Roster(9).Len() != 2 {
		t.Fatalf("len %d", reg.Roster(9).Len())
	}
}

func TestRoomsOfSorted(t *testing.T) {
	reg, _ := newTestRegistry()
	a := userSession("a", 1, "ann")
	reg.Join(30, a)
	reg.Join(4, a)
	reg.Join(17, a)

	got := reg.RoomsOf("a")
	want := []domain.RoomID{4, 17, 30}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSingleHost(t *testing.T) {
	reg, _ := newTestRegistry()
	a := userSession("a", 1, "ann")
	b := userSession("b", 1, "ann")

	if prev := reg.SetHost(42, a); prev != nil {
		t.Fatalf("unexpected previous host %v", prev.ID)
	}
	if prev := reg.SetHost(42, b); prev != a {
		t.Fatal("SetHost must return the replaced host")
	}
	if reg.IsHost(42, "a") {
		t.Fatal("same user on another connection is not host")
	}
	if !reg.IsHost(42, "b") {
		t.Fatal("b must be host")
	}
	if reg.ClearHostIf(42, "a") {
		t.Fatal("only the holder can clear")
	}
	if !reg.ClearHostIf(42, "b") {
		t.Fatal("holder clear failed")
	}
	if _, ok := reg.Host(42); ok {
		t.Fatal("host still set")
	}
}

func TestEvictKeepsState(t *testing.T) {
	reg, _ := newTestRegistry()
	a := userSession("a", 1, "ann")
	b := userSession("b", 2, "bob")
	reg.Join(3, a)
	reg.Join(3, b)
	reg.SetHost(3, a)
	reg.GetOrCreate(3).CurrentTimeSeconds = 50

	removed := reg.Evict(3)
	if len(removed) != 2 {
		t.Fatalf("removed %d", len(removed))
	}
	if reg.Roster(3).Len() != 0 {
		t.Fatal("roster not emptied")
	}
	if _, ok := reg.Host(3); ok {
		t.Fatal("host not cleared")
	}
	if _, ok := a.Room(); ok {
		t.Fatal("session still points at the room")
	}
	if st, ok := reg.State(3); !ok || st.CurrentTimeSeconds != 50 {
		t.Fatalf("state lost: %+v", st)
	}
}

func TestSweep(t *testing.T) {
	reg, clk := newTestRegistry()
	reg.GetOrCreate(1)
	reg.Join(2, userSession("a", 1, "ann"))

	if got := reg.Sweep(0); got != nil {
		t.Fatalf("zero ttl must not sweep, got %v", got)
	}

	clk.Advance(time.Hour)
	reg.GetOrCreate(3)

	got := reg.Sweep(10 * time.Minute)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("swept %v, want [1]", got)
	}
	if _, ok := reg.State(2); !ok {
		t.Fatal("occupied room swept")
	}
	if _, ok := reg.State(3); !ok {
		t.Fatal("fresh room swept")
	}
}

func TestList(t *testing.T) {
	reg, _ := newTestRegistry()
	a := userSession("a", 1, "ann")
	reg.Join(8, a)
	reg.SetHost(8, a)
	reg.GetOrCreate(2)

	rooms := reg.List()
	if len(rooms) != 2 || rooms[0].ID != 2 || rooms[1].ID != 8 {
		t.Fatalf("unexpected list %+v", rooms)
	}
	if rooms[1].MemberCount != 1 || !rooms[1].HostConnected {
		t.Fatalf("unexpected info %+v", rooms[1])
	}
}

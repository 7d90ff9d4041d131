package app

import (
	"math"
	"time"

	"github.com/dkeye/WatchParty/internal/domain"
)

type cooldownKey struct {
	room domain.RoomID
	user domain.UserID
}

// CooldownLimiter enforces a minimum interval between one user's accepted
// chat messages in a room. Owned by the hub goroutine.
type CooldownLimiter struct {
	last map[cooldownKey]time.Time
	now  func() time.Time
}

func NewCooldownLimiter(now func() time.Time) *CooldownLimiter {
	if now == nil {
		now = time.Now
	}
	return &CooldownLimiter{
		last: make(map[cooldownKey]time.Time),
		now:  now,
	}
}

// Allow accepts and stamps the attempt when the cooldown has elapsed.
// Otherwise it returns the whole seconds left, rounded up.
func (l *CooldownLimiter) Allow(room domain.RoomID, user domain.UserID, cooldown time.Duration) (bool, int) {
	key := cooldownKey{room: room, user: user}
	now := l.now()
	if last, ok := l.last[key]; ok && cooldown > 0 {
		if elapsed := now.Sub(last); elapsed < cooldown {
			return false, int(math.Ceil((cooldown - elapsed).Seconds()))
		}
	}
	l.last[key] = now
	return true, 0
}

// Forget drops every entry of a room.
func (l *CooldownLimiter) Forget(room domain.RoomID) {
	for k := range l.last {
		if k.room == room {
			delete(l.last, k)
		}
	}
}

func (l *CooldownLimiter) Len() int { return len(l.last) }

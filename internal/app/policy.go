package app

import (
	"github.com/dkeye/WatchParty/internal/core"
	"github.com/dkeye/WatchParty/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a member whose send buffer is full.
type Policy interface {
	OnBackPressure(room domain.RoomID, member *core.Session) BackpressureAction
}

// SimplePolicy disconnects slow members; they rejoin and resync from room_state.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.RoomID, *core.Session) BackpressureAction {
	return KickMember
}

// LossyPolicy drops the frame and keeps the member connected.
type LossyPolicy struct{}

func (LossyPolicy) OnBackPressure(domain.RoomID, *core.Session) BackpressureAction {
	return DropFrame
}

// PolicyByName maps the config value onto a policy, defaulting to SimplePolicy.
func PolicyByName(name string) Policy {
	if name == "drop" {
		return LossyPolicy{}
	}
	return SimplePolicy{}
}

// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

const (
	MaxUsernameLen = 36
	GuestUsername  = "Guest"
)

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

type UserID int64

type Role string

const (
	RoleGuest Role = "guest"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is the user snapshot resolved once when a connection is accepted.
// A nil ID marks an anonymous guest.
type Identity struct {
	ID       *UserID `json:"userId"`
	Username string  `json:"username"`
	Role     Role    `json:"role"`
	VIP      bool    `json:"isVip"`
}

// Guest is the identity every connection without a valid credential degrades to.
func Guest() Identity {
	return Identity{Username: GuestUsername, Role: RoleGuest}
}

// NewIdentity is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewIdentity(id UserID, username string, role Role, vip bool) (Identity, error) {
	username = strings.TrimSpace(username)
	if len(username) == 0 {
		return Identity{}, ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return Identity{}, ErrUsernameTooLong
	}
	if role == "" {
		role = RoleUser
	}
	return Identity{ID: &id, Username: username, Role: role, VIP: vip}, nil
}

func (i Identity) Authenticated() bool { return i.ID != nil }

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Is reports whether the identity belongs to the given user.
func (i Identity) Is(id UserID) bool { return i.ID != nil && *i.ID == id }

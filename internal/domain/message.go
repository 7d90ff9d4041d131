package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

type MessageID int64

// Author is the summary of the user stored with every chat message.
type Author struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	VIP      bool   `json:"isVip"`
}

type Message struct {
	ID        MessageID `json:"id"`
	RoomID    RoomID    `json:"roomId"`
	Content   string    `json:"content"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMessage is what the chat gateway hands to persistence.
type NewMessage struct {
	RoomID  RoomID
	Content string
	Author  Author
}

// NormalizeContent trims surrounding whitespace and cuts the content to
// MaxMessageLength characters. An empty result means nothing to post.
func NormalizeContent(content string) string {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) <= MaxMessageLength {
		return content
	}
	return string([]rune(content)[:MaxMessageLength])
}

// AuthorOf builds the author summary; callers must check Authenticated first.
func AuthorOf(identity Identity) Author {
	a := Author{Username: identity.Username, Role: identity.Role, VIP: identity.VIP}
	if identity.ID != nil {
		a.ID = *identity.ID
	}
	return a
}

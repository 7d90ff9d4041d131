package core

import (
	"encoding/json"
	"errors"
)

// Frame is a raw encoded envelope ready for the wire.
type Frame []byte

// ErrConnClosed is returned by TrySend once the connection is closed. It is
// not backpressure: the disconnect is already on its way.
var ErrConnClosed = errors.New("connection closed")

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Envelope is the wire shape of every inbound and outbound event.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode wraps payload into an envelope of the given type.
func Encode(eventType string, payload any) (Frame, error) {
	env := struct {
		Type string `json:"type"`
		Data any    `json:"data,omitempty"`
	}{Type: eventType, Data: payload}
	return json.Marshal(env)
}

package domain

// Participant is a connection's presence entry in a room roster.
// The identity is captured at join time and never refreshed.
type Participant struct {
	ConnectionID string `json:"connectionId"`
	Identity
}

func NewParticipant(connectionID string, identity Identity) Participant {
	return Participant{ConnectionID: connectionID, Identity: identity}
}

package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/ywet290-beep/solid-octo-parakeet/pkg/constants"
)

// CallSession represents the lifecycle of a single peer-to-peer call. Only
// the setup handshake passes through the gateway; media flows directly
// between peers.
type CallSession struct {
	CallID      uuid.UUID  `json:"call_id"`
	InitiatorID uuid.UUID  `json:"initiator_id"`
	TargetID    uuid.UUID  `json:"target_id"`
	Type        string     `json:"type"`  // voice, video
	State       string     `json:"state"` // ringing, active, ended
	StartedAt   time.Time  `json:"started_at"`
	AnsweredAt  *time.Time `json:"answered_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
}

// Terminal reports whether the session has reached its final state.
func (c *CallSession) Terminal() bool {
	return c.State == constants.CallStateEnded
}

// Involves reports whether the given user is one of the two parties.
func (c *CallSession) Involves(userID uuid.UUID) bool {
	return c.InitiatorID == userID || c.TargetID == userID
}

// Peer returns the other party of the session.
func (c *CallSession) Peer(userID uuid.UUID) uuid.UUID {
	if c.InitiatorID == userID {
		return c.TargetID
	}
	return c.InitiatorID
}

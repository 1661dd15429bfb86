package gateway

import (
	"bytes"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ywet290-beep/solid-octo-parakeet/internal/domain"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/constants"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/metrics"
)

// pairKey identifies a call session by its two parties regardless of
// who initiated.
type pairKey struct {
	a, b uuid.UUID
}

func newPairKey(x, y uuid.UUID) pairKey {
	if bytes.Compare(x[:], y[:]) < 0 {
		return pairKey{a: x, b: y}
	}
	return pairKey{a: y, b: x}
}

// CallRegistry tracks at most one non-terminal call session per pair of
// users. Signals for pairs without a live session are dropped rather
// than surfaced as errors; stale signaling is expected during teardown.
type CallRegistry struct {
	mu       sync.Mutex
	sessions map[pairKey]*domain.CallSession
	now      func() time.Time
}

func NewCallRegistry() *CallRegistry {
	return &CallRegistry{
		sessions: make(map[pairKey]*domain.CallSession),
		now:      time.Now,
	}
}

// Initiate creates a fresh ringing session between initiator and target.
// An existing non-terminal session for the pair is ended first; the new
// offer supersedes it.
func (c *CallRegistry) Initiate(initiator, target uuid.UUID, callType string) *domain.CallSession {
	if callType != constants.CallTypeVideo {
		callType = constants.CallTypeVoice
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := newPairKey(initiator, target)
	if prev := c.sessions[key]; prev != nil && !prev.Terminal() {
		c.endLocked(prev, "superseded")
	}

	session := &domain.CallSession{
		CallID:      uuid.New(),
		InitiatorID: initiator,
		TargetID:    target,
		Type:        callType,
		State:       constants.CallStateRinging,
		StartedAt:   c.now().UTC(),
	}
	c.sessions[key] = session
	metrics.GatewayCallsActive.Inc()
	return session
}

// Answer transitions a ringing session to active. Only the target of
// the offer may answer; ok is false for any other state or party.
func (c *CallRegistry) Answer(answerer, initiator uuid.UUID) (*domain.CallSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session := c.sessions[newPairKey(answerer, initiator)]
	if session == nil || session.State != constants.CallStateRinging || session.TargetID != answerer {
		return nil, false
	}

	now := c.now().UTC()
	session.State = constants.CallStateActive
	session.AnsweredAt = &now
	metrics.GatewayCallsTotal.WithLabelValues("answered").Inc()
	return session, true
}

// End terminates the session between requester and peer. Either party
// may end from ringing or active; ending an already-ended or missing
// session is a no-op with ok=false.
func (c *CallRegistry) End(requester, peer uuid.UUID) (*domain.CallSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session := c.sessions[newPairKey(requester, peer)]
	if session == nil || session.Terminal() || !session.Involves(requester) {
		return nil, false
	}

	outcome := "completed"
	if session.State == constants.CallStateRinging {
		if requester == session.TargetID {
			outcome = "declined"
		} else {
			outcome = "canceled"
		}
	}
	c.endLocked(session, outcome)
	return session, true
}

// AllowSignal reports whether a non-terminal session exists between the
// two users, gating ICE candidate relay.
func (c *CallRegistry) AllowSignal(a, b uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	session := c.sessions[newPairKey(a, b)]
	return session != nil && !session.Terminal()
}

// EndAllFor ends every non-terminal session involving the user and
// returns them so the caller can notify the peers. Used on disconnect.
func (c *CallRegistry) EndAllFor(userID uuid.UUID) []*domain.CallSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ended []*domain.CallSession
	for _, session := range c.sessions {
		if session.Terminal() || !session.Involves(userID) {
			continue
		}
		c.endLocked(session, "disconnected")
		ended = append(ended, session)
	}
	return ended
}

// Get returns the current session between two users, if any.
func (c *CallRegistry) Get(a, b uuid.UUID) *domain.CallSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[newPairKey(a, b)]
}

// endLocked marks a session ended and drops it from the registry.
// Caller holds c.mu.
func (c *CallRegistry) endLocked(session *domain.CallSession, outcome string) {
	now := c.now().UTC()
	session.State = constants.CallStateEnded
	session.EndedAt = &now
	delete(c.sessions, newPairKey(session.InitiatorID, session.TargetID))
	metrics.GatewayCallsActive.Dec()
	metrics.GatewayCallsTotal.WithLabelValues(outcome).Inc()
}

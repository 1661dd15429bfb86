package gateway

import (
	"bytes"
	"encoding/json"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ywet290-beep/solid-octo-parakeet/internal/domain"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/errors"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/logger"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/metrics"
)

// Session is a single authenticated connection. A user may hold several
// sessions at once (one per device). Send must not block: implementations
// report an error when the outbound queue is full so the hub can evict
// the slow consumer. Close must be idempotent.
type Session interface {
	ID() string
	Identity() domain.Identity
	Send(data []byte) error
	Close() error
}

type room struct {
	mu      sync.RWMutex
	members map[string]Session
}

type sessionState struct {
	session Session
	rooms   map[string]struct{}
}

// Hub tracks live sessions, the user index, and room membership. Rooms
// carry their own lock so a broadcast in one room never stalls joins or
// broadcasts in another.
//
// Lock order is always hub.mu before room.mu, never the reverse.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
	users    map[uuid.UUID]map[string]Session
	rooms    map[string]*room

	// Called when Send fails mid-broadcast; the owner wires this to a
	// full disconnect cascade. Invoked on a fresh goroutine.
	onSendFailure func(sessionID string)
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]*sessionState),
		users:    make(map[uuid.UUID]map[string]Session),
		rooms:    make(map[string]*room),
	}
}

// Register adds a session to the registry and the per-user index.
func (h *Hub) Register(s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions[s.ID()] = &sessionState{
		session: s,
		rooms:   make(map[string]struct{}),
	}

	userID := s.Identity().UserID
	if h.users[userID] == nil {
		h.users[userID] = make(map[string]Session)
	}
	h.users[userID][s.ID()] = s

	metrics.GatewayConnectionsActive.Inc()
}

// Unregister removes a session and every room membership it held,
// returning the session and the affected rooms so the caller can notify
// the remaining members. Safe to call more than once; ok is false when
// the session is already gone.
func (h *Hub) Unregister(sessionID string) (session Session, rooms []string, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, exists := h.sessions[sessionID]
	if !exists {
		return nil, nil, false
	}
	delete(h.sessions, sessionID)

	session = state.session
	identity := session.Identity()
	if userSessions := h.users[identity.UserID]; userSessions != nil {
		delete(userSessions, sessionID)
		if len(userSessions) == 0 {
			delete(h.users, identity.UserID)
		}
	}

	rooms = make([]string, 0, len(state.rooms))
	for roomID := range state.rooms {
		rooms = append(rooms, roomID)
		h.removeFromRoom(roomID, sessionID)
	}
	sort.Strings(rooms)

	metrics.GatewayConnectionsActive.Dec()
	return session, rooms, true
}

// removeFromRoom drops a session from a room, deleting the room when it
// empties. Caller holds h.mu.
func (h *Hub) removeFromRoom(roomID, sessionID string) {
	r := h.rooms[roomID]
	if r == nil {
		return
	}
	r.mu.Lock()
	delete(r.members, sessionID)
	empty := len(r.members) == 0
	r.mu.Unlock()
	if empty {
		delete(h.rooms, roomID)
		metrics.GatewayRoomsActive.Dec()
	}
}

// Join adds a session to a room. Joining a room the session already
// belongs to is a no-op with already=true.
func (h *Hub) Join(sessionID, roomID string) (already bool, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, exists := h.sessions[sessionID]
	if !exists {
		return false, errors.UnauthenticatedError("Session not registered")
	}
	if _, member := state.rooms[roomID]; member {
		return true, nil
	}
	state.rooms[roomID] = struct{}{}

	r := h.rooms[roomID]
	if r == nil {
		r = &room{members: make(map[string]Session)}
		h.rooms[roomID] = r
		metrics.GatewayRoomsActive.Inc()
	}
	r.mu.Lock()
	r.members[sessionID] = state.session
	r.mu.Unlock()

	return false, nil
}

// Leave removes a session from a room it belongs to.
func (h *Hub) Leave(sessionID, roomID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, exists := h.sessions[sessionID]
	if !exists {
		return errors.UnauthenticatedError("Session not registered")
	}
	if _, member := state.rooms[roomID]; !member {
		return errors.NotMemberError(roomID)
	}
	delete(state.rooms, roomID)
	h.removeFromRoom(roomID, sessionID)
	return nil
}

// IsMember reports whether a session currently belongs to a room.
func (h *Hub) IsMember(sessionID, roomID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	state, exists := h.sessions[sessionID]
	if !exists {
		return false
	}
	_, member := state.rooms[roomID]
	return member
}

// RoomsOf returns the rooms a session belongs to.
func (h *Hub) RoomsOf(sessionID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	state, exists := h.sessions[sessionID]
	if !exists {
		return nil
	}
	rooms := make([]string, 0, len(state.rooms))
	for roomID := range state.rooms {
		rooms = append(rooms, roomID)
	}
	sort.Strings(rooms)
	return rooms
}

// SessionsOfUser returns every live session for a user.
func (h *Hub) SessionsOfUser(userID uuid.UUID) []Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	userSessions := h.users[userID]
	sessions := make([]Session, 0, len(userSessions))
	for _, s := range userSessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// BroadcastRoom sends an event to every member of a room, marshaling the
// envelope once. excludeSessionID skips one session (the actor) and may
// be empty. Sessions whose queue is full are reported to onSendFailure.
func (h *Hub) BroadcastRoom(roomID, event string, payload any, excludeSessionID string) {
	h.mu.RLock()
	r := h.rooms[roomID]
	h.mu.RUnlock()
	if r == nil {
		return
	}

	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		logger.Error("failed to marshal event",
			zap.String("event", event),
			zap.String("room_id", roomID),
			zap.Error(err),
		)
		return
	}

	var failed []string
	r.mu.RLock()
	for id, member := range r.members {
		if id == excludeSessionID {
			continue
		}
		if err := member.Send(frame); err != nil {
			failed = append(failed, id)
			continue
		}
		metrics.GatewayEventsDeliveredTotal.WithLabelValues(event).Inc()
	}
	r.mu.RUnlock()

	h.reportFailures(event, failed)
}

// SendToUser sends an event to every session of a user.
func (h *Hub) SendToUser(userID uuid.UUID, event string, payload any) {
	sessions := h.SessionsOfUser(userID)
	if len(sessions) == 0 {
		return
	}

	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		logger.Error("failed to marshal event",
			zap.String("event", event),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return
	}

	var failed []string
	for _, s := range sessions {
		if err := s.Send(frame); err != nil {
			failed = append(failed, s.ID())
			continue
		}
		metrics.GatewayEventsDeliveredTotal.WithLabelValues(event).Inc()
	}

	h.reportFailures(event, failed)
}

// SendTo sends an event to a single session.
func (h *Hub) SendTo(s Session, event string, payload any) {
	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		logger.Error("failed to marshal event",
			zap.String("event", event),
			zap.Error(err),
		)
		return
	}
	if err := s.Send(frame); err != nil {
		h.reportFailures(event, []string{s.ID()})
		return
	}
	metrics.GatewayEventsDeliveredTotal.WithLabelValues(event).Inc()
}

func (h *Hub) reportFailures(event string, failed []string) {
	for _, id := range failed {
		metrics.GatewayEventsDroppedTotal.Inc()
		logger.Warn("dropping slow consumer",
			zap.String("session_id", id),
			zap.String("event", event),
		)
		if h.onSendFailure != nil {
			go h.onSendFailure(id)
		}
	}
}

func marshalEnvelope(event string, payload any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if err := enc.Encode(Envelope{Event: event, Data: data}); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

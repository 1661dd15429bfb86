package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ywet290-beep/solid-octo-parakeet/internal/domain"
	"github.com/ywet290-beep/solid-octo-parakeet/internal/store"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/constants"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/errors"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/logger"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/metrics"
)

// PresenceMarker records user online/offline state. Calls are
// best-effort; failures never block the session lifecycle.
type PresenceMarker interface {
	SetUserOnline(ctx context.Context, userID uuid.UUID) error
	SetUserOffline(ctx context.Context, userID uuid.UUID) error
}

// Config carries the gateway's collaborators and tunables. Store and
// Presence are optional: with a nil Store the gateway runs as a pure
// relay.
type Config struct {
	Store    *store.Store
	Presence PresenceMarker

	TypingTTL           time.Duration
	TypingSweepInterval time.Duration
	StoreWriteTimeout   time.Duration
}

// Gateway owns the session registry, typing state, and call sessions,
// and implements every client command.
type Gateway struct {
	hub      *Hub
	typing   *TypingTracker
	calls    *CallRegistry
	store    *store.Store
	presence PresenceMarker

	storeWriteTimeout time.Duration
}

func New(cfg Config) *Gateway {
	if cfg.TypingTTL <= 0 {
		cfg.TypingTTL = constants.TypingTTL
	}
	if cfg.TypingSweepInterval <= 0 {
		cfg.TypingSweepInterval = constants.TypingSweepInterval
	}
	if cfg.StoreWriteTimeout <= 0 {
		cfg.StoreWriteTimeout = constants.StoreWriteTimeout
	}

	g := &Gateway{
		hub:               NewHub(),
		calls:             NewCallRegistry(),
		store:             cfg.Store,
		presence:          cfg.Presence,
		storeWriteTimeout: cfg.StoreWriteTimeout,
	}
	g.typing = NewTypingTracker(cfg.TypingTTL, cfg.TypingSweepInterval, func(roomID string, users []TypingUser) {
		g.hub.BroadcastRoom(roomID, EventTypingUpdate, TypingUpdatePayload{RoomID: roomID, Users: users}, "")
	})
	g.hub.onSendFailure = func(sessionID string) {
		g.Disconnect(sessionID)
	}
	return g
}

// Run starts the typing sweeper. Returns when ctx is done.
func (g *Gateway) Run(ctx context.Context) {
	g.typing.Run(ctx)
}

// Hub exposes the session registry, mainly for transport wiring.
func (g *Gateway) Hub() *Hub {
	return g.hub
}

// Admit registers an authenticated session.
func (g *Gateway) Admit(s Session) {
	g.hub.Register(s)
	metrics.GatewayConnectionsTotal.WithLabelValues("accepted").Inc()

	identity := s.Identity()
	logger.Info("session connected",
		zap.String("session_id", s.ID()),
		zap.String("user_id", identity.UserID.String()),
		zap.String("username", identity.Username),
	)

	if g.presence != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), g.storeWriteTimeout)
			defer cancel()
			if err := g.presence.SetUserOnline(ctx, identity.UserID); err != nil {
				logger.Warn("failed to mark user online", zap.Error(err))
			}
		}()
	}
	g.syncUserStatus(identity.UserID, "online")
}

// syncUserStatus mirrors connection state into the stored user record.
// Unknown users are skipped; the gateway never creates user rows, the
// auth service owns them.
func (g *Gateway) syncUserStatus(userID uuid.UUID, status string) {
	if g.store == nil || g.store.Users == nil {
		return
	}
	g.dispatchStoreWrite("update_user_status", func(ctx context.Context) error {
		user, err := g.store.Users.FindUser(ctx, userID)
		if err != nil {
			if err == store.ErrNotFound {
				return nil
			}
			return err
		}
		user.Status = status
		return g.store.Users.UpdateUser(ctx, user)
	})
}

// Disconnect tears a session down: memberships, typing entries, and
// call sessions are cleared before the remaining members are notified.
// Idempotent; concurrent callers race on Unregister and only one wins.
func (g *Gateway) Disconnect(sessionID string) {
	session, rooms, ok := g.hub.Unregister(sessionID)
	if !ok {
		return
	}
	identity := session.Identity()
	metrics.GatewayDisconnectionsTotal.WithLabelValues("closed").Inc()

	now := time.Now().UTC()
	for _, roomID := range rooms {
		g.hub.BroadcastRoom(roomID, EventMemberLeft, MembershipPayload{
			UserID:    identity.UserID,
			Username:  identity.Username,
			RoomID:    roomID,
			Timestamp: now,
		}, "")
	}

	for roomID, users := range g.typing.ClearUser(rooms, identity.UserID) {
		g.hub.BroadcastRoom(roomID, EventTypingUpdate, TypingUpdatePayload{RoomID: roomID, Users: users}, "")
	}

	for _, session := range g.calls.EndAllFor(identity.UserID) {
		g.hub.SendToUser(session.Peer(identity.UserID), EventCallEnded, CallEndedPayload{From: identity.UserID})
	}

	session.Close()

	logger.Info("session disconnected",
		zap.String("session_id", sessionID),
		zap.String("user_id", identity.UserID.String()),
	)

	if len(g.hub.SessionsOfUser(identity.UserID)) == 0 {
		if g.presence != nil {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), g.storeWriteTimeout)
				defer cancel()
				if err := g.presence.SetUserOffline(ctx, identity.UserID); err != nil {
					logger.Warn("failed to mark user offline", zap.Error(err))
				}
			}()
		}
		g.syncUserStatus(identity.UserID, "offline")
	}
}

// JoinRoom adds the session to a room after checking the room password
// when the store knows the room and it has one. Joining twice is a
// no-op that re-acknowledges.
func (g *Gateway) JoinRoom(s Session, p JoinRoomPayload) error {
	if p.RoomID == "" {
		return errors.InvalidPayloadError(CmdJoinRoom)
	}

	if err := g.checkRoomPassword(p.RoomID, p.Password); err != nil {
		return err
	}

	already, err := g.hub.Join(s.ID(), p.RoomID)
	if err != nil {
		return err
	}

	identity := s.Identity()
	if !already {
		g.hub.BroadcastRoom(p.RoomID, EventMemberJoined, MembershipPayload{
			UserID:    identity.UserID,
			Username:  identity.Username,
			RoomID:    p.RoomID,
			Timestamp: time.Now().UTC(),
		}, s.ID())
	}
	g.hub.SendTo(s, EventJoinedRoom, RoomAckPayload{
		RoomID:  p.RoomID,
		Success: true,
		Message: "Successfully joined room",
	})

	logger.Debug("session joined room",
		zap.String("session_id", s.ID()),
		zap.String("room_id", p.RoomID),
		zap.Bool("already_member", already),
	)
	return nil
}

// checkRoomPassword verifies the supplied password against the stored
// room, when both exist. Unknown rooms join freely; store outages
// fail open so the relay keeps working without its backing services.
func (g *Gateway) checkRoomPassword(roomID, password string) error {
	if g.store == nil || g.store.Rooms == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), g.storeWriteTimeout)
	defer cancel()

	room, err := g.store.Rooms.FindRoom(ctx, roomID)
	if err != nil {
		if err != store.ErrNotFound {
			logger.Warn("room lookup failed, skipping password check",
				zap.String("room_id", roomID),
				zap.Error(err),
			)
		}
		return nil
	}
	if room.PasswordHash == "" {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(room.PasswordHash), []byte(password)); err != nil {
		return errors.WrongPasswordError()
	}
	return nil
}

// LeaveRoom removes the session from a room it belongs to.
func (g *Gateway) LeaveRoom(s Session, p LeaveRoomPayload) error {
	if p.RoomID == "" {
		return errors.InvalidPayloadError(CmdLeaveRoom)
	}

	if err := g.hub.Leave(s.ID(), p.RoomID); err != nil {
		return err
	}

	identity := s.Identity()
	g.hub.BroadcastRoom(p.RoomID, EventMemberLeft, MembershipPayload{
		UserID:    identity.UserID,
		Username:  identity.Username,
		RoomID:    p.RoomID,
		Timestamp: time.Now().UTC(),
	}, "")

	if changed, users := g.typing.Clear(p.RoomID, identity.UserID); changed {
		g.hub.BroadcastRoom(p.RoomID, EventTypingUpdate, TypingUpdatePayload{RoomID: p.RoomID, Users: users}, "")
	}

	g.hub.SendTo(s, EventLeftRoom, RoomAckPayload{
		RoomID:  p.RoomID,
		Success: true,
		Message: "Successfully left room",
	})
	return nil
}

// SetTyping records the typing indicator and broadcasts the room's
// current typer set, sender included.
func (g *Gateway) SetTyping(s Session, p TypingPayload) error {
	if p.RoomID == "" {
		return errors.InvalidPayloadError(CmdTyping)
	}
	if !g.hub.IsMember(s.ID(), p.RoomID) {
		return errors.NotInRoomError(p.RoomID)
	}

	identity := s.Identity()
	users := g.typing.Set(p.RoomID, identity.UserID, identity.Username, p.IsTyping)
	g.hub.BroadcastRoom(p.RoomID, EventTypingUpdate, TypingUpdatePayload{RoomID: p.RoomID, Users: users}, "")
	return nil
}

// SendMessage assigns an ID and timestamp, broadcasts to the room (and
// thread audience, when threaded), then hands the record to the store.
func (g *Gateway) SendMessage(s Session, p SendMessagePayload) error {
	if p.RoomID == "" {
		return errors.InvalidPayloadError(CmdSendMessage)
	}
	if !g.hub.IsMember(s.ID(), p.RoomID) {
		return errors.NotInRoomError(p.RoomID)
	}

	content := strings.TrimSpace(p.Content)
	if content == "" {
		return errors.EmptyContentError()
	}
	if len(content) > constants.MaxMessageLength {
		return errors.ContentTooLongError(constants.MaxMessageLength)
	}

	msgType := p.Type
	if msgType == "" {
		msgType = constants.MessageTypeText
	}

	identity := s.Identity()
	msg := &domain.Message{
		MessageID:   uuid.New(),
		RoomID:      p.RoomID,
		UserID:      identity.UserID,
		Username:    identity.Username,
		Content:     content,
		Type:        msgType,
		ThreadID:    p.ThreadID,
		Attachments: p.Attachments,
		Reactions:   []domain.Reaction{},
		Timestamp:   time.Now().UTC(),
	}

	g.hub.BroadcastRoom(p.RoomID, EventNewMessage, NewMessagePayload{Message: msg, RoomID: p.RoomID}, "")
	if msg.ThreadID != "" {
		g.hub.BroadcastRoom(msg.ThreadID, EventThreadMessage, ThreadMessagePayload{Message: msg, ThreadID: msg.ThreadID}, "")
	}

	if g.store != nil && g.store.Messages != nil {
		g.dispatchStoreWrite("create_message", func(ctx context.Context) error {
			return g.store.Messages.CreateMessage(ctx, msg)
		})
	}
	return nil
}

// EditMessage broadcasts the edit to the room and updates the store.
func (g *Gateway) EditMessage(s Session, p EditMessagePayload) error {
	if p.RoomID == "" || p.MessageID == uuid.Nil {
		return errors.InvalidPayloadError(CmdEditMessage)
	}
	if !g.hub.IsMember(s.ID(), p.RoomID) {
		return errors.NotInRoomError(p.RoomID)
	}

	content := strings.TrimSpace(p.NewContent)
	if content == "" {
		return errors.EmptyContentError()
	}
	if len(content) > constants.MaxMessageLength {
		return errors.ContentTooLongError(constants.MaxMessageLength)
	}

	identity := s.Identity()
	editedAt := time.Now().UTC()
	g.hub.BroadcastRoom(p.RoomID, EventMessageEdited, MessageEditedPayload{
		MessageID:  p.MessageID,
		NewContent: content,
		EditedBy:   identity.UserID,
		EditedAt:   editedAt,
		RoomID:     p.RoomID,
	}, "")

	if g.store != nil && g.store.Messages != nil {
		g.dispatchStoreWrite("update_message", func(ctx context.Context) error {
			msg, err := g.store.Messages.FindMessage(ctx, p.RoomID, p.MessageID)
			if err != nil {
				return err
			}
			msg.Content = content
			msg.IsEdited = true
			msg.EditedAt = &editedAt
			return g.store.Messages.UpdateMessage(ctx, msg)
		})
	}
	return nil
}

// DeleteMessage broadcasts the deletion and soft-deletes in the store.
func (g *Gateway) DeleteMessage(s Session, p DeleteMessagePayload) error {
	if p.RoomID == "" || p.MessageID == uuid.Nil {
		return errors.InvalidPayloadError(CmdDeleteMessage)
	}
	if !g.hub.IsMember(s.ID(), p.RoomID) {
		return errors.NotInRoomError(p.RoomID)
	}

	identity := s.Identity()
	g.hub.BroadcastRoom(p.RoomID, EventMessageDeleted, MessageDeletedPayload{
		MessageID: p.MessageID,
		DeletedBy: identity.UserID,
		DeletedAt: time.Now().UTC(),
		RoomID:    p.RoomID,
	}, "")

	if g.store != nil && g.store.Messages != nil {
		g.dispatchStoreWrite("delete_message", func(ctx context.Context) error {
			return g.store.Messages.DeleteMessage(ctx, p.RoomID, p.MessageID)
		})
	}
	return nil
}

// AddReaction broadcasts the reaction and folds it into the stored
// message's aggregate.
func (g *Gateway) AddReaction(s Session, p AddReactionPayload) error {
	if p.RoomID == "" || p.MessageID == uuid.Nil || p.Emoji == "" {
		return errors.InvalidPayloadError(CmdAddReaction)
	}
	if !g.hub.IsMember(s.ID(), p.RoomID) {
		return errors.NotInRoomError(p.RoomID)
	}

	identity := s.Identity()
	g.hub.BroadcastRoom(p.RoomID, EventReactionAdded, ReactionAddedPayload{
		MessageID: p.MessageID,
		Emoji:     p.Emoji,
		UserID:    identity.UserID,
		Username:  identity.Username,
		RoomID:    p.RoomID,
	}, "")

	if g.store != nil && g.store.Messages != nil {
		g.dispatchStoreWrite("add_reaction", func(ctx context.Context) error {
			msg, err := g.store.Messages.FindMessage(ctx, p.RoomID, p.MessageID)
			if err != nil {
				return err
			}
			applyReaction(msg, p.Emoji, identity.UserID)
			return g.store.Messages.UpdateMessage(ctx, msg)
		})
	}
	return nil
}

// applyReaction appends a user to the emoji's reaction aggregate,
// ignoring duplicates.
func applyReaction(msg *domain.Message, emoji string, userID uuid.UUID) {
	for i := range msg.Reactions {
		if msg.Reactions[i].Emoji != emoji {
			continue
		}
		for _, u := range msg.Reactions[i].Users {
			if u == userID {
				return
			}
		}
		msg.Reactions[i].Users = append(msg.Reactions[i].Users, userID)
		msg.Reactions[i].Count = len(msg.Reactions[i].Users)
		return
	}
	msg.Reactions = append(msg.Reactions, domain.Reaction{
		Emoji: emoji,
		Users: []uuid.UUID{userID},
		Count: 1,
	})
}

// CallUser opens a ringing call session and relays the offer to every
// connection of the target user.
func (g *Gateway) CallUser(s Session, p CallUserPayload) error {
	if p.UserToCall == uuid.Nil || len(p.SignalData) == 0 {
		return errors.InvalidPayloadError(CmdCallUser)
	}

	identity := s.Identity()
	session := g.calls.Initiate(identity.UserID, p.UserToCall, p.Type)
	g.hub.SendToUser(p.UserToCall, EventCallMade, CallMadePayload{
		Signal: p.SignalData,
		From:   identity.UserID,
		Name:   identity.Username,
	})

	logger.Debug("call initiated",
		zap.String("call_id", session.CallID.String()),
		zap.String("initiator", identity.UserID.String()),
		zap.String("target", p.UserToCall.String()),
		zap.String("type", session.Type),
	)
	return nil
}

// AnswerCall relays the answer to the initiator when the session is
// still ringing; stale answers are dropped silently.
func (g *Gateway) AnswerCall(s Session, p AnswerCallPayload) error {
	if p.To == uuid.Nil || len(p.SignalData) == 0 {
		return errors.InvalidPayloadError(CmdAnswerCall)
	}

	identity := s.Identity()
	if _, ok := g.calls.Answer(identity.UserID, p.To); !ok {
		metrics.GatewaySignalsDroppedTotal.Inc()
		return nil
	}
	g.hub.SendToUser(p.To, EventCallAnswered, CallAnsweredPayload{
		Signal: p.SignalData,
		From:   identity.UserID,
	})
	return nil
}

// RelayIceCandidate forwards a candidate while a session between the
// two parties is live.
func (g *Gateway) RelayIceCandidate(s Session, p IceCandidatePayload) error {
	if p.To == uuid.Nil || len(p.Candidate) == 0 {
		return errors.InvalidPayloadError(CmdIceCandidate)
	}

	identity := s.Identity()
	if !g.calls.AllowSignal(identity.UserID, p.To) {
		metrics.GatewaySignalsDroppedTotal.Inc()
		return nil
	}
	g.hub.SendToUser(p.To, EventIceCandidate, IceCandidateEventPayload{
		Candidate: p.Candidate,
		From:      identity.UserID,
	})
	return nil
}

// EndCall terminates the session with the peer and notifies them.
// Ending an already-ended call is a silent no-op.
func (g *Gateway) EndCall(s Session, p EndCallPayload) error {
	if p.To == uuid.Nil {
		return errors.InvalidPayloadError(CmdEndCall)
	}

	identity := s.Identity()
	if _, ok := g.calls.End(identity.UserID, p.To); !ok {
		return nil
	}
	g.hub.SendToUser(p.To, EventCallEnded, CallEndedPayload{From: identity.UserID})
	return nil
}

// dispatchStoreWrite runs a store operation on its own goroutine with a
// bounded deadline, keeping persistence off the broadcast path.
func (g *Gateway) dispatchStoreWrite(operation string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), g.storeWriteTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			metrics.GatewayStoreWritesTotal.WithLabelValues(operation, "error").Inc()
			logger.Error("store write failed",
				zap.String("operation", operation),
				zap.Error(err),
			)
			return
		}
		metrics.GatewayStoreWritesTotal.WithLabelValues(operation, "success").Inc()
	}()
}

package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ywet290-beep/solid-octo-parakeet/internal/domain"
	"github.com/ywet290-beep/solid-octo-parakeet/internal/store"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/constants"
	apperrors "github.com/ywet290-beep/solid-octo-parakeet/pkg/errors"
)

type fakeMessageStore struct {
	mu       sync.Mutex
	messages map[uuid.UUID]*domain.Message
	deleted  []uuid.UUID
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{messages: make(map[uuid.UUID]*domain.Message)}
}

func (f *fakeMessageStore) CreateMessage(_ context.Context, msg *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *msg
	f.messages[msg.MessageID] = &clone
	return nil
}

func (f *fakeMessageStore) FindMessage(_ context.Context, _ string, messageID uuid.UUID) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[messageID]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *msg
	return &clone, nil
}

func (f *fakeMessageStore) UpdateMessage(_ context.Context, msg *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *msg
	f.messages[msg.MessageID] = &clone
	return nil
}

func (f *fakeMessageStore) DeleteMessage(_ context.Context, _ string, messageID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeMessageStore) get(messageID uuid.UUID) *domain.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[messageID]
	if !ok {
		return nil
	}
	clone := *msg
	return &clone
}

func (f *fakeMessageStore) deletedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deleted)
}

type fakeRoomStore struct {
	mu    sync.Mutex
	rooms map[string]*domain.Room
}

func newFakeRoomStore() *fakeRoomStore {
	return &fakeRoomStore{rooms: make(map[string]*domain.Room)}
}

func (f *fakeRoomStore) CreateRoom(_ context.Context, room *domain.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[room.RoomID] = room
	return nil
}

func (f *fakeRoomStore) FindRoom(_ context.Context, roomID string) (*domain.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return room, nil
}

func (f *fakeRoomStore) UpdateRoom(_ context.Context, room *domain.Room) error {
	return f.CreateRoom(context.Background(), room)
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *user
	f.users[user.UserID] = &clone
	return nil
}

func (f *fakeUserStore) FindUser(_ context.Context, userID uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserStore) UpdateUser(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.UserID]; !ok {
		return store.ErrNotFound
	}
	clone := *user
	f.users[user.UserID] = &clone
	return nil
}

func (f *fakeUserStore) status(userID uuid.UUID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return ""
	}
	return user.Status
}

func (f *fakeUserStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

type fakePresence struct {
	mu      sync.Mutex
	online  map[uuid.UUID]int
	offline map[uuid.UUID]int
}

func newFakePresence() *fakePresence {
	return &fakePresence{
		online:  make(map[uuid.UUID]int),
		offline: make(map[uuid.UUID]int),
	}
}

func (f *fakePresence) SetUserOnline(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[userID]++
	return nil
}

func (f *fakePresence) SetUserOffline(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline[userID]++
	return nil
}

func (f *fakePresence) offlineCount(userID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.offline[userID]
}

type testEnv struct {
	gateway  *Gateway
	messages *fakeMessageStore
	rooms    *fakeRoomStore
	users    *fakeUserStore
	presence *fakePresence
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	messages := newFakeMessageStore()
	rooms := newFakeRoomStore()
	users := newFakeUserStore()
	presence := newFakePresence()

	g := New(Config{
		Store:             &store.Store{Messages: messages, Rooms: rooms, Users: users},
		Presence:          presence,
		StoreWriteTimeout: time.Second,
	})
	return &testEnv{gateway: g, messages: messages, rooms: rooms, users: users, presence: presence}
}

func (e *testEnv) admit(t *testing.T, id, username string) *mockSession {
	t.Helper()
	s := newMockSession(id, username)
	e.gateway.Admit(s)
	return s
}

func (e *testEnv) join(t *testing.T, s *mockSession, roomID string) {
	t.Helper()
	require.NoError(t, e.gateway.JoinRoom(s, JoinRoomPayload{RoomID: roomID}))
}

func TestGateway_JoinRoom(t *testing.T) {
	env := newTestEnv(t)
	alice := env.admit(t, "s-alice", "alice")
	bob := env.admit(t, "s-bob", "bob")

	env.join(t, alice, "room1")
	env.join(t, bob, "room1")

	ack, ok := bob.lastEvent(t, EventJoinedRoom)
	require.True(t, ok)
	p := decodePayload[RoomAckPayload](t, ack)
	assert.Equal(t, "room1", p.RoomID)
	assert.True(t, p.Success)

	joined, ok := alice.lastEvent(t, EventMemberJoined)
	require.True(t, ok)
	mp := decodePayload[MembershipPayload](t, joined)
	assert.Equal(t, bob.identity.UserID, mp.UserID)
	assert.Equal(t, "bob", mp.Username)

	assert.Equal(t, 0, bob.countEvents(t, EventMemberJoined), "joiner does not see its own announcement")
}

func TestGateway_DuplicateJoinReacksWithoutBroadcast(t *testing.T) {
	env := newTestEnv(t)
	alice := env.admit(t, "s-alice", "alice")
	bob := env.admit(t, "s-bob", "bob")

	env.join(t, alice, "room1")
	env.join(t, bob, "room1")
	env.join(t, bob, "room1")

	assert.Equal(t, 1, alice.countEvents(t, EventMemberJoined), "duplicate join must not re-announce")
	assert.Equal(t, 2, bob.countEvents(t, EventJoinedRoom), "every join attempt is acknowledged")
}

func TestGateway_JoinRoomPassword(t *testing.T) {
	env := newTestEnv(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	env.rooms.CreateRoom(context.Background(), &domain.Room{
		RoomID:       "private",
		PasswordHash: string(hash),
	})

	alice := env.admit(t, "s-alice", "alice")

	err = env.gateway.JoinRoom(alice, JoinRoomPayload{RoomID: "private", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeWrongPassword, apperrors.GetAppError(err).Code)

	require.NoError(t, env.gateway.JoinRoom(alice, JoinRoomPayload{RoomID: "private", Password: "hunter2"}))

	require.NoError(t, env.gateway.JoinRoom(alice, JoinRoomPayload{RoomID: "unknown-room"}),
		"rooms unknown to the store join freely")
}

func TestGateway_LeaveRoom(t *testing.T) {
	env := newTestEnv(t)
	alice := env.admit(t, "s-alice", "alice")
	bob := env.admit(t, "s-bob", "bob")
	env.join(t, alice, "room1")
	env.join(t, bob, "room1")

	require.NoError(t, env.gateway.LeaveRoom(bob, LeaveRoomPayload{RoomID: "room1"}))

	left, ok := alice.lastEvent(t, EventMemberLeft)
	require.True(t, ok)
	assert.Equal(t, bob.identity.UserID, decodePayload[MembershipPayload](t, left).UserID)

	_, ok = bob.lastEvent(t, EventLeftRoom)
	assert.True(t, ok)

	err := env.gateway.LeaveRoom(bob, LeaveRoomPayload{RoomID: "room1"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotMember, apperrors.GetAppError(err).Code)
}

func TestGateway_Typing(t *testing.T) {
	env := newTestEnv(t)
	alice := env.admit(t, "s-alice", "alice")
	bob := env.admit(t, "s-bob", "bob")
	env.join(t, alice, "room1")

	err := env.gateway.SetTyping(bob, TypingPayload{RoomID: "room1", IsTyping: true})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotInRoom, apperrors.GetAppError(err).Code)

	env.join(t, bob, "room1")
	require.NoError(t, env.gateway.SetTyping(bob, TypingPayload{RoomID: "room1", IsTyping: true}))

	for _, s := range []*mockSession{alice, bob} {
		update, ok := s.lastEvent(t, EventTypingUpdate)
		require.True(t, ok, "typing updates reach the typer too")
		p := decodePayload[TypingUpdatePayload](t, update)
		assert.Equal(t, []TypingUser{{Username: "bob", IsTyping: true}}, p.Users)
	}

	require.NoError(t, env.gateway.SetTyping(bob, TypingPayload{RoomID: "room1", IsTyping: false}))
	update, _ := alice.lastEvent(t, EventTypingUpdate)
	assert.Empty(t, decodePayload[TypingUpdatePayload](t, update).Users)
}

func TestGateway_SendMessage(t *testing.T) {
	env := newTestEnv(t)
	alice := env.admit(t, "s-alice", "alice")
	bob := env.admit(t, "s-bob", "bob")
	env.join(t, alice, "room1")
	env.join(t, bob, "room1")

	err := env.gateway.SendMessage(alice, SendMessagePayload{RoomID: "room1", Content: "   "})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeEmptyContent, apperrors.GetAppError(err).Code)

	require.NoError(t, env.gateway.SendMessage(alice, SendMessagePayload{RoomID: "room1", Content: "  hello  "}))

	for _, s := range []*mockSession{alice, bob} {
		ev, ok := s.lastEvent(t, EventNewMessage)
		require.True(t, ok, "sender receives its own message back")
		p := decodePayload[NewMessagePayload](t, ev)
		require.NotNil(t, p.Message)
		assert.Equal(t, "hello", p.Message.Content, "content is trimmed")
		assert.Equal(t, alice.identity.UserID, p.Message.UserID)
		assert.Equal(t, "alice", p.Message.Username)
		assert.Equal(t, constants.MessageTypeText, p.Message.Type)
		assert.NotEqual(t, uuid.Nil, p.Message.MessageID)
		assert.False(t, p.Message.Timestamp.IsZero())
	}

	ev, _ := alice.lastEvent(t, EventNewMessage)
	msgID := decodePayload[NewMessagePayload](t, ev).Message.MessageID
	assert.Eventually(t, func() bool {
		return env.messages.get(msgID) != nil
	}, time.Second, 10*time.Millisecond, "message is persisted asynchronously")
}

func TestGateway_SendMessageBlankContentWithAttachments(t *testing.T) {
	env := newTestEnv(t)
	alice := env.admit(t, "s-alice", "alice")
	bob := env.admit(t, "s-bob", "bob")
	env.join(t, alice, "room1")
	env.join(t, bob, "room1")

	err := env.gateway.SendMessage(alice, SendMessagePayload{
		RoomID:  "room1",
		Content: "   ",
		Attachments: []domain.Attachment{
			{ID: "a1", Type: "image", URL: "https://cdn.example.com/a1.png"},
		},
	})
	require.Error(t, err, "attachments do not excuse blank content")
	assert.Equal(t, apperrors.ErrCodeEmptyContent, apperrors.GetAppError(err).Code)
	assert.Equal(t, 0, bob.countEvents(t, EventNewMessage), "rejected sends produce no broadcast")
}

func TestGateway_SendMessageRequiresMembership(t *testing.T) {
	env := newTestEnv(t)
	alice := env.admit(t, "s-alice", "alice")

	err := env.gateway.SendMessage(alice, SendMessagePayload{RoomID: "room1", Content: "hi"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotInRoom, apperrors.GetAppError(err).Code)
}

func TestGateway_ThreadMessageReachesThreadAudience(t *testing.T) {
	env := newTestEnv(t)
	alice := env.admit(t, "s-alice", "alice")
	carol := env.admit(t, "s-carol", "carol")
	env.join(t, alice, "room1")
	env.join(t, alice, "thread-7")
	env.join(t, carol, "thread-7")

	require.NoError(t, env.gateway.SendMessage(alice, SendMessagePayload{
		RoomID:   "room1",
		Content:  "reply",
		ThreadID: "thread-7",
	}))

	assert.Equal(t, 0, carol.countEvents(t, EventNewMessage), "carol is not in the room")
	ev, ok := carol.lastEvent(t, EventThreadMessage)
	require.True(t, ok)
	p := decodePayload[ThreadMessagePayload](t, ev)
	assert.Equal(t, "thread-7", p.ThreadID)
	assert.Equal(t, "reply", p.Message.Content)
}

func TestGateway_EditMessage(t *testing.T) {
	env := newTestEnv(t)
	alice := env.admit(t, "s-alice", "alice")
	bob := env.admit(t, "s-bob", "bob")
	env.join(t, alice, "room1")
	env.join(t, bob, "room1")

	require.NoError(t, env.gateway.SendMessage(alice, SendMessagePayload{RoomID: "room1", Content: "typo"}))
	ev, _ := alice.lastEvent(t, EventNewMessage)
	msgID := decodePayload[NewMessagePayload](t, ev).Message.MessageID

	require.Eventually(t, func() bool {
		return env.messages.get(msgID) != nil
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, env.gateway.EditMessage(alice, EditMessagePayload{
		MessageID:  msgID,
		RoomID:     "room1",
		NewContent: "fixed",
	}))

	edited, ok := bob.lastEvent(t, EventMessageEdited)
	require.True(t, ok)
	p := decodePayload[MessageEditedPayload](t, edited)
	assert.Equal(t, "fixed", p.NewContent)
	assert.Equal(t, alice.identity.UserID, p.EditedBy)

	assert.Eventually(t, func() bool {
		msg := env.messages.get(msgID)
		return msg != nil && msg.IsEdited && msg.Content == "fixed"
	}, time.Second, 10*time.Millisecond)
}

func TestGateway_DeleteMessage(t *testing.T) {
	env := newTestEnv(t)
	alice := env.admit(t, "s-alice", "alice")
	bob := env.admit(t, "s-bob", "bob")
	env.join(t, alice, "room1")
	env.join(t, bob, "room1")

	msgID := uuid.New()
	require.NoError(t, env.gateway.DeleteMessage(alice, DeleteMessagePayload{
		MessageID: msgID,
		RoomID:    "room1",
	}))

	deleted, ok := bob.lastEvent(t, EventMessageDeleted)
	require.True(t, ok)
	assert.Equal(t, msgID, decodePayload[MessageDeletedPayload](t, deleted).MessageID)

	assert.Eventually(t, func() bool {
		return env.messages.deletedCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestGateway_AddReaction(t *testing.T) {
	env := newTestEnv(t)
	alice := env.admit(t, "s-alice", "alice")
	bob := env.admit(t, "s-bob", "bob")
	env.join(t, alice, "room1")
	env.join(t, bob, "room1")

	require.NoError(t, env.gateway.SendMessage(alice, SendMessagePayload{RoomID: "room1", Content: "nice"}))
	ev, _ := alice.lastEvent(t, EventNewMessage)
	msgID := decodePayload[NewMessagePayload](t, ev).Message.MessageID

	require.Eventually(t, func() bool {
		return env.messages.get(msgID) != nil
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, env.gateway.AddReaction(bob, AddReactionPayload{
		MessageID: msgID,
		Emoji:     "👍",
		RoomID:    "room1",
	}))

	reacted, ok := alice.lastEvent(t, EventReactionAdded)
	require.True(t, ok)
	p := decodePayload[ReactionAddedPayload](t, reacted)
	assert.Equal(t, "👍", p.Emoji)
	assert.Equal(t, "bob", p.Username)

	assert.Eventually(t, func() bool {
		msg := env.messages.get(msgID)
		return msg != nil && len(msg.Reactions) == 1 && msg.Reactions[0].Count == 1
	}, time.Second, 10*time.Millisecond)
}

func TestApplyReaction_DuplicateIgnored(t *testing.T) {
	msg := &domain.Message{}
	user := uuid.New()

	applyReaction(msg, "🎉", user)
	applyReaction(msg, "🎉", user)
	applyReaction(msg, "🎉", uuid.New())

	require.Len(t, msg.Reactions, 1)
	assert.Equal(t, 2, msg.Reactions[0].Count)
}

func TestGateway_CallFlow(t *testing.T) {
	env := newTestEnv(t)
	alice := env.admit(t, "s-alice", "alice")
	bobPhone := env.admit(t, "s-bob-phone", "bob")
	bobLaptop := newMockSession("s-bob-laptop", "bob")
	bobLaptop.identity.UserID = bobPhone.identity.UserID
	env.gateway.Admit(bobLaptop)

	offer := json.RawMessage(`{"sdp":"offer"}`)
	require.NoError(t, env.gateway.CallUser(alice, CallUserPayload{
		UserToCall: bobPhone.identity.UserID,
		SignalData: offer,
		Type:       constants.CallTypeVideo,
	}))

	for _, s := range []*mockSession{bobPhone, bobLaptop} {
		ev, ok := s.lastEvent(t, EventCallMade)
		require.True(t, ok, "offer reaches every device")
		p := decodePayload[CallMadePayload](t, ev)
		assert.Equal(t, alice.identity.UserID, p.From)
		assert.Equal(t, "alice", p.Name)
		assert.JSONEq(t, string(offer), string(p.Signal))
	}

	answer := json.RawMessage(`{"sdp":"answer"}`)
	require.NoError(t, env.gateway.AnswerCall(bobPhone, AnswerCallPayload{
		To:         alice.identity.UserID,
		SignalData: answer,
	}))

	ev, ok := alice.lastEvent(t, EventCallAnswered)
	require.True(t, ok)
	assert.Equal(t, bobPhone.identity.UserID, decodePayload[CallAnsweredPayload](t, ev).From)

	candidate := json.RawMessage(`{"candidate":"c1"}`)
	require.NoError(t, env.gateway.RelayIceCandidate(alice, IceCandidatePayload{
		To:        bobPhone.identity.UserID,
		Candidate: candidate,
	}))
	assert.Equal(t, 1, bobPhone.countEvents(t, EventIceCandidate))

	require.NoError(t, env.gateway.EndCall(bobPhone, EndCallPayload{To: alice.identity.UserID}))
	ended, ok := alice.lastEvent(t, EventCallEnded)
	require.True(t, ok)
	assert.Equal(t, bobPhone.identity.UserID, decodePayload[CallEndedPayload](t, ended).From)

	require.NoError(t, env.gateway.RelayIceCandidate(alice, IceCandidatePayload{
		To:        bobPhone.identity.UserID,
		Candidate: candidate,
	}))
	assert.Equal(t, 1, bobPhone.countEvents(t, EventIceCandidate), "candidates after end are dropped")

	require.NoError(t, env.gateway.EndCall(alice, EndCallPayload{To: bobPhone.identity.UserID}),
		"ending an ended call is a silent no-op")
	assert.Equal(t, 1, alice.countEvents(t, EventCallEnded))
}

func TestGateway_StaleAnswerDropped(t *testing.T) {
	env := newTestEnv(t)
	alice := env.admit(t, "s-alice", "alice")
	bob := env.admit(t, "s-bob", "bob")

	require.NoError(t, env.gateway.AnswerCall(bob, AnswerCallPayload{
		To:         alice.identity.UserID,
		SignalData: json.RawMessage(`{"sdp":"answer"}`),
	}))
	assert.Equal(t, 0, alice.countEvents(t, EventCallAnswered), "answer without a ringing session is dropped")
}

func TestGateway_DisconnectCascade(t *testing.T) {
	env := newTestEnv(t)
	alice := env.admit(t, "s-alice", "alice")
	bob := env.admit(t, "s-bob", "bob")
	carol := env.admit(t, "s-carol", "carol")
	env.join(t, alice, "room1")
	env.join(t, bob, "room1")

	require.NoError(t, env.gateway.SetTyping(alice, TypingPayload{RoomID: "room1", IsTyping: true}))
	require.NoError(t, env.gateway.CallUser(alice, CallUserPayload{
		UserToCall: carol.identity.UserID,
		SignalData: json.RawMessage(`{"sdp":"offer"}`),
	}))

	env.gateway.Disconnect(alice.ID())
	assert.True(t, alice.isClosed(), "disconnect closes the transport")

	left, ok := bob.lastEvent(t, EventMemberLeft)
	require.True(t, ok)
	assert.Equal(t, alice.identity.UserID, decodePayload[MembershipPayload](t, left).UserID)

	update, ok := bob.lastEvent(t, EventTypingUpdate)
	require.True(t, ok)
	assert.Empty(t, decodePayload[TypingUpdatePayload](t, update).Users, "typing entry cleared on disconnect")

	ended, ok := carol.lastEvent(t, EventCallEnded)
	require.True(t, ok)
	assert.Equal(t, alice.identity.UserID, decodePayload[CallEndedPayload](t, ended).From)

	assert.Eventually(t, func() bool {
		return env.presence.offlineCount(alice.identity.UserID) == 1
	}, time.Second, 10*time.Millisecond)

	env.gateway.Disconnect(alice.ID())
	assert.Equal(t, 1, bob.countEvents(t, EventMemberLeft), "repeat disconnect is a no-op")
}

func TestGateway_UserStatusFollowsConnections(t *testing.T) {
	env := newTestEnv(t)
	alice := newMockSession("s-alice", "alice")
	require.NoError(t, env.users.CreateUser(context.Background(), &domain.User{
		UserID:   alice.identity.UserID,
		Username: "alice",
		Status:   "offline",
	}))

	env.gateway.Admit(alice)
	assert.Eventually(t, func() bool {
		return env.users.status(alice.identity.UserID) == "online"
	}, time.Second, 10*time.Millisecond, "admit marks the stored user online")

	phone := newMockSession("s-alice-phone", "alice")
	phone.identity.UserID = alice.identity.UserID
	env.gateway.Admit(phone)

	env.gateway.Disconnect(alice.ID())
	assert.Equal(t, "online", env.users.status(alice.identity.UserID),
		"user stays online while another session remains")

	env.gateway.Disconnect(phone.ID())
	assert.Eventually(t, func() bool {
		return env.users.status(alice.identity.UserID) == "offline"
	}, time.Second, 10*time.Millisecond, "last disconnect marks the stored user offline")
}

func TestGateway_UnknownUserIsNotCreated(t *testing.T) {
	env := newTestEnv(t)
	bob := env.admit(t, "s-bob", "bob")
	env.gateway.Disconnect(bob.ID())

	assert.Eventually(t, func() bool {
		return env.presence.offlineCount(bob.identity.UserID) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, env.users.count(), "gateway never creates user rows")
}

func TestGateway_PureRelayWithoutStore(t *testing.T) {
	g := New(Config{})
	alice := newMockSession("s-alice", "alice")
	bob := newMockSession("s-bob", "bob")
	g.Admit(alice)
	g.Admit(bob)

	require.NoError(t, g.JoinRoom(alice, JoinRoomPayload{RoomID: "room1"}))
	require.NoError(t, g.JoinRoom(bob, JoinRoomPayload{RoomID: "room1"}))
	require.NoError(t, g.SendMessage(alice, SendMessagePayload{RoomID: "room1", Content: "hi"}))

	assert.Equal(t, 1, bob.countEvents(t, EventNewMessage))
}

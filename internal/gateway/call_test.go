package gateway

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ywet290-beep/solid-octo-parakeet/pkg/constants"
)

func TestPairKey_OrderIndependent(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	assert.Equal(t, newPairKey(a, b), newPairKey(b, a))
}

func TestCallRegistry_Lifecycle(t *testing.T) {
	reg := NewCallRegistry()
	caller := uuid.New()
	callee := uuid.New()

	session := reg.Initiate(caller, callee, constants.CallTypeVideo)
	require.NotNil(t, session)
	assert.Equal(t, constants.CallStateRinging, session.State)
	assert.Equal(t, constants.CallTypeVideo, session.Type)
	assert.Equal(t, caller, session.InitiatorID)
	assert.Equal(t, callee, session.TargetID)

	answered, ok := reg.Answer(callee, caller)
	require.True(t, ok)
	assert.Equal(t, constants.CallStateActive, answered.State)
	assert.NotNil(t, answered.AnsweredAt)

	ended, ok := reg.End(caller, callee)
	require.True(t, ok)
	assert.Equal(t, constants.CallStateEnded, ended.State)
	assert.NotNil(t, ended.EndedAt)

	_, ok = reg.End(caller, callee)
	assert.False(t, ok, "ending twice is a no-op")
}

func TestCallRegistry_UnknownTypeDefaultsToVoice(t *testing.T) {
	reg := NewCallRegistry()
	session := reg.Initiate(uuid.New(), uuid.New(), "screenshare")
	assert.Equal(t, constants.CallTypeVoice, session.Type)
}

func TestCallRegistry_OnlyTargetMayAnswer(t *testing.T) {
	reg := NewCallRegistry()
	caller := uuid.New()
	callee := uuid.New()
	reg.Initiate(caller, callee, constants.CallTypeVoice)

	_, ok := reg.Answer(caller, callee)
	assert.False(t, ok, "initiator cannot answer its own offer")

	_, ok = reg.Answer(callee, caller)
	assert.True(t, ok)
}

func TestCallRegistry_AnswerAfterEndIsDropped(t *testing.T) {
	reg := NewCallRegistry()
	caller := uuid.New()
	callee := uuid.New()

	reg.Initiate(caller, callee, constants.CallTypeVoice)
	_, ok := reg.End(callee, caller)
	require.True(t, ok)

	_, ok = reg.Answer(callee, caller)
	assert.False(t, ok, "stale answer after decline must be dropped")
}

func TestCallRegistry_NewOfferSupersedes(t *testing.T) {
	reg := NewCallRegistry()
	caller := uuid.New()
	callee := uuid.New()

	first := reg.Initiate(caller, callee, constants.CallTypeVoice)
	second := reg.Initiate(caller, callee, constants.CallTypeVideo)

	assert.Equal(t, constants.CallStateEnded, first.State)
	assert.NotEqual(t, first.CallID, second.CallID)
	assert.Equal(t, constants.CallStateRinging, second.State)

	_, ok := reg.Answer(callee, caller)
	assert.True(t, ok, "the fresh session is answerable")
}

func TestCallRegistry_AllowSignal(t *testing.T) {
	reg := NewCallRegistry()
	caller := uuid.New()
	callee := uuid.New()
	stranger := uuid.New()

	assert.False(t, reg.AllowSignal(caller, callee), "no session yet")

	reg.Initiate(caller, callee, constants.CallTypeVoice)
	assert.True(t, reg.AllowSignal(caller, callee), "candidates flow while ringing")
	assert.True(t, reg.AllowSignal(callee, caller))
	assert.False(t, reg.AllowSignal(caller, stranger))

	reg.Answer(callee, caller)
	assert.True(t, reg.AllowSignal(caller, callee), "candidates flow while active")

	reg.End(caller, callee)
	assert.False(t, reg.AllowSignal(caller, callee))
}

func TestCallRegistry_EndAllFor(t *testing.T) {
	reg := NewCallRegistry()
	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()

	reg.Initiate(alice, bob, constants.CallTypeVoice)
	reg.Initiate(carol, alice, constants.CallTypeVideo)
	reg.Initiate(bob, carol, constants.CallTypeVoice)

	ended := reg.EndAllFor(alice)
	require.Len(t, ended, 2)
	for _, session := range ended {
		assert.True(t, session.Involves(alice))
		assert.Equal(t, constants.CallStateEnded, session.State)
	}

	assert.True(t, reg.AllowSignal(bob, carol), "unrelated session survives")
}

func TestCallSession_Peer(t *testing.T) {
	reg := NewCallRegistry()
	caller := uuid.New()
	callee := uuid.New()
	session := reg.Initiate(caller, callee, constants.CallTypeVoice)

	assert.Equal(t, callee, session.Peer(caller))
	assert.Equal(t, caller, session.Peer(callee))
}

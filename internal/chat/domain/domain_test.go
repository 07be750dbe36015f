package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChatRoomOrdersParticipants(t *testing.T) {
	now := time.Now()
	r1 := NewChatRoom("p1", "zoe", "adam", now)
	r2 := NewChatRoom("p1", "adam", "zoe", now)

	assert.Equal(t, "adam", r1.ParticipantA)
	assert.Equal(t, "zoe", r1.ParticipantB)
	assert.Equal(t, r1.ParticipantA, r2.ParticipantA)
	assert.Equal(t, r1.ParticipantB, r2.ParticipantB)
	assert.NotEqual(t, r1.ID, r2.ID)

	assert.True(t, r1.HasParticipant("zoe"))
	assert.False(t, r1.HasParticipant("eve"))
	assert.False(t, r1.HasParticipant(""))
	assert.Equal(t, "adam", r1.OtherParticipant("zoe"))
	assert.Equal(t, "zoe", r1.OtherParticipant("adam"))
}

func TestMessageState(t *testing.T) {
	m := NewChatMessage("r", "a", "hi", nil, time.Now())
	assert.Equal(t, StateSent, m.State())
	assert.Len(t, m.ID, 26)

	now := time.Now()
	m.DeliveredAt = &now
	assert.Equal(t, StateDelivered, m.State())

	m.ReadAt = &now
	assert.Equal(t, StateRead, m.State())
}

func TestMessageIDsSortByCreation(t *testing.T) {
	prev := NewChatMessage("r", "a", "x", nil, time.Now()).ID
	for i := 0; i < 100; i++ {
		next := NewChatMessage("r", "a", "x", nil, time.Now()).ID
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestEnvelope(t *testing.T) {
	t.Run("event", func(t *testing.T) {
		raw, err := json.Marshal(Envelope(UserOnlineStatusEvent{UserID: "u1", IsOnline: true}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"action":"user-online-status","success":true,"payload":{"user_id":"u1","is_online":true}}`, string(raw))
	})

	t.Run("error", func(t *testing.T) {
		raw, err := json.Marshal(Envelope(ErrorEvent{Message: "unauthorized"}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"action":"error","success":false,"error":"unauthorized"}`, string(raw))
	})
}

package realtime

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvek/teamboard-backend/internal/core/domain"
)

func newRouterFixture(t *testing.T) (*Registry, *Router) {
	t.Helper()
	registry := NewRegistry(testLogger())
	return registry, NewRouter(registry, testLogger())
}

func TestRouter_BroadcastReachesAllMembers(t *testing.T) {
	registry, router := newRouterFixture(t)
	room := domain.WorkspaceRoom("ws-1")

	a, senderA := newTestConnection()
	b, senderB := newTestConnection()
	require.NoError(t, registry.Register(a))
	require.NoError(t, registry.Register(b))
	registry.JoinRoom(a.ID, room)
	registry.JoinRoom(b.ID, room)

	router.Broadcast(room, domain.NewEvent(domain.EventUserOnline, nil), "")

	assert.Len(t, senderA.Events(), 1)
	assert.Len(t, senderB.Events(), 1)
}

func TestRouter_BroadcastExcludesSender(t *testing.T) {
	registry, router := newRouterFixture(t)
	room := domain.WorkspaceRoom("ws-1")

	actor, actorSender := newTestConnection()
	other, otherSender := newTestConnection()
	require.NoError(t, registry.Register(actor))
	require.NoError(t, registry.Register(other))
	registry.JoinRoom(actor.ID, room)
	registry.JoinRoom(other.ID, room)

	router.Broadcast(room, domain.NewEvent(domain.EventTaskUpdated, nil), actor.ID)

	assert.Empty(t, actorSender.Events())
	assert.Len(t, otherSender.Events(), 1)
}

func TestRouter_BroadcastSkipsNonMembers(t *testing.T) {
	registry, router := newRouterFixture(t)
	room := domain.WorkspaceRoom("ws-1")

	member, memberSender := newTestConnection()
	outsider, outsiderSender := newTestConnection()
	require.NoError(t, registry.Register(member))
	require.NoError(t, registry.Register(outsider))
	registry.JoinRoom(member.ID, room)

	router.Broadcast(room, domain.NewEvent(domain.EventChatMessage, nil), "")

	assert.Len(t, memberSender.Events(), 1)
	assert.Empty(t, outsiderSender.Events())
}

// One recipient's dead socket must not cost anyone else their delivery.
func TestRouter_BroadcastIsolatesPerRecipientFailures(t *testing.T) {
	registry, router := newRouterFixture(t)
	room := domain.WorkspaceRoom("ws-1")

	healthy1, sender1 := newTestConnection()
	broken, brokenSender := newTestConnection()
	brokenSender.failWith = errors.New("write: broken pipe")
	healthy2, sender2 := newTestConnection()

	for _, conn := range []*Connection{healthy1, broken, healthy2} {
		require.NoError(t, registry.Register(conn))
		registry.JoinRoom(conn.ID, room)
	}

	router.Broadcast(room, domain.NewEvent(domain.EventChatMessage, nil), "")

	assert.Len(t, sender1.Events(), 1)
	assert.Len(t, sender2.Events(), 1)
	assert.Empty(t, brokenSender.Events())
}

func TestRouter_BroadcastEmptyRoomIsNoOp(t *testing.T) {
	_, router := newRouterFixture(t)

	// Must not panic or error on a room nobody joined.
	router.Broadcast(domain.WorkspaceRoom("empty"), domain.NewEvent(domain.EventUserOnline, nil), "")
}

func TestRouter_SendToUserHitsEveryConnection(t *testing.T) {
	registry, router := newRouterFixture(t)
	userID := uuid.New()

	first := NewConnection(userID, "user@example.com", &recordingSender{})
	second := NewConnection(userID, "user@example.com", &recordingSender{})
	stranger, strangerSender := newTestConnection()
	require.NoError(t, registry.Register(first))
	require.NoError(t, registry.Register(second))
	require.NoError(t, registry.Register(stranger))

	router.SendToUser(userID, domain.NewEvent(domain.EventNotification, domain.NotificationPayload{
		Title: "task assigned",
	}))

	assert.Len(t, first.sender.(*recordingSender).Events(), 1)
	assert.Len(t, second.sender.(*recordingSender).Events(), 1)
	assert.Empty(t, strangerSender.Events())
}

func TestRouter_SendToUserOfflineUserIsNoOp(t *testing.T) {
	_, router := newRouterFixture(t)

	router.SendToUser(uuid.New(), domain.NewEvent(domain.EventNotification, nil))
}

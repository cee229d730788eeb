package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomConstructors(t *testing.T) {
	assert.Equal(t, RoomID("workspace:ws-1"), WorkspaceRoom("ws-1"))
	assert.Equal(t, RoomID("kanban:kb-1"), KanbanRoom("kb-1"))
	assert.Equal(t, RoomID("chat:thread-1"), ChatRoom("thread-1"))
}

func TestRoomID_IsWorkspace(t *testing.T) {
	assert.True(t, WorkspaceRoom("ws-1").IsWorkspace())
	assert.False(t, KanbanRoom("kb-1").IsWorkspace())
	assert.False(t, ChatRoom("thread-1").IsWorkspace())
}

func TestRoomID_WorkspaceID(t *testing.T) {
	assert.Equal(t, "ws-1", WorkspaceRoom("ws-1").WorkspaceID())
	assert.Equal(t, "", KanbanRoom("kb-1").WorkspaceID())
	assert.Equal(t, "", ChatRoom("thread-1").WorkspaceID())
}

package domain

import "strings"

// RoomID is a broadcast scope key. Rooms are derived, not materialized:
// a room exists exactly as long as some connection's room set contains
// its key. Three families by construction: workspace, kanban, chat.
type RoomID string

const (
	roomPrefixWorkspace = "workspace:"
	roomPrefixKanban    = "kanban:"
	roomPrefixChat      = "chat:"
)

// WorkspaceRoom returns the room key for a workspace.
func WorkspaceRoom(workspaceID string) RoomID {
	return RoomID(roomPrefixWorkspace + workspaceID)
}

// KanbanRoom returns the room key for a kanban board.
func KanbanRoom(kanbanID string) RoomID {
	return RoomID(roomPrefixKanban + kanbanID)
}

// ChatRoom returns the room key for a chat thread.
func ChatRoom(threadID string) RoomID {
	return RoomID(roomPrefixChat + threadID)
}

// IsWorkspace reports whether the room is a workspace room.
func (r RoomID) IsWorkspace() bool {
	return strings.HasPrefix(string(r), roomPrefixWorkspace)
}

// WorkspaceID returns the workspace identifier for a workspace room, or
// "" for any other room family.
func (r RoomID) WorkspaceID() string {
	if !r.IsWorkspace() {
		return ""
	}
	return strings.TrimPrefix(string(r), roomPrefixWorkspace)
}

package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownEventType is returned when an inbound frame carries a type
// outside the recognized set.
var ErrUnknownEventType = errors.New("unknown event type")

// EventType discriminates the wire messages exchanged over a realtime
// connection. The inbound set is closed: anything else yields an error
// reply and is otherwise ignored.
type EventType string

// Client-to-server event types.
const (
	EventJoinWorkspace  EventType = "join-workspace"
	EventLeaveWorkspace EventType = "leave-workspace"
	EventJoinKanban     EventType = "join-kanban"
	EventLeaveKanban    EventType = "leave-kanban"
	EventTaskUpdate     EventType = "task-update"
	EventKanbanUpdate   EventType = "kanban-update"
	EventChatMessage    EventType = "chat-message"
	EventUserPresence   EventType = "user-presence"
	EventTypingStart    EventType = "typing-start"
	EventTypingStop     EventType = "typing-stop"
)

// Server-to-client event types.
const (
	EventConnected        EventType = "connected"
	EventWorkspaceJoined  EventType = "workspace-joined"
	EventKanbanJoined     EventType = "kanban-joined"
	EventUserOnline       EventType = "user-online"
	EventUserOffline      EventType = "user-offline"
	EventUserJoinedKanban EventType = "user-joined-kanban"
	EventUserLeftKanban   EventType = "user-left-kanban"
	EventTaskUpdated      EventType = "task-updated"
	EventKanbanUpdated    EventType = "kanban-updated"
	EventNotification     EventType = "notification"
	EventError            EventType = "error"
)

// Event is the wire envelope, identical in both directions. Events are
// values: never mutated after creation, passed by value to every fanout
// recipient. Timestamp is producer-assigned epoch millis.
type Event struct {
	Type      EventType `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp int64     `json:"timestamp"`
}

// NewEvent builds an event stamped with the current time.
func NewEvent(t EventType, payload any) Event {
	return Event{Type: t, Payload: payload, Timestamp: time.Now().UnixMilli()}
}

// InboundMessage is a client frame before payload decoding.
type InboundMessage struct {
	Type      EventType       `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

// JoinWorkspacePayload subscribes the connection to a workspace room.
type JoinWorkspacePayload struct {
	WorkspaceID string `json:"workspaceId"`
}

// LeaveWorkspacePayload unsubscribes the connection from a workspace room.
type LeaveWorkspacePayload struct {
	WorkspaceID string `json:"workspaceId"`
}

// JoinKanbanPayload subscribes the connection to a kanban board room.
type JoinKanbanPayload struct {
	KanbanID string `json:"kanbanId"`
}

// LeaveKanbanPayload unsubscribes the connection from a kanban board room.
type LeaveKanbanPayload struct {
	KanbanID string `json:"kanbanId"`
}

// TaskUpdatePayload describes a task change on a kanban board. UpdatedBy
// is server-assigned on rebroadcast; clients cannot spoof it.
type TaskUpdatePayload struct {
	KanbanID  string `json:"kanbanId"`
	TaskID    string `json:"taskId"`
	Status    string `json:"status,omitempty"`
	Title     string `json:"title,omitempty"`
	Assignee  string `json:"assignee,omitempty"`
	UpdatedBy string `json:"updatedBy,omitempty"`
}

// KanbanUpdatePayload describes a board-level change (columns reordered,
// column renamed). Change is carried opaquely to the other members.
type KanbanUpdatePayload struct {
	KanbanID  string          `json:"kanbanId"`
	Change    json.RawMessage `json:"change,omitempty"`
	UpdatedBy string          `json:"updatedBy,omitempty"`
}

// ChatMessagePayload carries one chat message. ThreadID selects the chat
// room; when empty the message goes to the workspace room instead.
// MessageID, UserID and the envelope timestamp are server-assigned so the
// sender's echo carries the authoritative values.
type ChatMessagePayload struct {
	ThreadID    string `json:"threadId,omitempty"`
	WorkspaceID string `json:"workspaceId,omitempty"`
	Content     string `json:"content"`
	MessageID   string `json:"messageId,omitempty"`
	UserID      string `json:"userId,omitempty"`
}

// PresencePayload announces a user presence change inside a workspace.
type PresencePayload struct {
	WorkspaceID string `json:"workspaceId"`
	Status      string `json:"status"`
	UserID      string `json:"userId,omitempty"`
}

// TypingPayload announces typing start/stop in a chat thread, or in the
// workspace room when no thread is given.
type TypingPayload struct {
	ThreadID    string `json:"threadId,omitempty"`
	WorkspaceID string `json:"workspaceId,omitempty"`
	UserID      string `json:"userId,omitempty"`
}

// ConnectedPayload is the server's handshake acknowledgement.
type ConnectedPayload struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId"`
	Email        string `json:"email"`
}

// WorkspaceJoinedPayload confirms a join-workspace to the actor.
type WorkspaceJoinedPayload struct {
	WorkspaceID string `json:"workspaceId"`
}

// KanbanJoinedPayload confirms a join-kanban to the actor.
type KanbanJoinedPayload struct {
	KanbanID string `json:"kanbanId"`
}

// UserPresencePayload is emitted to rooms when a member comes online,
// goes offline, or joins/leaves a kanban board.
type UserPresencePayload struct {
	UserID      string `json:"userId"`
	WorkspaceID string `json:"workspaceId,omitempty"`
	KanbanID    string `json:"kanbanId,omitempty"`
}

// NotificationPayload is a personal notification pushed by another
// subsystem (task assignment, mention) to all of a user's connections.
type NotificationPayload struct {
	Title      string `json:"title"`
	Body       string `json:"body,omitempty"`
	Kind       string `json:"kind,omitempty"`
	ResourceID string `json:"resourceId,omitempty"`
}

// ErrorPayload is sent to a single connection when one of its frames
// could not be processed.
type ErrorPayload struct {
	Message string `json:"message"`
}

// DecodeInboundPayload decodes a raw payload into the typed payload for
// the given inbound event type. Unknown types return ErrUnknownEventType
// so the dispatcher can reply with an error event instead of crashing.
func DecodeInboundPayload(t EventType, raw json.RawMessage) (any, error) {
	var (
		payload any
		err     error
	)

	switch t {
	case EventJoinWorkspace:
		payload, err = decodeAs[JoinWorkspacePayload](raw)
	case EventLeaveWorkspace:
		payload, err = decodeAs[LeaveWorkspacePayload](raw)
	case EventJoinKanban:
		payload, err = decodeAs[JoinKanbanPayload](raw)
	case EventLeaveKanban:
		payload, err = decodeAs[LeaveKanbanPayload](raw)
	case EventTaskUpdate:
		payload, err = decodeAs[TaskUpdatePayload](raw)
	case EventKanbanUpdate:
		payload, err = decodeAs[KanbanUpdatePayload](raw)
	case EventChatMessage:
		payload, err = decodeAs[ChatMessagePayload](raw)
	case EventUserPresence:
		payload, err = decodeAs[PresencePayload](raw)
	case EventTypingStart, EventTypingStop:
		payload, err = decodeAs[TypingPayload](raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, t)
	}

	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", t, err)
	}
	return payload, nil
}

func decodeAs[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	err := json.Unmarshal(raw, &v)
	return v, err
}

package realtime

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/corvek/teamboard-backend/internal/core/domain"
)

// Dispatcher decodes inbound frames into typed events and routes each to
// its handler. Per-message failures (malformed JSON, unknown type, a
// handler blowing up) are reported to the offending connection via an
// error event and never terminate the connection; only transport-level
// failures do that, and those are the pumps' business.
type Dispatcher struct {
	registry *Registry
	router   *Router
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the registry and router.
func NewDispatcher(registry *Registry, router *Router, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		router:   router,
		logger:   logger.With("component", "realtime_dispatcher"),
	}
}

// HandleMessage processes one raw inbound frame from an active connection.
func (d *Dispatcher) HandleMessage(conn *Connection, raw []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("handler panic recovered",
				"connection_id", conn.ID,
				"panic", rec,
			)
			d.sendError(conn, "internal error while processing event")
		}
	}()

	var msg domain.InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		d.logger.Warn("malformed frame",
			"connection_id", conn.ID,
			"error", err,
		)
		d.sendError(conn, "malformed message: expected {type, payload, timestamp}")
		return
	}

	payload, err := domain.DecodeInboundPayload(msg.Type, msg.Payload)
	if err != nil {
		d.logger.Warn("rejected inbound event",
			"connection_id", conn.ID,
			"event_type", msg.Type,
			"error", err,
		)
		d.sendError(conn, err.Error())
		return
	}

	switch p := payload.(type) {
	case domain.JoinWorkspacePayload:
		d.handleJoinWorkspace(conn, p)
	case domain.LeaveWorkspacePayload:
		d.handleLeaveWorkspace(conn, p)
	case domain.JoinKanbanPayload:
		d.handleJoinKanban(conn, p)
	case domain.LeaveKanbanPayload:
		d.handleLeaveKanban(conn, p)
	case domain.TaskUpdatePayload:
		d.handleTaskUpdate(conn, p)
	case domain.KanbanUpdatePayload:
		d.handleKanbanUpdate(conn, p)
	case domain.ChatMessagePayload:
		d.handleChatMessage(conn, p)
	case domain.PresencePayload:
		d.handlePresence(conn, p)
	case domain.TypingPayload:
		d.handleTyping(conn, msg.Type, p)
	}
}

// HandleDisconnect tears down registry state for a closing connection:
// the record and all memberships are removed first, then every room the
// connection had joined is told the user went offline. The removal-first
// order guarantees no broadcast issued after this point can still reach
// the dead socket.
func (d *Dispatcher) HandleDisconnect(conn *Connection) {
	rooms := d.registry.RoomsOf(conn.ID)
	d.registry.Unregister(conn.ID)

	offline := domain.NewEvent(domain.EventUserOffline, domain.UserPresencePayload{
		UserID: conn.UserID.String(),
	})
	for _, room := range rooms {
		d.router.Broadcast(room, offline, conn.ID)
	}
}

func (d *Dispatcher) handleJoinWorkspace(conn *Connection, p domain.JoinWorkspacePayload) {
	if p.WorkspaceID == "" {
		d.sendError(conn, "join-workspace requires workspaceId")
		return
	}
	room := domain.WorkspaceRoom(p.WorkspaceID)
	d.registry.JoinRoom(conn.ID, room)

	d.router.Broadcast(room, domain.NewEvent(domain.EventUserOnline, domain.UserPresencePayload{
		UserID:      conn.UserID.String(),
		WorkspaceID: p.WorkspaceID,
	}), conn.ID)

	d.reply(conn, domain.EventWorkspaceJoined, domain.WorkspaceJoinedPayload{WorkspaceID: p.WorkspaceID})
}

func (d *Dispatcher) handleLeaveWorkspace(conn *Connection, p domain.LeaveWorkspacePayload) {
	if p.WorkspaceID == "" {
		d.sendError(conn, "leave-workspace requires workspaceId")
		return
	}
	room := domain.WorkspaceRoom(p.WorkspaceID)
	d.registry.LeaveRoom(conn.ID, room)

	d.router.Broadcast(room, domain.NewEvent(domain.EventUserOffline, domain.UserPresencePayload{
		UserID:      conn.UserID.String(),
		WorkspaceID: p.WorkspaceID,
	}), conn.ID)
}

func (d *Dispatcher) handleJoinKanban(conn *Connection, p domain.JoinKanbanPayload) {
	if p.KanbanID == "" {
		d.sendError(conn, "join-kanban requires kanbanId")
		return
	}
	room := domain.KanbanRoom(p.KanbanID)
	d.registry.JoinRoom(conn.ID, room)

	d.router.Broadcast(room, domain.NewEvent(domain.EventUserJoinedKanban, domain.UserPresencePayload{
		UserID:   conn.UserID.String(),
		KanbanID: p.KanbanID,
	}), conn.ID)

	d.reply(conn, domain.EventKanbanJoined, domain.KanbanJoinedPayload{KanbanID: p.KanbanID})
}

func (d *Dispatcher) handleLeaveKanban(conn *Connection, p domain.LeaveKanbanPayload) {
	if p.KanbanID == "" {
		d.sendError(conn, "leave-kanban requires kanbanId")
		return
	}
	room := domain.KanbanRoom(p.KanbanID)
	d.registry.LeaveRoom(conn.ID, room)

	d.router.Broadcast(room, domain.NewEvent(domain.EventUserLeftKanban, domain.UserPresencePayload{
		UserID:   conn.UserID.String(),
		KanbanID: p.KanbanID,
	}), conn.ID)
}

func (d *Dispatcher) handleTaskUpdate(conn *Connection, p domain.TaskUpdatePayload) {
	if p.KanbanID == "" || p.TaskID == "" {
		d.sendError(conn, "task-update requires kanbanId and taskId")
		return
	}
	room := domain.KanbanRoom(p.KanbanID)
	if !d.requireMembership(conn, room) {
		return
	}

	p.UpdatedBy = conn.UserID.String()
	d.router.Broadcast(room, domain.NewEvent(domain.EventTaskUpdated, p), conn.ID)
}

func (d *Dispatcher) handleKanbanUpdate(conn *Connection, p domain.KanbanUpdatePayload) {
	if p.KanbanID == "" {
		d.sendError(conn, "kanban-update requires kanbanId")
		return
	}
	room := domain.KanbanRoom(p.KanbanID)
	if !d.requireMembership(conn, room) {
		return
	}

	p.UpdatedBy = conn.UserID.String()
	d.router.Broadcast(room, domain.NewEvent(domain.EventKanbanUpdated, p), conn.ID)
}

// handleChatMessage is the one handler that does not exclude the sender:
// the echo carries the server-assigned message id and timestamp, which
// the sender's UI needs as the authoritative record.
func (d *Dispatcher) handleChatMessage(conn *Connection, p domain.ChatMessagePayload) {
	if p.Content == "" {
		d.sendError(conn, "chat-message requires content")
		return
	}

	room, ok := d.chatTarget(conn, p.ThreadID, p.WorkspaceID)
	if !ok {
		d.sendError(conn, "chat-message requires a joined thread or workspace")
		return
	}
	if !d.requireMembership(conn, room) {
		return
	}

	p.MessageID = uuid.NewString()
	p.UserID = conn.UserID.String()
	d.router.Broadcast(room, domain.NewEvent(domain.EventChatMessage, p), "")
}

func (d *Dispatcher) handlePresence(conn *Connection, p domain.PresencePayload) {
	if p.WorkspaceID == "" {
		d.sendError(conn, "user-presence requires workspaceId")
		return
	}
	room := domain.WorkspaceRoom(p.WorkspaceID)
	if !d.requireMembership(conn, room) {
		return
	}

	p.UserID = conn.UserID.String()
	d.router.Broadcast(room, domain.NewEvent(domain.EventUserPresence, p), conn.ID)
}

func (d *Dispatcher) handleTyping(conn *Connection, t domain.EventType, p domain.TypingPayload) {
	room, ok := d.chatTarget(conn, p.ThreadID, p.WorkspaceID)
	if !ok {
		d.sendError(conn, string(t)+" requires a joined thread or workspace")
		return
	}
	if !d.requireMembership(conn, room) {
		return
	}

	p.UserID = conn.UserID.String()
	d.router.Broadcast(room, domain.NewEvent(t, p), conn.ID)
}

// chatTarget resolves the room for chat and typing events: an explicit
// thread wins, then an explicit workspace, then whichever workspace room
// the connection currently has joined.
func (d *Dispatcher) chatTarget(conn *Connection, threadID, workspaceID string) (domain.RoomID, bool) {
	if threadID != "" {
		return domain.ChatRoom(threadID), true
	}
	if workspaceID != "" {
		return domain.WorkspaceRoom(workspaceID), true
	}
	for _, room := range d.registry.RoomsOf(conn.ID) {
		if room.IsWorkspace() {
			return room, true
		}
	}
	return "", false
}

// requireMembership enforces that senders join a room before
// broadcasting into it. Presence events emitted by the lifecycle on
// disconnect are the only exemption, and those never pass through here.
func (d *Dispatcher) requireMembership(conn *Connection, room domain.RoomID) bool {
	if d.registry.IsMember(conn.ID, room) {
		return true
	}
	d.sendError(conn, "not a member of "+string(room))
	return false
}

func (d *Dispatcher) reply(conn *Connection, t domain.EventType, payload any) {
	if err := conn.Send(domain.NewEvent(t, payload)); err != nil {
		d.logger.Warn("failed to send reply",
			"connection_id", conn.ID,
			"event_type", t,
			"error", err,
		)
	}
}

func (d *Dispatcher) sendError(conn *Connection, message string) {
	if err := conn.Send(domain.NewEvent(domain.EventError, domain.ErrorPayload{Message: message})); err != nil {
		d.logger.Warn("failed to send error event",
			"connection_id", conn.ID,
			"error", err,
		)
	}
}

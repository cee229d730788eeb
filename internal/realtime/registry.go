package realtime

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corvek/teamboard-backend/internal/core/domain"
	apperrors "github.com/corvek/teamboard-backend/internal/core/errors"
)

// Sender is the opaque send capability of one live socket. The registry
// and router never touch the transport directly; a failed Send is logged
// and the event is lost for that recipient (best-effort delivery).
type Sender interface {
	Send(event domain.Event) error
}

// Connection is the ephemeral record for one live socket tied to exactly
// one authenticated user. The room set is owned by the Registry: it is
// only read or mutated while holding the registry lock.
type Connection struct {
	ID     string
	UserID uuid.UUID
	Email  string

	sender Sender
	rooms  map[domain.RoomID]struct{}
}

// NewConnection builds a connection record for a freshly accepted socket.
func NewConnection(userID uuid.UUID, email string, sender Sender) *Connection {
	return &Connection{
		ID:     NewConnectionID(userID),
		UserID: userID,
		Email:  email,
		sender: sender,
		rooms:  make(map[domain.RoomID]struct{}),
	}
}

// NewConnectionID generates a process-unique connection identifier.
func NewConnectionID(userID uuid.UUID) string {
	return fmt.Sprintf("%s-%d", userID, time.Now().UnixNano())
}

// Send delivers one event over the connection's socket.
func (c *Connection) Send(event domain.Event) error {
	return c.sender.Send(event)
}

// Registry is the single source of truth for who is connected and in
// which rooms, scoped to one server process. It is explicitly
// constructed and injected; state lives and dies with the process.
// Rooms are derived, never materialized: a room is the set of
// connections whose room set contains its key.
//
// All operations are synchronous and mutually exclusive; none of them
// performs I/O or blocks on anything but the lock.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*Connection
	byUser map[uuid.UUID]map[string]*Connection
	logger *slog.Logger
}

// NewRegistry creates an empty connection registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		conns:  make(map[string]*Connection),
		byUser: make(map[uuid.UUID]map[string]*Connection),
		logger: logger.With("component", "realtime_registry"),
	}
}

// Register stores a new connection with an empty room set. A duplicate
// connection ID is a precondition violation given the generation scheme
// and is reported as an error rather than silently replacing the socket.
func (r *Registry) Register(conn *Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[conn.ID]; exists {
		return fmt.Errorf("%w: %s", apperrors.ErrConnectionExists, conn.ID)
	}

	r.conns[conn.ID] = conn
	if r.byUser[conn.UserID] == nil {
		r.byUser[conn.UserID] = make(map[string]*Connection)
	}
	r.byUser[conn.UserID][conn.ID] = conn

	r.logger.Info("connection registered",
		"connection_id", conn.ID,
		"user_id", conn.UserID,
		"user_connections", len(r.byUser[conn.UserID]),
	)
	return nil
}

// Unregister removes the connection and all its room memberships.
// Idempotent: unknown IDs are a no-op.
func (r *Registry) Unregister(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connectionID]
	if !ok {
		return
	}

	delete(r.conns, connectionID)
	if userConns, ok := r.byUser[conn.UserID]; ok {
		delete(userConns, connectionID)
		if len(userConns) == 0 {
			delete(r.byUser, conn.UserID)
		}
	}
	conn.rooms = make(map[domain.RoomID]struct{})

	r.logger.Info("connection unregistered",
		"connection_id", connectionID,
		"user_id", conn.UserID,
	)
}

// JoinRoom adds the room to the connection's room set. No-op if the
// connection is absent or already a member.
func (r *Registry) JoinRoom(connectionID string, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connectionID]
	if !ok {
		return
	}
	conn.rooms[room] = struct{}{}

	r.logger.Debug("joined room",
		"connection_id", connectionID,
		"room", room,
	)
}

// LeaveRoom removes the room from the connection's room set. No-op if
// the connection is absent or not a member.
func (r *Registry) LeaveRoom(connectionID string, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connectionID]
	if !ok {
		return
	}
	delete(conn.rooms, room)

	r.logger.Debug("left room",
		"connection_id", connectionID,
		"room", room,
	)
}

// IsMember reports whether the connection currently belongs to the room.
func (r *Registry) IsMember(connectionID string, room domain.RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[connectionID]
	if !ok {
		return false
	}
	_, member := conn.rooms[room]
	return member
}

// MembersOf returns every registered connection whose room set contains
// the given room, as of call time.
func (r *Registry) MembersOf(room domain.RoomID) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var members []*Connection
	for _, conn := range r.conns {
		if _, ok := conn.rooms[room]; ok {
			members = append(members, conn)
		}
	}
	return members
}

// ConnectionsOf returns all live connections for a user. A user with two
// browser tabs open has two entries here.
func (r *Registry) ConnectionsOf(userID uuid.UUID) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userConns, ok := r.byUser[userID]
	if !ok {
		return nil
	}
	conns := make([]*Connection, 0, len(userConns))
	for _, conn := range userConns {
		conns = append(conns, conn)
	}
	return conns
}

// RoomsOf returns a snapshot of the connection's current room set.
func (r *Registry) RoomsOf(connectionID string) []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[connectionID]
	if !ok {
		return nil
	}
	rooms := make([]domain.RoomID, 0, len(conn.rooms))
	for room := range conn.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// WorkspaceUsers returns the distinct users currently in a workspace room.
func (r *Registry) WorkspaceUsers(workspaceID string) []uuid.UUID {
	room := domain.WorkspaceRoom(workspaceID)

	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[uuid.UUID]struct{})
	var users []uuid.UUID
	for _, conn := range r.conns {
		if _, ok := conn.rooms[room]; !ok {
			continue
		}
		if _, dup := seen[conn.UserID]; dup {
			continue
		}
		seen[conn.UserID] = struct{}{}
		users = append(users, conn.UserID)
	}
	return users
}

// ConnectionCount returns the total number of live connections.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// RoomCount returns the number of distinct rooms with at least one member.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make(map[domain.RoomID]struct{})
	for _, conn := range r.conns {
		for room := range conn.rooms {
			rooms[room] = struct{}{}
		}
	}
	return len(rooms)
}

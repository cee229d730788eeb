package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/corvek/teamboard-backend/internal/core/domain"
	apperrors "github.com/corvek/teamboard-backend/internal/core/errors"
	"github.com/corvek/teamboard-backend/internal/core/ports"
)

// PresenceResponse lists the users currently online in a workspace.
type PresenceResponse struct {
	WorkspaceID string   `json:"workspaceId"`
	UserIDs     []string `json:"userIds"`
	Count       int      `json:"count"`
}

// NotifyRequest is the JSON payload for pushing a notification to a
// user's live connections.
type NotifyRequest struct {
	UserID     string `json:"userId"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	Kind       string `json:"kind"`
	ResourceID string `json:"resourceId,omitempty"`
}

// PresenceHandler exposes the realtime presence surface over REST so
// non-websocket subsystems can query who is online and push
// notifications.
type PresenceHandler struct {
	presence     ports.Presence
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewPresenceHandler creates a new PresenceHandler.
func NewPresenceHandler(
	presence ports.Presence,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *PresenceHandler {
	return &PresenceHandler{
		presence:     presence,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "presence"),
	}
}

// RegisterRoutes registers the presence routes.
func (h *PresenceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/workspaces/{workspaceID}/presence", h.HandleWorkspacePresence)
	r.Post("/notifications", h.HandleNotify)
}

// HandleWorkspacePresence handles GET /workspaces/{workspaceID}/presence.
func (h *PresenceHandler) HandleWorkspacePresence(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "workspaceID")
	if workspaceID == "" {
		h.errorHandler.Handle(w, r, apperrors.ErrBadRequest)
		return
	}

	users := h.presence.GetWorkspaceUsers(workspaceID)

	userIDs := make([]string, 0, len(users))
	for _, id := range users {
		userIDs = append(userIDs, id.String())
	}

	WriteJSON(w, http.StatusOK, PresenceResponse{
		WorkspaceID: workspaceID,
		UserIDs:     userIDs,
		Count:       len(userIDs),
	})
}

// HandleNotify handles POST /notifications.
func (h *PresenceHandler) HandleNotify(w http.ResponseWriter, r *http.Request) {
	var req NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.Handle(w, r, apperrors.ErrBadRequest)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.ErrBadRequest)
		return
	}
	if req.Title == "" {
		h.errorHandler.Handle(w, r, apperrors.ErrBadRequest)
		return
	}

	h.presence.SendNotificationToUser(userID, domain.NotificationPayload{
		Title:      req.Title,
		Body:       req.Body,
		Kind:       req.Kind,
		ResourceID: req.ResourceID,
	})

	// Delivery is best-effort; accepted means queued toward any live
	// connections, not that the user saw it.
	w.WriteHeader(http.StatusAccepted)
}

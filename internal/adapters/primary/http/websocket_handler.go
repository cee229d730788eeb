package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/corvek/teamboard-backend/internal/config"
	"github.com/corvek/teamboard-backend/internal/core/domain"
	"github.com/corvek/teamboard-backend/internal/core/ports"
	"github.com/corvek/teamboard-backend/internal/realtime"
)

// WebSocketHandler owns the accept -> authenticate -> serve handshake
// for realtime connections. Authentication happens after the upgrade so
// rejections reach the browser as application close codes (4001 no
// token, 4003 invalid session, 4500 setup failure) instead of opaque
// HTTP failures the browser WebSocket API cannot observe.
type WebSocketHandler struct {
	hub         *realtime.Hub
	sessions    ports.SessionValidator
	upgrader    websocket.Upgrader
	authTimeout time.Duration
	logger      *slog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(
	hub *realtime.Hub,
	sessions ports.SessionValidator,
	cfg *config.Config,
	logger *slog.Logger,
) *WebSocketHandler {
	handler := &WebSocketHandler{
		hub:         hub,
		sessions:    sessions,
		authTimeout: cfg.WebSocket.AuthTimeout,
		logger:      logger,
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		CheckOrigin:     handler.makeOriginChecker(cfg),
	}

	return handler
}

// makeOriginChecker creates an origin checking function based on configuration.
func (h *WebSocketHandler) makeOriginChecker(cfg *config.Config) func(r *http.Request) bool {
	allowedOrigins := cfg.WebSocket.AllowedOrigins

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// In development mode, allow all origins (but log a warning)
		if cfg.IsDevelopment() {
			if origin != "" {
				h.logger.Warn("allowing websocket connection in development mode",
					"origin", origin,
					"remote_addr", r.RemoteAddr,
				)
			}
			return true
		}

		// No origin header (same-origin request or non-browser client)
		if origin == "" {
			return true
		}

		parsedOrigin, err := url.Parse(origin)
		if err != nil {
			h.logger.Warn("failed to parse websocket origin",
				"origin", origin,
				"error", err,
			)
			return false
		}

		originHost := parsedOrigin.Host

		for _, allowed := range allowedOrigins {
			// Support wildcard subdomains like "*.example.com"
			if strings.HasPrefix(allowed, "*.") {
				suffix := allowed[1:] // Remove the "*", keep ".example.com"
				if strings.HasSuffix(originHost, suffix) || originHost == allowed[2:] {
					return true
				}
			} else if originHost == allowed {
				return true
			}
		}

		h.logger.Warn("websocket connection rejected due to origin",
			"origin", origin,
			"remote_addr", r.RemoteAddr,
			"allowed_origins", allowedOrigins,
		)
		return false
	}
}

// bearerToken extracts the token from the ?token= query parameter or the
// Authorization header.
func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	authHeader := r.Header.Get("Authorization")
	if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// ServeHTTP handles WebSocket connection requests.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error response.
		h.logger.Error("failed to upgrade websocket connection",
			"request_id", requestID,
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		return
	}

	token := bearerToken(r)
	if token == "" {
		h.logger.Warn("websocket connection rejected: missing token",
			"request_id", requestID,
			"remote_addr", r.RemoteAddr,
		)
		realtime.CloseWithCode(conn, realtime.CloseAuthRequired, "authentication required")
		return
	}

	// A stalled validator must not hold a half-open connection forever.
	ctx, cancel := context.WithTimeout(r.Context(), h.authTimeout)
	defer cancel()

	session, err := h.sessions.ValidateSession(ctx, token)
	if err != nil {
		h.logger.Warn("websocket connection rejected: invalid session",
			"request_id", requestID,
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		realtime.CloseWithCode(conn, realtime.CloseInvalidSession, "invalid or expired session")
		return
	}

	client := realtime.NewClient(conn, session, h.hub.Dispatcher(), h.logger)
	if err := h.hub.Registry().Register(client.Connection); err != nil {
		h.logger.Error("failed to register websocket connection",
			"request_id", requestID,
			"user_id", session.UserID,
			"error", err,
		)
		realtime.CloseWithCode(conn, realtime.CloseSetupFailure, "internal error")
		return
	}

	h.logger.Info("websocket connection established",
		"request_id", requestID,
		"connection_id", client.Connection.ID,
		"user_id", session.UserID,
		"remote_addr", r.RemoteAddr,
	)

	go client.WritePump()
	go client.ReadPump()

	if err := client.Send(domain.NewEvent(domain.EventConnected, domain.ConnectedPayload{
		ConnectionID: client.Connection.ID,
		UserID:       session.UserID.String(),
		Email:        session.Email,
	})); err != nil {
		h.logger.Warn("failed to send connected event",
			"connection_id", client.Connection.ID,
			"error", err,
		)
	}
}

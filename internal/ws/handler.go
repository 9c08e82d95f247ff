package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"chat-relay/internal/auth"
	"chat-relay/internal/models"
	"chat-relay/internal/observability"
	"chat-relay/internal/rooms"
)

// Handler upgrades chat websocket connections and runs their read loops.
type Handler struct {
	hub       *Hub
	verifier  auth.Verifier
	directory *rooms.Directory
	log       *slog.Logger

	// requireRooms rejects joins to rooms the directory does not know.
	requireRooms bool
}

// NewHandler constructs the websocket handler.
func NewHandler(hub *Hub, verifier auth.Verifier, directory *rooms.Directory, log *slog.Logger, requireRooms bool) *Handler {
	return &Handler{hub: hub, verifier: verifier, directory: directory, log: log, requireRooms: requireRooms}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection, authenticates it from the access cookie
// and registers the session for room fan-out.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("chat-relay/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	room := c.Query("room")
	if room == "" {
		room = models.DefaultRoom
	}

	if h.requireRooms {
		exists, err := h.directory.Exists(ctx, room)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "room lookup failed"})
			return
		}
		if !exists {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown room"})
			return
		}
	}

	identity, authErr := h.verifier.Authenticate(c.Request)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	if authErr != nil {
		// Close with a policy violation; the peer never joins the registry.
		deadline := time.Now().Add(closeWriteWait)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"), deadline)
		_ = conn.Close()
		observability.IncWSEvent("unauthorized")
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		Label:       identity.Label,
		IsAdmin:     identity.IsAdmin,
		Room:        room,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}

	var session *Session
	session = NewSession(conn, info, func() {
		h.hub.Unregister(room, session)
		observability.DecWSActive()
		observability.IncWSEvent("disconnect")
		h.log.Info("ws disconnect",
			"conn_id", info.ConnID, "room", room,
			"duration_ms", time.Since(info.ConnectedAt).Milliseconds())
	})

	observability.IncWSActive()
	observability.IncWSEvent("connect")
	h.log.Info("ws connect", "conn_id", info.ConnID, "room", room, "sender", identity.Label, "ip", info.IP)

	// The request context dies with the handshake; the session outlives it.
	connCtx := context.WithoutCancel(ctx)

	if err := h.hub.Register(connCtx, room, session); err != nil {
		h.log.Warn("replay delivery failed", "conn_id", info.ConnID, "room", room, "error", err)
		return
	}

	go h.readLoop(connCtx, session, room, identity.Label)
}

func (h *Handler) readLoop(ctx context.Context, session *Session, room, sender string) {
	defer session.Close()
	for {
		text, err := session.ReadText()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				!errors.Is(err, errNonTextFrame) {
				observability.IncWSEvent("read_error")
			}
			return
		}
		h.hub.Ingest(ctx, room, text, sender)
	}
}

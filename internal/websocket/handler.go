package websocket

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
)

// randomClientID generates an id for clients that don't supply one via the
// "client" query parameter.
func randomClientID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return "anon-" + hex.EncodeToString(buf)
}

// Handler handles WebSocket HTTP upgrade requests and carries the
// progress/control notifier used by internal/queue and internal/stream to
// push job_progress, chunk_ready and player_state events (spec.md §6.3).
type Handler struct {
	hub      *Hub
	notifier *ProgressNotifier
}

// NewHandler creates a new WebSocket handler. There is no user-auth layer
// in this core engine's scope: any connecting client is accepted and
// identified by the "client" query parameter (or a generated id if absent).
func NewHandler(hub *Hub) *Handler {
	return &Handler{
		hub:      hub,
		notifier: NewProgressNotifier(hub, time.Second),
	}
}

// Notifier returns the handler's progress notifier for wiring into
// internal/queue and internal/stream.
func (h *Handler) Notifier() *ProgressNotifier {
	return h.notifier
}

// HandleWebSocket upgrades a Gin request to a WebSocket connection.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	clientID := c.Query("client")
	if clientID == "" {
		clientID = randomClientID()
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(h.hub, conn, clientID)
	client.RemoteAddr = c.ClientIP()
	client.UserAgent = c.Request.UserAgent()

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// HandleMetrics returns WebSocket hub metrics for monitoring.
func (h *Handler) HandleMetrics(c *gin.Context) {
	metrics := h.hub.GetMetrics()
	c.JSON(http.StatusOK, gin.H{
		"websocket":        metrics,
		"connected_clients": h.hub.GetConnectedClientIDs(),
		"timestamp":        time.Now().UTC(),
	})
}

// Shutdown gracefully drains the hub.
func (h *Handler) Shutdown(ctx context.Context) error {
	return h.hub.Shutdown(ctx)
}

// GetHub returns the underlying hub.
func (h *Handler) GetHub() *Hub {
	return h.hub
}

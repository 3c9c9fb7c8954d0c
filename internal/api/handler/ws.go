package handler

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"resolveit/backend/internal/eventhub"
	"resolveit/backend/internal/logging"
)

func (h *Handler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || h.originAllowed(origin)
		},
	}
}

// ServeWebSocket upgrades the connection and streams complaint events the
// actor may see.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	actor := actorFrom(c)

	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Default().Warn("websocket upgrade failed", "error", err)
		return
	}

	client := eventhub.NewWebSocketClient(h.Hub, conn, actor)
	if err := h.Hub.Register(client); err != nil {
		logging.Default().Warn("event hub rejected client", "error", err)
		_ = conn.Close()
		return
	}
	client.Run()
}

func (h *Handler) originAllowed(origin string) bool {
	if len(h.AllowedOrigins) == 0 || slices.Contains(h.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(h.AllowedOrigins, origin)
}

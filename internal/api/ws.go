package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Auth happens in the middleware; cross-origin dashboards are fine.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the connection and keeps it registered with the hub
// until the client goes away. The server only pushes; client frames are
// read and discarded to service control messages.
func (h *Handler) ServeWS(c *gin.Context) {
	user := currentUser(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed for user %d: %v", user.ID, err)
		return
	}

	h.hub.Register(user.ID, conn)
	defer func() {
		h.hub.Unregister(user.ID, conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

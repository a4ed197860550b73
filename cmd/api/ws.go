package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mvicentini/dispensa/internal/middleware"
	"github.com/mvicentini/dispensa/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin access is already policed by the CORS middleware and the
	// bearer token; the upgrade itself accepts any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the connection and registers it in the hub so the caller
// receives list-change events for every list they are a member of.
func (s *Server) ServeWS(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "email", claims.Email, "error", err)
		return
	}

	sender := realtime.NewConnSender(conn)
	id := s.hub.Register(claims.Email, sender)
	s.log.Debug("websocket connected", "email", claims.Email, "conn_id", id)

	defer func() {
		s.hub.Unregister(claims.Email, id)
		_ = conn.Close()
		s.log.Debug("websocket disconnected", "email", claims.Email, "conn_id", id)
	}()

	// The stream is server-to-client only; drain client frames until the
	// connection drops so control messages keep being processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/requestdata"
	"github.com/ai-shadow/shadow-backend/internal/socket"
)

// NewUpgrader accepts upgrades from the configured origins only. An empty list
// allows any origin.
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if len(allowed) == 0 || origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}

// WsHandler upgrades an authenticated request and pumps chat events to it.
// The connection outlives the request, so the pumps hang off base, which is
// cancelled on server shutdown.
func WsHandler(base context.Context, hub *socket.Hub, upgrader websocket.Upgrader, log *logger.Logger) gin.HandlerFunc {
	wsLog := log.With("handler", "WsHandler")
	return func(c *gin.Context) {
		userID := requestdata.UserID(c.Request.Context())
		if userID == uuid.Nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Access denied. No token provided."})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			wsLog.Warn("Failed to upgrade to websocket", "error", err)
			return
		}
		ctx, cancel := context.WithCancel(base)
		client := socket.NewClient(conn, hub, userID, cancel, wsLog)
		wsLog.Debug("websocket connected", "client", client.ID, "userID", userID)

		go client.WriteLoop(ctx)
		go client.ReadLoop(ctx)
	}
}

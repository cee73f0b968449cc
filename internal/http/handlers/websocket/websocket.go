package websocket

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/omegonstudio/fotos-patagonia-sub000/internal/utils/jwt"
	ws "github.com/omegonstudio/fotos-patagonia-sub000/internal/websocket"
)

// Serve upgrades the connection and registers the client with the hub.
// Browsers cannot set headers on websocket handshakes, so the optional JWT
// arrives as a query parameter instead.
// @Summary Subscribe to real-time catalog events
// @Description Upgrade to a WebSocket that streams photo.created and batch.completed events
// @Tags events
// @Param token query string false "JWT token"
// @Router /ws [get]
func Serve(hub *ws.Hub, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := uuid.NewString()
		if token := r.URL.Query().Get("token"); token != "" {
			userID, err := jwt.ExtractUserIDFromToken(token, jwtSecret)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			clientID = "user:" + userID + ":" + clientID
		}

		conn, err := ws.Upgrader().Upgrade(w, r, nil)
		if err != nil {
			slog.Error("WebSocket upgrade failed", slog.String("error", err.Error()))
			return
		}

		client := ws.NewClient(conn, clientID, hub)
		hub.RegisterClient(client)
		client.Start()
	}
}

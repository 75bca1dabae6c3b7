package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/pulsechat/internal/websocket"
	"github.com/rs/zerolog"
)

func HandleWebSocket(hub *websocket.Hub, logger *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident, ok := IdentityFromContext(r.Context())
		if !ok {
			logger.Error().Msg("Identity not found in context")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error().Err(err).Msg("WebSocket upgrade failed")
			return
		}

		client := websocket.NewClient(hub, conn, ident, uuid.NewString())
		hub.Register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}

package handlers

import (
	"net/http"

	"github.com/pulsechat/internal/presence"
)

// ActivityMiddleware keeps request-driven bots visible as online. Bots
// integrate over plain HTTP rather than a WebSocket connection, so every
// authenticated request from one counts as activity and defers its
// inactivity timeout. Human users are untouched: their presence is driven
// by the real-time connection alone.
func ActivityMiddleware(presenceService *presence.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ident, ok := IdentityFromContext(r.Context()); ok && ident.IsBot {
				presenceService.TouchBotActivity(ident.UserID, ident.DisplayName)
			}
			next.ServeHTTP(w, r)
		})
	}
}

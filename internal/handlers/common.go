package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type contextKey string

const identityKey contextKey = "identity"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func extractToken(r *http.Request) string {
	tokenString := r.Header.Get("Authorization")
	if tokenString != "" {
		return strings.TrimPrefix(tokenString, "Bearer ")
	}
	// Browser WebSocket clients cannot set headers on the upgrade request.
	return r.URL.Query().Get("token")
}

func LoggingMiddleware(logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote", r.RemoteAddr).
				Dur("duration", time.Since(start)).
				Msg("Request handled")
		})
	}
}

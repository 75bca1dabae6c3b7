package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pulsechat/internal/presence"
	"github.com/pulsechat/internal/service"
	"github.com/pulsechat/internal/websocket"
	"github.com/rs/zerolog"
)

func SetupRoutes(
	router *mux.Router,
	hub *websocket.Hub,
	authService service.AuthService,
	presenceService *presence.Service,
	logger *zerolog.Logger,
) {
	authMiddleware := AuthMiddleware(authService, logger)

	router.Handle("/ws", authMiddleware(HandleWebSocket(hub, logger))).Methods("GET")

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(authMiddleware)
	apiRouter.Use(ActivityMiddleware(presenceService))

	apiRouter.HandleFunc("/presence/status", HandleUserStatus(presenceService, logger)).Methods("GET")
	apiRouter.HandleFunc("/presence/online", HandleOnlineUsers(presenceService, logger)).Methods("GET")

	router.HandleFunc("/health", healthCheck).Methods("GET")
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pulsechat/internal/models"
	"github.com/pulsechat/internal/presence"
	"github.com/rs/zerolog"
)

// HandleUserStatus reports a single user's effective status. Users with no
// tracked state report offline. The notification subsystem uses this for
// do-not-disturb gating.
func HandleUserStatus(presenceService *presence.Service, logger *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			logger.Warn().Msg("Missing user_id parameter")
			http.Error(w, "Missing user_id parameter", http.StatusBadRequest)
			return
		}

		status := models.UserPresence{
			UserID: userID,
			Status: presenceService.Status(userID),
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status); err != nil {
			logger.Error().Err(err).Msg("Failed to encode status response")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
	}
}

// HandleOnlineUsers returns the full list of users that are not offline.
func HandleOnlineUsers(presenceService *presence.Service, logger *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users := presenceService.OnlineUsers()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(users); err != nil {
			logger.Error().Err(err).Msg("Failed to encode online users response")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
	}
}

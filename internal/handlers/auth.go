package handlers

import (
	"context"
	"net/http"

	"github.com/pulsechat/internal/models"
	"github.com/pulsechat/internal/service"
	"github.com/rs/zerolog"
)

func AuthMiddleware(authService service.AuthService, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r)
			if tokenString == "" {
				logger.Warn().Msg("Missing authorization token")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ident, err := authService.ValidateToken(tokenString)
			if err != nil {
				logger.Warn().Err(err).Msg("Invalid authorization token")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the authenticated identity stored by
// AuthMiddleware.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(models.Identity)
	return ident, ok
}

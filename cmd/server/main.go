package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"github.com/pulsechat/internal/config"
	"github.com/pulsechat/internal/handlers"
	"github.com/pulsechat/internal/presence"
	"github.com/pulsechat/internal/service"
	"github.com/pulsechat/internal/websocket"
	"github.com/pulsechat/pkg/jwt"
)

func main() {
	cfg := config.LoadConfig()
	logger := config.SetupLogger(cfg)

	jwtService := jwt.NewJWTService(cfg.JWTSecret)
	authService := service.NewAuthService(jwtService)

	presenceService := presence.NewService(presence.Config{
		GracePeriod:          cfg.GracePeriod,
		IdleTimeout:          cfg.IdleTimeout,
		BotInactivityTimeout: cfg.BotInactivityTimeout,
	}, &logger.Logger)

	hub := websocket.NewHub(presenceService, &logger.Logger)
	presenceService.Subscribe(hub.PublishStatusChange)
	go hub.Run()

	router := mux.NewRouter()
	router.Use(handlers.LoggingMiddleware(&logger.Logger))

	handlers.SetupRoutes(router, hub, authService, presenceService, &logger.Logger)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	gracefulShutdown(server, hub, presenceService, &logger.Logger)
}

func gracefulShutdown(server *http.Server, hub *websocket.Hub, presenceService *presence.Service, logger *zerolog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutting down server...")

	hub.Shutdown()
	presenceService.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown error")
	}

	logger.Info().Msg("Server stopped")
}

package config

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Port                 string
	JWTSecret            string
	LogLevel             string
	GracePeriod          time.Duration
	IdleTimeout          time.Duration
	BotInactivityTimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Port:                 getEnv("PORT", "8081"),
		JWTSecret:            getEnv("JWT_SECRET", "default-secret-key"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		GracePeriod:          getDurationEnv("PRESENCE_GRACE_PERIOD", 30*time.Second),
		IdleTimeout:          getDurationEnv("PRESENCE_IDLE_TIMEOUT", 5*time.Minute),
		BotInactivityTimeout: getDurationEnv("BOT_INACTIVITY_TIMEOUT", 5*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

type Logger struct {
	zerolog.Logger
}

func SetupLogger(cfg *Config) *Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &Logger{logger}
}

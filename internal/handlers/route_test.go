package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsechat/internal/models"
	"github.com/pulsechat/internal/presence"
	"github.com/pulsechat/internal/service"
	"github.com/pulsechat/internal/websocket"
	"github.com/pulsechat/pkg/jwt"
)

type testEnv struct {
	router     *mux.Router
	presence   *presence.Service
	jwtService jwt.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.Nop()

	jwtService := jwt.NewJWTService("test-secret")
	authService := service.NewAuthService(jwtService)
	presenceService := presence.NewService(presence.DefaultConfig(), &logger)
	t.Cleanup(presenceService.Shutdown)

	hub := websocket.NewHub(presenceService, &logger)

	router := mux.NewRouter()
	SetupRoutes(router, hub, authService, presenceService, &logger)

	return &testEnv{router: router, presence: presenceService, jwtService: jwtService}
}

func (e *testEnv) get(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.get(t, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.get(t, "/api/presence/online", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.get(t, "/api/presence/online", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token, err := env.jwtService.GenerateToken("alice", "Alice", false)
	require.NoError(t, err)

	w := env.get(t, "/api/presence/status?user_id=bob", token)
	require.Equal(t, http.StatusOK, w.Code)

	var status models.UserPresence
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "bob", status.UserID)
	assert.Equal(t, models.StatusOffline, status.Status)

	env.presence.Connect("bob", "c1", "Bob", false)
	w = env.get(t, "/api/presence/status?user_id=bob", token)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, models.StatusOnline, status.Status)
}

func TestUserStatusEndpointMissingParam(t *testing.T) {
	env := newTestEnv(t)
	token, err := env.jwtService.GenerateToken("alice", "Alice", false)
	require.NoError(t, err)

	w := env.get(t, "/api/presence/status", token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOnlineUsersEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token, err := env.jwtService.GenerateToken("alice", "Alice", false)
	require.NoError(t, err)

	env.presence.Connect("bob", "c1", "Bob", false)
	env.presence.TouchBotActivity("bot-1", "Reminder Bot")

	w := env.get(t, "/api/presence/online", token)
	require.Equal(t, http.StatusOK, w.Code)

	var users []models.UserPresence
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users, 2)
}

func TestBotRequestsCountAsActivity(t *testing.T) {
	env := newTestEnv(t)
	botToken, err := env.jwtService.GenerateToken("bot-1", "Reminder Bot", true)
	require.NoError(t, err)

	require.Equal(t, models.StatusOffline, env.presence.Status("bot-1"))

	w := env.get(t, "/api/presence/online", botToken)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Eventually(t, func() bool {
		return env.presence.Status("bot-1") == models.StatusOnline
	}, time.Second, 5*time.Millisecond)

	before, _ := heartbeatOf(env.presence, "bot-1")
	time.Sleep(10 * time.Millisecond)
	env.get(t, "/api/presence/online", botToken)
	after, ok := heartbeatOf(env.presence, "bot-1")
	require.True(t, ok)
	assert.True(t, after.After(before), "each request must refresh the bot's heartbeat")
}

func TestHumanRequestsDoNotTrackPresence(t *testing.T) {
	env := newTestEnv(t)
	token, err := env.jwtService.GenerateToken("alice", "Alice", false)
	require.NoError(t, err)

	env.get(t, "/api/presence/online", token)
	assert.Equal(t, models.StatusOffline, env.presence.Status("alice"))
}

func heartbeatOf(svc *presence.Service, userID string) (time.Time, bool) {
	for _, u := range svc.OnlineUsers() {
		if u.UserID == userID {
			return u.LastHeartbeat, true
		}
	}
	return time.Time{}, false
}

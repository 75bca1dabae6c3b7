package presence

import (
	"errors"
	"sync"
	"time"

	"github.com/pulsechat/internal/models"
	"github.com/rs/zerolog"
)

// ErrOfflineNotAllowed is returned when a caller tries to force a user's
// status to offline directly. Offline is only reachable through the
// disconnect/grace and inactivity-timeout paths.
var ErrOfflineNotAllowed = errors.New("cannot set status to offline directly: disconnect instead")

// ErrUnknownStatus is returned for a status value outside the known set.
var ErrUnknownStatus = errors.New("unknown status")

// Config holds the presence timing knobs.
type Config struct {
	// GracePeriod is how long a user stays online after their last
	// connection drops, absorbing quick reconnects.
	GracePeriod time.Duration
	// IdleTimeout is the heartbeat gap after which a user goes idle
	// (offline for bots).
	IdleTimeout time.Duration
	// BotInactivityTimeout is the request-activity gap after which a bot
	// tracked without a connection goes offline.
	BotInactivityTimeout time.Duration
}

// DefaultConfig returns the standard presence timings.
func DefaultConfig() Config {
	return Config{
		GracePeriod:          30 * time.Second,
		IdleTimeout:          5 * time.Minute,
		BotInactivityTimeout: 5 * time.Minute,
	}
}

// Service is the presence state machine. All transitions funnel through it:
// the transport layer reports connects, disconnects, heartbeats and manual
// status changes, the HTTP layer reports bot request activity, and timer
// callbacks drive the grace, idle and inactivity expirations. It publishes
// a StatusChange to every subscriber exactly once per actual transition.
//
// Transitions for a single user are serialized by one mutex so that a
// connection-set mutation, the decision to arm the grace timer, and the
// grace timer's emptiness re-check can never interleave. Status and
// snapshot reads go straight to the store and run concurrently with
// writers.
type Service struct {
	cfg    Config
	store  *Store
	timers *timerRegistry
	logger *zerolog.Logger

	mu     sync.Mutex
	closed bool

	subsMu sync.RWMutex
	subs   []func(models.StatusChange)
}

func NewService(cfg Config, logger *zerolog.Logger) *Service {
	def := DefaultConfig()
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = def.GracePeriod
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if cfg.BotInactivityTimeout <= 0 {
		cfg.BotInactivityTimeout = def.BotInactivityTimeout
	}
	return &Service{
		cfg:    cfg,
		store:  NewStore(),
		timers: newTimerRegistry(),
		logger: logger,
	}
}

// Subscribe registers a status-change listener. Listeners are invoked
// synchronously on the transitioning goroutine and must not call back into
// the service's mutating methods.
func (s *Service) Subscribe(fn func(models.StatusChange)) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.subs = append(s.subs, fn)
}

// Shutdown cancels all pending timers and stops accepting transitions.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.timers.stopAll()
	s.logger.Info().Msg("Presence service stopped")
}

// Connect registers a live transport connection for the user. Any pending
// grace or bot-inactivity timer is superseded: a live connection takes over
// the user's offline tracking.
func (s *Service) Connect(userID, connID, displayName string, isBot bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.timers.cancel(userID, timerGrace)
	s.timers.cancel(userID, timerBotInactivity)

	prev, _ := s.store.Status(userID)
	s.store.AddConnection(userID, connID)
	s.store.SetIdentity(userID, displayName, isBot)
	s.store.Touch(userID, time.Now())

	if prev != models.StatusOnline {
		s.store.SetStatus(userID, models.StatusOnline)
		s.publish(userID)
	}

	// The user is online after a connect, even from do-not-disturb, so idle
	// detection always resumes here.
	s.armIdle(userID)

	s.logger.Debug().
		Str("user_id", userID).
		Str("conn_id", connID).
		Msg("Connection registered")
}

// Heartbeat records a liveness signal from a connected client, waking an
// idle user back to online. Ignored for untracked users.
func (s *Service) Heartbeat(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	st, tracked := s.store.Status(userID)
	if !tracked {
		return
	}
	s.store.Touch(userID, time.Now())

	if st == models.StatusIdle {
		s.store.SetStatus(userID, models.StatusOnline)
		s.publish(userID)
	}
	if st != models.StatusDoNotDisturb {
		s.armIdle(userID)
	}
}

// Disconnect removes a connection. When it was the user's last one the
// grace timer is armed and graceStarted is true; the user stays visibly
// online until it fires. The arming decision shares the critical section
// with the set mutation, so a concurrent reconnect cannot slip between.
func (s *Service) Disconnect(userID, connID string) (graceStarted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	empty, tracked := s.store.RemoveConnection(userID, connID)
	if !tracked || !empty {
		return false
	}

	s.timers.arm(userID, timerGrace, s.cfg.GracePeriod, func() { s.onGraceExpiry(userID) })
	s.logger.Debug().
		Str("user_id", userID).
		Str("conn_id", connID).
		Dur("grace_period", s.cfg.GracePeriod).
		Msg("Last connection dropped, grace period started")
	return true
}

// SetDoNotDisturb puts a tracked user into do-not-disturb and stops idle
// detection for them. No-op for untracked users.
func (s *Service) SetDoNotDisturb(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	st, tracked := s.store.Status(userID)
	if !tracked {
		return
	}
	s.timers.cancel(userID, timerIdle)
	if st != models.StatusDoNotDisturb {
		s.store.SetStatus(userID, models.StatusDoNotDisturb)
		s.publish(userID)
	}
}

// SetIdle manually applies the idle transition. No-op when the user is
// untracked or in do-not-disturb. Bots never hold idle: they go offline.
func (s *Service) SetIdle(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	rec, ok := s.store.Get(userID)
	if !ok || rec.Status == models.StatusDoNotDisturb {
		return
	}
	s.applyIdle(userID, rec)
}

// SetStatus applies a manual status change requested by a client. Offline
// is rejected: it is only reachable through the disconnect and inactivity
// paths.
func (s *Service) SetStatus(userID string, status models.Status) error {
	switch status {
	case models.StatusOffline:
		return ErrOfflineNotAllowed
	case models.StatusOnline:
		s.Heartbeat(userID)
	case models.StatusIdle:
		s.SetIdle(userID)
	case models.StatusDoNotDisturb:
		s.SetDoNotDisturb(userID)
	default:
		return ErrUnknownStatus
	}
	return nil
}

// TouchBotActivity records request activity for a bot tracked without a
// live connection. It supersedes any pending grace timer, disables
// heartbeat-based idle detection and re-arms the inactivity timer.
func (s *Service) TouchBotActivity(userID, displayName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.timers.cancel(userID, timerGrace)

	prev, _ := s.store.Status(userID)
	s.store.SetIdentity(userID, displayName, true)
	s.store.Touch(userID, time.Now())

	if prev != models.StatusOnline {
		s.store.SetStatus(userID, models.StatusOnline)
		s.publish(userID)
	}

	s.timers.cancel(userID, timerIdle)
	s.timers.arm(userID, timerBotInactivity, s.cfg.BotInactivityTimeout, func() { s.onBotInactivity(userID) })
}

// Status reports the user's effective status; untracked users are offline.
func (s *Service) Status(userID string) models.Status {
	st, _ := s.store.Status(userID)
	return st
}

// OnlineUsers returns a snapshot of every user that is not offline, used to
// bootstrap freshly connected clients.
func (s *Service) OnlineUsers() []models.UserPresence {
	return s.store.Online()
}

// onGraceExpiry runs when a user's grace period elapses. The re-checks
// happen under the same mutex Disconnect and Connect use, so a reconnect
// that raced the fire makes this a no-op.
func (s *Service) onGraceExpiry(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if s.timers.pending(userID, timerGrace) {
		// A reconnect-and-disconnect cycle re-armed grace while this fire
		// waited on the mutex; the fresh timer owns the offline decision.
		return
	}
	if s.store.HasConnections(userID) {
		return
	}
	rec, ok := s.store.Get(userID)
	if !ok {
		return
	}
	s.goOffline(userID, rec, "grace period expired")
}

// onIdleTimeout runs when a user's idle timer fires. A heartbeat that
// narrowly beat the timer shows up as a short elapsed time and voids the
// fire.
func (s *Service) onIdleTimeout(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	rec, ok := s.store.Get(userID)
	if !ok || rec.Status == models.StatusDoNotDisturb {
		return
	}
	if time.Since(rec.LastHeartbeat) < s.cfg.IdleTimeout {
		return
	}
	s.applyIdle(userID, rec)
}

// onBotInactivity runs when a bot's request-activity timer fires.
func (s *Service) onBotInactivity(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	rec, ok := s.store.Get(userID)
	if !ok {
		return
	}
	if time.Since(rec.LastHeartbeat) < s.cfg.BotInactivityTimeout {
		return
	}
	s.goOffline(userID, rec, "bot inactivity timeout")
}

// applyIdle performs the idle transition for a tracked user: bots go
// straight offline, humans go idle and stay there until the next heartbeat.
// Callers hold s.mu.
func (s *Service) applyIdle(userID string, rec models.UserPresence) {
	if rec.IsBot {
		s.goOffline(userID, rec, "idle timeout for bot")
		return
	}
	s.timers.cancel(userID, timerIdle)
	if rec.Status != models.StatusIdle {
		s.store.SetStatus(userID, models.StatusIdle)
		s.publish(userID)
	}
}

// goOffline removes all state for the user and emits the offline event.
// Callers hold s.mu.
func (s *Service) goOffline(userID string, rec models.UserPresence, reason string) {
	s.timers.cancelAll(userID)
	s.store.Remove(userID)
	s.emit(models.StatusChange{
		UserID:      userID,
		DisplayName: rec.DisplayName,
		Status:      models.StatusOffline,
		IsBot:       rec.IsBot,
	})
	s.logger.Debug().
		Str("user_id", userID).
		Str("reason", reason).
		Msg("User went offline")
}

func (s *Service) armIdle(userID string) {
	s.timers.arm(userID, timerIdle, s.cfg.IdleTimeout, func() { s.onIdleTimeout(userID) })
}

// publish emits the user's current record as a status change. Callers hold
// s.mu and have already applied the transition.
func (s *Service) publish(userID string) {
	rec, ok := s.store.Get(userID)
	if !ok {
		return
	}
	s.emit(models.StatusChange{
		UserID:      userID,
		DisplayName: rec.DisplayName,
		Status:      rec.Status,
		IsBot:       rec.IsBot,
	})
}

func (s *Service) emit(change models.StatusChange) {
	s.subsMu.RLock()
	subs := s.subs
	s.subsMu.RUnlock()
	for _, fn := range subs {
		fn(change)
	}
}

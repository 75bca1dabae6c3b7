package presence

import (
	"sync"
	"time"

	"github.com/pulsechat/internal/models"
)

type record struct {
	displayName   string
	isBot         bool
	status        models.Status
	lastHeartbeat time.Time
	connections   map[string]struct{}
}

// Store holds all tracked presence state. A user absent from the store is
// offline; no offline records are retained. Methods are individually safe
// for concurrent use, so readers may run alongside the service's writer
// path; multi-step transitions are serialized by the Service, not here.
type Store struct {
	mu    sync.RWMutex
	users map[string]*record
}

func NewStore() *Store {
	return &Store{users: make(map[string]*record)}
}

// AddConnection registers a transport connection for the user, creating the
// record if this is the first tracking event for them.
func (s *Store) AddConnection(userID, connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.users[userID]
	if rec == nil {
		rec = &record{status: models.StatusOffline, connections: make(map[string]struct{})}
		s.users[userID] = rec
	}
	rec.connections[connID] = struct{}{}
}

// RemoveConnection drops a connection and reports, atomically with the
// mutation, whether the user now has no connections left. tracked is false
// when the user had no record at all.
func (s *Store) RemoveConnection(userID, connID string) (empty, tracked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.users[userID]
	if rec == nil {
		return false, false
	}
	delete(rec.connections, connID)
	return len(rec.connections) == 0, true
}

func (s *Store) HasConnections(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec := s.users[userID]
	return rec != nil && len(rec.connections) > 0
}

// Status returns the user's current status and whether they are tracked.
// Untracked users report StatusOffline.
func (s *Store) Status(userID string) (models.Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec := s.users[userID]
	if rec == nil {
		return models.StatusOffline, false
	}
	return rec.status, true
}

func (s *Store) SetStatus(userID string, status models.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec := s.users[userID]; rec != nil {
		rec.status = status
	}
}

// SetIdentity overwrites the user's metadata, creating the record if absent
// (bots tracked purely via request activity have no connections).
func (s *Store) SetIdentity(userID, displayName string, isBot bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.users[userID]
	if rec == nil {
		rec = &record{status: models.StatusOffline, connections: make(map[string]struct{})}
		s.users[userID] = rec
	}
	rec.displayName = displayName
	rec.isBot = isBot
}

// Touch records a liveness signal. No-op for untracked users.
func (s *Store) Touch(userID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec := s.users[userID]; rec != nil {
		rec.lastHeartbeat = at
	}
}

// Get returns a snapshot of the user's record.
func (s *Store) Get(userID string) (models.UserPresence, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec := s.users[userID]
	if rec == nil {
		return models.UserPresence{}, false
	}
	return snapshot(userID, rec), true
}

// Remove deletes all state for the user.
func (s *Store) Remove(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
}

// Online returns a snapshot of every tracked user. Being tracked at all
// means the user is not offline, so this is the online-user list handed to
// freshly connected clients.
func (s *Store) Online() []models.UserPresence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.UserPresence, 0, len(s.users))
	for userID, rec := range s.users {
		out = append(out, snapshot(userID, rec))
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func snapshot(userID string, rec *record) models.UserPresence {
	return models.UserPresence{
		UserID:        userID,
		DisplayName:   rec.displayName,
		IsBot:         rec.isBot,
		Status:        rec.status,
		LastHeartbeat: rec.lastHeartbeat,
	}
}

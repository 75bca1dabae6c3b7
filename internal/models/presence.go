package models

import "time"

type Status string

const (
	StatusOnline       Status = "online"
	StatusIdle         Status = "idle"
	StatusDoNotDisturb Status = "dnd"
	StatusOffline      Status = "offline"
)

// Valid reports whether s is one of the known status values.
func (s Status) Valid() bool {
	switch s {
	case StatusOnline, StatusIdle, StatusDoNotDisturb, StatusOffline:
		return true
	}
	return false
}

// UserPresence is a point-in-time snapshot of a tracked user.
type UserPresence struct {
	UserID        string    `json:"user_id"`
	DisplayName   string    `json:"display_name"`
	IsBot         bool      `json:"is_bot,omitempty"`
	Status        Status    `json:"status"`
	LastHeartbeat time.Time `json:"last_heartbeat,omitempty"`
}

// StatusChange is published whenever a user's effective status actually
// transitions. Calls that re-assert the current status never produce one.
type StatusChange struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Status      Status `json:"status"`
	IsBot       bool   `json:"is_bot,omitempty"`
}

// Identity is the authenticated caller extracted from a token.
type Identity struct {
	UserID      string
	DisplayName string
	IsBot       bool
}

package models

import "time"

// Frame types exchanged over the real-time channel.
const (
	FrameHeartbeat     = "heartbeat"
	FrameSetStatus     = "set_status"
	FrameStatusUpdate  = "status_update"
	FramePresenceState = "presence_state"
	FrameError         = "error"
	FrameSystem        = "system"
)

// Frame is a single message on the WebSocket channel, in either direction.
type Frame struct {
	Type        string         `json:"type"`
	UserID      string         `json:"user_id,omitempty"`
	DisplayName string         `json:"display_name,omitempty"`
	Status      Status         `json:"status,omitempty"`
	IsBot       bool           `json:"is_bot,omitempty"`
	Users       []UserPresence `json:"users,omitempty"`
	Error       string         `json:"error,omitempty"`
	Content     string         `json:"content,omitempty"`
	Timestamp   time.Time      `json:"timestamp,omitempty"`
}

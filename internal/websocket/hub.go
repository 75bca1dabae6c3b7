package websocket

import (
	"time"

	"github.com/pulsechat/internal/models"
	"github.com/pulsechat/internal/presence"
	"github.com/rs/zerolog"
)

// Hub is the transport side of presence: it owns the client registry,
// reports connects and disconnects to the presence service, and fans
// status-change events out to every connected client. A user may hold
// several connections at once, so clients are keyed by user and then by
// connection id.
type Hub struct {
	Clients      map[string]map[string]*Client
	Register     chan *Client
	Unregister   chan *Client
	Updates      chan models.StatusChange
	ShutdownChan chan struct{}

	Presence *presence.Service
	Logger   *zerolog.Logger
}

func NewHub(presenceService *presence.Service, logger *zerolog.Logger) *Hub {
	return &Hub{
		Clients:      make(map[string]map[string]*Client),
		Register:     make(chan *Client),
		Unregister:   make(chan *Client),
		Updates:      make(chan models.StatusChange, 256),
		ShutdownChan: make(chan struct{}),
		Presence:     presenceService,
		Logger:       logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.handleRegister(client)
		case client := <-h.Unregister:
			h.handleUnregister(client)
		case change := <-h.Updates:
			h.handleStatusChange(change)
		case <-h.ShutdownChan:
			h.handleShutdown()
			return
		}
	}
}

// PublishStatusChange is the subscriber attached to the presence service at
// startup. It runs on the transitioning goroutine, so it hands the event to
// the hub loop without blocking.
func (h *Hub) PublishStatusChange(change models.StatusChange) {
	select {
	case h.Updates <- change:
	default:
		h.Logger.Warn().
			Str("user_id", change.UserID).
			Msg("Status update queue full, dropping event")
	}
}

func (h *Hub) handleRegister(client *Client) {
	conns := h.Clients[client.UserID]
	if conns == nil {
		conns = make(map[string]*Client)
		h.Clients[client.UserID] = conns
	}
	conns[client.ConnID] = client

	h.Presence.Connect(client.UserID, client.ConnID, client.Name, client.IsBot)
	h.sendPresenceState(client)
}

func (h *Hub) handleUnregister(client *Client) {
	conns := h.Clients[client.UserID]
	if conns == nil || conns[client.ConnID] != client {
		return
	}
	delete(conns, client.ConnID)
	if len(conns) == 0 {
		delete(h.Clients, client.UserID)
	}
	close(client.Send)

	if h.Presence.Disconnect(client.UserID, client.ConnID) {
		h.Logger.Debug().Str("user_id", client.UserID).Msg("Grace period started")
	}
}

func (h *Hub) handleStatusChange(change models.StatusChange) {
	frame := &models.Frame{
		Type:        models.FrameStatusUpdate,
		UserID:      change.UserID,
		DisplayName: change.DisplayName,
		Status:      change.Status,
		IsBot:       change.IsBot,
		Timestamp:   time.Now(),
	}

	for _, conns := range h.Clients {
		for _, client := range conns {
			select {
			case client.Send <- frame:
			default:
				h.dropClient(client)
			}
		}
	}
}

// sendPresenceState hands a freshly connected client the full online-user
// list so it can render presence immediately.
func (h *Hub) sendPresenceState(client *Client) {
	frame := &models.Frame{
		Type:      models.FramePresenceState,
		Users:     h.Presence.OnlineUsers(),
		Timestamp: time.Now(),
	}
	select {
	case client.Send <- frame:
	default:
		h.dropClient(client)
	}
}

// dropClient evicts a client whose send buffer is full. The eviction goes
// through the presence disconnect path so the grace timer still applies.
func (h *Hub) dropClient(client *Client) {
	conns := h.Clients[client.UserID]
	if conns == nil || conns[client.ConnID] != client {
		return
	}
	delete(conns, client.ConnID)
	if len(conns) == 0 {
		delete(h.Clients, client.UserID)
	}
	close(client.Send)
	h.Presence.Disconnect(client.UserID, client.ConnID)
	h.Logger.Warn().Str("user_id", client.UserID).Msg("Client send buffer full, dropped")
}

func (h *Hub) handleShutdown() {
	for _, conns := range h.Clients {
		for _, client := range conns {
			close(client.Send)
			shutdownFrame := &models.Frame{
				Type:      models.FrameSystem,
				Content:   "Server is shutting down",
				Timestamp: time.Now(),
			}
			if client.Conn != nil {
				client.Conn.WriteJSON(shutdownFrame)
				client.Conn.Close()
			}
		}
	}
	h.Clients = make(map[string]map[string]*Client)
}

func (h *Hub) Shutdown() {
	close(h.ShutdownChan)
}

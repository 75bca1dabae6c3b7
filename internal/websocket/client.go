package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/pulsechat/internal/models"
)

type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	UserID string
	ConnID string
	Name   string
	IsBot  bool
	Send   chan *models.Frame
}

func NewClient(hub *Hub, conn *websocket.Conn, ident models.Identity, connID string) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: ident.UserID,
		ConnID: connID,
		Name:   ident.DisplayName,
		IsBot:  ident.IsBot,
		Send:   make(chan *models.Frame, 256),
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(5120)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var frame models.Frame
		err := c.Conn.ReadJSON(&frame)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.Logger.Error().Err(err).Msg("WebSocket read error")
			}
			break
		}

		c.handleFrame(&frame)
	}
}

func (c *Client) handleFrame(frame *models.Frame) {
	switch frame.Type {
	case models.FrameHeartbeat:
		c.Hub.Presence.Heartbeat(c.UserID)
	case models.FrameSetStatus:
		if err := c.Hub.Presence.SetStatus(c.UserID, frame.Status); err != nil {
			select {
			case c.Send <- &models.Frame{
				Type:      models.FrameError,
				Error:     err.Error(),
				Timestamp: time.Now(),
			}:
			default:
			}
		}
	default:
		c.Hub.Logger.Warn().
			Str("user_id", c.UserID).
			Str("frame_type", frame.Type).
			Msg("Unknown frame type")
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(frame); err != nil {
				c.Hub.Logger.Error().Err(err).Msg("WebSocket write error")
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package chathub

import (
	"chessrelay/backend/internal/config"
	"chessrelay/backend/internal/models"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocketClient implements Client over a gorilla websocket.
type WebSocketClient struct {
	ConnID   string
	UserID   string
	Username string
	Conn     *websocket.Conn
	Hub      *ManagerService
	Send     chan models.Envelope

	log       *slog.Logger
	closeOnce sync.Once
}

// NewWebSocketClient wraps conn with a fresh connection id.
func NewWebSocketClient(conn *websocket.Conn, hub *ManagerService, userID, username string, logger *slog.Logger) *WebSocketClient {
	id := uuid.New().String()
	return &WebSocketClient{
		ConnID:   id,
		UserID:   userID,
		Username: username,
		Conn:     conn,
		Hub:      hub,
		Send:     make(chan models.Envelope, config.SendBufferSize),
		log:      logger.With("conn_id", id),
	}
}

func (c *WebSocketClient) GetConnID() string                      { return c.ConnID }
func (c *WebSocketClient) GetUserID() string                      { return c.UserID }
func (c *WebSocketClient) GetUsername() string                    { return c.Username }
func (c *WebSocketClient) GetSendChannel() chan<- models.Envelope { return c.Send }

// Run starts the pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes Send, which makes writePump send a close frame and exit.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

// readPump decodes frames from the socket and hands them to the hub until the socket fails.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.log.Warn("ws.read", "err", err)
			}
			return
		}

		var frame models.Frame
		if err := json.Unmarshal(message, &frame); err != nil || frame.Event == "" {
			c.log.Warn("ws.bad_frame", "err", err, "size", len(message))
			continue
		}

		c.Hub.Submit(models.Inbound{
			ConnID: c.ConnID,
			Event:  frame.Event,
			Data:   frame.Data,
		})
	}
}

// writePump writes queued frames to the socket and keeps it alive with pings.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(config.PingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				// The hub closed the queue.
				c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.Conn.WriteJSON(env); err != nil {
				c.log.Debug("ws.write", "event", env.Event, "err", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package chathub

import (
	"chessrelay/backend/internal/models"
	"chessrelay/backend/pkg/metrics"
	"encoding/json"
	"log/slog"
	"time"
)

// Outbox delivers a frame to a single connection. Delivery is at-most-once.
type Outbox interface {
	Deliver(connID string, env models.Envelope)
}

// Relay holds the connection registry, the room store and the room channels.
// It is not safe for concurrent use: exactly one goroutine (the hub) drives it.
type Relay struct {
	registry *Registry
	rooms    *RoomStore
	channels roomChannels
	outbox   Outbox
	presence Presence
	log      *slog.Logger
	now      func() time.Time
}

// Presence receives online/offline transitions for connections that carry a user id.
type Presence interface {
	SetUserOnlineStatus(userID string, online bool)
}

func NewRelay(outbox Outbox, presence Presence, logger *slog.Logger) *Relay {
	return &Relay{
		registry: NewRegistry(),
		rooms:    NewRoomStore(),
		channels: make(roomChannels),
		outbox:   outbox,
		presence: presence,
		log:      logger,
		now:      time.Now,
	}
}

// Connections returns the number of live connections.
func (r *Relay) Connections() int { return r.registry.Count() }

// Rooms returns the number of non-empty rooms.
func (r *Relay) Rooms() int { return r.rooms.Count() }

// Room exposes a room for inspection; callers must not keep it past the current event.
func (r *Relay) Room(roomID string) (*models.Room, bool) { return r.rooms.Get(roomID) }

// Connect registers a new connection and announces the new online count.
func (r *Relay) Connect(conn models.Connection) {
	conn = r.registry.Register(conn)
	r.log.Info("conn.registered", "conn_id", conn.ID, "user_id", conn.UserID, "username", conn.Username)

	r.broadcastOnlineCount()
	if conn.UserID != "" && r.presence != nil {
		r.presence.SetUserOnlineStatus(conn.UserID, true)
	}
}

// Dispatch decodes an inbound frame and applies it. Malformed frames are dropped.
func (r *Relay) Dispatch(in models.Inbound) {
	switch in.Event {
	case models.EventJoinRoom, models.EventLeaveRoom:
		var req models.RoomRequest
		if !r.decode(in, &req) || req.RoomID == "" {
			r.reject(in, "missing roomId")
			return
		}
		if in.Event == models.EventJoinRoom {
			r.Join(req.RoomID, in.ConnID)
		} else {
			r.Leave(req.RoomID, in.ConnID)
		}

	case models.EventChatMessage:
		var req models.ChatRequest
		if !r.decode(in, &req) || req.RoomID == "" || req.Message == "" {
			r.reject(in, "chat_message needs roomId and message")
			return
		}
		r.Chat(in.ConnID, req)

	case models.EventGameMove:
		var req models.MoveRequest
		if !r.decode(in, &req) || req.RoomID == "" || models.Absent(req.Move) {
			r.reject(in, "game_move needs roomId and move")
			return
		}
		r.Move(in.ConnID, req)

	default:
		r.reject(in, "unknown event")
		return
	}
	metrics.Events.WithLabelValues(in.Event).Inc()
}

func (r *Relay) decode(in models.Inbound, v any) bool {
	if len(in.Data) == 0 {
		return false
	}
	if err := json.Unmarshal(in.Data, v); err != nil {
		r.log.Warn("frame.decode", "conn_id", in.ConnID, "event", in.Event, "err", err)
		return false
	}
	return true
}

func (r *Relay) reject(in models.Inbound, reason string) {
	r.log.Warn("frame.rejected", "conn_id", in.ConnID, "event", in.Event, "reason", reason)
}

// toConn sends a frame privately to one connection.
func (r *Relay) toConn(connID, event string, data any) {
	r.outbox.Deliver(connID, models.Envelope{Event: event, Data: data})
}

// toRoom fans a frame out to every connection subscribed to the room channel.
func (r *Relay) toRoom(roomID, event string, data any) {
	env := models.Envelope{Event: event, Data: data}
	for _, connID := range r.channels.members(roomID) {
		r.outbox.Deliver(connID, env)
	}
}

// toAll sends a frame to every registered connection.
func (r *Relay) toAll(event string, data any) {
	env := models.Envelope{Event: event, Data: data}
	for _, connID := range r.registry.IDs() {
		r.outbox.Deliver(connID, env)
	}
}

func (r *Relay) syncGauges() {
	metrics.Connections.Set(float64(r.registry.Count()))
	metrics.Rooms.Set(float64(r.rooms.Count()))
}

package chathub

import (
	"chessrelay/backend/internal/config"
	"chessrelay/backend/internal/models"
	"sort"
)

// roomChannels is the transport-level pub/sub: which connections receive frames
// addressed to a room. It is kept apart from the Room Store, which holds game state.
type roomChannels map[string]map[string]struct{}

func (c roomChannels) join(roomID, connID string) {
	subs, ok := c[roomID]
	if !ok {
		subs = make(map[string]struct{})
		c[roomID] = subs
	}
	subs[connID] = struct{}{}
}

func (c roomChannels) leave(roomID, connID string) {
	if subs, ok := c[roomID]; ok {
		delete(subs, connID)
		if len(subs) == 0 {
			delete(c, roomID)
		}
	}
}

func (c roomChannels) leaveAll(connID string) {
	for roomID := range c {
		c.leave(roomID, connID)
	}
}

func (c roomChannels) drop(roomID string) { delete(c, roomID) }

// members returns the subscribers of a room, sorted for a stable fan-out order.
func (c roomChannels) members(roomID string) []string {
	subs := c[roomID]
	ids := make([]string, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Chat records the message in the room's bounded history and broadcasts it to the room,
// sender included. A message for an unknown room is still broadcast but not stored.
func (r *Relay) Chat(connID string, req models.ChatRequest) {
	sender := req.Sender
	if sender == "" {
		if conn, ok := r.registry.Get(connID); ok {
			sender = conn.Username
		} else {
			sender = config.UnknownDisplayName
		}
	}
	msg := models.ChatMessage{
		Sender:    sender,
		Message:   req.Message,
		Timestamp: models.OrNow(req.Timestamp, r.now()),
	}

	if room, ok := r.rooms.Get(req.RoomID); ok {
		room.AppendChat(msg, config.ChatHistoryLimit)
	} else {
		r.log.Debug("chat.unknown_room", "room_id", req.RoomID, "conn_id", connID)
	}
	r.toRoom(req.RoomID, models.EventChatMessage, msg)
}

// Move caches the move as the room's last game state, flips the turn to the other seat
// and broadcasts it. Moves from spectators, strangers or for unknown rooms are ignored.
func (r *Relay) Move(connID string, req models.MoveRequest) {
	room, ok := r.rooms.Get(req.RoomID)
	if !ok {
		return
	}
	i := room.PlayerIndex(connID)
	if i < 0 {
		r.log.Debug("move.not_a_player", "room_id", req.RoomID, "conn_id", connID)
		return
	}

	ts := models.OrNow(req.Timestamp, r.now())
	room.GameState = &models.GameState{
		LastMove:      req.Move,
		CurrentPlayer: 1 - room.Players[i].Seat,
		Timestamp:     ts,
	}
	r.toRoom(req.RoomID, models.EventGameMove, models.GameMove{
		Move:      req.Move,
		Player:    req.Player,
		Timestamp: ts,
	})
}

package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// Inbound event names (client → server).
const (
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventChatMessage = "chat_message"
	EventGameMove    = "game_move"
)

// Outbound event names (server → client/room).
const (
	EventOnlineUsers     = "online_users"
	EventPlayerJoined    = "player_joined"
	EventSpectatorJoined = "spectator_joined"
	EventGameStart       = "game_start"
	EventGameState       = "game_state"
	EventChatHistory     = "chat_history"
	EventPlayerLeft      = "player_left"
	EventSpectatorLeft   = "spectator_left"
)

// Frame is one websocket text message in either direction: {"event": "...", "data": ...}.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Envelope is an outbound frame whose payload is still a Go value.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Inbound is a decoded client frame stamped with the connection it arrived on.
type Inbound struct {
	ConnID string
	Event  string
	Data   json.RawMessage
}

// RoomRequest is the payload of join_room and leave_room.
type RoomRequest struct {
	RoomID string `json:"roomId"`
}

// ChatRequest is the payload of an inbound chat_message.
type ChatRequest struct {
	RoomID    string          `json:"roomId"`
	Message   string          `json:"message"`
	Sender    string          `json:"sender"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

// MoveRequest is the payload of an inbound game_move. Move and Player are opaque tokens
// produced by the browser board.
type MoveRequest struct {
	RoomID    string          `json:"roomId"`
	Move      json.RawMessage `json:"move"`
	Player    json.RawMessage `json:"player,omitempty"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

// ChatMessage is both the broadcast payload of chat_message and a chat_history entry.
type ChatMessage struct {
	Sender    string          `json:"sender"`
	Message   string          `json:"message"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// GameMove is the broadcast payload of game_move.
type GameMove struct {
	Move      json.RawMessage `json:"move"`
	Player    json.RawMessage `json:"player,omitempty"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// GameState is the last-known snapshot cached per room for late joiners.
type GameState struct {
	LastMove      json.RawMessage `json:"lastMove"`
	CurrentPlayer int             `json:"currentPlayer"`
	Timestamp     json.RawMessage `json:"timestamp"`
}

type PlayerNotice struct {
	Username     string `json:"username"`
	PlayerNumber int    `json:"playerNumber"`
}

type SpectatorNotice struct {
	Username string `json:"username"`
}

type GameStart struct {
	White     string          `json:"white"`
	Black     string          `json:"black"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// Millis encodes t as a JSON number of unix milliseconds.
func Millis(t time.Time) json.RawMessage {
	return json.RawMessage(strconv.FormatInt(t.UnixMilli(), 10))
}

// Absent reports whether a raw field was omitted or sent as JSON null.
func Absent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// OrNow returns ts, or now as unix milliseconds when ts is absent or JSON null.
func OrNow(ts json.RawMessage, now time.Time) json.RawMessage {
	if Absent(ts) {
		return Millis(now)
	}
	return ts
}

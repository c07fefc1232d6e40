package models

// Connection is one live websocket. It is owned by the connection registry; rooms refer to it by ID.
type Connection struct {
	ID       string
	UserID   string
	Username string
}

// PlayerEntry is a seated member of a room. Seat 0 plays the first color, seat 1 the second.
type PlayerEntry struct {
	ConnID   string
	UserID   string
	Username string
	Seat     int
}

// SpectatorEntry is a non-playing member of a room.
type SpectatorEntry struct {
	ConnID   string
	UserID   string
	Username string
}

// Room is one chess session keyed by a caller-supplied identifier.
type Room struct {
	ID string
	// Players is in join order; at most config.MaxPlayers long.
	Players    []PlayerEntry
	Spectators map[string]SpectatorEntry
	// GameState is nil until the first accepted move.
	GameState *GameState
	// ChatHistory holds the most recent config.ChatHistoryLimit messages, oldest first.
	ChatHistory []ChatMessage
}

// NewRoom returns an empty room.
func NewRoom(id string) *Room {
	return &Room{
		ID:         id,
		Spectators: make(map[string]SpectatorEntry),
	}
}

// IsEmpty reports whether the room has neither players nor spectators.
func (r *Room) IsEmpty() bool {
	return len(r.Players) == 0 && len(r.Spectators) == 0
}

// PlayerIndex returns the position of connID in Players, or -1.
func (r *Room) PlayerIndex(connID string) int {
	for i, p := range r.Players {
		if p.ConnID == connID {
			return i
		}
	}
	return -1
}

// HasMember reports whether connID is a player or spectator of the room.
func (r *Room) HasMember(connID string) bool {
	if r.PlayerIndex(connID) >= 0 {
		return true
	}
	_, ok := r.Spectators[connID]
	return ok
}

// AppendChat appends msg and evicts the oldest entry once the history exceeds limit.
func (r *Room) AppendChat(msg ChatMessage, limit int) {
	r.ChatHistory = append(r.ChatHistory, msg)
	if len(r.ChatHistory) > limit {
		r.ChatHistory = r.ChatHistory[1:]
	}
}

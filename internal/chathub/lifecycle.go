package chathub

import (
	"chessrelay/backend/internal/config"
	"chessrelay/backend/internal/models"
)

// Join seats connID in roomID as a player while fewer than config.MaxPlayers are seated,
// otherwise as a spectator, then privately replays the room's game state and chat history.
func (r *Relay) Join(roomID, connID string) {
	conn, ok := r.registry.Get(connID)
	if !ok {
		r.log.Warn("room.join.unknown_conn", "conn_id", connID, "room_id", roomID)
		return
	}

	if current, ok := r.rooms.RoomOf(connID); ok {
		if current.ID == roomID {
			r.sendCatchUp(current, connID)
			return
		}
		r.Leave(current.ID, connID)
	}

	room, created := r.rooms.GetOrCreate(roomID)
	if created {
		r.log.Info("room.created", "room_id", roomID)
	}
	r.channels.join(roomID, connID)

	if len(room.Players) < config.MaxPlayers {
		// Seats follow the current array length and are never renumbered.
		seat := len(room.Players)
		room.Players = append(room.Players, models.PlayerEntry{
			ConnID:   conn.ID,
			UserID:   conn.UserID,
			Username: conn.Username,
			Seat:     seat,
		})
		r.log.Debug("room.player_joined", "room_id", roomID, "conn_id", connID, "seat", seat)
		r.toRoom(roomID, models.EventPlayerJoined, models.PlayerNotice{
			Username:     conn.Username,
			PlayerNumber: seat + 1,
		})

		if len(room.Players) == config.MaxPlayers {
			r.toRoom(roomID, models.EventGameStart, models.GameStart{
				White:     room.Players[0].Username,
				Black:     room.Players[1].Username,
				Timestamp: models.Millis(r.now()),
			})
		}
	} else {
		room.Spectators[connID] = models.SpectatorEntry{
			ConnID:   conn.ID,
			UserID:   conn.UserID,
			Username: conn.Username,
		}
		r.log.Debug("room.spectator_joined", "room_id", roomID, "conn_id", connID)
		r.toRoom(roomID, models.EventSpectatorJoined, models.SpectatorNotice{Username: conn.Username})
	}

	r.sendCatchUp(room, connID)
	r.syncGauges()
}

// sendCatchUp sends the cached game state and chat history to connID only, when present.
func (r *Relay) sendCatchUp(room *models.Room, connID string) {
	if room.GameState != nil {
		state := *room.GameState
		r.toConn(connID, models.EventGameState, state)
	}
	if len(room.ChatHistory) > 0 {
		history := make([]models.ChatMessage, len(room.ChatHistory))
		copy(history, room.ChatHistory)
		r.toConn(connID, models.EventChatHistory, history)
	}
}

// Leave removes connID from roomID. Unknown rooms and non-members are no-ops.
func (r *Relay) Leave(roomID, connID string) {
	r.channels.leave(roomID, connID)

	room, ok := r.rooms.Get(roomID)
	if !ok {
		return
	}
	if !r.evict(room, connID, "") {
		return
	}
	r.syncGauges()
}

// evict removes connID from room, notifies the remaining members and prunes the room
// when it drains. name overrides the member's stored display name when non-empty.
func (r *Relay) evict(room *models.Room, connID, name string) bool {
	if i := room.PlayerIndex(connID); i >= 0 {
		entry := room.Players[i]
		room.Players = append(room.Players[:i], room.Players[i+1:]...)
		if name == "" {
			name = entry.Username
		}
		r.log.Debug("room.player_left", "room_id", room.ID, "conn_id", connID, "seat", entry.Seat)
		r.toRoom(room.ID, models.EventPlayerLeft, models.PlayerNotice{
			Username:     name,
			PlayerNumber: entry.Seat + 1,
		})
	} else if entry, ok := room.Spectators[connID]; ok {
		delete(room.Spectators, connID)
		if name == "" {
			name = entry.Username
		}
		r.log.Debug("room.spectator_left", "room_id", room.ID, "conn_id", connID)
		r.toRoom(room.ID, models.EventSpectatorLeft, models.SpectatorNotice{Username: name})
	} else {
		return false
	}

	if r.rooms.DeleteIfEmpty(room.ID) {
		r.channels.drop(room.ID)
		r.log.Info("room.deleted", "room_id", room.ID)
	}
	return true
}

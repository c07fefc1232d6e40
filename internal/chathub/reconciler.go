package chathub

import "chessrelay/backend/internal/config"

// Disconnect forgets connID: it leaves the registry, the online count is re-announced,
// the user's presence flips offline, and every room it occupied is told it left.
func (r *Relay) Disconnect(connID string) {
	conn, ok := r.registry.Unregister(connID)
	name := config.UnknownDisplayName
	if ok {
		name = conn.Username
	}
	r.channels.leaveAll(connID)
	r.log.Info("conn.unregistered", "conn_id", connID, "user_id", conn.UserID, "known", ok)

	r.broadcastOnlineCount()
	if ok && conn.UserID != "" && r.presence != nil {
		r.presence.SetUserOnlineStatus(conn.UserID, false)
	}

	// Every room is scanned, not just the one the connection should be in.
	for _, roomID := range r.rooms.IDs() {
		if room, ok := r.rooms.Get(roomID); ok {
			r.evict(room, connID, name)
		}
	}
	r.syncGauges()
}

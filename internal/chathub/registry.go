package chathub

import (
	"chessrelay/backend/internal/config"
	"chessrelay/backend/internal/models"
)

// Registry tracks every live connection and the identity it connected with.
type Registry struct {
	conns map[string]models.Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]models.Connection)}
}

// Register records conn, overwriting any entry with the same ID. An empty
// username becomes config.DefaultDisplayName.
func (r *Registry) Register(conn models.Connection) models.Connection {
	if conn.Username == "" {
		conn.Username = config.DefaultDisplayName
	}
	r.conns[conn.ID] = conn
	return conn
}

// Unregister removes and returns the connection; ok is false if it was not registered.
func (r *Registry) Unregister(connID string) (conn models.Connection, ok bool) {
	conn, ok = r.conns[connID]
	if ok {
		delete(r.conns, connID)
	}
	return conn, ok
}

func (r *Registry) Get(connID string) (models.Connection, bool) {
	conn, ok := r.conns[connID]
	return conn, ok
}

func (r *Registry) Count() int { return len(r.conns) }

// IDs returns every registered connection id in no particular order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}

package chathub

import (
	"chessrelay/backend/internal/models"
	"chessrelay/backend/pkg/metrics"
	"context"
	"log/slog"
	"sync/atomic"
)

// Stats is a point-in-time view of the hub, safe to read from any goroutine.
type Stats struct {
	Connections int `json:"connections"`
	Rooms       int `json:"rooms"`
}

// ManagerService is the hub. Its Run goroutine is the only mutator of the relay state:
// registrations, inbound frames and disconnects are applied one at a time in arrival order.
type ManagerService struct {
	Clients map[string]Client

	// Channels
	IncomingCh   chan models.Inbound
	RegisterCh   chan Client
	UnregisterCh chan Client

	relay *Relay
	log   *slog.Logger
	done  chan struct{}

	connections atomic.Int64
	rooms       atomic.Int64
}

// NewManagerService wires a relay whose presence transitions go to presence (may be nil).
func NewManagerService(presence *PresenceNotifier, logger *slog.Logger) *ManagerService {
	m := &ManagerService{
		Clients:      make(map[string]Client),
		IncomingCh:   make(chan models.Inbound, 256),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		log:          logger,
		done:         make(chan struct{}),
	}
	var p Presence
	if presence != nil {
		p = presence
	}
	m.relay = NewRelay(m, p, logger)
	return m
}

// Run processes hub events until ctx is cancelled, then closes every client.
func (m *ManagerService) Run(ctx context.Context) {
	m.log.Info("hub.started")
	defer close(m.done)

	for {
		select {
		case client := <-m.RegisterCh:
			m.Clients[client.GetConnID()] = client
			m.relay.Connect(models.Connection{
				ID:       client.GetConnID(),
				UserID:   client.GetUserID(),
				Username: client.GetUsername(),
			})

		case client := <-m.UnregisterCh:
			id := client.GetConnID()
			if current, ok := m.Clients[id]; !ok || current != client {
				continue
			}
			delete(m.Clients, id)
			m.relay.Disconnect(id)
			client.Close()

		case in := <-m.IncomingCh:
			if _, ok := m.Clients[in.ConnID]; !ok {
				continue
			}
			m.relay.Dispatch(in)

		case <-ctx.Done():
			for id, client := range m.Clients {
				delete(m.Clients, id)
				client.Close()
			}
			m.log.Info("hub.stopped")
			return
		}
		m.connections.Store(int64(m.relay.Connections()))
		m.rooms.Store(int64(m.relay.Rooms()))
	}
}

// Done is closed once Run has returned.
func (m *ManagerService) Done() <-chan struct{} { return m.done }

// Register hands a client to the hub. It returns false if the hub has stopped.
func (m *ManagerService) Register(c Client) bool {
	select {
	case m.RegisterCh <- c:
		return true
	case <-m.done:
		return false
	}
}

// Unregister asks the hub to run disconnect cleanup for c.
func (m *ManagerService) Unregister(c Client) {
	select {
	case m.UnregisterCh <- c:
	case <-m.done:
	}
}

// Submit queues an inbound frame for the hub.
func (m *ManagerService) Submit(in models.Inbound) {
	select {
	case m.IncomingCh <- in:
	case <-m.done:
	}
}

// Stats returns the counts as of the last processed event.
func (m *ManagerService) Stats() Stats {
	return Stats{
		Connections: int(m.connections.Load()),
		Rooms:       int(m.rooms.Load()),
	}
}

// Deliver implements Outbox. It runs on the hub goroutine and never blocks: a full
// send buffer drops the frame.
func (m *ManagerService) Deliver(connID string, env models.Envelope) {
	client, ok := m.Clients[connID]
	if !ok {
		return
	}
	select {
	case client.GetSendChannel() <- env:
	default:
		metrics.DroppedFrames.Inc()
		m.log.Warn("send.buffer_full", "conn_id", connID, "event", env.Event)
	}
}

package chathub

import (
	"chessrelay/backend/internal/models"
	"chessrelay/backend/internal/storage"
	"chessrelay/backend/pkg/metrics"
	"context"
	"log/slog"
	"sync"
	"time"
)

// broadcastOnlineCount pushes the live connection count to every connection.
func (r *Relay) broadcastOnlineCount() {
	r.toAll(models.EventOnlineUsers, r.registry.Count())
	r.syncGauges()
}

// PresenceNotifier writes online/offline status to the profile store without blocking
// the caller. Writes for the same user are applied in call order; failures are logged
// and never retried.
type PresenceNotifier struct {
	store   storage.PresenceWriter
	timeout time.Duration
	log     *slog.Logger
	now     func() time.Time

	mu    sync.Mutex
	tails map[string]chan struct{}
	wg    sync.WaitGroup
}

func NewPresenceNotifier(store storage.PresenceWriter, timeout time.Duration, logger *slog.Logger) *PresenceNotifier {
	return &PresenceNotifier{
		store:   store,
		timeout: timeout,
		log:     logger,
		now:     time.Now,
		tails:   make(map[string]chan struct{}),
	}
}

// SetUserOnlineStatus starts a detached write and returns immediately. The write waits
// for the previous write of the same user, so a slow connect cannot land after the
// disconnect that followed it.
func (p *PresenceNotifier) SetUserOnlineStatus(userID string, online bool) {
	if p == nil || p.store == nil || userID == "" {
		return
	}
	at := p.now()
	done := make(chan struct{})

	p.mu.Lock()
	prev := p.tails[userID]
	p.tails[userID] = done
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.release(userID, done)

		if prev != nil {
			<-prev
		}
		p.write(userID, online, at)
	}()
}

func (p *PresenceNotifier) write(userID string, online bool, at time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.store.SetUserOnlineStatus(ctx, userID, online, at); err != nil {
		metrics.PresenceFailures.Inc()
		p.log.Error("presence.write", "user_id", userID, "online", online, "err", err)
		return
	}
	p.log.Debug("presence.updated", "user_id", userID, "online", online)
}

// release unblocks the next write for userID and forgets the chain once it is idle.
func (p *PresenceNotifier) release(userID string, done chan struct{}) {
	close(done)
	p.mu.Lock()
	if p.tails[userID] == done {
		delete(p.tails, userID)
	}
	p.mu.Unlock()
}

// Wait blocks until every in-flight write has finished.
func (p *PresenceNotifier) Wait() {
	if p != nil {
		p.wg.Wait()
	}
}

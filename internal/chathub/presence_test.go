package chathub_test

import (
	"chessrelay/backend/internal/chathub"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockPresenceWriter struct {
	mock.Mock
}

func (m *MockPresenceWriter) SetUserOnlineStatus(ctx context.Context, userID string, online bool, at time.Time) error {
	args := m.Called(ctx, userID, online, at)
	return args.Error(0)
}

func TestPresenceNotifier_WritesInBackground(t *testing.T) {
	store := new(MockPresenceWriter)
	store.On("SetUserOnlineStatus", mock.Anything, "user-1", true, mock.AnythingOfType("time.Time")).Return(nil).Once()
	store.On("SetUserOnlineStatus", mock.Anything, "user-1", false, mock.AnythingOfType("time.Time")).
		Return(errors.New("db down")).Once()

	p := chathub.NewPresenceNotifier(store, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.SetUserOnlineStatus("user-1", true)
	p.SetUserOnlineStatus("user-1", false)
	p.Wait()

	store.AssertExpectations(t)
}

func TestPresenceNotifier_SkipsAnonymousAndNil(t *testing.T) {
	store := new(MockPresenceWriter)
	p := chathub.NewPresenceNotifier(store, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	p.SetUserOnlineStatus("", true)
	p.Wait()
	store.AssertNotCalled(t, "SetUserOnlineStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	var none *chathub.PresenceNotifier
	none.SetUserOnlineStatus("user-1", true)
	none.Wait()
}

// slowOnlineStore applies writes unconditionally, taking longer for online=true.
type slowOnlineStore struct {
	delay time.Duration

	mu     sync.Mutex
	online map[string]bool
	order  []bool
}

func (s *slowOnlineStore) SetUserOnlineStatus(ctx context.Context, userID string, online bool, at time.Time) error {
	if online {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online[userID] = online
	s.order = append(s.order, online)
	return nil
}

func TestPresenceNotifier_SlowConnectDoesNotOverrideDisconnect(t *testing.T) {
	store := &slowOnlineStore{delay: 50 * time.Millisecond, online: make(map[string]bool)}
	p := chathub.NewPresenceNotifier(store, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	p.SetUserOnlineStatus("user-1", true)
	p.SetUserOnlineStatus("user-1", false)
	p.Wait()

	assert.False(t, store.online["user-1"], "user is offline after disconnect")
	assert.Equal(t, []bool{true, false}, store.order)
}

func TestPresenceNotifier_ChainsAreReleased(t *testing.T) {
	store := &slowOnlineStore{online: make(map[string]bool)}
	p := chathub.NewPresenceNotifier(store, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for i := 0; i < 3; i++ {
		p.SetUserOnlineStatus("user-1", true)
		p.SetUserOnlineStatus("user-1", false)
		p.Wait()
	}
	p.SetUserOnlineStatus("user-2", true)
	p.Wait()

	assert.False(t, store.online["user-1"])
	assert.True(t, store.online["user-2"])
	assert.Len(t, store.order, 7)
}

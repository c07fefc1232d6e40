package chathub

import (
	"chessrelay/backend/internal/models"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
)

var fixedNow = time.UnixMilli(1700000000000)

type delivery struct {
	ConnID string
	Env    models.Envelope
}

// recordingOutbox captures every frame the relay emits, in emission order.
type recordingOutbox struct {
	frames []delivery
}

func (o *recordingOutbox) Deliver(connID string, env models.Envelope) {
	o.frames = append(o.frames, delivery{ConnID: connID, Env: env})
}

func (o *recordingOutbox) reset() { o.frames = nil }

// events lists the event names delivered to connID.
func (o *recordingOutbox) events(connID string) []string {
	var out []string
	for _, f := range o.frames {
		if f.ConnID == connID {
			out = append(out, f.Env.Event)
		}
	}
	return out
}

// recipients lists who received event, in delivery order.
func (o *recordingOutbox) recipients(event string) []string {
	var out []string
	for _, f := range o.frames {
		if f.Env.Event == event {
			out = append(out, f.ConnID)
		}
	}
	return out
}

// last returns the payload of the latest event delivered to connID.
func (o *recordingOutbox) last(connID, event string) (any, bool) {
	for i := len(o.frames) - 1; i >= 0; i-- {
		f := o.frames[i]
		if f.ConnID == connID && f.Env.Event == event {
			return f.Env.Data, true
		}
	}
	return nil, false
}

type MockPresence struct {
	mock.Mock
}

func (m *MockPresence) SetUserOnlineStatus(userID string, online bool) {
	m.Called(userID, online)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRelay(t *testing.T) (*Relay, *recordingOutbox, *MockPresence) {
	t.Helper()
	out := &recordingOutbox{}
	presence := new(MockPresence)
	r := NewRelay(out, presence, discardLogger())
	r.now = func() time.Time { return fixedNow }
	return r, out, presence
}

// connect registers anonymous-by-user-id connections named after their ids.
func connect(r *Relay, names map[string]string) {
	for id, name := range names {
		r.Connect(models.Connection{ID: id, Username: name})
	}
}

package chathub

import (
	"chessrelay/backend/internal/config"
	"chessrelay/backend/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_RegisterDefaultsName(t *testing.T) {
	reg := NewRegistry()

	conn := reg.Register(models.Connection{ID: "c1"})

	assert.Equal(t, config.DefaultDisplayName, conn.Username)
	stored, ok := reg.Get("c1")
	assert.True(t, ok)
	assert.Equal(t, "Anonymous", stored.Username)
	assert.Equal(t, 1, reg.Count())
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	reg := NewRegistry()

	reg.Register(models.Connection{ID: "c1", Username: "first"})
	reg.Register(models.Connection{ID: "c1", Username: "second", UserID: "u1"})

	stored, _ := reg.Get("c1")
	assert.Equal(t, "second", stored.Username)
	assert.Equal(t, "u1", stored.UserID)
	assert.Equal(t, 1, reg.Count())
}

func TestRegistry_Unregister(t *testing.T) {
	reg := NewRegistry()
	reg.Register(models.Connection{ID: "c1", Username: "alice"})

	conn, ok := reg.Unregister("c1")
	assert.True(t, ok)
	assert.Equal(t, "alice", conn.Username)
	assert.Equal(t, 0, reg.Count())

	_, ok = reg.Unregister("c1")
	assert.False(t, ok, "second unregister reports not found")
}

func TestRoomStore_Lifecycle(t *testing.T) {
	store := NewRoomStore()

	room, created := store.GetOrCreate("r1")
	assert.True(t, created)
	again, created := store.GetOrCreate("r1")
	assert.False(t, created)
	assert.Same(t, room, again)

	room.Players = append(room.Players, models.PlayerEntry{ConnID: "a"})
	assert.False(t, store.DeleteIfEmpty("r1"))

	found, ok := store.RoomOf("a")
	assert.True(t, ok)
	assert.Equal(t, "r1", found.ID)

	room.Players = nil
	assert.True(t, store.DeleteIfEmpty("r1"))
	_, ok = store.Get("r1")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Count())
}

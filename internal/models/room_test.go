package models_test

import (
	"chessrelay/backend/internal/models"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoom_AppendChatEvictsOldestFirst(t *testing.T) {
	room := models.NewRoom("r1")

	for i := 1; i <= 101; i++ {
		room.AppendChat(models.ChatMessage{Sender: "a", Message: fmt.Sprintf("m%d", i)}, 100)
	}

	assert.Len(t, room.ChatHistory, 100)
	assert.Equal(t, "m2", room.ChatHistory[0].Message, "first message must be evicted")
	assert.Equal(t, "m101", room.ChatHistory[99].Message)

	room.AppendChat(models.ChatMessage{Message: "m102"}, 100)
	assert.Len(t, room.ChatHistory, 100, "exactly one entry evicted per insertion")
	assert.Equal(t, "m3", room.ChatHistory[0].Message)
}

func TestRoom_Membership(t *testing.T) {
	room := models.NewRoom("r1")
	assert.True(t, room.IsEmpty())

	room.Players = append(room.Players, models.PlayerEntry{ConnID: "a", Seat: 0})
	room.Spectators["c"] = models.SpectatorEntry{ConnID: "c"}

	assert.False(t, room.IsEmpty())
	assert.Equal(t, 0, room.PlayerIndex("a"))
	assert.Equal(t, -1, room.PlayerIndex("c"))
	assert.True(t, room.HasMember("a"))
	assert.True(t, room.HasMember("c"))
	assert.False(t, room.HasMember("z"))
}

func TestOrNow(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	assert.Equal(t, json.RawMessage("1700000000123"), models.OrNow(nil, now))
	assert.Equal(t, json.RawMessage("1700000000123"), models.OrNow(json.RawMessage("null"), now))
	assert.Equal(t, json.RawMessage(`"2024-01-01T00:00:00Z"`), models.OrNow(json.RawMessage(`"2024-01-01T00:00:00Z"`), now))
}

func TestAbsent(t *testing.T) {
	assert.True(t, models.Absent(nil))
	assert.True(t, models.Absent(json.RawMessage("null")))
	assert.False(t, models.Absent(json.RawMessage(`"e4"`)))
	assert.False(t, models.Absent(json.RawMessage(`0`)))
}

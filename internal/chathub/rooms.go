package chathub

import (
	"chessrelay/backend/internal/models"
	"sort"
)

// RoomStore owns every Room. A room is present only while it has a member.
type RoomStore struct {
	rooms map[string]*models.Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[string]*models.Room)}
}

func (s *RoomStore) Get(roomID string) (*models.Room, bool) {
	room, ok := s.rooms[roomID]
	return room, ok
}

// GetOrCreate returns the room, creating an empty one on first use.
func (s *RoomStore) GetOrCreate(roomID string) (room *models.Room, created bool) {
	if room, ok := s.rooms[roomID]; ok {
		return room, false
	}
	room = models.NewRoom(roomID)
	s.rooms[roomID] = room
	return room, true
}

// DeleteIfEmpty drops the room once it has no players and no spectators.
func (s *RoomStore) DeleteIfEmpty(roomID string) bool {
	room, ok := s.rooms[roomID]
	if !ok || !room.IsEmpty() {
		return false
	}
	delete(s.rooms, roomID)
	return true
}

func (s *RoomStore) Count() int { return len(s.rooms) }

// IDs returns the room ids sorted, so scans visit rooms in a stable order.
func (s *RoomStore) IDs() []string {
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RoomOf returns the room connID is a member of, if any.
func (s *RoomStore) RoomOf(connID string) (*models.Room, bool) {
	for _, id := range s.IDs() {
		if room := s.rooms[id]; room.HasMember(connID) {
			return room, true
		}
	}
	return nil, false
}

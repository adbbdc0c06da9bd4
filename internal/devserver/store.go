package devserver

import (
	"sync"

	"chat-room-client/internal/dto"
)

// HistoryStore keeps the most recent messages per room in memory. It
// backs the history endpoint; nothing here is durable.
type HistoryStore struct {
	mu    sync.Mutex
	limit int
	rooms map[string][]dto.HistoryMessage
}

func NewHistoryStore(limit int) *HistoryStore {
	if limit <= 0 {
		limit = 200
	}
	return &HistoryStore{
		limit: limit,
		rooms: make(map[string][]dto.HistoryMessage),
	}
}

func (s *HistoryStore) Append(roomID string, m dto.HistoryMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := append(s.rooms[roomID], m)
	if len(list) > s.limit {
		list = list[len(list)-s.limit:]
	}
	s.rooms[roomID] = list
}

// List returns the room's retained messages, oldest first.
func (s *HistoryStore) List(roomID string) []dto.HistoryMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]dto.HistoryMessage, len(s.rooms[roomID]))
	copy(out, s.rooms[roomID])
	return out
}

package devserver

import "chat-room-client/internal/dto"

// Room is one chat room's set of connected clients, keyed by user id.
type Room struct {
	ID      string
	Clients map[string]*Client
}

// outbound targets a broadcast at one room.
type outbound struct {
	RoomID string
	Event  dto.Event
}

package devserver

import (
	"time"

	"chat-room-client/internal/dto"
)

// Hub owns the room registry. Rooms are created implicitly when the first
// client joins and removed when the last one leaves. Only the Run loop
// touches Rooms, so no lock is needed.
type Hub struct {
	Rooms      map[string]*Room
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan outbound
}

func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]*Room),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan outbound, 16),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			room, ok := h.Rooms[client.RoomID]
			if !ok {
				room = &Room{
					ID:      client.RoomID,
					Clients: make(map[string]*Client),
				}
				h.Rooms[client.RoomID] = room
				setRooms(len(h.Rooms))
			}
			room.Clients[client.ID] = client
			incConnections()
			h.announce(room, dto.Event{
				Type:   dto.EventUserJoined,
				RoomID: room.ID,
				UserID: client.ID,
				Name:   client.Username,
				SentAt: time.Now().UTC(),
			})

		case client := <-h.Unregister:
			room, ok := h.Rooms[client.RoomID]
			if !ok {
				continue
			}
			if _, ok := room.Clients[client.ID]; ok {
				delete(room.Clients, client.ID)
				close(client.Send)
				decConnections()
			}
			if len(room.Clients) == 0 {
				delete(h.Rooms, room.ID)
				setRooms(len(h.Rooms))
				continue
			}
			h.announce(room, dto.Event{
				Type:   dto.EventUserLeft,
				RoomID: room.ID,
				UserID: client.ID,
				Name:   client.Username,
				SentAt: time.Now().UTC(),
			})

		case msg := <-h.Broadcast:
			room, ok := h.Rooms[msg.RoomID]
			if !ok {
				continue
			}
			h.deliver(room, msg.Event)
		}
	}
}

// announce sends a membership event followed by the authoritative count
// snapshot. Clients derive the presence number only from the snapshot.
func (h *Hub) announce(room *Room, ev dto.Event) {
	h.deliver(room, ev)
	h.deliver(room, dto.Event{
		Type:   dto.EventUserCountUpdate,
		RoomID: room.ID,
		Count:  len(room.Clients),
	})
}

// deliver fans the event out to every client in the room, dropping
// clients whose send buffer is stuck.
func (h *Hub) deliver(room *Room, ev dto.Event) {
	delivered := 0
	for _, client := range room.Clients {
		select {
		case client.Send <- ev:
			delivered++
		default:
			close(client.Send)
			delete(room.Clients, client.ID)
			decConnections()
		}
	}
	if delivered > 0 {
		addDelivered(delivered)
	}
}

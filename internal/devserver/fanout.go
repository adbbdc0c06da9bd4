package devserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"chat-room-client/internal/dto"
)

func fanoutChannel(roomID string) string {
	return "room:" + roomID
}

// publish pushes a confirmed event onto the room's redis channel so every
// server instance, this one included, rebroadcasts it locally.
func (h *Handler) publish(roomID string, ev dto.Event) error {
	if h.redisClient == nil {
		return fmt.Errorf("fanout publish: redis client not initialised")
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("fanout publish: marshal event: %w", err)
	}

	if err := h.redisClient.Publish(context.Background(), fanoutChannel(roomID), payload).Err(); err != nil {
		return fmt.Errorf("fanout publish: redis publish: %w", err)
	}
	return nil
}

// ensureSubscribed starts the room's redis subscription loop once. A
// no-op without redis.
func (h *Handler) ensureSubscribed(roomID string) {
	if h.redisClient == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribed[roomID] {
		return
	}
	h.subscribed[roomID] = true

	go h.subscribeRoom(roomID)
}

func (h *Handler) subscribeRoom(roomID string) {
	log.Printf("subscribing to fanout channel %s", fanoutChannel(roomID))
	subscriber := h.redisClient.Subscribe(context.Background(), fanoutChannel(roomID))
	defer subscriber.Close()

	for msg := range subscriber.Channel() {
		var ev dto.Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			log.Printf("fanout: dropping undecodable payload on %s: %v", msg.Channel, err)
			continue
		}
		h.hub.Broadcast <- outbound{RoomID: roomID, Event: ev}
	}
	log.Printf("unsubscribed from fanout channel %s", fanoutChannel(roomID))
}

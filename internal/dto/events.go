package dto

import "time"

// Event types carried on the room channel. Servers may emit types the
// client does not know about; unknown types are skipped, never fatal.
const (
	EventNewMessage      = "new_message"
	EventUserCountUpdate = "user_count_update"
	EventUserJoined      = "user_joined"
	EventUserLeft        = "user_left"
	EventSendMessage     = "send_message"
)

// Event is the wire envelope for every message on the room channel, in
// both directions. Fields are populated depending on Type.
type Event struct {
	Type      string    `json:"type"`
	ID        string    `json:"id,omitempty"`
	RoomID    string    `json:"roomId,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	Name      string    `json:"name,omitempty"`
	Text      string    `json:"text,omitempty"`
	SentAt    time.Time `json:"sentAt,omitempty"`
	Count     int       `json:"count,omitempty"`
	ClientTag string    `json:"clientTag,omitempty"`
}

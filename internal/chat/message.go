package chat

import "time"

// User identifies the local participant. The identity is supplied by the
// caller; this package never reads it from ambient process state.
type User struct {
	ID   string
	Name string
}

// DeliveryState tracks how far a message has progressed toward server
// confirmation. Messages received from other participants are always
// confirmed.
type DeliveryState int

const (
	DeliveryConfirmed DeliveryState = iota
	DeliveryPending
	DeliveryUncertain
)

func (d DeliveryState) String() string {
	switch d {
	case DeliveryConfirmed:
		return "confirmed"
	case DeliveryPending:
		return "pending"
	case DeliveryUncertain:
		return "uncertain"
	default:
		return "unknown"
	}
}

// Message is one entry in a room's message list. Immutable once confirmed;
// a pending entry may be replaced in place when the server echoes its
// correlation tag back.
type Message struct {
	ID         string
	AuthorID   string
	AuthorName string
	Text       string
	SentAt     time.Time
	ClientTag  string
	Delivery   DeliveryState
}

package chat

import (
	"time"

	"github.com/google/uuid"

	"chat-room-client/internal/dto"
)

// optimisticIDPrefix keeps locally generated ids disjoint from the
// server's id space.
const optimisticIDPrefix = "local-"

// Reconciler merges the history snapshot, locally originated optimistic
// entries, and server-confirmed events into one ordered, duplicate-free
// message list. List order is append order, which approximates send order
// under normal network conditions; no resequencing pass is performed.
//
// Not safe for concurrent use; the owning session mutates it from a single
// event loop.
type Reconciler struct {
	localUser User
	messages  []Message
	seen      map[string]bool
	seeded    bool
}

func NewReconciler(localUser User) *Reconciler {
	return &Reconciler{
		localUser: localUser,
		seen:      make(map[string]bool),
	}
}

// Seed installs the loaded history snapshot. Called before any live event
// it replaces the list wholesale. When live events or local sends beat the
// history fetch, the snapshot is inserted ahead of the existing entries
// instead, so nothing already applied is dropped; entries whose ids were
// already seen are skipped.
func (r *Reconciler) Seed(history []Message) {
	if r.seeded {
		return
	}
	r.seeded = true

	fresh := make([]Message, 0, len(history))
	for _, m := range history {
		if r.seen[m.ID] {
			continue
		}
		m.Delivery = DeliveryConfirmed
		r.seen[m.ID] = true
		fresh = append(fresh, m)
	}
	r.messages = append(fresh, r.messages...)
}

// AppendOptimistic synthesizes a pending entry for a message the local
// user just sent and appends it at the tail, so the sender sees it without
// waiting for the server. The returned message carries the correlation tag
// the outbound event must include.
func (r *Reconciler) AppendOptimistic(text string, now time.Time) Message {
	m := Message{
		ID:         optimisticIDPrefix + uuid.NewString(),
		AuthorID:   r.localUser.ID,
		AuthorName: r.localUser.Name,
		Text:       text,
		SentAt:     now,
		ClientTag:  uuid.NewString(),
		Delivery:   DeliveryPending,
	}
	r.seen[m.ID] = true
	r.messages = append(r.messages, m)
	return m
}

// ApplyServerEvent folds an inbound channel event into the list. Only
// new_message events mutate it; everything else is ignored here. Returns
// true when the list changed.
func (r *Reconciler) ApplyServerEvent(ev dto.Event) bool {
	if ev.Type != dto.EventNewMessage {
		return false
	}
	if ev.ID != "" && r.seen[ev.ID] {
		// Server retry of an event already applied.
		return false
	}

	// Exact reconciliation: the server echoed our correlation tag, so the
	// pending entry is replaced in place with the canonical copy, adopting
	// the server id and timestamp while keeping its position.
	if ev.ClientTag != "" {
		for i := range r.messages {
			if r.messages[i].Delivery != DeliveryConfirmed && r.messages[i].ClientTag == ev.ClientTag {
				delete(r.seen, r.messages[i].ID)
				r.messages[i] = messageFromEvent(ev)
				r.seen[ev.ID] = true
				return true
			}
		}
	}

	// Fallback for servers that do not echo the tag: an event authored by
	// the local user is its echo of a message already shown optimistically.
	// The echo is dropped, not appended; the oldest pending entry is
	// settled so the ack sweep does not later flag a delivered message.
	if ev.UserID == r.localUser.ID {
		for i := range r.messages {
			if r.messages[i].Delivery == DeliveryPending {
				r.messages[i].Delivery = DeliveryConfirmed
				return true
			}
		}
		return false
	}

	m := messageFromEvent(ev)
	r.seen[m.ID] = true
	r.messages = append(r.messages, m)
	return true
}

// ExpirePending flips pending entries sent before cutoff to uncertain, so
// the caller can render a delivery-unknown affordance. Returns how many
// entries changed.
func (r *Reconciler) ExpirePending(cutoff time.Time) int {
	changed := 0
	for i := range r.messages {
		if r.messages[i].Delivery == DeliveryPending && r.messages[i].SentAt.Before(cutoff) {
			r.messages[i].Delivery = DeliveryUncertain
			changed++
		}
	}
	return changed
}

// MarkUncertain flags the pending entry carrying tag after a failed send.
func (r *Reconciler) MarkUncertain(tag string) bool {
	for i := range r.messages {
		if r.messages[i].Delivery == DeliveryPending && r.messages[i].ClientTag == tag {
			r.messages[i].Delivery = DeliveryUncertain
			return true
		}
	}
	return false
}

// Messages returns a copy of the current list.
func (r *Reconciler) Messages() []Message {
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

func (r *Reconciler) Len() int {
	return len(r.messages)
}

func messageFromEvent(ev dto.Event) Message {
	return Message{
		ID:         ev.ID,
		AuthorID:   ev.UserID,
		AuthorName: ev.Name,
		Text:       ev.Text,
		SentAt:     ev.SentAt,
		ClientTag:  ev.ClientTag,
		Delivery:   DeliveryConfirmed,
	}
}

package chat

import "chat-room-client/internal/dto"

// PresenceTracker derives the number of participants currently connected
// to the room from server-pushed presence events. The server's periodic
// count snapshot is the single source of truth: user_joined and user_left
// are informational and never mutate the count, which avoids
// double-counting races between individual notifications and snapshots.
//
// Not safe for concurrent use; owned by the session's event loop.
type PresenceTracker struct {
	count int
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{}
}

// Apply consumes a channel event. Last value wins; returns true when the
// count changed.
func (p *PresenceTracker) Apply(ev dto.Event) bool {
	if ev.Type != dto.EventUserCountUpdate {
		return false
	}
	if ev.Count < 0 {
		return false
	}
	if ev.Count == p.count {
		return false
	}
	p.count = ev.Count
	return true
}

// Count returns the latest server-reported participant count.
func (p *PresenceTracker) Count() int {
	return p.count
}

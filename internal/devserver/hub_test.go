package devserver

import (
	"testing"
	"time"

	"chat-room-client/internal/dto"
)

func testClient(userID, username, roomID string) *Client {
	return &Client{
		Send:     make(chan dto.Event, 10),
		ID:       userID,
		Username: username,
		RoomID:   roomID,
		done:     make(chan struct{}),
	}
}

func recv(t *testing.T, cl *Client) dto.Event {
	t.Helper()
	select {
	case ev := <-cl.Send:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return dto.Event{}
	}
}

func TestHubAnnouncesMembershipAndCount(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c1 := testClient("u1", "Ann", "r1")
	hub.Register <- c1

	joined := recv(t, c1)
	if joined.Type != dto.EventUserJoined || joined.UserID != "u1" {
		t.Fatalf("expected own join event, got %+v", joined)
	}
	count := recv(t, c1)
	if count.Type != dto.EventUserCountUpdate || count.Count != 1 {
		t.Fatalf("expected count 1, got %+v", count)
	}

	c2 := testClient("u2", "Bea", "r1")
	hub.Register <- c2

	joined = recv(t, c1)
	if joined.Type != dto.EventUserJoined || joined.UserID != "u2" {
		t.Fatalf("expected u2 join event, got %+v", joined)
	}
	count = recv(t, c1)
	if count.Count != 2 {
		t.Fatalf("expected count 2, got %+v", count)
	}

	hub.Unregister <- c2
	left := recv(t, c1)
	if left.Type != dto.EventUserLeft || left.UserID != "u2" {
		t.Fatalf("expected u2 leave event, got %+v", left)
	}
	count = recv(t, c1)
	if count.Count != 1 {
		t.Fatalf("expected count 1 after leave, got %+v", count)
	}
}

func drainMembership(t *testing.T, cl *Client) {
	t.Helper()
	for {
		ev := recv(t, cl)
		if ev.Type == dto.EventUserCountUpdate && len(cl.Send) == 0 {
			return
		}
	}
}

func TestHubBroadcastReachesWholeRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c1 := testClient("u1", "Ann", "r1")
	c2 := testClient("u2", "Bea", "r1")
	other := testClient("u3", "Cal", "r2")
	hub.Register <- c1
	hub.Register <- c2
	hub.Register <- other

	// Drain the membership chatter queued during registration.
	drainMembership(t, c1)
	drainMembership(t, c2)
	drainMembership(t, other)

	hub.Broadcast <- outbound{RoomID: "r1", Event: dto.Event{
		Type: dto.EventNewMessage, ID: "srv1", UserID: "u1", Text: "hello",
	}}

	for _, cl := range []*Client{c1, c2} {
		ev := recv(t, cl)
		if ev.Type != dto.EventNewMessage || ev.ID != "srv1" {
			t.Fatalf("client %s got %+v", cl.ID, ev)
		}
	}
	select {
	case ev := <-other.Send:
		t.Fatalf("client in another room received %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

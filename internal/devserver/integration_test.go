package devserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chat-room-client/internal/chat"
	"chat-room-client/internal/dto"
)

func newRoomServer(t *testing.T, store *HistoryStore) *httptest.Server {
	t.Helper()

	hub := NewHub()
	go hub.Run()
	h := NewHandler(hub, store, nil, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	mux.HandleFunc("/room/", func(w http.ResponseWriter, r *http.Request) {
		if err := h.History(w, r); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestEngineAgainstLiveRoomServer(t *testing.T) {
	store := NewHistoryStore(50)
	store.Append("r1", dto.HistoryMessage{
		ID: "m1", UserID: "u2", Name: "Bea", Text: "hi", SentAt: time.Now().UTC(),
	})
	srv := newRoomServer(t, store)

	user := chat.User{ID: "u1", Name: "Ann"}
	history := chat.NewHistoryClient(srv.URL, 5*time.Second)
	channel, err := chat.NewChannel(srv.URL+"/ws", "r1", user, chat.ChannelOptions{})
	if err != nil {
		t.Fatalf("channel setup: %v", err)
	}

	session, err := chat.NewSession("r1", user, history, channel, chat.SessionOptions{})
	if err != nil {
		t.Fatalf("session setup: %v", err)
	}
	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer session.Close()

	// History seeds and presence reflects the join.
	waitUntil(t, func() bool {
		return len(session.Messages()) == 1 && session.PresenceCount() == 1
	})
	if got := session.Messages(); got[0].ID != "m1" {
		t.Fatalf("unexpected seeded list: %+v", got)
	}

	// The send round-trips: the optimistic entry is replaced by the
	// server's canonical copy via the correlation tag.
	if err := session.Send("hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	waitUntil(t, func() bool {
		got := session.Messages()
		return len(got) == 2 &&
			got[1].Delivery == chat.DeliveryConfirmed &&
			!strings.HasPrefix(got[1].ID, "local-")
	})

	if got := store.List("r1"); len(got) != 2 || got[1].Text != "hello" {
		t.Fatalf("server history missing the message: %+v", got)
	}
}

func TestTwoParticipantsSeeEachOther(t *testing.T) {
	srv := newRoomServer(t, NewHistoryStore(50))

	start := func(id, name string) *chat.Session {
		user := chat.User{ID: id, Name: name}
		channel, err := chat.NewChannel(srv.URL+"/ws", "r1", user, chat.ChannelOptions{})
		if err != nil {
			t.Fatalf("channel setup: %v", err)
		}
		s, err := chat.NewSession("r1", user, chat.NewHistoryClient(srv.URL, 5*time.Second), channel, chat.SessionOptions{})
		if err != nil {
			t.Fatalf("session setup: %v", err)
		}
		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("start: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	}

	ann := start("u1", "Ann")
	bea := start("u2", "Bea")

	waitUntil(t, func() bool {
		return ann.PresenceCount() == 2 && bea.PresenceCount() == 2
	})

	if err := ann.Send("hello bea"); err != nil {
		t.Fatalf("send: %v", err)
	}

	waitUntil(t, func() bool {
		got := bea.Messages()
		return len(got) == 1 && got[0].Text == "hello bea" && got[0].AuthorName == "Ann"
	})

	bea.Close()
	waitUntil(t, func() bool { return ann.PresenceCount() == 1 })
}

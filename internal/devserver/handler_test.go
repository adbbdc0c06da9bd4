package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chat-room-client/internal/api"
	"chat-room-client/internal/dto"
)

func TestHistoryEndpointReturnsRoomMessages(t *testing.T) {
	store := NewHistoryStore(10)
	store.Append("r1", dto.HistoryMessage{ID: "m1", UserID: "u2", Name: "Bea", Text: "hi"})
	h := NewHandler(NewHub(), store, nil, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/room/r1/messages", nil)
	if err := h.History(rec, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body dto.HistoryResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || len(body.Message) != 1 || body.Message[0].ID != "m1" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHistoryEndpointRejectsBadPaths(t *testing.T) {
	h := NewHandler(NewHub(), NewHistoryStore(10), nil, nil)

	for _, path := range []string{"/room//messages", "/room/r1", "/rooms/r1/messages"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		err := h.History(rec, req)

		var httpErr *api.HTTPError
		if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
			t.Errorf("path %s: expected 404, got %v", path, err)
		}
	}
}

func TestHistoryEndpointRejectsNonGet(t *testing.T) {
	h := NewHandler(NewHub(), NewHistoryStore(10), nil, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/room/r1/messages", strings.NewReader("{}"))
	err := h.History(rec, req)

	var httpErr *api.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %v", err)
	}
}

func TestAcceptMessageStampsAndFansOut(t *testing.T) {
	hub := NewHub()
	store := NewHistoryStore(10)
	h := NewHandler(hub, store, nil, nil)
	cl := newClient(nil, "r1", "u1", "Ann")

	h.acceptMessage(cl, dto.Event{
		Type: dto.EventSendMessage, RoomID: "r1", UserID: "u1", Text: "hello", ClientTag: "tag-1",
	})

	select {
	case out := <-hub.Broadcast:
		ev := out.Event
		if out.RoomID != "r1" || ev.Type != dto.EventNewMessage {
			t.Fatalf("unexpected broadcast: %+v", out)
		}
		if ev.ID == "" || strings.HasPrefix(ev.ID, "local-") {
			t.Fatalf("server must assign a canonical id, got %q", ev.ID)
		}
		if ev.Name != "Ann" || ev.ClientTag != "tag-1" {
			t.Fatalf("identity or tag lost: %+v", ev)
		}
		if ev.SentAt.IsZero() {
			t.Fatal("server must stamp the send time")
		}
	case <-time.After(time.Second):
		t.Fatal("no broadcast observed")
	}

	got := store.List("r1")
	if len(got) != 1 || got[0].Text != "hello" {
		t.Fatalf("message not recorded: %+v", got)
	}
}

func TestServeWSRequiresSubscriberMetadata(t *testing.T) {
	h := NewHandler(NewHub(), NewHistoryStore(10), nil, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws?roomId=r1", nil)
	h.ServeWS(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without userId, got %d", rec.Code)
	}
}

package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchHistoryReturnsOrderedSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/room/r1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"message": [
				{"id":"m1","userId":"u2","name":"Bea","text":"hi","sentAt":"2025-06-01T12:00:00Z"},
				{"id":"m2","userId":"u3","name":"Cal","text":"hey","sentAt":"2025-06-01T12:01:00Z"}
			]
		}`))
	}))
	defer srv.Close()

	client := NewHistoryClient(srv.URL, 5*time.Second)
	got, err := client.FetchHistory(context.Background(), "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0].ID != "m1" || got[1].ID != "m2" {
		t.Fatalf("snapshot out of order: %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].AuthorName != "Bea" || got[0].Delivery != DeliveryConfirmed {
		t.Fatalf("unexpected first entry: %+v", got[0])
	}
	want := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if !got[0].SentAt.Equal(want) {
		t.Fatalf("expected sentAt %s, got %s", want, got[0].SentAt)
	}
}

func TestFetchHistoryServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewHistoryClient(srv.URL, 5*time.Second)
	_, err := client.FetchHistory(context.Background(), "r1")
	if CodeOf(err) != ErrorCodeHistoryUnavailable {
		t.Fatalf("expected history_unavailable, got %v", err)
	}
}

func TestFetchHistoryUnreachable(t *testing.T) {
	client := NewHistoryClient("http://127.0.0.1:1", 500*time.Millisecond)
	_, err := client.FetchHistory(context.Background(), "r1")
	if CodeOf(err) != ErrorCodeHistoryUnavailable {
		t.Fatalf("expected history_unavailable, got %v", err)
	}
}

func TestFetchHistoryReportedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "message": []}`))
	}))
	defer srv.Close()

	client := NewHistoryClient(srv.URL, 5*time.Second)
	_, err := client.FetchHistory(context.Background(), "r1")
	if CodeOf(err) != ErrorCodeHistoryUnavailable {
		t.Fatalf("expected history_unavailable, got %v", err)
	}
}

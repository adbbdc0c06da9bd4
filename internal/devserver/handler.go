package devserver

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"

	"chat-room-client/internal/api"
	"chat-room-client/internal/dto"
	"chat-room-client/internal/queue"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler accepts channel connections and serves room history. When a
// redis client is configured, confirmed messages fan out through pub/sub
// so multiple server instances see them; otherwise they go straight to
// the local hub.
type Handler struct {
	hub          *Hub
	store        *HistoryStore
	redisClient  *redis.Client
	publishQueue *queue.RequestQueueManager

	mu         sync.Mutex
	subscribed map[string]bool
}

func NewHandler(hub *Hub, store *HistoryStore, redisClient *redis.Client, publishQueue *queue.RequestQueueManager) *Handler {
	return &Handler{
		hub:          hub,
		store:        store,
		redisClient:  redisClient,
		publishQueue: publishQueue,
		subscribed:   make(map[string]bool),
	}
}

// ServeWS upgrades the connection for a subscriber identified by the
// roomId, userId and username query options.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("roomId")
	userID := r.URL.Query().Get("userId")
	username := r.URL.Query().Get("username")
	if roomID == "" || userID == "" {
		http.Error(w, "roomId and userId are required", http.StatusBadRequest)
		return
	}
	if username == "" {
		username = "Anonymous"
	}

	h.ensureSubscribed(roomID)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	cl := newClient(conn, roomID, userID, username)
	h.hub.Register <- cl

	go cl.keepAlive()
	go cl.writePump()
	go cl.readPump(h)
}

// History handles GET /room/{roomId}/messages.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodGet {
		return &api.HTTPError{StatusCode: http.StatusMethodNotAllowed, Message: "method not allowed"}
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// room/{roomId}/messages
	if len(parts) != 3 || parts[0] != "room" || parts[2] != "messages" || parts[1] == "" {
		return &api.HTTPError{StatusCode: http.StatusNotFound, Message: "not found"}
	}

	return api.WriteJSON(w, http.StatusOK, dto.HistoryResponse{
		Success: true,
		Message: h.store.List(parts[1]),
	})
}

// acceptMessage stamps a client submission with its canonical id and
// timestamp, records it, and fans it out. The correlation tag travels
// back on the confirmed event so the sender can reconcile its optimistic
// entry exactly.
func (h *Handler) acceptMessage(cl *Client, ev dto.Event) {
	confirmed := dto.Event{
		Type:      dto.EventNewMessage,
		ID:        newMessageID(),
		RoomID:    cl.RoomID,
		UserID:    cl.ID,
		Name:      cl.Username,
		Text:      ev.Text,
		SentAt:    time.Now().UTC(),
		ClientTag: ev.ClientTag,
	}

	h.store.Append(cl.RoomID, dto.HistoryMessage{
		ID:     confirmed.ID,
		UserID: confirmed.UserID,
		Name:   confirmed.Name,
		Text:   confirmed.Text,
		SentAt: confirmed.SentAt,
	})

	h.dispatch(cl.RoomID, confirmed)
}

func (h *Handler) dispatch(roomID string, ev dto.Event) {
	if h.redisClient == nil {
		h.hub.Broadcast <- outbound{RoomID: roomID, Event: ev}
		return
	}
	h.publishQueue.EnqueueJob(queue.Job{
		Fn: func() error {
			return h.publish(roomID, ev)
		},
	})
}

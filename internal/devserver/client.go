package devserver

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-room-client/internal/dto"
)

// Client is one connected participant's websocket.
type Client struct {
	Conn     *websocket.Conn
	Send     chan dto.Event
	ID       string
	Username string
	RoomID   string
	done     chan struct{}
	mu       sync.Mutex
	isClosed bool
}

func newClient(conn *websocket.Conn, roomID, userID, username string) *Client {
	return &Client{
		Conn:     conn,
		Send:     make(chan dto.Event, 10),
		ID:       userID,
		Username: username,
		RoomID:   roomID,
		done:     make(chan struct{}),
	}
}

func (cl *Client) keepAlive() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-cl.done:
			return
		case <-ticker.C:
			cl.mu.Lock()
			if cl.isClosed {
				cl.mu.Unlock()
				return
			}
			err := cl.Conn.WriteMessage(websocket.PingMessage, nil)
			cl.mu.Unlock()

			if err != nil {
				log.Printf("ping error for client %s: %v", cl.ID, err)
				return
			}
		}
	}
}

func (cl *Client) writePump() {
	defer func() {
		cl.mu.Lock()
		cl.isClosed = true
		cl.Conn.Close()
		cl.mu.Unlock()
	}()

	for {
		select {
		case <-cl.done:
			return
		case ev, ok := <-cl.Send:
			if !ok {
				return
			}

			cl.mu.Lock()
			if cl.isClosed {
				cl.mu.Unlock()
				return
			}
			err := cl.Conn.WriteJSON(ev)
			cl.mu.Unlock()

			if err != nil {
				log.Printf("error sending event to client %s: %v", cl.ID, err)
				return
			}
		}
	}
}

// readPump parses inbound client envelopes and hands send_message events
// to the handler. Anything else from a client is ignored.
func (cl *Client) readPump(h *Handler) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("recovered from panic in readPump: %v", r)
		}

		if cl.done != nil {
			close(cl.done)
		}

		h.hub.Unregister <- cl
		log.Printf("client %s disconnected from room %s", cl.ID, cl.RoomID)
	}()

	cl.Conn.SetReadLimit(512 * 1024)

	for {
		_, payload, err := cl.Conn.ReadMessage()
		if err != nil {
			if closeErr, ok := err.(*websocket.CloseError); ok {
				if closeErr.Code == websocket.CloseNormalClosure ||
					closeErr.Code == websocket.CloseGoingAway ||
					closeErr.Code == websocket.CloseNoStatusReceived {
					break
				}
			}
			log.Printf("error reading from client %s: %v", cl.ID, err)
			break
		}

		var ev dto.Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			log.Printf("client %s sent undecodable frame: %v", cl.ID, err)
			continue
		}
		if ev.Type != dto.EventSendMessage {
			continue
		}
		h.acceptMessage(cl, ev)
	}
}

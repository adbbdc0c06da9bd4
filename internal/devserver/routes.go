package devserver

import (
	"net/http"

	"chat-room-client/internal/api"
)

// Routes mounts the channel endpoint and the history endpoint. The
// websocket upgrade is registered directly: it must not occupy a request
// queue worker for the connection's lifetime.
func Routes(h *Handler) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.Server) {
		mux.HandleFunc("/ws", h.ServeWS)
		mux.HandleFunc("/room/", s.MakeHTTPHandleFunc(h.History))
		mux.HandleFunc("/health", s.MakeHTTPHandleFunc(health))
	}
}

func health(w http.ResponseWriter, r *http.Request) error {
	return api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

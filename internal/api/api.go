package api

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"chat-room-client/internal/queue"
)

type RouteRegistrar func(mux *http.ServeMux, s *Server)

// Server is the room server's HTTP front: it mounts whatever routes the
// registrars contribute, instruments them, and exposes /metrics.
type Server struct {
	listenAddr          string
	requestQueueManager *queue.RequestQueueManager
	routeRegistrars     []RouteRegistrar
	cors                CORSOptions
	metrics             *metrics
}

// CORSOptions configures the headers MakeHTTPHandleFunc emits. The zero
// value allows any origin, which suits local development.
type CORSOptions struct {
	AllowedOrigins []string
}

func NewServer(listenAddr string, rqm *queue.RequestQueueManager, cors CORSOptions, registrars ...RouteRegistrar) *Server {
	if len(cors.AllowedOrigins) == 0 {
		cors.AllowedOrigins = []string{"*"}
	}
	return &Server{
		listenAddr:          listenAddr,
		requestQueueManager: rqm,
		routeRegistrars:     registrars,
		cors:                cors,
		metrics:             newMetrics(prometheus.DefaultRegisterer, listenAddr, rqm),
	}
}

func (s *Server) Run() {
	mux := http.NewServeMux()

	for _, reg := range s.routeRegistrars {
		reg(mux, s)
	}

	mux.Handle("/metrics", s.metrics.metricsHandler())

	fmt.Printf("Server listening on http://localhost%s\n", s.listenAddr)

	if err := http.ListenAndServe(s.listenAddr, s.metrics.instrument(mux)); err != nil {
		fmt.Printf("server stopped: %v\n", err)
	}
}

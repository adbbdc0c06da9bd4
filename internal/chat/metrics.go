package chat

import "github.com/prometheus/client_golang/prometheus"

var (
	messagesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_client_messages_sent_total",
			Help: "Total messages sent through a room channel.",
		},
	)
	eventsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_client_events_applied_total",
			Help: "Total inbound channel events applied, by type.",
		},
		[]string{"type"},
	)
	reconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_client_reconnects_total",
			Help: "Total reconnect attempts across all channels.",
		},
	)
)

func init() {
	prometheus.MustRegister(messagesSent, eventsApplied, reconnects)
}

func incMessagesSent() {
	messagesSent.Inc()
}

func incEventsApplied(eventType string) {
	eventsApplied.WithLabelValues(eventType).Inc()
}

func incReconnects() {
	reconnects.Inc()
}

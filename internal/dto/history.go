package dto

import "time"

// HistoryMessage is one past message as returned by the history endpoint.
type HistoryMessage struct {
	ID     string    `json:"id"`
	UserID string    `json:"userId"`
	Name   string    `json:"name"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sentAt"`
}

// HistoryResponse is the body of GET /room/{roomId}/messages.
type HistoryResponse struct {
	Success bool             `json:"success"`
	Message []HistoryMessage `json:"message"`
}

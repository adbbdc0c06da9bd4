package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chat-room-client/internal/dto"
)

// HistoryFetcher loads a room's past messages. Implementations must be
// idempotent and safe to retry.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, roomID string) ([]Message, error)
}

// HistoryClient fetches room history over HTTP from
// GET {base}/room/{roomId}/messages.
type HistoryClient struct {
	baseURL string
	client  *http.Client
}

func NewHistoryClient(baseURL string, timeout time.Duration) *HistoryClient {
	return &HistoryClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchHistory returns the room's message snapshot in server order. Every
// failure mode maps to ErrorCodeHistoryUnavailable so the caller can
// render a retry affordance without blocking the live channel.
func (c *HistoryClient) FetchHistory(ctx context.Context, roomID string) ([]Message, error) {
	endpoint := fmt.Sprintf("%s/room/%s/messages", c.baseURL, url.PathEscape(roomID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, newError(ErrorCodeHistoryUnavailable, "history request build failed", err)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, newError(ErrorCodeHistoryUnavailable, "history fetch failed", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, newError(ErrorCodeHistoryUnavailable,
			fmt.Sprintf("history endpoint returned %d", res.StatusCode), nil)
	}

	var body dto.HistoryResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, newError(ErrorCodeHistoryUnavailable, "history decode failed", err)
	}
	if !body.Success {
		return nil, newError(ErrorCodeHistoryUnavailable, "history endpoint reported failure", nil)
	}

	messages := make([]Message, 0, len(body.Message))
	for _, m := range body.Message {
		messages = append(messages, Message{
			ID:         m.ID,
			AuthorID:   m.UserID,
			AuthorName: m.Name,
			Text:       m.Text,
			SentAt:     m.SentAt,
			Delivery:   DeliveryConfirmed,
		})
	}
	return messages, nil
}

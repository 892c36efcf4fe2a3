package gateway

import (
	"context"
	"fmt"
	"time"
)

type Message struct {
	Role    string
	Content string
}

type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int

	// Timeout bounds this single call; zero means no client-side bound.
	Timeout time.Duration
}

type ChatCompletion struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// ModelPrice carries per-token prices in USD.
type ModelPrice struct {
	Model       string
	InputPrice  float64
	OutputPrice float64
}

// Gateway is the LLM-serving endpoint abstracted behind a request/response
// capability. Implementations must issue exactly one upstream request per
// CompleteChat call.
type Gateway interface {
	CompleteChat(ctx context.Context, req ChatRequest) (ChatCompletion, error)
	ListModelPricing(ctx context.Context) ([]ModelPrice, error)
}

// StatusError is returned when the upstream answers with a non-success
// status. Body is truncated by implementations to keep logs bounded.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "upstream http error"
	}
	if e.Body == "" {
		return fmt.Sprintf("upstream http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("upstream http error: status=%d body=%s", e.StatusCode, e.Body)
}

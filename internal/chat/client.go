package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RAGClient talks to the retrieval-augmented chat backend. Answers come
// from the deal's indexed documents; this service only proxies.
type RAGClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewRAGClient(baseURL string) *RAGClient {
	return &RAGClient{
		baseURL: baseURL,
		// RAG answers can take a while; generous timeout
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Message is one chat turn forwarded as conversation context.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type AskRequest struct {
	DealID   string    `json:"deal_id"`
	Question string    `json:"question"`
	History  []Message `json:"history,omitempty"`
}

type AskResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources,omitempty"`
}

func (c *RAGClient) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("rag request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read rag response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rag returned %d: %s", resp.StatusCode, truncate(string(raw), 256))
	}

	var out AskResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode rag response: %w", err)
	}
	return &out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

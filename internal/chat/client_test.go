package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chat", r.URL.Path)

		var req AskRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "deal-1", req.DealID)
		assert.Equal(t, "what is the SOW scope?", req.Question)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(AskResponse{
			Answer:  "The scope covers migration of 40 workloads.",
			Sources: []string{"sow-draft.docx"},
		})
	}))
	defer srv.Close()

	client := NewRAGClient(srv.URL)
	resp, err := client.Ask(context.Background(), AskRequest{
		DealID:   "deal-1",
		Question: "what is the SOW scope?",
	})
	require.NoError(t, err)
	assert.Equal(t, "The scope covers migration of 40 workloads.", resp.Answer)
	assert.Equal(t, []string{"sow-draft.docx"}, resp.Sources)
}

func TestAskUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewRAGClient(srv.URL)
	_, err := client.Ask(context.Background(), AskRequest{DealID: "deal-1", Question: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestAskBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewRAGClient(srv.URL)
	_, err := client.Ask(context.Background(), AskRequest{DealID: "deal-1", Question: "hi"})
	assert.Error(t, err)
}

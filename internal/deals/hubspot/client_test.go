package hubspot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sowdesk/sowdesk-backend/internal/deals/domain"
)

func TestClient_GetDeal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/crm/v3/objects/deals/901" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("expected bearer token, got: %s", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"id": "901",
			"properties": {
				"dealname": "Acme Cloud Migration",
				"amount": "125000.50",
				"closedate": "2026-10-01T00:00:00Z",
				"hubspot_owner_email": "owner@example.com"
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	deal, err := client.GetDeal(context.Background(), "901")
	require.NoError(t, err)

	assert.Equal(t, "901", deal.ID)
	assert.Equal(t, "Acme Cloud Migration", deal.Name)
	assert.Equal(t, 125000.50, deal.Amount)
	assert.Equal(t, "owner@example.com", deal.OwnerEmail)
	require.NotNil(t, deal.TargetDate)
	assert.Equal(t, 2026, deal.TargetDate.Year())
}

func TestClient_GetDeal_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	_, err := client.GetDeal(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_ListDeals_Paging(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("after") == "" {
			w.Write([]byte(`{
				"results": [{"id": "1", "properties": {"dealname": "First"}}],
				"paging": {"next": {"after": "cursor-2"}}
			}`))
			return
		}
		if r.URL.Query().Get("after") != "cursor-2" {
			t.Errorf("unexpected cursor: %s", r.URL.Query().Get("after"))
		}
		w.Write([]byte(`{"results": [{"id": "2", "properties": {"dealname": "Second"}}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	ctx := context.Background()

	first, next, err := client.ListDeals(ctx, "", 100)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "First", first[0].Name)
	assert.Equal(t, "cursor-2", next)

	second, next, err := client.ListDeals(ctx, next, 100)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "Second", second[0].Name)
	assert.Empty(t, next)
}

func TestClient_ListDeals_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, _, err := client.ListDeals(context.Background(), "", 10)
	assert.Error(t, err)
}

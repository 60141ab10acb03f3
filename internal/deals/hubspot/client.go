package hubspot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/sowdesk/sowdesk-backend/internal/deals/domain"
)

const (
	defaultTimeout = 10 * time.Second

	// HubSpot enforces ~110 requests per 10s on private app tokens; stay
	// comfortably under it.
	requestsPerSecond = 8
	burstSize         = 16
)

// Client reads deals from the HubSpot CRM API. This service only mirrors;
// no writes go back to the CRM.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a HubSpot client with a private-app token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize),
	}
}

type dealProperties struct {
	DealName   string `json:"dealname"`
	Amount     string `json:"amount"`
	CloseDate  string `json:"closedate"`
	OwnerEmail string `json:"hubspot_owner_email"`
}

type dealObject struct {
	ID         string         `json:"id"`
	Properties dealProperties `json:"properties"`
}

type listResponse struct {
	Results []dealObject `json:"results"`
	Paging  *struct {
		Next struct {
			After string `json:"after"`
		} `json:"next"`
	} `json:"paging"`
}

// GetDeal fetches one deal by CRM id.
func (c *Client) GetDeal(ctx context.Context, id string) (*domain.Deal, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := c.baseURL + "/crm/v3/objects/deals/" + url.PathEscape(id) +
		"?properties=dealname,amount,closedate,hubspot_owner_email"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hubspot request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hubspot returned status %d", resp.StatusCode)
	}

	var obj dealObject
	if err := json.NewDecoder(resp.Body).Decode(&obj); err != nil {
		return nil, fmt.Errorf("decode deal: %w", err)
	}
	return mapDeal(obj), nil
}

// ListDeals fetches one page of deals. after is the paging cursor from the
// previous page; empty for the first page.
func (c *Client) ListDeals(ctx context.Context, after string, limit int) ([]domain.Deal, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	u, err := url.Parse(c.baseURL + "/crm/v3/objects/deals")
	if err != nil {
		return nil, "", fmt.Errorf("parse base URL: %w", err)
	}
	q := u.Query()
	q.Set("properties", "dealname,amount,closedate,hubspot_owner_email")
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	q.Set("limit", strconv.Itoa(limit))
	if after != "" {
		q.Set("after", after)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("hubspot request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("hubspot returned status %d", resp.StatusCode)
	}

	var page listResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, "", fmt.Errorf("decode deals page: %w", err)
	}

	deals := make([]domain.Deal, 0, len(page.Results))
	for _, obj := range page.Results {
		deals = append(deals, *mapDeal(obj))
	}

	next := ""
	if page.Paging != nil {
		next = page.Paging.Next.After
	}
	return deals, next, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func mapDeal(obj dealObject) *domain.Deal {
	d := &domain.Deal{
		ID:         obj.ID,
		Name:       obj.Properties.DealName,
		Currency:   "USD",
		OwnerEmail: obj.Properties.OwnerEmail,
	}
	if obj.Properties.Amount != "" {
		if amt, err := strconv.ParseFloat(obj.Properties.Amount, 64); err == nil {
			d.Amount = amt
		}
	}
	if obj.Properties.CloseDate != "" {
		if ts, err := time.Parse(time.RFC3339, obj.Properties.CloseDate); err == nil {
			d.TargetDate = &ts
		}
	}
	return d
}

package tco

import (
	"context"
	"fmt"
	"log"

	"github.com/sowdesk/sowdesk-backend/internal/tco/pricing"
	"github.com/sowdesk/sowdesk-backend/internal/tco/storage"
)

// Service refreshes the compute price cache the TCO calculator reads from.
type Service struct {
	fetcher *pricing.AWSFetcher
	store   *storage.PriceStore
}

func NewService(fetcher *pricing.AWSFetcher, store *storage.PriceStore) *Service {
	return &Service{fetcher: fetcher, store: store}
}

// Refresh pulls current prices and upserts them, returning the row count.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	rows, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch prices: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := s.store.UpsertBatch(ctx, rows); err != nil {
		return 0, fmt.Errorf("store prices: %w", err)
	}
	log.Printf("tco: refreshed %d compute price rows", len(rows))
	return len(rows), nil
}

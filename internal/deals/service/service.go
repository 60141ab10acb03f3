package service

import (
	"context"
	"fmt"

	"github.com/sowdesk/sowdesk-backend/internal/deals/domain"
	"github.com/sowdesk/sowdesk-backend/internal/deals/repository"
	"github.com/sowdesk/sowdesk-backend/internal/stage"
)

// CRMReader is the slice of the HubSpot client the mirror needs.
type CRMReader interface {
	GetDeal(ctx context.Context, id string) (*domain.Deal, error)
	ListDeals(ctx context.Context, after string, limit int) ([]domain.Deal, string, error)
}

// DealService owns the deal mirror: reads come from Postgres, refreshes come
// from the CRM, and assignment is the one locally mutable field.
type DealService struct {
	repo *repository.DealRepository
	crm  CRMReader
}

func NewDealService(repo *repository.DealRepository, crm CRMReader) *DealService {
	return &DealService{repo: repo, crm: crm}
}

func (s *DealService) Get(ctx context.Context, id string) (*domain.Deal, error) {
	return s.repo.Get(ctx, id)
}

func (s *DealService) List(ctx context.Context, f domain.ListFilter) ([]domain.Deal, error) {
	return s.repo.List(ctx, f)
}

func (s *DealService) Assign(ctx context.Context, id, assignee string) (*domain.Deal, error) {
	return s.repo.SetAssignee(ctx, id, assignee)
}

// SetDealStatus moves the deal through the review workflow.
func (s *DealService) SetDealStatus(ctx context.Context, id string, st stage.DealStatus) error {
	if !stage.ValidStatus(st) {
		return domain.ErrInvalidStatus
	}
	_, err := s.repo.SetStatus(ctx, id, st)
	return err
}

// SyncOne refreshes a single deal from the CRM and returns the stored row.
func (s *DealService) SyncOne(ctx context.Context, id string) (*domain.Deal, error) {
	fresh, err := s.crm.GetDeal(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("crm fetch: %w", err)
	}
	if err := s.repo.Upsert(ctx, fresh); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// SyncAll walks the CRM paging cursor and mirrors every deal. Returns the
// number of rows written.
func (s *DealService) SyncAll(ctx context.Context) (int, error) {
	var (
		after string
		total int
	)
	for {
		page, next, err := s.crm.ListDeals(ctx, after, 100)
		if err != nil {
			return total, fmt.Errorf("crm list: %w", err)
		}
		for i := range page {
			if err := s.repo.Upsert(ctx, &page[i]); err != nil {
				return total, err
			}
			total++
		}
		if next == "" {
			return total, nil
		}
		after = next
	}
}

package service

import (
	"context"
	"fmt"

	"github.com/sowdesk/sowdesk-backend/internal/notifications/domain"
	"github.com/sowdesk/sowdesk-backend/internal/notifications/repository"
	"github.com/sowdesk/sowdesk-backend/internal/stage"
)

// NotificationService creates and reads notifications. It also satisfies the
// generation service's Notifier.
type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	return s.repo.ListByUser(ctx, userID, limit)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) (*domain.Notification, error) {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

// NotifyStageComplete records a stage-completion notification. Called by the
// generation service after the completion latch is won, so it runs at most
// once per completed stage.
func (s *NotificationService) NotifyStageComplete(ctx context.Context, userID, dealID string, p stage.Progress) error {
	if userID == "" {
		return nil
	}
	return s.repo.Create(ctx, &domain.Notification{
		UserID:  userID,
		Type:    domain.TypeStageComplete,
		DealID:  dealID,
		Message: stageMessage(p),
	})
}

func stageMessage(p stage.Progress) string {
	switch p {
	case stage.SOWGenerated:
		return "Statement of Work generated"
	case stage.ArchitectureGenerated:
		return "Architecture document generated"
	case stage.TCOGenerated:
		return "TCO estimate generated"
	case stage.ReadyForSubmission:
		return "All artifacts ready for submission"
	default:
		return fmt.Sprintf("Generation reached %s", p)
	}
}

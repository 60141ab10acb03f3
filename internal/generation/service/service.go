package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sowdesk/sowdesk-backend/internal/generation/domain"
	"github.com/sowdesk/sowdesk-backend/internal/generation/repository"
	"github.com/sowdesk/sowdesk-backend/internal/stage"
)

// Orchestrator is the slice of the pipeline backend the service needs.
type Orchestrator interface {
	StartExecution(ctx context.Context, req StartExecutionRequest) (string, error)
	GetExecution(ctx context.Context, executionID string) (stage.Progress, error)
}

// Notifier records a user-visible notification for a completed stage.
type Notifier interface {
	NotifyStageComplete(ctx context.Context, userID, dealID string, p stage.Progress) error
}

// StatusSetter moves a deal through the review workflow. The deal service
// implements it.
type StatusSetter interface {
	SetDealStatus(ctx context.Context, dealID string, s stage.DealStatus) error
}

// GenerationService coordinates generation runs: it starts executions with
// the orchestrator, records the progress both signal channels report, and
// guarantees each stage completion takes effect exactly once.
type GenerationService struct {
	runRepo        *repository.RunRepository
	orchestrator   Orchestrator
	notifier       Notifier
	statusSetter   StatusSetter
	callbackURL    string
	callbackSecret string
}

func NewGenerationService(
	runRepo *repository.RunRepository,
	orchestrator Orchestrator,
	notifier Notifier,
	statusSetter StatusSetter,
	callbackURL, callbackSecret string,
) *GenerationService {
	return &GenerationService{
		runRepo:        runRepo,
		orchestrator:   orchestrator,
		notifier:       notifier,
		statusSetter:   statusSetter,
		callbackURL:    callbackURL,
		callbackSecret: callbackSecret,
	}
}

// GetRun retrieves a run by its ID.
func (s *GenerationService) GetRun(ctx context.Context, runID string) (*domain.GenerationRun, error) {
	return s.runRepo.GetByRunID(ctx, runID)
}

// SubscribeRun opens a subscription to the run's update events. Every
// stored change to the run is delivered as the full run JSON.
func (s *GenerationService) SubscribeRun(ctx context.Context, runID string) *redis.PubSub {
	return s.runRepo.SubscribeRun(ctx, runID)
}

// GetRunForDeal retrieves the current run for a deal.
func (s *GenerationService) GetRunForDeal(ctx context.Context, dealID string) (*domain.GenerationRun, error) {
	return s.runRepo.GetByDealID(ctx, dealID)
}

// ProgressForDeal reports the current generation stage for a deal.
// NOT_STARTED when no run exists.
func (s *GenerationService) ProgressForDeal(ctx context.Context, dealID string) (stage.Progress, error) {
	run, err := s.runRepo.GetByDealID(ctx, dealID)
	if errors.Is(err, domain.ErrRunNotFound) {
		return stage.NotStarted, nil
	}
	if err != nil {
		return stage.NotStarted, err
	}
	return run.Progress, nil
}

// StartStage starts (or re-generates) one artifact. The stage gate follows
// the projection predicates: architecture needs a final SOW, TCO needs a
// generated architecture. A re-generate resets progress to the artifact's
// in-progress stage; that is the one sanctioned backward move.
func (s *GenerationService) StartStage(ctx context.Context, dealID, userID string, artifact domain.Artifact) (*domain.GenerationRun, error) {
	inProgress, _, ok := artifact.Stages()
	if !ok {
		return nil, domain.ErrUnknownArtifact
	}

	run, err := s.runRepo.GetByDealID(ctx, dealID)
	if errors.Is(err, domain.ErrRunNotFound) {
		run = &domain.GenerationRun{
			DealID:   dealID,
			UserID:   userID,
			Progress: stage.NotStarted,
			Metadata: map[string]interface{}{},
		}
		if err := s.runRepo.Create(ctx, run); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if err := s.checkStageGate(artifact, run.Progress); err != nil {
		return nil, err
	}
	if stage.IsAtOrPastSubmittedForReview(run.Progress) {
		return nil, domain.ErrStageLocked
	}

	callbackURL := s.callbackURL
	if callbackURL != "" {
		// run id in the path lets the callback handler resolve the run
		// without trusting the body
		callbackURL = callbackURL + "/" + run.RunID
	}

	executionID, err := s.orchestrator.StartExecution(ctx, StartExecutionRequest{
		RunID:          run.RunID,
		DealID:         dealID,
		Artifact:       string(artifact),
		CallbackURL:    callbackURL,
		CallbackSecret: s.callbackSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("start execution: %w", err)
	}

	run.ExecutionID = executionID
	run.Progress = inProgress
	if err := s.runRepo.Update(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// checkStageGate enforces artifact ordering with the same predicates the
// dashboard renders from.
func (s *GenerationService) checkStageGate(artifact domain.Artifact, p stage.Progress) error {
	switch artifact {
	case domain.ArtifactSOW:
		return nil // SOW can always be generated or re-generated
	case domain.ArtifactArchitecture:
		if !stage.IsSOWSavedAsFinal(p) {
			return domain.ErrStageLocked
		}
	case domain.ArtifactTCO:
		if stage.Rank(p) < stage.Rank(stage.ArchitectureGenerated) {
			return domain.ErrStageLocked
		}
	}
	return nil
}

// ReportProgress applies a progress report from either signal channel.
// Reports from an execution other than the run's current one are discarded:
// a re-generate never cancels the superseded execution, so it keeps calling
// back, and its later-stage reports would otherwise pass the monotonic guard
// and jump the run forward. Reports of an earlier stage are discarded
// (monotonic guard); the first report of a newly reached stage wins the
// completion latch and triggers the notification, the second is accepted and
// ignored. Returns the stored run and whether the report changed anything.
func (s *GenerationService) ReportProgress(ctx context.Context, runID, executionID string, reported stage.Progress) (*domain.GenerationRun, bool, error) {
	logger := NewLogger(ctx)

	run, err := s.runRepo.GetByRunID(ctx, runID)
	if err != nil {
		return nil, false, err
	}

	if executionID != "" && run.ExecutionID != "" && executionID != run.ExecutionID {
		// superseded execution still reporting after a re-generate
		logger.LogWarnf("report_progress", "discarding report from superseded execution_id=%s (current %s) run_id=%s",
			executionID, run.ExecutionID, runID)
		recordProgressUpdate(false)
		return run, false, nil
	}

	if !stage.Valid(reported) {
		logger.LogWarnf("report_progress", "ignoring unknown stage %q for run_id=%s", reported, runID)
		recordProgressUpdate(false)
		return run, false, nil
	}

	if stage.Rank(reported) <= stage.Rank(run.Progress) && reported != run.Progress {
		// stale report from the slower channel
		logger.LogWarnf("report_progress", "discarding stale stage %s (current %s) run_id=%s",
			reported, run.Progress, runID)
		recordProgressUpdate(false)
		return run, false, nil
	}

	latchScope := run.ExecutionID
	if latchScope == "" {
		latchScope = run.RunID
	}
	first, err := s.runRepo.Latch(ctx, latchScope, reported)
	if err != nil {
		return nil, false, err
	}
	if !first {
		// the other channel already applied this stage
		recordProgressUpdate(false)
		return run, false, nil
	}

	run.Progress = reported
	if err := s.runRepo.Update(ctx, run); err != nil {
		return nil, false, err
	}
	recordProgressUpdate(true)

	if isCompletionStage(reported) && s.notifier != nil {
		if err := s.notifier.NotifyStageComplete(ctx, run.UserID, run.DealID, reported); err != nil {
			logger.LogError("notify_stage_complete", err)
		}
	}

	return run, true, nil
}

// SubmitForReview hands the deal to the review workflow. Allowed exactly when
// CanSubmitForReview holds.
func (s *GenerationService) SubmitForReview(ctx context.Context, dealID string) (*domain.GenerationRun, error) {
	run, err := s.runRepo.GetByDealID(ctx, dealID)
	if err != nil {
		return nil, err
	}

	if !stage.CanSubmitForReview(run.Progress) {
		return nil, domain.ErrNotSubmittable
	}

	run.Progress = stage.SubmittedForReview
	now := time.Now()
	run.SubmittedAt = &now
	if err := s.runRepo.Update(ctx, run); err != nil {
		return nil, err
	}

	if s.statusSetter != nil {
		if err := s.statusSetter.SetDealStatus(ctx, dealID, stage.StatusTechnicalReview); err != nil {
			NewLogger(ctx).LogError("set_deal_status", err)
		}
	}
	return run, nil
}

// isCompletionStage reports whether p marks a finished artifact or pipeline
// milestone worth a notification.
func isCompletionStage(p stage.Progress) bool {
	switch p {
	case stage.SOWGenerated, stage.ArchitectureGenerated, stage.TCOGenerated, stage.ReadyForSubmission:
		return true
	}
	return false
}

package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sowdesk/sowdesk-backend/internal/generation/domain"
	"github.com/sowdesk/sowdesk-backend/internal/generation/repository"
	"github.com/sowdesk/sowdesk-backend/internal/stage"
)

type stubOrchestrator struct {
	executions int
	status     stage.Progress
	startErr   error
}

func (s *stubOrchestrator) StartExecution(ctx context.Context, req StartExecutionRequest) (string, error) {
	if s.startErr != nil {
		return "", s.startErr
	}
	s.executions++
	return fmt.Sprintf("exec-%d", s.executions), nil
}

func (s *stubOrchestrator) GetExecution(ctx context.Context, executionID string) (stage.Progress, error) {
	return s.status, nil
}

type stubNotifier struct {
	notified []stage.Progress
}

func (s *stubNotifier) NotifyStageComplete(ctx context.Context, userID, dealID string, p stage.Progress) error {
	s.notified = append(s.notified, p)
	return nil
}

type stubStatusSetter struct {
	set []stage.DealStatus
}

func (s *stubStatusSetter) SetDealStatus(ctx context.Context, dealID string, st stage.DealStatus) error {
	s.set = append(s.set, st)
	return nil
}

func newTestService(t *testing.T) (*GenerationService, *stubOrchestrator, *stubNotifier, *stubStatusSetter) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	orch := &stubOrchestrator{}
	notifier := &stubNotifier{}
	setter := &stubStatusSetter{}
	svc := NewGenerationService(
		repository.NewRunRepository(client),
		orch, notifier, setter,
		"http://backend.internal/callbacks/generation", "secret",
	)
	return svc, orch, notifier, setter
}

func TestStartStage_CreatesRunAndStartsExecution(t *testing.T) {
	svc, orch, _, _ := newTestService(t)
	ctx := context.Background()

	run, err := svc.StartStage(ctx, "deal-1", "user-1", domain.ArtifactSOW)
	require.NoError(t, err)

	assert.Equal(t, stage.SOWInProgress, run.Progress)
	assert.Equal(t, "exec-1", run.ExecutionID)
	assert.Equal(t, 1, orch.executions)

	progress, err := svc.ProgressForDeal(ctx, "deal-1")
	require.NoError(t, err)
	assert.Equal(t, stage.SOWInProgress, progress)
}

func TestStartStage_GatesArchitectureOnFinalSOW(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.StartStage(ctx, "deal-1", "user-1", domain.ArtifactSOW)
	require.NoError(t, err)

	// SOW still in progress; architecture must be locked
	_, err = svc.StartStage(ctx, "deal-1", "user-1", domain.ArtifactArchitecture)
	assert.ErrorIs(t, err, domain.ErrStageLocked)

	run, err := svc.GetRunForDeal(ctx, "deal-1")
	require.NoError(t, err)
	_, _, err = svc.ReportProgress(ctx, run.RunID, run.ExecutionID, stage.SOWGenerated)
	require.NoError(t, err)

	_, err = svc.StartStage(ctx, "deal-1", "user-1", domain.ArtifactArchitecture)
	assert.NoError(t, err)
}

func TestReportProgress_MonotonicGuardDiscardsStaleReports(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	run, err := svc.StartStage(ctx, "deal-1", "user-1", domain.ArtifactSOW)
	require.NoError(t, err)

	_, changed, err := svc.ReportProgress(ctx, run.RunID, run.ExecutionID, stage.SOWGenerated)
	require.NoError(t, err)
	assert.True(t, changed)

	// the slower channel reports the stage we already left
	got, changed, err := svc.ReportProgress(ctx, run.RunID, run.ExecutionID, stage.SOWInProgress)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, stage.SOWGenerated, got.Progress)
}

func TestReportProgress_UnknownStageIgnored(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	run, err := svc.StartStage(ctx, "deal-1", "user-1", domain.ArtifactSOW)
	require.NoError(t, err)

	got, changed, err := svc.ReportProgress(ctx, run.RunID, run.ExecutionID, stage.Progress("EXPLODED"))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, stage.SOWInProgress, got.Progress)
}

func TestReportProgress_CompletionLatch_FirstOfTwoSignalsWins(t *testing.T) {
	svc, _, notifier, _ := newTestService(t)
	ctx := context.Background()

	run, err := svc.StartStage(ctx, "deal-1", "user-1", domain.ArtifactSOW)
	require.NoError(t, err)

	// callback arrives first
	_, changed, err := svc.ReportProgress(ctx, run.RunID, run.ExecutionID, stage.SOWGenerated)
	require.NoError(t, err)
	assert.True(t, changed)

	// the poll channel delivers the same completion moments later
	_, changed, err = svc.ReportProgress(ctx, run.RunID, run.ExecutionID, stage.SOWGenerated)
	require.NoError(t, err)
	assert.False(t, changed, "second signal must be accepted and ignored")

	assert.Equal(t, []stage.Progress{stage.SOWGenerated}, notifier.notified,
		"exactly one notification per completed stage")
}

func TestStartStage_RegenerateResetsProgressAndRearmsLatch(t *testing.T) {
	svc, _, notifier, _ := newTestService(t)
	ctx := context.Background()

	run, err := svc.StartStage(ctx, "deal-1", "user-1", domain.ArtifactSOW)
	require.NoError(t, err)
	_, _, err = svc.ReportProgress(ctx, run.RunID, run.ExecutionID, stage.SOWGenerated)
	require.NoError(t, err)

	// re-generate: the one sanctioned backward move
	run2, err := svc.StartStage(ctx, "deal-1", "user-1", domain.ArtifactSOW)
	require.NoError(t, err)
	assert.Equal(t, stage.SOWInProgress, run2.Progress)
	assert.Equal(t, run.RunID, run2.RunID, "re-generate reuses the deal's run")
	assert.NotEqual(t, run.ExecutionID, run2.ExecutionID, "re-generate is a new execution")

	// the fresh execution completes; its latch must be armed again
	_, changed, err := svc.ReportProgress(ctx, run2.RunID, run2.ExecutionID, stage.SOWGenerated)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, notifier.notified, 2)
}

func TestReportProgress_SupersededExecutionIsDiscarded(t *testing.T) {
	svc, _, notifier, _ := newTestService(t)
	ctx := context.Background()

	run, err := svc.StartStage(ctx, "deal-1", "user-1", domain.ArtifactSOW)
	require.NoError(t, err)
	_, _, err = svc.ReportProgress(ctx, run.RunID, run.ExecutionID, stage.SOWGenerated)
	require.NoError(t, err)

	arch, err := svc.StartStage(ctx, "deal-1", "user-1", domain.ArtifactArchitecture)
	require.NoError(t, err)
	_, _, err = svc.ReportProgress(ctx, arch.RunID, arch.ExecutionID, stage.ArchitectureGenerated)
	require.NoError(t, err)

	// re-generate the SOW; the architecture execution is superseded but
	// never cancelled, so it keeps reporting
	regen, err := svc.StartStage(ctx, "deal-1", "user-1", domain.ArtifactSOW)
	require.NoError(t, err)
	require.Equal(t, stage.SOWInProgress, regen.Progress)
	require.NotEqual(t, arch.ExecutionID, regen.ExecutionID)

	got, changed, err := svc.ReportProgress(ctx, regen.RunID, arch.ExecutionID, stage.ArchitectureGenerated)
	require.NoError(t, err)
	assert.False(t, changed, "superseded execution must not move the run")
	assert.Equal(t, stage.SOWInProgress, got.Progress)

	// the regenerated SOW's own completion must still land
	got, changed, err = svc.ReportProgress(ctx, regen.RunID, regen.ExecutionID, stage.SOWGenerated)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, stage.SOWGenerated, got.Progress)

	// one notification per genuine completion, none for the stale report
	assert.Equal(t, []stage.Progress{stage.SOWGenerated, stage.ArchitectureGenerated, stage.SOWGenerated},
		notifier.notified)
}

func TestSubmitForReview_ExactBoundary(t *testing.T) {
	svc, _, _, setter := newTestService(t)
	ctx := context.Background()

	run, err := svc.StartStage(ctx, "deal-1", "user-1", domain.ArtifactSOW)
	require.NoError(t, err)

	_, err = svc.SubmitForReview(ctx, "deal-1")
	assert.ErrorIs(t, err, domain.ErrNotSubmittable)

	_, _, err = svc.ReportProgress(ctx, run.RunID, run.ExecutionID, stage.ReadyForSubmission)
	require.NoError(t, err)

	submitted, err := svc.SubmitForReview(ctx, "deal-1")
	require.NoError(t, err)
	assert.Equal(t, stage.SubmittedForReview, submitted.Progress)
	require.NotNil(t, submitted.SubmittedAt)
	assert.Equal(t, []stage.DealStatus{stage.StatusTechnicalReview}, setter.set)

	// a second submit must fail: progress is already past the window
	_, err = svc.SubmitForReview(ctx, "deal-1")
	assert.ErrorIs(t, err, domain.ErrNotSubmittable)
}

func TestStartStage_LockedAfterSubmission(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	run, err := svc.StartStage(ctx, "deal-1", "user-1", domain.ArtifactSOW)
	require.NoError(t, err)
	_, _, err = svc.ReportProgress(ctx, run.RunID, run.ExecutionID, stage.ReadyForSubmission)
	require.NoError(t, err)
	_, err = svc.SubmitForReview(ctx, "deal-1")
	require.NoError(t, err)

	_, err = svc.StartStage(ctx, "deal-1", "user-1", domain.ArtifactSOW)
	assert.ErrorIs(t, err, domain.ErrStageLocked)
}

func TestProgressForDeal_NoRunMeansNotStarted(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	progress, err := svc.ProgressForDeal(context.Background(), "deal-without-run")
	require.NoError(t, err)
	assert.Equal(t, stage.NotStarted, progress)
}

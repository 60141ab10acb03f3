package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sowdesk/sowdesk-backend/internal/generation/domain"
	"github.com/sowdesk/sowdesk-backend/internal/stage"
)

func newTestRepo(t *testing.T) *RunRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRunRepository(client)
}

func TestRunRepository_CreateAndLookups(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	run := &domain.GenerationRun{
		DealID:      "deal-1",
		UserID:      "user-1",
		ExecutionID: "exec-1",
		Progress:    stage.SOWInProgress,
	}
	require.NoError(t, repo.Create(ctx, run))
	require.NotEmpty(t, run.RunID)

	byID, err := repo.GetByRunID(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, "deal-1", byID.DealID)

	byDeal, err := repo.GetByDealID(ctx, "deal-1")
	require.NoError(t, err)
	assert.Equal(t, run.RunID, byDeal.RunID)

	byExec, err := repo.GetByExecutionID(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, run.RunID, byExec.RunID)

	active, err := repo.ActiveRuns(ctx)
	require.NoError(t, err)
	assert.Contains(t, active, run.RunID)
}

func TestRunRepository_GetMissing(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetByRunID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)

	_, err = repo.GetByDealID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestRunRepository_UpdateMovesExecutionIndexAndActiveSet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	run := &domain.GenerationRun{DealID: "deal-2", ExecutionID: "exec-old", Progress: stage.SOWInProgress}
	require.NoError(t, repo.Create(ctx, run))

	run.ExecutionID = "exec-new"
	run.Progress = stage.SOWGenerated
	require.NoError(t, repo.Update(ctx, run))

	_, err := repo.GetByExecutionID(ctx, "exec-old")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)

	byExec, err := repo.GetByExecutionID(ctx, "exec-new")
	require.NoError(t, err)
	assert.Equal(t, stage.SOWGenerated, byExec.Progress)

	// SOW_GENERATED is not an in-progress stage; the poller must drop it
	active, err := repo.ActiveRuns(ctx)
	require.NoError(t, err)
	assert.NotContains(t, active, run.RunID)
}

func TestRunRepository_UpdatePublishesRunEvent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	run := &domain.GenerationRun{DealID: "deal-5", ExecutionID: "exec-5", Progress: stage.SOWInProgress}
	require.NoError(t, repo.Create(ctx, run))

	sub := repo.SubscribeRun(ctx, run.RunID)
	t.Cleanup(func() { sub.Close() })

	// confirm the subscription before publishing
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	run.Progress = stage.SOWGenerated
	require.NoError(t, repo.Update(ctx, run))

	rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(rctx)
	require.NoError(t, err)

	var got domain.GenerationRun
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, stage.SOWGenerated, got.Progress)
}

func TestRunRepository_Latch_FirstWins(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.Latch(ctx, "exec-3", stage.SOWGenerated)
	require.NoError(t, err)
	assert.True(t, first, "first signal must win the latch")

	second, err := repo.Latch(ctx, "exec-3", stage.SOWGenerated)
	require.NoError(t, err)
	assert.False(t, second, "second signal must find the latch already set")

	// A different stage has its own latch
	other, err := repo.Latch(ctx, "exec-3", stage.ArchitectureGenerated)
	require.NoError(t, err)
	assert.True(t, other)

	// A fresh execution (re-generate) gets fresh latches
	fresh, err := repo.Latch(ctx, "exec-3b", stage.SOWGenerated)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestRunRepository_Delete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	run := &domain.GenerationRun{DealID: "deal-4", ExecutionID: "exec-4", Progress: stage.SOWInProgress}
	require.NoError(t, repo.Create(ctx, run))
	require.NoError(t, repo.Delete(ctx, run.RunID))

	_, err := repo.GetByRunID(ctx, run.RunID)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	_, err = repo.GetByDealID(ctx, "deal-4")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

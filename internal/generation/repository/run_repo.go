package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sowdesk/sowdesk-backend/internal/generation/domain"
	"github.com/sowdesk/sowdesk-backend/internal/stage"
)

const (
	runKeyPrefix       = "sow:run:"    // Run data: sow:run:{run_id}
	dealRunKeyPrefix   = "sow:deal:"   // Current run for a deal: sow:deal:{deal_id} -> run_id
	execRunKeyPrefix   = "sow:exec:"   // Orchestrator execution id index: sow:exec:{execution_id} -> run_id
	latchKeyPrefix     = "sow:latch:"  // Completion latch: sow:latch:{scope}:{stage}
	eventChannelPrefix = "sow:events:" // Pub/Sub channel for run events: sow:events:{run_id}
	activeRunsKey      = "sow:active"  // Set of run IDs the poller watches

	runTTL = 30 * 24 * time.Hour
)

// RunRepository handles Redis operations for generation runs.
type RunRepository struct {
	client *redis.Client
}

// NewRunRepository creates a new RunRepository
func NewRunRepository(client *redis.Client) *RunRepository {
	return &RunRepository{client: client}
}

// Create stores a new generation run and makes it the current run for its
// deal. A previous run for the same deal is superseded, not deleted.
func (r *RunRepository) Create(ctx context.Context, run *domain.GenerationRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.Progress == "" {
		run.Progress = stage.NotStarted
	}
	now := time.Now()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	run.UpdatedAt = now

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run data: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.runKey(run.RunID), data, runTTL)
	pipe.Set(ctx, r.dealRunKey(run.DealID), run.RunID, runTTL)
	if run.ExecutionID != "" {
		pipe.Set(ctx, r.execRunKey(run.ExecutionID), run.RunID, runTTL)
	}
	if run.Active() {
		pipe.SAdd(ctx, activeRunsKey, run.RunID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// GetByRunID retrieves a run by its ID
func (r *RunRepository) GetByRunID(ctx context.Context, runID string) (*domain.GenerationRun, error) {
	data, err := r.client.Get(ctx, r.runKey(runID)).Result()
	if err == redis.Nil {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var run domain.GenerationRun
	if err := json.Unmarshal([]byte(data), &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run data: %w", err)
	}
	return &run, nil
}

// GetByDealID retrieves the current run for a deal.
func (r *RunRepository) GetByDealID(ctx context.Context, dealID string) (*domain.GenerationRun, error) {
	runID, err := r.client.Get(ctx, r.dealRunKey(dealID)).Result()
	if err == redis.Nil {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve deal run: %w", err)
	}
	return r.GetByRunID(ctx, runID)
}

// GetByExecutionID retrieves a run by the orchestrator's execution ID.
func (r *RunRepository) GetByExecutionID(ctx context.Context, executionID string) (*domain.GenerationRun, error) {
	runID, err := r.client.Get(ctx, r.execRunKey(executionID)).Result()
	if err == redis.Nil {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve execution run: %w", err)
	}
	return r.GetByRunID(ctx, runID)
}

// Update rewrites the run and keeps the execution index and active set in
// step. An update event is published for stream consumers.
func (r *RunRepository) Update(ctx context.Context, run *domain.GenerationRun) error {
	existing, err := r.GetByRunID(ctx, run.RunID)
	if err != nil {
		return err
	}

	run.UpdatedAt = time.Now()

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run data: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.runKey(run.RunID), data, runTTL)

	if run.ExecutionID != "" && run.ExecutionID != existing.ExecutionID {
		if existing.ExecutionID != "" {
			pipe.Del(ctx, r.execRunKey(existing.ExecutionID))
		}
		pipe.Set(ctx, r.execRunKey(run.ExecutionID), run.RunID, runTTL)
	}

	if run.Active() {
		pipe.SAdd(ctx, activeRunsKey, run.RunID)
	} else {
		pipe.SRem(ctx, activeRunsKey, run.RunID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	r.client.Publish(ctx, r.eventChannel(run.RunID), data)
	return nil
}

// SubscribeRun subscribes to the run's event channel. Update publishes the
// full run JSON there on every change. The caller owns the subscription and
// must Close it.
func (r *RunRepository) SubscribeRun(ctx context.Context, runID string) *redis.PubSub {
	return r.client.Subscribe(ctx, r.eventChannel(runID))
}

// Latch sets the completion latch for a (scope, stage) pair. Scope is the
// orchestrator execution id, so a re-generate (a fresh execution) gets fresh
// latches. Returns true when this call won the race; the second (poll or
// push) arrival gets false and must be a no-op for the caller.
func (r *RunRepository) Latch(ctx context.Context, scope string, s stage.Progress) (bool, error) {
	key := fmt.Sprintf("%s%s:%s", latchKeyPrefix, scope, s)
	first, err := r.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339Nano), runTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set completion latch: %w", err)
	}
	return first, nil
}

// ActiveRuns returns the run IDs the status poller should watch.
func (r *RunRepository) ActiveRuns(ctx context.Context) ([]string, error) {
	ids, err := r.client.SMembers(ctx, activeRunsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list active runs: %w", err)
	}
	return ids, nil
}

// Delete removes a run and its indexes.
func (r *RunRepository) Delete(ctx context.Context, runID string) error {
	run, err := r.GetByRunID(ctx, runID)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.runKey(runID))
	pipe.Del(ctx, r.dealRunKey(run.DealID))
	pipe.SRem(ctx, activeRunsKey, runID)
	if run.ExecutionID != "" {
		pipe.Del(ctx, r.execRunKey(run.ExecutionID))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

// Helper methods for key generation
func (r *RunRepository) runKey(runID string) string {
	return runKeyPrefix + runID
}

func (r *RunRepository) dealRunKey(dealID string) string {
	return dealRunKeyPrefix + dealID
}

func (r *RunRepository) execRunKey(executionID string) string {
	return execRunKeyPrefix + executionID
}

func (r *RunRepository) eventChannel(runID string) string {
	return eventChannelPrefix + runID
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sowdesk/sowdesk-backend/internal/generation/domain"
	"github.com/sowdesk/sowdesk-backend/internal/generation/repository"
	"github.com/sowdesk/sowdesk-backend/internal/generation/service"
	"github.com/sowdesk/sowdesk-backend/internal/stage"
)

type noopOrchestrator struct{}

func (noopOrchestrator) StartExecution(ctx context.Context, req service.StartExecutionRequest) (string, error) {
	return "exec-1", nil
}

func (noopOrchestrator) GetExecution(ctx context.Context, executionID string) (stage.Progress, error) {
	return stage.SOWInProgress, nil
}

func newCallbackRouter(t *testing.T, secret string) (*gin.Engine, *repository.RunRepository, *service.GenerationService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := repository.NewRunRepository(client)
	svc := service.NewGenerationService(repo, noopOrchestrator{}, nil, nil, "", secret)

	r := gin.New()
	h := New(svc, secret)
	h.RegisterCallbacks(r.Group("/callbacks"))
	return r, repo, svc
}

func postCallback(r *gin.Engine, runID, secret string, body PipelineCallbackBody) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/callbacks/generation/"+runID, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Generation-Callback-Secret", secret)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPipelineCallback_AppliesProgress(t *testing.T) {
	r, repo, _ := newCallbackRouter(t, "s3cret")
	ctx := context.Background()

	run := &domain.GenerationRun{DealID: "deal-1", UserID: "u-1", ExecutionID: "exec-1", Progress: stage.SOWInProgress}
	require.NoError(t, repo.Create(ctx, run))

	w := postCallback(r, run.RunID, "s3cret", PipelineCallbackBody{
		ExecutionID: "exec-1",
		Progress:    "SOW_GENERATED",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	stored, err := repo.GetByRunID(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, stage.SOWGenerated, stored.Progress)
}

func TestPipelineCallback_SecondDeliveryIsIdempotent(t *testing.T) {
	r, repo, _ := newCallbackRouter(t, "s3cret")
	ctx := context.Background()

	run := &domain.GenerationRun{DealID: "deal-1", ExecutionID: "exec-1", Progress: stage.SOWInProgress}
	require.NoError(t, repo.Create(ctx, run))

	body := PipelineCallbackBody{ExecutionID: "exec-1", Progress: "SOW_GENERATED"}

	first := postCallback(r, run.RunID, "s3cret", body)
	assert.Equal(t, http.StatusOK, first.Code)
	var firstResp struct {
		Applied bool `json:"applied"`
	}
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstResp))
	assert.True(t, firstResp.Applied)

	second := postCallback(r, run.RunID, "s3cret", body)
	assert.Equal(t, http.StatusOK, second.Code, "replay must be accepted")
	var secondResp struct {
		Applied bool `json:"applied"`
	}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondResp))
	assert.False(t, secondResp.Applied, "replay must not re-apply")
}

func TestPipelineCallback_SupersededExecutionRejected(t *testing.T) {
	r, repo, _ := newCallbackRouter(t, "s3cret")
	ctx := context.Background()

	run := &domain.GenerationRun{DealID: "deal-1", ExecutionID: "exec-2", Progress: stage.SOWInProgress}
	require.NoError(t, repo.Create(ctx, run))

	// a callback from the execution the run no longer tracks
	w := postCallback(r, run.RunID, "s3cret", PipelineCallbackBody{
		ExecutionID: "exec-1",
		Progress:    "ARCHITECTURE_GENERATED",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Applied bool `json:"applied"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Applied)

	stored, err := repo.GetByRunID(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, stage.SOWInProgress, stored.Progress, "stale execution must not move the run")
}

func TestPipelineCallback_RejectsBadSecret(t *testing.T) {
	r, repo, _ := newCallbackRouter(t, "s3cret")
	ctx := context.Background()

	run := &domain.GenerationRun{DealID: "deal-1", ExecutionID: "exec-1", Progress: stage.SOWInProgress}
	require.NoError(t, repo.Create(ctx, run))

	w := postCallback(r, run.RunID, "wrong", PipelineCallbackBody{Progress: "SOW_GENERATED"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	stored, err := repo.GetByRunID(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, stage.SOWInProgress, stored.Progress, "unauthorized callback must not change state")
}

func TestPipelineCallback_UnknownRun(t *testing.T) {
	r, _, _ := newCallbackRouter(t, "s3cret")

	w := postCallback(r, "no-such-run", "s3cret", PipelineCallbackBody{Progress: "SOW_GENERATED"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPipelineCallback_AllowsMissingSecretInDev(t *testing.T) {
	r, repo, _ := newCallbackRouter(t, "")
	ctx := context.Background()

	run := &domain.GenerationRun{DealID: "deal-1", ExecutionID: "exec-1", Progress: stage.SOWInProgress}
	require.NoError(t, repo.Create(ctx, run))

	w := postCallback(r, run.RunID, "", PipelineCallbackBody{Progress: "SOW_GENERATED"})
	assert.Equal(t, http.StatusOK, w.Code)
}

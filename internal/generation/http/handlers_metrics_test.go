package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sowdesk/sowdesk-backend/internal/auth"
	"github.com/sowdesk/sowdesk-backend/internal/generation/domain"
	"github.com/sowdesk/sowdesk-backend/internal/generation/service"
	"github.com/sowdesk/sowdesk-backend/internal/stage"
)

func newMetricsRouter(role stage.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if role != "" {
		r.Use(func(c *gin.Context) { c.Set(auth.CtxUserRole, string(role)) })
	}
	New(nil, "").RegisterMetrics(r.Group("/generation"))
	return r
}

func TestGetMetrics_ReportsProgressCounters(t *testing.T) {
	service.ResetMetrics()

	// drive one progress report so the counters move
	callbackRouter, repo, _ := newCallbackRouter(t, "")
	run := &domain.GenerationRun{DealID: "deal-1", ExecutionID: "exec-1", Progress: stage.SOWInProgress}
	require.NoError(t, repo.Create(context.Background(), run))
	postCallback(callbackRouter, run.RunID, "", PipelineCallbackBody{ExecutionID: "exec-1", Progress: "SOW_GENERATED"})

	r := newMetricsRouter(stage.RoleAdmin)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/generation/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		OK      bool `json:"ok"`
		Metrics struct {
			OrchestratorCalls int64   `json:"orchestrator_calls"`
			ProgressUpdates   int64   `json:"progress_updates"`
			StaleUpdates      int64   `json:"stale_updates"`
			AvgLatencyMs      float64 `json:"orchestrator_avg_latency_ms"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, int64(1), resp.Metrics.ProgressUpdates)
	assert.Equal(t, int64(0), resp.Metrics.StaleUpdates)
}

func TestGetMetrics_NonAdminForbidden(t *testing.T) {
	r := newMetricsRouter(stage.RoleSolutionArchitect)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/generation/metrics", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sowdesk/sowdesk-backend/internal/stage"
)

// OrchestratorClient handles communication with the generation pipeline
// backend. Starting an execution is the only mutation; everything else is a
// status read.
type OrchestratorClient struct {
	baseURL       string
	defaultClient *http.Client
	startClient   *http.Client // execution starts need longer timeouts
}

// NewOrchestratorClient creates a new orchestrator client
func NewOrchestratorClient(baseURL string) *OrchestratorClient {
	return &OrchestratorClient{
		baseURL: baseURL,
		defaultClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		startClient: &http.Client{
			Timeout: StartTimeout,
		},
	}
}

// StartExecutionRequest is the body sent when kicking off an artifact stage.
type StartExecutionRequest struct {
	RunID          string `json:"run_id"`
	DealID         string `json:"deal_id"`
	Artifact       string `json:"artifact"`
	CallbackURL    string `json:"callback_url,omitempty"`
	CallbackSecret string `json:"callback_secret,omitempty"`
}

type startExecutionResponse struct {
	ExecutionID string `json:"execution_id"`
}

type executionStatusResponse struct {
	ExecutionID string `json:"execution_id"`
	Progress    string `json:"sow_gen_progress"`
	Error       string `json:"error,omitempty"`
}

// StartExecution starts (or restarts) generation of one artifact and returns
// the orchestrator's execution id. A re-generate is a fresh execution, never
// a cancellation of the old one. One automatic retry on transport failure;
// handlers never retry above this.
func (c *OrchestratorClient) StartExecution(ctx context.Context, req StartExecutionRequest) (string, error) {
	logger := NewLogger(ctx)
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		executionID, retryable, err := c.startOnce(ctx, payload)
		if err == nil {
			logger.LogInfof("start_execution", "execution_id=%s artifact=%s deal_id=%s",
				executionID, req.Artifact, req.DealID)
			return executionID, nil
		}
		logger.LogError("start_execution", err)
		lastErr = err
		// retry only on transport failure, not on upstream rejection
		if !retryable {
			break
		}
	}
	return "", lastErr
}

func (c *OrchestratorClient) startOnce(ctx context.Context, payload []byte) (string, bool, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/executions", bytes.NewReader(payload))
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.startClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		recordOrchestratorCall(duration, err)
		return "", true, fmt.Errorf("orchestrator request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		recordOrchestratorCall(duration, fmt.Errorf("status %d", resp.StatusCode))
		return "", false, fmt.Errorf("orchestrator returned status %d", resp.StatusCode)
	}
	recordOrchestratorCall(duration, nil)

	var out startExecutionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", false, fmt.Errorf("decode response: %w", err)
	}
	if out.ExecutionID == "" {
		return "", false, fmt.Errorf("orchestrator returned empty execution id")
	}
	return out.ExecutionID, false, nil
}

// GetExecution reads the current pipeline stage for an execution. This is
// the poll channel; the callback handler is the push channel.
func (c *OrchestratorClient) GetExecution(ctx context.Context, executionID string) (stage.Progress, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/executions/"+executionID, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.defaultClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		recordOrchestratorCall(duration, err)
		return "", fmt.Errorf("orchestrator request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		recordOrchestratorCall(duration, fmt.Errorf("status %d", resp.StatusCode))
		return "", fmt.Errorf("orchestrator returned status %d", resp.StatusCode)
	}
	recordOrchestratorCall(duration, nil)

	var out executionStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return stage.Progress(out.Progress), nil
}

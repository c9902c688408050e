package trigger

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// WorkflowClient triggers content-generation workflow runs on the external
// workflow engine, one run per tree node.
type WorkflowClient struct {
	rest *restClient
}

// WorkflowOption configures a WorkflowClient.
type WorkflowOption func(*WorkflowClient)

// WithWorkflowTimeout sets the request timeout.
func WithWorkflowTimeout(timeout time.Duration) WorkflowOption {
	return func(c *WorkflowClient) {
		c.rest.httpClient.Timeout = timeout
	}
}

// WithWorkflowJWTSecret enables service tokens on outbound requests.
func WithWorkflowJWTSecret(secret string) WorkflowOption {
	return func(c *WorkflowClient) {
		c.rest.jwtSecret = secret
	}
}

// WithWorkflowHTTPClient sets a custom HTTP client.
func WithWorkflowHTTPClient(httpClient *http.Client) WorkflowOption {
	return func(c *WorkflowClient) {
		c.rest.httpClient = httpClient
	}
}

// NewWorkflowClient creates a workflow engine client.
func NewWorkflowClient(baseURL string, opts ...WorkflowOption) *WorkflowClient {
	client := &WorkflowClient{
		rest: newRESTClient(baseURL, "ydms-admin"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type workflowRunRequest struct {
	NodeID      string `json:"node_id"`
	WorkflowKey string `json:"workflow_key"`
}

type workflowRunResponse struct {
	RunID string `json:"run_id"`
}

type workflowRunStatus struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"` // pending, running, succeeded, failed
	Error  string `json:"error,omitempty"`
}

// Trigger starts a workflow run for the node and returns the run id.
func (c *WorkflowClient) Trigger(ctx context.Context, targetID string, params Params) (string, error) {
	runURL, err := url.JoinPath(c.rest.baseURL, "workflow-runs")
	if err != nil {
		return "", fmt.Errorf("construct URL: %w", err)
	}

	body, err := marshalBody(workflowRunRequest{
		NodeID:      targetID,
		WorkflowKey: params.WorkflowKey,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, runURL, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	var response workflowRunResponse
	if doErr := c.rest.postJSON(req, &response); doErr != nil {
		return "", fmt.Errorf("start workflow run for node %s: %w", targetID, doErr)
	}
	return response.RunID, nil
}

// Poll reports the state of a workflow run.
func (c *WorkflowClient) Poll(ctx context.Context, handle string) (*JobResult, error) {
	statusURL, err := url.JoinPath(c.rest.baseURL, "workflow-runs", handle)
	if err != nil {
		return nil, fmt.Errorf("construct URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var status workflowRunStatus
	if doErr := c.rest.do(req, &status); doErr != nil {
		return nil, fmt.Errorf("get workflow run %s: %w", handle, doErr)
	}

	return &JobResult{
		State:   mapEngineStatus(status.Status),
		Message: status.Error,
	}, nil
}

// mapEngineStatus normalizes engine status strings into a State. Unknown
// and pre-terminal statuses are treated as still running.
func mapEngineStatus(status string) State {
	switch status {
	case "succeeded", "completed", "success":
		return StateSucceeded
	case "failed", "error":
		return StateFailed
	default:
		return StateRunning
	}
}

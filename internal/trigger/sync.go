package trigger

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// SyncClient triggers MySQL-sync jobs on the external sync engine, one job
// per document.
type SyncClient struct {
	rest *restClient
}

// SyncOption configures a SyncClient.
type SyncOption func(*SyncClient)

// WithSyncTimeout sets the request timeout.
func WithSyncTimeout(timeout time.Duration) SyncOption {
	return func(c *SyncClient) {
		c.rest.httpClient.Timeout = timeout
	}
}

// WithSyncJWTSecret enables service tokens on outbound requests.
func WithSyncJWTSecret(secret string) SyncOption {
	return func(c *SyncClient) {
		c.rest.jwtSecret = secret
	}
}

// WithSyncHTTPClient sets a custom HTTP client.
func WithSyncHTTPClient(httpClient *http.Client) SyncOption {
	return func(c *SyncClient) {
		c.rest.httpClient = httpClient
	}
}

// NewSyncClient creates a sync engine client.
func NewSyncClient(baseURL string, opts ...SyncOption) *SyncClient {
	client := &SyncClient{
		rest: newRESTClient(baseURL, "ydms-admin"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type syncJobRequest struct {
	DocumentID string            `json:"document_id"`
	Options    map[string]string `json:"options,omitempty"`
}

type syncJobResponse struct {
	JobID string `json:"job_id"`
}

type syncJobStatus struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Trigger starts a sync job for the document and returns the job id.
func (c *SyncClient) Trigger(ctx context.Context, targetID string, params Params) (string, error) {
	jobURL, err := url.JoinPath(c.rest.baseURL, "sync-jobs")
	if err != nil {
		return "", fmt.Errorf("construct URL: %w", err)
	}

	body, err := marshalBody(syncJobRequest{
		DocumentID: targetID,
		Options:    params.Options,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, jobURL, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	var response syncJobResponse
	if doErr := c.rest.postJSON(req, &response); doErr != nil {
		return "", fmt.Errorf("start sync job for document %s: %w", targetID, doErr)
	}
	return response.JobID, nil
}

// Poll reports the state of a sync job.
func (c *SyncClient) Poll(ctx context.Context, handle string) (*JobResult, error) {
	statusURL, err := url.JoinPath(c.rest.baseURL, "sync-jobs", handle)
	if err != nil {
		return nil, fmt.Errorf("construct URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var status syncJobStatus
	if doErr := c.rest.do(req, &status); doErr != nil {
		return nil, fmt.Errorf("get sync job %s: %w", handle, doErr)
	}

	return &JobResult{
		State:   mapEngineStatus(status.Status),
		Message: status.Error,
	}, nil
}

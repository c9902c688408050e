// Package directory provides a read-only HTTP client for the external
// content repository's category tree and document listings.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/prehisle/ydms-sub001/internal/domain"
)

const (
	// DefaultTimeout is the default timeout for directory requests.
	DefaultTimeout = 30 * time.Second
	// serviceTokenTTL is the lifetime of service-to-service tokens.
	serviceTokenTTL = 24 * time.Hour

	minErrorStatusCode = 400
)

// Directory is the read-only view of the category tree consumed by the
// target enumerator.
type Directory interface {
	GetNode(ctx context.Context, id string) (*Node, error)
	ListDescendants(ctx context.Context, rootID string) ([]Node, error)
	ListDocuments(ctx context.Context, nodeID string, recursive bool) ([]Document, error)
}

// Client is an HTTP implementation of Directory.
type Client struct {
	baseURL    string
	httpClient *http.Client
	jwtSecret  string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the content repository base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithJWTSecret enables HS256 service tokens on outbound requests.
func WithJWTSecret(secret string) Option {
	return func(c *Client) {
		c.jwtSecret = secret
	}
}

// NewClient creates a content repository client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    "http://localhost:8000/api/v1",
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// GetNode retrieves a single tree node by id.
func (c *Client) GetNode(ctx context.Context, id string) (*Node, error) {
	nodeURL, err := url.JoinPath(c.baseURL, "nodes", id)
	if err != nil {
		return nil, fmt.Errorf("construct URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, nodeURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var node Node
	if doErr := c.doRequest(req, &node); doErr != nil {
		return nil, fmt.Errorf("get node %s: %w", id, doErr)
	}
	return &node, nil
}

// ListDescendants retrieves every node in the subtree rooted at rootID,
// excluding the root itself, in tree order.
func (c *Client) ListDescendants(ctx context.Context, rootID string) ([]Node, error) {
	listURL, err := url.JoinPath(c.baseURL, "nodes", rootID, "descendants")
	if err != nil {
		return nil, fmt.Errorf("construct URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var response ListNodesResponse
	if doErr := c.doRequest(req, &response); doErr != nil {
		return nil, fmt.Errorf("list descendants of %s: %w", rootID, doErr)
	}
	return response.Nodes, nil
}

// ListDocuments retrieves the documents bound under nodeID. When recursive
// is true the whole subtree is covered.
func (c *Client) ListDocuments(ctx context.Context, nodeID string, recursive bool) ([]Document, error) {
	listURL, err := url.JoinPath(c.baseURL, "nodes", nodeID, "documents")
	if err != nil {
		return nil, fmt.Errorf("construct URL: %w", err)
	}
	if recursive {
		listURL += "?recursive=true"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var response ListDocumentsResponse
	if doErr := c.doRequest(req, &response); doErr != nil {
		return nil, fmt.Errorf("list documents under %s: %w", nodeID, doErr)
	}
	return response.Documents, nil
}

// generateServiceToken generates a JWT token for service-to-service
// authentication.
func (c *Client) generateServiceToken() (string, error) {
	if c.jwtSecret == "" {
		return "", errors.New("JWT secret not configured")
	}

	now := time.Now()
	claims := &jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(serviceTokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Subject:   "ydms-admin",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.jwtSecret))
}

// doRequest executes a request and decodes the response envelope.
func (c *Client) doRequest(req *http.Request, result any) error {
	if c.jwtSecret != "" {
		token, err := c.generateServiceToken()
		if err != nil {
			return fmt.Errorf("generate service token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Op == "dial" {
			return fmt.Errorf("connect to content repository at %s: %w", c.baseURL, err)
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return fmt.Errorf("read response body: %w", readErr)
	}

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrRootNotFound
	}
	if resp.StatusCode >= minErrorStatusCode {
		var errResp ErrorResponse
		if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && errResp.Error != "" {
			return fmt.Errorf("content repository error (status %d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("content repository error (status %d): %s", resp.StatusCode, string(body))
	}

	if resp.StatusCode == http.StatusNoContent || result == nil {
		return nil
	}

	if unmarshalErr := json.Unmarshal(body, result); unmarshalErr != nil {
		return fmt.Errorf("decode response: %w", unmarshalErr)
	}
	return nil
}

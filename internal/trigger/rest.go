package trigger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTimeout is the default timeout for trigger requests.
	DefaultTimeout = 30 * time.Second

	serviceTokenTTL    = 24 * time.Hour
	minErrorStatusCode = 400
)

// errorResponse is the engines' shared error envelope.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// restClient is the HTTP plumbing shared by the workflow and sync engine
// clients.
type restClient struct {
	baseURL    string
	httpClient *http.Client
	jwtSecret  string
	subject    string
}

func newRESTClient(baseURL, subject string) *restClient {
	return &restClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		subject:    subject,
	}
}

func (c *restClient) serviceToken() (string, error) {
	if c.jwtSecret == "" {
		return "", errors.New("JWT secret not configured")
	}

	now := time.Now()
	claims := &jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(serviceTokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Subject:   c.subject,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.jwtSecret))
}

// postJSON POSTs body to path and decodes the response into result.
func (c *restClient) postJSON(req *http.Request, result any) error {
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, result)
}

func (c *restClient) do(req *http.Request, result any) error {
	if c.jwtSecret != "" {
		token, err := c.serviceToken()
		if err != nil {
			return fmt.Errorf("generate service token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Op == "dial" {
			return fmt.Errorf("connect to engine at %s: %w", c.baseURL, err)
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return fmt.Errorf("read response body: %w", readErr)
	}

	if resp.StatusCode >= minErrorStatusCode {
		var errResp errorResponse
		if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && errResp.Error != "" {
			return fmt.Errorf("engine error (status %d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("engine error (status %d): %s", resp.StatusCode, string(body))
	}

	if resp.StatusCode == http.StatusNoContent || result == nil {
		return nil
	}

	if unmarshalErr := json.Unmarshal(body, result); unmarshalErr != nil {
		return fmt.Errorf("decode response: %w", unmarshalErr)
	}
	return nil
}

func marshalBody(payload any) (*bytes.Reader, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return bytes.NewReader(body), nil
}

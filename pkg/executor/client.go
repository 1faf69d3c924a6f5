package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrExecutorUnavailable means the executor could not be reached or
	// returned a server error.
	ErrExecutorUnavailable = errors.New("executor: service unavailable")

	// ErrToolNotFound means the package exists but exports no such tool.
	ErrToolNotFound = errors.New("executor: tool not found")

	// ErrExecutionFailed means the tool ran and reported an error.
	ErrExecutionFailed = errors.New("executor: execution failed")
)

// ExtractedTool is one tool discovered in a package by schema extraction.
type ExtractedTool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
	Error       string                 `json:"error,omitempty"`
}

// ExtractResult is the outcome of a schema extraction run.
type ExtractResult struct {
	Package string          `json:"package"`
	Version string          `json:"version"`
	Tools   []ExtractedTool `json:"tools"`
}

// ExecuteResult is the outcome of a tool execution.
type ExecuteResult struct {
	Output     json.RawMessage `json:"output"`
	DurationMS int64           `json:"durationMs"`
}

// Client calls the executor service over HTTP with bearer auth.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates an executor client for baseURL authenticated by token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.httpClient = h
	return c
}

// ExtractSchemas asks the executor to install pkg@version and report the
// tools it exports. Per-tool extraction failures come back in the tool's
// Error field; only transport and service failures error out.
func (c *Client) ExtractSchemas(ctx context.Context, pkg, version string) (*ExtractResult, error) {
	req := map[string]string{
		"package": pkg,
		"version": version,
	}
	var result ExtractResult
	if err := c.post(ctx, "/extract-schemas", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Execute runs tool from pkg@version with args and returns its output.
func (c *Client) Execute(ctx context.Context, pkg, version, tool string, args map[string]interface{}) (*ExecuteResult, error) {
	req := map[string]interface{}{
		"package": pkg,
		"version": version,
		"tool":    tool,
		"args":    args,
	}
	var result ExecuteResult
	if err := c.post(ctx, "/execute", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExecutorUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(out)
	case resp.StatusCode == http.StatusNotFound:
		return decorate(ErrToolNotFound, resp)
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return decorate(ErrExecutionFailed, resp)
	case resp.StatusCode >= 500:
		return decorate(ErrExecutorUnavailable, resp)
	default:
		var body errorBody
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return fmt.Errorf("executor: unexpected status %d: %s", resp.StatusCode, body.Error)
	}
}

func decorate(base error, resp *http.Response) error {
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return base
	}
	return fmt.Errorf("%w: %s", base, body.Error)
}

// Package client is a typed HTTP client for the Tarefas API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/notes/tarefas/internal/handler/dto"
	"github.com/notes/tarefas/internal/model"
)

// DefaultBaseURL is where a locally started server listens.
const DefaultBaseURL = "http://localhost:7000"

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 4 << 20
	requestIDHeader = "X-Request-ID"
)

// ErrInvalidBaseURL is returned by New for URLs without scheme or host.
var ErrInvalidBaseURL = errors.New("invalid base URL")

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("tarefas: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("tarefas: HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Response carries the raw HTTP exchange behind a typed call.
type Response struct {
	Method     string
	URL        string
	StatusCode int
	RequestID  string
	Body       []byte
}

// Client talks to a Tarefas server.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	newID      func() string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New returns a client for baseURL that authenticates with token.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		baseURL:    u,
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		newID:      func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List returns all tasks, or only those whose completion matches completed.
func (c *Client) List(ctx context.Context, completed *bool) ([]model.Task, *Response, error) {
	query := url.Values{}
	if completed != nil {
		query.Set("concluida", strconv.FormatBool(*completed))
	}

	var tasks []model.Task
	resp, err := c.do(ctx, http.MethodGet, "/tarefas", query, nil, &tasks)
	return tasks, resp, err
}

// Get returns a single task.
func (c *Client) Get(ctx context.Context, id int64) (*model.Task, *Response, error) {
	var task model.Task
	resp, err := c.do(ctx, http.MethodGet, taskPath(id), nil, nil, &task)
	if err != nil {
		return nil, resp, err
	}
	return &task, resp, nil
}

// Create adds a new task.
func (c *Client) Create(ctx context.Context, req dto.CreateTaskRequest) (*model.Task, *Response, error) {
	var task model.Task
	resp, err := c.do(ctx, http.MethodPost, "/tarefas", nil, req, &task)
	if err != nil {
		return nil, resp, err
	}
	return &task, resp, nil
}

// Update replaces a task's title, description and completion.
func (c *Client) Update(ctx context.Context, id int64, req dto.UpdateTaskRequest) (*model.Task, *Response, error) {
	var task model.Task
	resp, err := c.do(ctx, http.MethodPut, taskPath(id), nil, req, &task)
	if err != nil {
		return nil, resp, err
	}
	return &task, resp, nil
}

// Delete removes a task.
func (c *Client) Delete(ctx context.Context, id int64) (*Response, error) {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil, nil)
}

// Status reports server liveness and clock.
func (c *Client) Status(ctx context.Context) (*dto.StatusResponse, *Response, error) {
	var status dto.StatusResponse
	resp, err := c.do(ctx, http.MethodGet, "/status", nil, nil, &status)
	if err != nil {
		return nil, resp, err
	}
	return &status, resp, nil
}

func taskPath(id int64) string {
	return "/tarefas/" + strconv.FormatInt(id, 10)
}

// do performs one request. out may be nil when no body is expected.
// The returned Response is non-nil whenever the server answered.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) (*Response, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestID := c.newID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, u.Redacted(), err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	resp := &Response{
		Method:     method,
		URL:        u.Redacted(),
		StatusCode: httpResp.StatusCode,
		RequestID:  httpResp.Header.Get(requestIDHeader),
		Body:       raw,
	}
	if resp.RequestID == "" {
		resp.RequestID = requestID
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return resp, newAPIError(resp)
	}

	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp, fmt.Errorf("decode response: %w", err)
		}
	}

	return resp, nil
}

func newAPIError(resp *Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.RequestID,
	}

	var body dto.ErrorResponse
	if err := json.Unmarshal(resp.Body, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Code = body.Code
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(resp.Body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

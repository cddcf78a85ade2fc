package attendease

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// HTTPClient implements Client over the service's JSON API
type HTTPClient struct {
	baseURL string
	bearer  string
	http    *http.Client
}

// ClientOption configures an HTTPClient
type ClientOption func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(h *HTTPClient) { h.http = c }
}

// NewClient creates a client for the service at baseURL acting as the
// holder of bearer.
func NewClient(baseURL, bearer string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		bearer:  bearer,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Client = (*HTTPClient)(nil)

type scan struct {
	CourseID string `json:"course_id"`
	Token    string `json:"token"`
}

func (c *HTTPClient) CheckIn(ctx context.Context, courseID, token string) (Record, error) {
	var rec Record
	err := c.do(ctx, http.MethodPost, "/api/checkin", scan{CourseID: courseID, Token: token}, &rec)
	return rec, err
}

func (c *HTTPClient) Verify(ctx context.Context, courseID, token string) (Verification, error) {
	var v Verification
	err := c.do(ctx, http.MethodPost, "/api/verify", scan{CourseID: courseID, Token: token}, &v)
	return v, err
}

func (c *HTTPClient) StartPresentation(ctx context.Context, courseID string) (Presentation, error) {
	var p Presentation
	err := c.do(ctx, http.MethodPost, presentationPath(courseID), nil, &p)
	return p, err
}

func (c *HTTPClient) Presentation(ctx context.Context, courseID string) (Presentation, error) {
	var p Presentation
	err := c.do(ctx, http.MethodGet, presentationPath(courseID), nil, &p)
	return p, err
}

func (c *HTTPClient) Regenerate(ctx context.Context, courseID string) (Presentation, error) {
	var p Presentation
	err := c.do(ctx, http.MethodPost, presentationPath(courseID)+"/regenerate", nil, &p)
	return p, err
}

func (c *HTTPClient) StopPresentation(ctx context.Context, courseID string) error {
	return c.do(ctx, http.MethodDelete, presentationPath(courseID), nil, nil)
}

func presentationPath(courseID string) string {
	return "/api/courses/" + url.PathEscape(courseID) + "/presentation"
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("attendease: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("attendease: build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("attendease: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error  string `json:"error"`
			Reason string `json:"reason"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
			return fmt.Errorf("%w: status %d", ErrUnexpectedResponse, resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Reason: e.Reason, Message: e.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return nil
}

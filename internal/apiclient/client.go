// Package apiclient talks to the external registration API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/overdrive/techfest/internal/models"
)

// AdminSecretHeader carries the admin credential on /api/admin calls.
const AdminSecretHeader = "x-admin-secret"

const (
	pathRegister      = "/api/register"
	pathRegistrations = "/api/admin/registrations"
	pathExport        = "/api/admin/export"

	maxBody = 10 << 20
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client calls the registration API. Calls are made once; there is no retry.
type Client struct {
	base       string
	httpClient *http.Client
}

type request struct {
	method  string
	path    string
	body    io.Reader
	headers map[string]string
	admin   bool
}

type response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// SubmitResult is what the API returned for an accepted registration.
type SubmitResult struct {
	ID string
}

func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		base:       strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Submit posts a registration. The body is exactly the payload.
func (c *Client) Submit(ctx context.Context, p models.RegistrationPayload) (SubmitResult, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("encode payload: %w", err)
	}
	resp, err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    pathRegister,
		body:    bytes.NewReader(b),
		headers: map[string]string{"Content-Type": "application/json"},
	})
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{ID: registrationID(resp.Body)}, nil
}

// ListRegistrations returns every stored registration. A rejected secret is
// an *AuthorizationError.
func (c *Client) ListRegistrations(ctx context.Context, secret string) ([]models.StoredRegistration, error) {
	resp, err := c.do(ctx, request{
		method:  http.MethodGet,
		path:    pathRegistrations,
		headers: map[string]string{AdminSecretHeader: secret},
		admin:   true,
	})
	if err != nil {
		return nil, err
	}
	var out []models.StoredRegistration
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("decode registrations: %w", err)
	}
	return out, nil
}

// Export returns the API's CSV export verbatim.
func (c *Client) Export(ctx context.Context, secret string) ([]byte, error) {
	resp, err := c.do(ctx, request{
		method:  http.MethodGet,
		path:    pathExport,
		headers: map[string]string{AdminSecretHeader: secret, "Accept": "text/csv"},
		admin:   true,
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) do(ctx context.Context, r request) (*response, error) {
	url := c.base + r.path
	req, err := http.NewRequestWithContext(ctx, r.method, url, r.body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "api request failed", "method", r.method, "path", r.path, "error", err)
		return nil, &NetworkError{Op: r.method + " " + r.path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &NetworkError{Op: "read " + r.path, Err: err}
	}
	slog.DebugContext(ctx, "api request", "method", r.method, "path", r.path,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, body, r.admin)
	}
	return &response{StatusCode: resp.StatusCode, Headers: resp.Header, Body: body}, nil
}

// registrationID pulls "id" out of the submit response. The API may answer
// with a string or numeric id, or with no body at all.
func registrationID(body []byte) string {
	var v struct {
		ID json.RawMessage `json:"id"`
	}
	if len(bytes.TrimSpace(body)) == 0 || json.Unmarshal(body, &v) != nil || len(v.ID) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(v.ID, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(v.ID, &n) == nil {
		return n.String()
	}
	return ""
}

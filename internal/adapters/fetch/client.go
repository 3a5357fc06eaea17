// Package fetch implements the data-ingestion collaborator: an API client
// with on-demand token refresh and a paginated dataset fetcher.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/okian/savor/pkg/metrics"
)

// tokenExpiryLayout matches the API's tokenExpiryAt format, e.g.
// "2025-01-02 15:04:05+0800".
const tokenExpiryLayout = "2006-01-02 15:04:05-0700"

// authHeader carries the authorization token on every request.
const authHeader = "authorizationToken"

const defaultRequestTimeout = 30 * time.Second

// Client wraps an HTTP client with authorization-token caching. The token
// and its expiry are instance state, not globals: construct once, pass
// around, refresh on demand.
type Client struct {
	baseURL string
	httpc   *http.Client
	now     func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewClient creates a Client for the given API base URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultRequestTimeout},
		now:     time.Now,
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// registerResponse mirrors the /register payload.
type registerResponse struct {
	Data struct {
		AuthorizationToken string `json:"authorizationToken"`
		TokenExpiryAt      string `json:"tokenExpiryAt"`
	} `json:"data"`
}

// refreshToken fetches a new authorization token from /register.
// Callers must hold c.mu.
func (c *Client) refreshToken(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/register", nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAuth, err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		metrics.RecordFetchError()
		return fmt.Errorf("%w: %w", ErrAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordFetchError()
		return fmt.Errorf("%w: register returned %d", ErrAuth, resp.StatusCode)
	}

	var reg registerResponse
	if err := json.NewDecoder(resp.Body).Decode(&reg); err != nil {
		return fmt.Errorf("%w: decode register response: %w", ErrAuth, err)
	}

	expiry, err := time.Parse(tokenExpiryLayout, reg.Data.TokenExpiryAt)
	if err != nil {
		return fmt.Errorf("%w: parse token expiry %q: %w", ErrAuth, reg.Data.TokenExpiryAt, err)
	}

	c.token = reg.Data.AuthorizationToken
	c.expiry = expiry
	return nil
}

// ensureToken refreshes the cached token when missing or expired.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiry) {
		return c.token, nil
	}
	if err := c.refreshToken(ctx); err != nil {
		return "", err
	}
	return c.token, nil
}

// Do issues an HTTP request with token validation. A non-nil body is
// JSON-encoded. The caller owns the response body.
func (c *Client) Do(ctx context.Context, method, url string, body any) (*http.Response, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: encode body: %w", ErrRequest, err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(authHeader, token)

	start := c.now()
	resp, err := c.httpc.Do(req)
	metrics.RecordFetchDuration(time.Since(start).Seconds())
	if err != nil {
		metrics.RecordFetchError()
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	return resp, nil
}

// Endpoint joins the base URL with an API path.
func (c *Client) Endpoint(path string) string {
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

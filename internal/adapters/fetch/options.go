package fetch

import (
	"net/http"
	"time"

	"github.com/okian/savor/pkg/logger"
)

// ClientOption applies a configuration option to the Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) ClientOption {
	return func(c *Client) {
		if httpc != nil {
			c.httpc = httpc
		}
	}
}

// WithClock replaces the time source used for token expiry checks.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Option applies a configuration option to the Fetcher.
type Option func(*Fetcher)

// WithPageDelay sets the wait between page requests.
func WithPageDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		if d >= 0 {
			f.delay = d
		}
	}
}

// WithLogger sets a custom logger for the fetcher.
func WithLogger(log logger.Logger) Option {
	return func(f *Fetcher) {
		if log != nil {
			f.log = log
		}
	}
}

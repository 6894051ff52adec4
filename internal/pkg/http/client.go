package http

import (
	"net/http"
	"time"
)

// Client pairs a base URL with a timeout-bounded http.Client. The provider
// gateway builds its request paths on top of BaseURL.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new HTTP client against the given base URL
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

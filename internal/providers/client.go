package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ErrProviderUnavailable wraps every transport, status and decode failure a
// provider can produce. The scheduler skips the pair for the cycle and
// retries on the next one; it must never treat this as address removal.
var ErrProviderUnavailable = errors.New("provider unavailable")

// Client is a rate-limited HTTP client with bounded retry, shared by all
// provider adapters.
type Client struct {
	Endpoint    string
	ApiKey      string
	RateLimiter *rate.Limiter
	MaxRetries  int
	RetryDelay  time.Duration
	HTTPClient  *http.Client
	Logger      *zerolog.Logger
}

// NewClient creates a provider HTTP client with the given configuration
func NewClient(endpoint, apiKey string, rateLimit float64, maxRetries int, retryDelay, httpTimeout time.Duration, logger *zerolog.Logger) *Client {
	return &Client{
		Endpoint:    endpoint,
		ApiKey:      apiKey,
		RateLimiter: rate.NewLimiter(rate.Limit(rateLimit), 1),
		MaxRetries:  maxRetries,
		RetryDelay:  retryDelay,
		Logger:      logger,
		HTTPClient: &http.Client{
			Timeout: httpTimeout,
			Transport: &CustomTransport{
				Base:   http.DefaultTransport,
				ApiKey: apiKey,
			},
		},
	}
}

// CustomTransport adds API key authentication to HTTP requests
type CustomTransport struct {
	Base   http.RoundTripper
	ApiKey string
}

func (t *CustomTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/json")
	if t.ApiKey != "" {
		q := req.URL.Query()
		q.Set("token", t.ApiKey)
		req.URL.RawQuery = q.Encode()
	}
	return t.Base.RoundTrip(req)
}

// GetJSON performs a rate-limited GET with retries and decodes the response
// body into out. All failure modes collapse into ErrProviderUnavailable.
func (c *Client) GetJSON(ctx context.Context, url string, out interface{}) error {
	c.Logger.Debug().
		Str("url", url).
		Msg("Fetching provider data")

	if err := c.RateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit: %v", ErrProviderUnavailable, err)
	}

	err := c.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return err
		}
		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("HTTP error: %d - %s", resp.StatusCode, resp.Status)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %v", err)
		}
		return nil
	})
	if err != nil {
		c.Logger.Error().
			Err(err).
			Str("url", url).
			Msg("Provider request failed")
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	return nil
}

// retry executes fn until it succeeds or attempts are exhausted
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var err error
	for i := 0; i < c.MaxRetries; i++ {
		if err = fn(); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.RetryDelay):
		}
	}
	return err
}

// Close closes the HTTP client connections
func (c *Client) Close() {
	if c.HTTPClient != nil {
		c.HTTPClient.CloseIdleConnections()
	}
}

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// APIError is a failed or refused provider call.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Option configures a provider client.
type Option func(*client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.http = hc
	}
}

// WithLogger sets the logger used for request and parse diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(c *client) {
		c.log = log
	}
}

// WithMinInterval overrides the minimum spacing between consecutive calls.
func WithMinInterval(d time.Duration) Option {
	return func(c *client) {
		c.limiter = newLimiter(d)
	}
}

type client struct {
	name    string
	http    *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

func newClient(name string, timeout, minInterval time.Duration, opts []Option) *client {
	c := &client{
		name:    name,
		http:    &http.Client{Timeout: timeout},
		limiter: newLimiter(minInterval),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newLimiter lets the first call through and spaces the rest by d.
func newLimiter(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// getJSON waits for the limiter, issues a GET and decodes a 2xx JSON body into dest.
func (c *client) getJSON(ctx context.Context, endpoint string, params url.Values, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limiter: %w", c.name, err)
	}

	reqURL := endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("%s: new request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("provider", c.name).Str("url", endpoint).Msg("api request")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{Provider: c.name, StatusCode: resp.StatusCode, Message: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%s: decode json: %w", c.name, err)
	}
	return nil
}

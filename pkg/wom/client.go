// Package wom is a small client for the Wise Old Man character statistics API.
package wom

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

	"github.com/atayl16/siege-clan-tracker/pkg/config"
)

const defaultMaxBodyBytes = 4 << 20

var (
	// ErrMalformedPayload is returned when the upstream answered 2xx with a body
	// that is not a JSON object.
	ErrMalformedPayload = errors.New("wom: malformed player payload")
	// ErrBodyTooLarge is returned when a 2xx body exceeds the read limit. The
	// body is not decoded, so a cut-off document is never mistaken for a
	// malformed one.
	ErrBodyTooLarge = errors.New("wom: response body exceeds limit")
)

// StatusError describes a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("wom: GET %s returned %d: %s", e.Path, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Client fetches player documents. All calls are bounded by the configured timeout.
type Client struct {
	baseURL   string
	userAgent string
	apiKey    string
	maxBody   int64
	http      *http.Client
}

// Option customises the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithMaxBodyBytes caps how much of a response body is read.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// NewClient builds a client from config.
func NewClient(cfg config.WOMConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		apiKey:    cfg.APIKey,
		maxBody:   defaultMaxBodyBytes,
		http:      &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// PlayerByID returns the raw player document for a WOM id.
func (c *Client) PlayerByID(ctx context.Context, womID int64) (map[string]interface{}, error) {
	return c.getObject(ctx, "/players/id/"+strconv.FormatInt(womID, 10))
}

// PlayerByUsername returns the raw player document for a username.
func (c *Client) PlayerByUsername(ctx context.Context, username string) (map[string]interface{}, error) {
	name := strings.TrimSpace(username)
	if name == "" {
		return nil, fmt.Errorf("wom: username is required")
	}
	return c.getObject(ctx, "/players/"+url.PathEscape(name))
}

func (c *Client) getObject(ctx context.Context, path string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("wom: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wom: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("wom: read %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Path: path, Body: snippet}
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: GET %s over %d bytes", ErrBodyTooLarge, path, c.maxBody)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	switch v := doc.(type) {
	case nil:
		return nil, nil
	case map[string]interface{}:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrMalformedPayload, doc)
	}
}

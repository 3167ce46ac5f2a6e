// Package gateway is the request/response contract between the annotation
// core and the annotation server. Every call is a form-encoded POST with the
// session cookie attached; a non-success status is terminal for that attempt.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/depicta/internal/logger"
	"github.com/ppiankov/depicta/internal/util"
	"golang.org/x/net/publicsuffix"
)

const maxBodyBytes = 1 << 20

// ServerError is a non-success response. Text is the raw response body and is
// meant to be shown to the user as is.
type ServerError struct {
	Op     string
	Status int
	Text   string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.Status, e.Text)
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Domain     string
	UserAgent  string
	Timeout    time.Duration
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
	Logger     *logger.Logger
}

// Client talks to the annotation server.
type Client struct {
	baseURL    string
	domain     string
	userAgent  string
	httpClient *http.Client
	log        *logger.Logger

	mu        sync.RWMutex
	csrfToken string
}

// New creates a Client with its own cookie jar.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		domain:    opts.Domain,
		userAgent: opts.UserAgent,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy),
			},
		},
		log: log.With("component", "gateway"),
	}, nil
}

// Domain returns the sync domain appended to domain-scoped endpoints.
func (c *Client) Domain() string {
	return c.domain
}

// CSRFToken returns the anti-forgery token obtained by Open.
func (c *Client) CSRFToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.csrfToken
}

// post sends form to path and decodes a JSON success body into out (when non-nil).
func (c *Client) post(ctx context.Context, op, path string, form url.Values, out any) error {
	body, err := c.postRaw(ctx, op, path, form)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) postRaw(ctx context.Context, op, path string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	// the server checks that mutating calls come from its own pages
	req.Header.Set("Referer", c.baseURL+"/")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("request failed", "op", op, "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}

	c.log.Debug("request done", "op", op, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ServerError{Op: op, Status: resp.StatusCode, Text: string(body)}
	}
	return body, nil
}

// Package notion adapts the Notion REST API to the block and record ports.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	applog "chartsync/internal/log"
	"chartsync/internal/middleware/trace"
	"chartsync/internal/store"
)

const (
	DefaultBaseURL = "https://api.notion.com"
	DefaultVersion = "2025-09-03"

	pageSize    = 100
	maxAttempts = 3
)

// Ensure interface conformance
var (
	_ store.BlockStore   = (*Client)(nil)
	_ store.RecordSource = (*Client)(nil)
)

// Client talks to one Notion integration.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	version string
	logger  *applog.Logger
}

// Config holds the connection settings of a Client. Empty fields fall back
// to the public API defaults.
type Config struct {
	BaseURL    string
	Token      string
	Version    string
	HTTPClient *http.Client
	Logger     *applog.Logger
}

// APIError is the error object returned by the API.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion api %d %s: %s", e.Status, e.Code, e.Message)
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("missing notion token")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid notion base url %q: %w", baseURL, err)
	}
	version := cfg.Version
	if version == "" {
		version = DefaultVersion
	}
	logger := cfg.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentNotion)
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClientWithPooling(logger)
	}
	return &Client{
		http:    httpClient,
		baseURL: baseURL,
		token:   cfg.Token,
		version: version,
		logger:  logger,
	}, nil
}

// NewFromEnv creates a client from NOTION_TOKEN, NOTION_API_URL and
// NOTION_VERSION.
func NewFromEnv() (*Client, error) {
	token := strings.TrimSpace(os.Getenv("NOTION_TOKEN"))
	if token == "" {
		return nil, errors.New("missing NOTION_TOKEN")
	}
	return New(Config{
		BaseURL: os.Getenv("NOTION_API_URL"),
		Token:   token,
		Version: os.Getenv("NOTION_VERSION"),
	})
}

// newHTTPClientWithPooling creates an HTTP client with connection pooling,
// timeouts and keep-alive settings suited to a single API host.
func newHTTPClientWithPooling(logger *applog.Logger) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext: dialer.DialContext,

		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: trace.NewTransport(transport, logger),
		Timeout:   60 * time.Second,
	}
}

// do sends one API request and decodes the JSON response into out.
// Rate-limited requests are retried after the advertised delay.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	for attempt := 1; ; attempt++ {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Notion-Version", c.version)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("read response of %s %s: %w", method, path, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < maxAttempts {
			wait := retryAfter(resp.Header.Get("Retry-After"))
			c.logger.WarnContext(ctx, "Notion rate limit hit, retrying",
				"path", path,
				"attempt", attempt,
				"wait", wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}

		if resp.StatusCode >= 300 {
			apiErr := &APIError{Status: resp.StatusCode}
			if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
				apiErr.Message = strings.TrimSpace(string(data))
			}
			apiErr.Status = resp.StatusCode
			return apiErr
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response of %s %s: %w", method, path, err)
		}
		return nil
	}
}

func retryAfter(h string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return time.Second
}

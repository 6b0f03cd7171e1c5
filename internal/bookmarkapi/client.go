// Package bookmarkapi is the REST client for the external bookmark API:
// GET /bookmarks, POST /bookmark and DELETE /bookmark/{id}.
package bookmarkapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/recall/internal/domain"
	"github.com/MrSnakeDoc/recall/internal/logger"
	"github.com/MrSnakeDoc/recall/internal/utils"
)

const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 10 * time.Second

	// maxErrorBody caps how much of a failed response is kept for logs.
	maxErrorBody = 512
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL string
	Timeout time.Duration
	RPS     float64 // outbound requests per second, <= 0 disables pacing
	Burst   int
}

// Client talks to the bookmark API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     logger.Logger
}

// New builds a client with its own transport and an outbound rate limiter.
func New(opts Options, log logger.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   opts.Timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        16,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: opts.Timeout,
			},
		},
		limiter: rate.NewLimiter(limit, opts.Burst),
		logger:  log,
	}
}

// BaseURL returns the API root the client was configured with.
func (c *Client) BaseURL() string { return c.baseURL }

// List returns every bookmark in the order the API sends them.
func (c *Client) List(ctx context.Context) ([]domain.Bookmark, error) {
	var bookmarks []domain.Bookmark
	if err := c.do(ctx, "list", http.MethodGet, "/bookmarks", nil, &bookmarks); err != nil {
		return nil, err
	}
	if bookmarks == nil {
		bookmarks = []domain.Bookmark{}
	}
	return bookmarks, nil
}

// Create posts data as-is. Callers are expected to have normalized the URL.
func (c *Client) Create(ctx context.Context, data domain.BookmarkFormData) (*domain.Bookmark, error) {
	var created domain.Bookmark
	if err := c.do(ctx, "create", http.MethodPost, "/bookmark", data, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Delete removes the bookmark with the given id.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, "delete", http.MethodDelete, "/bookmark/"+strconv.FormatInt(id, 10), nil, nil)
}

// Ping issues a list request and discards the body. Used by readiness checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", http.MethodGet, "/bookmarks", nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limiter: %w", op, err)
	}

	var body io.Reader = http.NoBody
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer utils.Close(resp.Body)

	c.logger.Debug("bookmark api call",
		logger.String("op", op),
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Op:         op,
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

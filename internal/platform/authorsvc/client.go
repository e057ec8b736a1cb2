// Package authorsvc resolves authors through the authors HTTP API.
package authorsvc

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"bookbff/internal/author"
)

const DefaultTimeout = 3 * time.Second

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     *slog.Logger
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit caps outgoing lookups at rps per second. Zero disables the cap.
func WithRateLimit(rps int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), rps)
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		userAgent:  "bookbff/1.0",
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    DefaultTimeout,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveAuthor fetches the author with id. Any failure, including a
// response describing a different author, reports false.
func (c *Client) ResolveAuthor(ctx context.Context, id uuid.UUID) (author.View, bool) {
	view, err := c.getAuthor(ctx, id)
	if err != nil {
		c.logger.DebugContext(ctx, "author lookup failed", "id", id, "error", err)
		return author.View{}, false
	}
	return view, true
}

func (c *Client) getAuthor(ctx context.Context, id uuid.UUID) (author.View, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return author.View{}, fmt.Errorf("rate limit: %w", err)
		}
	}

	u := fmt.Sprintf("%s/api/v1/authors/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return author.View{}, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return author.View{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return author.View{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var view author.View
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return author.View{}, fmt.Errorf("decode author: %w", err)
	}
	if view.ID != id {
		return author.View{}, fmt.Errorf("response describes author %s", view.ID)
	}
	return view, nil
}

// Package api is the HTTP client for the RealStream backend services,
// reached through the reverse proxy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/infblueocean/realstream/internal/logging"
	"github.com/infblueocean/realstream/internal/otel"
)

// Credentials supplies the bearer token and the user id for X-User-Id.
// Both are empty when logged out.
type Credentials interface {
	Token() string
	UserID() string
}

// Options configure a Client.
type Options struct {
	BaseURL    string
	VideosPath string // default "/content/videos"
	Timeout    time.Duration
	// RequestsPerSecond limits outgoing requests. 0 disables the limit.
	RequestsPerSecond float64
	Credentials       Credentials
	Events            *otel.Logger
}

// Client talks to the backend. Safe for concurrent use.
type Client struct {
	base       string
	videosPath string
	http       *http.Client
	limiter    *rate.Limiter
	creds      Credentials
	events     *otel.Logger
	log        *log.Logger
	backoffs   []time.Duration
}

// New returns a Client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.VideosPath == "" {
		opts.VideosPath = "/content/videos"
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	return &Client{
		base:       strings.TrimRight(opts.BaseURL, "/"),
		videosPath: opts.VideosPath,
		http:       &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(limit, 5),
		creds:      opts.Credentials,
		events:     opts.Events,
		log:        logging.For("api"),
		backoffs:   []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
}

// LoginURL is where the browser starts the OAuth flow for provider.
func (c *Client) LoginURL(provider string) string {
	return c.base + "/auth/oauth2/authorization/" + url.PathEscape(provider)
}

type call struct {
	method  string
	path    string
	query   url.Values
	body    any
	userID  bool // send X-User-Id
	idempot bool // safe to retry
}

// do runs one call and decodes a 2xx body into out (unless out is nil).
// Idempotent calls are retried up to 3 times on 429 and 5xx, honoring
// Retry-After on 429.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	var payload []byte
	if cl.body != nil {
		var err error
		payload, err = json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("%s %s: marshal: %w", cl.method, cl.path, err)
		}
	}
	target := c.base + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	maxRetries := 0
	if cl.idempot {
		maxRetries = len(c.backoffs)
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s %s: rate limiter wait failed: %w", cl.method, cl.path, err)
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
		if err != nil {
			return fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.creds != nil {
			if tok := c.creds.Token(); tok != "" {
				req.Header.Set("Authorization", "Bearer "+tok)
			}
			if cl.userID {
				if id := c.creds.UserID(); id != "" {
					req.Header.Set("X-User-Id", id)
				}
			}
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%s %s: request cancelled: %w", cl.method, cl.path, ctx.Err())
			}
			c.report(cl, 0, start, err)
			return fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("%s %s: read response: %w", cl.method, cl.path, err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			c.report(cl, resp.StatusCode, start, nil)
			if out == nil || len(bytes.TrimSpace(data)) == 0 {
				return nil
			}
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("%s %s: decode: %w", cl.method, cl.path, err)
			}
			return nil
		}

		serr := &StatusError{Method: cl.method, Path: cl.path, Code: resp.StatusCode, Body: snippet(data)}
		lastErr = serr
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		if !retryable || attempt == maxRetries {
			c.report(cl, resp.StatusCode, start, serr)
			return serr
		}

		delay := c.backoffs[attempt]
		if resp.StatusCode == http.StatusTooManyRequests {
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
					delay = time.Duration(secs) * time.Second
					if delay > 30*time.Second {
						delay = 30 * time.Second
					}
				}
			}
		}
		c.log.Debug("retrying", "method", cl.method, "path", cl.path, "status", resp.StatusCode, "delay", delay)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s %s: request cancelled during retry: %w", cl.method, cl.path, ctx.Err())
		case <-time.After(delay):
		}
	}
	return lastErr
}

func (c *Client) report(cl call, status int, start time.Time, err error) {
	if c.events == nil {
		return
	}
	e := otel.Event{
		Level:  otel.LevelDebug,
		Kind:   otel.KindAPIRequest,
		Comp:   "api",
		Status: status,
		Dur:    time.Since(start),
		Msg:    cl.method + " " + cl.path,
	}
	if err != nil {
		e.Level = otel.LevelWarn
		e.Kind = otel.KindAPIError
		e.Err = err.Error()
	}
	c.events.Emit(e)
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

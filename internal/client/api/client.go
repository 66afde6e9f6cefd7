// Package api is the HTTP client for the payroll service. Every call carries
// the session bearer token and an X-Request-ID, replies are unwrapped from the
// {success, message, data, error, meta} envelope, and network or 5xx failures
// are retried with exponential backoff.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-disbursement/internal/client/session"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const RequestIDHeader = "X-Request-ID"

type Options struct {
	Timeout        time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	// Transport is the base round tripper, http.DefaultTransport when nil.
	Transport http.RoundTripper
}

type Client struct {
	baseURL   string
	authed    *http.Client
	anonymous *http.Client
	sessions  session.Store
	attempts  int
	baseDelay time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

func New(baseURL string, sessions session.Store, opts Options) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid payroll api url %q", baseURL)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RetryAttempts < 1 {
		opts.RetryAttempts = 3
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = 300 * time.Millisecond
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	return &Client{
		baseURL: baseURL,
		authed: &http.Client{
			Timeout: opts.Timeout,
			Transport: &oauth2.Transport{
				Source: session.TokenSource(context.Background(), sessions),
				Base:   base,
			},
		},
		anonymous: &http.Client{
			Timeout:   opts.Timeout,
			Transport: base,
		},
		sessions:  sessions,
		attempts:  opts.RetryAttempts,
		baseDelay: opts.RetryBaseDelay,
		sleep:     sleepCtx,
	}, nil
}

// Sessions exposes the store the client reads its token from.
func (c *Client) Sessions() session.Store {
	return c.sessions
}

// Meta is the pagination block of list replies.
type Meta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

// Page is one page of a list endpoint.
type Page[T any] struct {
	Items []T
	Meta  Meta
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *Meta `json:"meta"`
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	anon   bool
}

// do runs req with retries and decodes data into out when out is non-nil.
func (c *Client) do(ctx context.Context, req request, out any) (*Meta, error) {
	var payload []byte
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		payload = raw
	}

	// one id for every attempt; the service applies a top-up once per id
	requestID := uuid.NewString()
	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		env, err := c.once(ctx, req, payload, requestID)
		if err == nil {
			if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
				if err := json.Unmarshal(env.Data, out); err != nil {
					return nil, fmt.Errorf("failed to decode %s %s: %w", req.method, req.path, err)
				}
			}
			return env.Meta, nil
		}

		lastErr = err
		if !retryable(ctx, err) || attempt == c.attempts-1 {
			break
		}

		delay := c.baseDelay * time.Duration(1<<attempt)
		slog.Warn("payroll api call failed, retrying",
			"method", req.method, "path", req.path, "attempt", attempt+1,
			"delay", delay, "request_id", requestID, "error", err)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	if apiErr, ok := AsError(lastErr); ok && apiErr.IsUnauthorized() && !req.anon {
		if err := c.sessions.Clear(ctx); err != nil {
			slog.Warn("failed to clear session after 401", "error", err)
		}
	}
	return nil, lastErr
}

func (c *Client) once(ctx context.Context, req request, payload []byte, requestID string) (*envelope, error) {
	endpoint := c.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpClient := c.authed
	if req.anon {
		httpClient = c.anonymous
	}

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode/100 != 2 {
		apiErr := &Error{
			StatusCode: resp.StatusCode,
			RequestID:  resp.Header.Get(RequestIDHeader),
		}
		if decodeErr == nil && env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Details = env.Error.Details
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode %s %s: %w", req.method, req.path, decodeErr)
	}
	if !env.Success {
		apiErr := &Error{StatusCode: resp.StatusCode, RequestID: resp.Header.Get(RequestIDHeader), Message: env.Message}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return nil, apiErr
	}
	return &env, nil
}

// retryable covers transport failures and 5xx replies. A missing session or a
// cancelled context ends the loop.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, session.ErrNoSession) {
		return false
	}
	if apiErr, ok := AsError(err); ok {
		return apiErr.IsRetryable()
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

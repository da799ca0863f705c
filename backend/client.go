// Package backend talks to the EarnQuest REST API: bot settings, scheduled
// posts, audit events and the authenticated account endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// DefaultBaseURL is used when no API base address is configured.
const DefaultBaseURL = "https://rebackend-ij74.onrender.com/api"

// ErrUnexpectedStatus is wrapped by every StatusError.
var ErrUnexpectedStatus = errors.New("unexpected status")

// StatusError is returned when the backend answered with a status the
// caller did not expect. Message carries the backend's own error text when
// the body had one.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Endpoint, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// LeveledZap adapts zap to retryablehttp's leveled logger.
type LeveledZap struct {
	inner *zap.SugaredLogger
}

// re-writes HTTP client ERROR to WARN level (because of retries)
func (l LeveledZap) Error(msg string, keysAndValues ...any) { l.inner.Warnw(msg, keysAndValues...) }
func (l LeveledZap) Warn(msg string, keysAndValues ...any)  { l.inner.Warnw(msg, keysAndValues...) }
func (l LeveledZap) Info(msg string, keysAndValues ...any)  { l.inner.Infow(msg, keysAndValues...) }
func (l LeveledZap) Debug(msg string, keysAndValues ...any) { l.inner.Debugw(msg, keysAndValues...) }

// Options configures a Client.
type Options struct {
	BaseURL      string
	BotKey       string
	Timeout      time.Duration
	EventTimeout time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Logger       *zap.Logger
}

// Client is safe for concurrent use.
type Client struct {
	baseURL      string
	botKey       string
	timeout      time.Duration
	eventTimeout time.Duration
	// reads retry on connection errors and 5xx; writes never retry
	reads  *http.Client
	writes *http.Client
	logger *zap.Logger
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.EventTimeout <= 0 {
		opts.EventTimeout = 10 * time.Second
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = 500 * time.Millisecond
	}
	if opts.RetryWaitMax <= 0 {
		opts.RetryWaitMax = 3 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	logger := opts.Logger.Named("backend")

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Transport = cleanhttp.DefaultPooledTransport()
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = opts.RetryWaitMin
	retryClient.RetryWaitMax = opts.RetryWaitMax
	retryClient.Logger = retryablehttp.LeveledLogger(LeveledZap{inner: logger.Sugar()})
	retryClient.CheckRetry = readRetryPolicy
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	reads := retryClient.StandardClient()
	reads.Timeout = opts.Timeout

	writes := cleanhttp.DefaultPooledClient()
	writes.Timeout = opts.Timeout

	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		botKey:       opts.BotKey,
		timeout:      opts.Timeout,
		eventTimeout: opts.EventTimeout,
		reads:        reads,
		writes:       writes,
		logger:       logger,
	}
}

// readRetryPolicy does not retry 429 so callers see rate limiting directly.
func readRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// response is a fully read HTTP response.
type response struct {
	StatusCode int
	Body       []byte
}

func (r *response) decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// errorMessage extracts a human readable error from a failed response body.
func (r *response) errorMessage() string {
	var obj map[string]any
	if err := json.Unmarshal(r.Body, &obj); err != nil {
		return ""
	}
	if msg, ok := obj["error"].(string); ok {
		return msg
	}
	if msg, ok := obj["detail"].(string); ok {
		return msg
	}
	return flattenErrors(obj)
}

// do sends one request. endpoint is the metrics label for path.
func (c *Client) do(ctx context.Context, method, endpoint, path, token string, payload any, timeout time.Duration) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", endpoint, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.botKey != "" {
		req.Header.Set("X-Bot-Key", c.botKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	client := c.writes
	if method == http.MethodGet {
		client = c.reads
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		requestDuration.WithLabelValues(endpoint, "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	requestDuration.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}
	return &response{StatusCode: resp.StatusCode, Body: raw}, nil
}

func (c *Client) get(ctx context.Context, endpoint, path, token string) (*response, error) {
	return c.do(ctx, http.MethodGet, endpoint, path, token, nil, c.timeout)
}

func (c *Client) post(ctx context.Context, endpoint, path, token string, payload any) (*response, error) {
	return c.do(ctx, http.MethodPost, endpoint, path, token, payload, c.timeout)
}

// getJSON fetches path and decodes a 200 body into v.
func (c *Client) getJSON(ctx context.Context, endpoint, token string, v any) error {
	resp, err := c.get(ctx, endpoint, endpoint, token)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: resp.errorMessage()}
	}
	if err := resp.decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

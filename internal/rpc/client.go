package rpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kolo/xmlrpc"

	"renderfarm/internal/config"
	"renderfarm/internal/logging"
)

const (
	defaultHTTPTimeout    = 120 * time.Second
	defaultRetryMaxDelay  = 5 * time.Second
	defaultRetryBaseDelay = 500 * time.Millisecond
	defaultRetryAttempts  = 3
)

// Fault is an XML-RPC fault returned by the farm. It is preserved in the
// chain of every error built from a faulted call.
type Fault = xmlrpc.FaultError

// HTTPDoer is the transport the client sends requests through.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the farm endpoints.
type Client struct {
	endpoints  config.Endpoints
	httpClient HTTPDoer
	timeout    time.Duration
	logger     *slog.Logger
	verbose    bool

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithVerbose enables debug logging of every call. Argument values are never
// logged.
func WithVerbose(verbose bool) Option {
	return func(c *Client) {
		c.verbose = verbose
	}
}

// WithRetryMaxAttempts overrides the retry count for idempotent calls.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a client for the given endpoints.
func NewClient(endpoints config.Endpoints, opts ...Option) *Client {
	client := &Client{
		endpoints:        endpoints,
		timeout:          defaultHTTPTimeout,
		logger:           logging.NewNop(),
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: client.timeout}
	}
	client.logger = logging.NewComponentLogger(client.logger, "rpc")
	return client
}

// Endpoints reports the endpoints the client talks to.
func (c *Client) Endpoints() config.Endpoints {
	return c.endpoints
}

// HTTPClient exposes the transport so the uploader can share it.
func (c *Client) HTTPClient() HTTPDoer {
	return c.httpClient
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// call performs one XML-RPC round trip. Faults come back as Fault.
func (c *Client) call(ctx context.Context, endpoint, method string, params ...any) (any, error) {
	body, err := xmlrpc.EncodeMethodCall(method, params...)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", method, err)
	}
	if c.verbose {
		logging.WithContext(ctx, c.logger).Debug("rpc call",
			logging.String("method", method),
			logging.Int("args", len(params)),
			logging.Int("status", resp.StatusCode),
			logging.Int("response_bytes", len(payload)),
			logging.Duration("elapsed", time.Since(start)))
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Body: snippet(payload)}
	}
	return decodeResponse(method, payload)
}

// decodeResponse unpacks the first value of a methodResponse document.
func decodeResponse(method string, payload []byte) (any, error) {
	response := xmlrpc.Response(payload)
	if err := response.Err(); err != nil {
		var fault Fault
		if errors.As(err, &fault) {
			return nil, fault
		}
		return nil, fmt.Errorf("%s: decode fault: %w", method, err)
	}
	var value any
	if err := response.Unmarshal(&value); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", method, err)
	}
	return value, nil
}

// callWithRetry retries transport failures of idempotent calls. Faults are
// final.
func (c *Client) callWithRetry(ctx context.Context, endpoint, method string, params ...any) (any, error) {
	attempts := max(c.retryMaxAttempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		value, err := c.call(ctx, endpoint, method, params...)
		if err == nil {
			return value, nil
		}
		lastErr = err
		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return nil, err
		}
		logging.WithContext(ctx, c.logger).Debug("retrying rpc call",
			logging.String("method", method),
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Error(err))
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusRequestTimeout ||
			statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode >= http.StatusInternalServerError {
			return c.backoffDelay(attempt), true
		}
		return 0, false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	return 0, false
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	base := c.retryBaseDelay
	if base <= 0 {
		return 0
	}
	maxDelay := c.retryMaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}
	// attempt 1 -> base, attempt 2 -> base*2, ...
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			return maxDelay
		}
		delay *= 2
	}
	return min(delay, maxDelay)
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

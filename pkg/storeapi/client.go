// Package storeapi is the client for the commerce API that owns the catalog,
// accounts, orders and payment verification.
package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const (
	responseBodyLimit int64 = 1 << 20
	defaultTimeout          = 15 * time.Second
)

var errServerStatus = errors.New("commerce api server error")

// Recorder receives per-call latency.
type Recorder interface {
	BackendCall(op, status string, duration time.Duration)
}

// Client talks JSON to the commerce API. It never retries; a circuit breaker
// short-circuits calls after consecutive transport or 5xx failures.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	paths      config.BackendConfig
	breaker    *gobreaker.CircuitBreaker[*rawResponse]
	logg       *logger.Logger
	metrics    Recorder
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger for breaker transitions and failed calls.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		if logg != nil {
			c.logg = logg
		}
	}
}

// WithMetrics attaches a latency recorder.
func WithMetrics(rec Recorder) Option {
	return func(c *Client) {
		if rec != nil {
			c.metrics = rec
		}
	}
}

// NewClient builds a client for the configured backend.
func NewClient(cfg config.BackendConfig, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend base url must be absolute: %q", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
		paths:      cfg,
		logg:       logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	client.breaker = gobreaker.NewCircuitBreaker[*rawResponse](gobreaker.Settings{
		Name:    "commerce-api",
		Timeout: cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			client.logg.Warn(client.logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}), "circuit breaker state changed")
		},
	})
	return client, nil
}

type rawResponse struct {
	status int
	body   []byte
}

type call struct {
	op     string
	method string
	path   string
	query  url.Values
	token  string
	body   any
	form   url.Values
}

// do executes one request and decodes a 2xx body into out. Non-2xx answers
// become typed errors carrying the backend's message.
func (c *Client) do(ctx context.Context, req call, out any) (int, error) {
	if c == nil {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "commerce api client not configured")
	}

	target := c.resolve(req.path, req.query)
	var encoded []byte
	contentType := ""
	switch {
	case req.form != nil:
		encoded = []byte(req.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.body != nil:
		var err error
		encoded, err = json.Marshal(req.body)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode "+req.op+" request")
		}
		contentType = "application/json"
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*rawResponse, error) {
		var payload io.Reader
		if contentType != "" {
			payload = bytes.NewReader(encoded)
		}
		httpReq, err := http.NewRequestWithContext(ctx, req.method, target, payload)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Accept", "application/json")
		if contentType != "" {
			httpReq.Header.Set("Content-Type", contentType)
		}
		if strings.TrimSpace(req.token) != "" {
			httpReq.Header.Set("Authorization", auth.BearerHeader(req.token))
		}

		httpResp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer func() { _ = httpResp.Body.Close() }()

		body, err := io.ReadAll(io.LimitReader(httpResp.Body, responseBodyLimit))
		if err != nil {
			return nil, err
		}
		raw := &rawResponse{status: httpResp.StatusCode, body: body}
		if httpResp.StatusCode >= http.StatusInternalServerError {
			return raw, errServerStatus
		}
		return raw, nil
	})
	c.record(req.op, resp, err, time.Since(start))

	if err != nil && !errors.Is(err, errServerStatus) {
		return 0, c.transportError(ctx, req.op, err)
	}
	if resp.status < 200 || resp.status > 299 {
		return resp.status, statusError(req.op, resp.status, resp.body)
	}
	if out != nil && len(bytes.TrimSpace(resp.body)) > 0 {
		if err := json.Unmarshal(resp.body, out); err != nil {
			return resp.status, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+req.op+" response")
		}
	}
	return resp.status, nil
}

func (c *Client) transportError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "commerce api temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded), isTimeout(err):
		return pkgerrors.Wrap(pkgerrors.CodeTimeout, err, op+" timed out")
	case errors.Is(err, context.Canceled):
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op+" cancelled")
	}
	c.logg.Warn(c.logg.WithField(ctx, "backend_op", op), "commerce api call failed: "+err.Error())
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not reach the commerce api")
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *Client) record(op string, resp *rawResponse, err error, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	status := "error"
	if resp != nil {
		status = fmt.Sprintf("%dxx", resp.status/100)
	} else if errors.Is(err, gobreaker.ErrOpenState) {
		status = "open"
	}
	c.metrics.BackendCall(op, status, elapsed)
}

func (c *Client) resolve(path string, query url.Values) string {
	target := c.baseURL.JoinPath(path)
	if strings.HasSuffix(path, "/") && !strings.HasSuffix(target.Path, "/") {
		target.Path += "/"
	}
	target.RawQuery = ""
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}
	return target.String()
}

// resource joins a collection path and an identifier, keeping the trailing
// slash the commerce API routes expect.
func resource(collection, id string) string {
	return strings.TrimRight(collection, "/") + "/" + url.PathEscape(strings.TrimSpace(id)) + "/"
}

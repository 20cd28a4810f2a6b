// Package gateway is the REST client for the task/list API. Every call
// attaches the bearer token and decodes the {message, data} envelope.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tempus-app/tempus/internal/apperrors"
	logpkg "github.com/tempus-app/tempus/internal/logger"
)

const (
	// DefaultTimeout bounds a single request
	DefaultTimeout = 10 * time.Second

	tracerName = "github.com/tempus-app/tempus/internal/gateway"

	// maxErrorBody caps how much of an error response is read
	maxErrorBody = 64 << 10
)

// TokenProvider supplies the bearer token. An empty token means signed out.
type TokenProvider interface {
	GetToken(ctx context.Context) (string, error)
}

// Client talks to the task/list REST API
type Client struct {
	baseURL    string
	tokens     TokenProvider
	httpClient *http.Client
	logger     *zap.Logger
	tracer     trace.Tracer
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracerProvider traces calls with tp instead of the global provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = tp.Tracer(tracerName) }
}

// New creates a client for the API at baseURL
func New(baseURL string, tokens TokenProvider, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call describes one request
type call struct {
	op       string
	method   string
	path     string
	body     any
	fallback string
}

// envelope accepts "data" and the older tasksArr/listsArr keys
type envelope struct {
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
	TasksArr json.RawMessage `json:"tasksArr"`
	ListsArr json.RawMessage `json:"listsArr"`
}

func (e envelope) payload() json.RawMessage {
	for _, raw := range []json.RawMessage{e.Data, e.TasksArr, e.ListsArr} {
		if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
			return raw
		}
	}
	return nil
}

// do executes a call and decodes its data into T. A missing or null data
// field leaves T at its zero value.
func do[T any](ctx context.Context, c *Client, cl call) (T, error) {
	var zero T

	ctx, span := c.tracer.Start(ctx, "gateway."+cl.op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", cl.method),
		attribute.String("http.route", cl.path),
	)

	fail := func(err error) (T, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, cl.op)
		c.logger.Warn("gateway_request_failed",
			zap.String("op", cl.op),
			zap.String("method", cl.method),
			zap.String("path", logpkg.SanitizePath(cl.path)),
			zap.String("kind", string(apperrors.KindOf(err))),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		return zero, err
	}

	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		if apperrors.IsAuth(err) {
			return fail(err)
		}
		return fail(&apperrors.AuthError{Message: "no auth token available", Err: err})
	}
	if token == "" {
		return fail(&apperrors.AuthError{Message: "no auth token available"})
	}

	var reqBody io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return fail(fmt.Errorf("%s: encode body: %w", cl.op, err))
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, reqBody)
	if err != nil {
		return fail(fmt.Errorf("%s: build request: %w", cl.op, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", uuid.NewString())
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(&apperrors.NetworkError{Op: cl.op, Err: err})
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("gateway_body_close_failed", zap.Error(closeErr))
		}
	}()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.logger.Debug("gateway_request",
		zap.String("op", cl.op),
		zap.String("method", cl.method),
		zap.String("path", logpkg.SanitizePath(cl.path)),
		zap.Int("status_code", resp.StatusCode),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(statusError(resp, cl.fallback))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(&apperrors.NetworkError{Op: cl.op, Err: fmt.Errorf("read body: %w", err)})
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return zero, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fail(&apperrors.ServerError{StatusCode: resp.StatusCode, Message: cl.fallback + ": malformed response"})
	}
	data := env.payload()
	if data == nil {
		return zero, nil
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return fail(&apperrors.ServerError{StatusCode: resp.StatusCode, Message: cl.fallback + ": malformed response"})
	}
	return out, nil
}

// statusError maps a non-2xx response to AuthError or ServerError, keeping
// the server's message verbatim when one was sent
func statusError(resp *http.Response, fallback string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var msg struct {
		Message string `json:"message"`
	}
	message := fallback
	if err := json.Unmarshal(body, &msg); err == nil && msg.Message != "" {
		message = msg.Message
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &apperrors.AuthError{
			Message: message,
			Err:     errors.Join(apperrors.ErrUnauthenticated, &apperrors.ServerError{StatusCode: resp.StatusCode, Message: message}),
		}
	}
	se := &apperrors.ServerError{StatusCode: resp.StatusCode, Message: message}
	if resp.StatusCode == http.StatusNotFound {
		se.Err = apperrors.ErrNotFound
	}
	return se
}

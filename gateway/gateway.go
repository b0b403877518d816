// Package gateway implements the HTTP transport to Federation Core.
//
// Every call passes through correlation identity validation, header
// injection, envelope unwrapping and retry classification. The correlation
// ID carried in a RequestContext is stable across all retries of one
// logical call.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/omega-platform/omega-go/config"
	"github.com/omega-platform/omega-go/correlation"
	"github.com/omega-platform/omega-go/internal/metrics"
	"github.com/omega-platform/omega-go/retry"
	"github.com/omega-platform/omega-go/types"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// RequestContext carries the identity headers for one logical call.
type RequestContext struct {
	TenantID      string
	ActorID       string
	CorrelationID string
}

type requestOptions struct {
	idempotencyKey    string
	decisionReceiptID string
	headers           map[string]string
	headerFunc        func() (map[string]string, error)
}

// RequestOption customizes a single gateway request.
type RequestOption func(*requestOptions)

// WithIdempotencyKey attaches a stable idempotency key so a retried mutating
// request is safe to re-execute server-side.
func WithIdempotencyKey(key string) RequestOption {
	return func(o *requestOptions) { o.idempotencyKey = key }
}

// WithDecisionReceipt attaches a governance decision receipt ID.
func WithDecisionReceipt(id string) RequestOption {
	return func(o *requestOptions) { o.decisionReceiptID = id }
}

// WithHeaders attaches extra request headers, e.g. the signed invocation
// header set.
func WithHeaders(headers map[string]string) RequestOption {
	return func(o *requestOptions) { o.headers = headers }
}

// WithHeaderFunc attaches headers that are recomputed for every attempt,
// for headers that must not repeat across retries such as a signing nonce.
func WithHeaderFunc(fn func() (map[string]string, error)) RequestOption {
	return func(o *requestOptions) { o.headerFunc = fn }
}

// Gateway is the HTTP client for the Federation Core API.
type Gateway struct {
	cfg       *config.Config
	baseURL   string
	fcBaseURL string
	client    *http.Client
	retryer   retry.Retryer
	logger    *zap.Logger
	collector *metrics.Collector
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) { g.client = client }
}

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(policy *retry.Policy) Option {
	return func(g *Gateway) { g.retryer = retry.NewBackoffRetryer(policy, g.logger) }
}

// WithMetricsRegisterer registers gateway metrics on reg instead of a
// private registry.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(g *Gateway) { g.collector = metrics.NewCollector("omega", reg, g.logger) }
}

// New creates a gateway for the configured Federation Core endpoint.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}

	base := strings.TrimRight(cfg.FederationURL, "/")
	policy := retry.DefaultPolicy()
	policy.MaxAttempts = cfg.MaxRetries + 1

	g := &Gateway{
		cfg:       cfg,
		baseURL:   base + "/api/v1",
		fcBaseURL: base + "/api/fc",
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
		logger: logger,
	}
	g.retryer = retry.NewBackoffRetryer(policy, logger)
	g.collector = metrics.NewCollector("omega", prometheus.NewRegistry(), logger)

	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Close releases idle transport connections.
func (g *Gateway) Close() {
	g.client.CloseIdleConnections()
}

// Get sends a GET request and unwraps the response envelope. Transient
// failures are retried per the configured policy.
func (g *Gateway) Get(ctx context.Context, path string, rc RequestContext, params url.Values) (json.RawMessage, error) {
	return g.roundTrip(ctx, http.MethodGet, path, rc, nil, requestOptions{}, params)
}

// Post sends a POST request and unwraps the response envelope. Transient
// failures are retried per the configured policy; supply an idempotency key
// via WithIdempotencyKey for mutating operations.
func (g *Gateway) Post(ctx context.Context, path string, rc RequestContext, body any, opts ...RequestOption) (json.RawMessage, error) {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}
	return g.roundTrip(ctx, http.MethodPost, path, rc, body, ro, nil)
}

func (g *Gateway) roundTrip(ctx context.Context, method, path string, rc RequestContext, body any, ro requestOptions, params url.Values) (json.RawMessage, error) {
	headers, err := g.buildHeaders(rc, ro)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, types.NewError(types.ErrValidationFailed, "failed to encode request body").WithCause(err)
		}
	}

	endpoint := g.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	attempt := 0
	return retry.DoTyped[json.RawMessage](g.retryer, ctx, func(ctx context.Context) (json.RawMessage, error) {
		attempt++
		if attempt > 1 {
			g.collector.ObserveRetry(path)
		}
		attemptHeaders := headers
		if ro.headerFunc != nil {
			fresh, err := ro.headerFunc()
			if err != nil {
				return nil, err
			}
			attemptHeaders = make(map[string]string, len(headers)+len(fresh))
			for k, v := range headers {
				attemptHeaders[k] = v
			}
			for k, v := range fresh {
				attemptHeaders[k] = v
			}
		}
		return g.send(ctx, method, endpoint, path, attemptHeaders, payload)
	})
}

/// send performs one attempt: dispatch, read, unwrap.
func (g *Gateway) send(ctx context.Context, method, endpoint, path string, headers map[string]string, payload []byte) (json.RawMessage, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, types.NewError(types.ErrValidationFailed, "failed to build request").WithCause(err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.collector.ObserveRequest(method, path, "transport_error", time.Since(start))
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		g.collector.ObserveRequest(method, path, "transport_error", time.Since(start))
		return nil, transportError(err)
	}

	g.collector.ObserveRequest(method, path, strconv.Itoa(resp.StatusCode), time.Since(start))
	g.logger.Debug("federation core response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	return UnwrapEnvelope(resp.StatusCode, body)
}

// buildHeaders validates the correlation ID and assembles the identity
// header set.
func (g *Gateway) buildHeaders(rc RequestContext, ro requestOptions) (map[string]string, error) {
	if _, _, err := correlation.Validate(rc.CorrelationID); err != nil {
		return nil, err
	}

	headers := map[string]string{
		"X-Tenant-Id":      rc.TenantID,
		"X-Actor-Id":       rc.ActorID,
		"X-Correlation-Id": rc.CorrelationID,
		"Content-Type":     "application/json",
	}
	if g.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + g.cfg.APIKey
	}
	if ro.idempotencyKey != "" {
		headers["X-Idempotency-Key"] = ro.idempotencyKey
	}
	if ro.decisionReceiptID != "" {
		headers["X-Decision-Receipt-Id"] = ro.decisionReceiptID
	}
	for k, v := range ro.headers {
		headers[k] = v
	}
	return headers, nil
}

// transportError classifies a failure where no response was received.
// Connectivity and timeout failures are retryable.
func transportError(err error) *types.Error {
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return types.NewError(types.ErrTimeout, "request timed out").
			WithCause(err).
			WithRetryable(true)
	}
	if errors.Is(err, context.Canceled) {
		return types.NewError(types.ErrTimeout, "request canceled").WithCause(err)
	}
	return types.NewError(types.ErrUpstreamError, "request failed").
		WithCause(err).
		WithRetryable(true)
}

func isTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}

// FCGet sends a GET request to a Federation Core workflow route (/api/fc).
// These routes do not use the response envelope; failures surface as
// FC_ERROR with retryable set for server-side statuses.
func (g *Gateway) FCGet(ctx context.Context, path string, rc RequestContext, params url.Values) (json.RawMessage, error) {
	return g.fcRoundTrip(ctx, http.MethodGet, path, rc, nil, requestOptions{}, params)
}

// FCPost sends a POST request to a Federation Core workflow route (/api/fc).
func (g *Gateway) FCPost(ctx context.Context, path string, rc RequestContext, body any, opts ...RequestOption) (json.RawMessage, error) {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}
	return g.fcRoundTrip(ctx, http.MethodPost, path, rc, body, ro, nil)
}

func (g *Gateway) fcRoundTrip(ctx context.Context, method, path string, rc RequestContext, body any, ro requestOptions, params url.Values) (json.RawMessage, error) {
	headers, err := g.buildHeaders(rc, ro)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, types.NewError(types.ErrValidationFailed, "failed to encode request body").WithCause(err)
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := g.fcBaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, types.NewError(types.ErrValidationFailed, "failed to build request").WithCause(err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.collector.ObserveRequest(method, path, "transport_error", time.Since(start))
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(err)
	}
	g.collector.ObserveRequest(method, path, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode >= 400 {
		return nil, fcError(resp.StatusCode, raw)
	}
	return raw, nil
}

// fcError extracts the plainer FC-route error shape: a top-level "detail"
// field that is either a string or an object with a "message".
func fcError(status int, body []byte) *types.Error {
	detail := fmt.Sprintf("HTTP %d", status)

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch d := parsed["detail"].(type) {
		case string:
			detail = d
		case map[string]any:
			if msg, ok := d["message"].(string); ok {
				detail = msg
			}
		}
	}

	return types.NewError(types.ErrFCError, detail).
		WithHTTPStatus(status).
		WithRetryable(status >= 500)
}

// Package federation implements the signed invocation protocol for
// Federation Core MCP tools.
//
// Every invocation passes, in strict order, through payload
// canonicalization, size and depth validation, allowlist enforcement,
// access-token acquisition and HMAC-SHA256 signing before any network call.
package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/omega-platform/omega-go/config"
	"github.com/omega-platform/omega-go/correlation"
	"github.com/omega-platform/omega-go/gateway"
	"github.com/omega-platform/omega-go/internal/metrics"
	"github.com/omega-platform/omega-go/types"
)

// MCP tool routes.
const (
	listToolsPath  = "/mcp/tools/list"
	invokeToolPath = "/mcp/tools/invoke"
)

// ToolDescriptor describes one remotely invocable tool.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

// Client is the high-level client for Federation Core MCP tool operations.
type Client struct {
	cfg       *config.Config
	gw        *gateway.Gateway
	validator *PayloadValidator
	signer    *Signer
	tokens    *tokenSource
	allowed   map[string]struct{}
	logger    *zap.Logger
	collector *metrics.Collector

	// nowMS is swappable for signing tests.
	nowMS func() int64
}

// Option configures a federation Client.
type Option func(*Client)

// WithGateway overrides the underlying gateway, typically to share one
// transport with other namespaces.
func WithGateway(gw *gateway.Gateway) Option {
	return func(c *Client) { c.gw = gw }
}

// WithMetricsRegisterer registers the client's metrics on reg instead of a
// private registry.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(c *Client) { c.collector = metrics.NewCollector("omega_federation", reg, c.logger) }
}

// NewClient creates a signed invocation client from the configuration.
// The tenant ID is required; in production mode a non-empty allowlist is
// required; when signing is enabled a base64 HMAC secret is required.
func NewClient(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TenantID == "" {
		return nil, types.NewError(types.ErrValidationFailed, "tenant_id is required")
	}
	if cfg.IsProduction() && len(cfg.AllowedTools) == 0 {
		return nil, types.NewError(types.ErrValidationFailed,
			"allowed_tools must be configured in production")
	}

	c := &Client{
		cfg:       cfg,
		validator: NewPayloadValidator(cfg.MaxPayloadBytes, cfg.MaxPayloadDepth),
		logger:    logger.With(zap.String("component", "federation")),
		nowMS:     func() int64 { return time.Now().UnixMilli() },
	}

	if cfg.SignatureMode != "disabled" {
		signer, err := NewSigner(cfg.HMACSecretB64)
		if err != nil {
			return nil, err
		}
		c.signer = signer
	}

	c.allowed = make(map[string]struct{}, len(cfg.AllowedTools))
	for _, name := range cfg.AllowedTools {
		c.allowed[name] = struct{}{}
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.gw == nil {
		c.gw = gateway.New(cfg, logger)
	}
	if c.collector == nil {
		c.collector = metrics.NewCollector("omega_federation", prometheus.NewRegistry(), c.logger)
	}
	c.tokens = newTokenSource(c.gw, cfg.TenantID, cfg.ActorID, cfg.ClientID, cfg.ClientSecret,
		c.logger, c.collector.ObserveTokenRefresh)

	return c, nil
}

// ListTools discovers the available MCP tools.
func (c *Client) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	cid, err := correlation.Generate(c.cfg.TenantID)
	if err != nil {
		return nil, err
	}

	data, err := c.gw.Get(ctx, listToolsPath, gateway.RequestContext{
		TenantID:      c.cfg.TenantID,
		ActorID:       c.cfg.ActorID,
		CorrelationID: cid,
	}, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Tools []ToolDescriptor `json:"tools"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, types.NewError(types.ErrInvalidEnvelope, "failed to parse tool list").WithCause(err)
	}

	c.logger.Info("listed available tools", zap.Int("count", len(resp.Tools)))
	return resp.Tools, nil
}

// InvokeTool invokes a named MCP tool with the security envelope applied.
func (c *Client) InvokeTool(ctx context.Context, toolName string, payload map[string]any) (json.RawMessage, error) {
	if payload == nil {
		payload = map[string]any{}
	}

	canonical, err := Canonicalize(payload)
	if err != nil {
		return nil, err
	}
	if err := c.validator.ValidateSize(canonical); err != nil {
		return nil, err
	}
	if err := c.validator.ValidateDepth(canonical); err != nil {
		return nil, err
	}

	// Allowlist enforcement is unconditional in production and happens
	// before any network I/O.
	if c.cfg.IsProduction() {
		if _, ok := c.allowed[toolName]; !ok {
			c.collector.ObserveToolInvocation(toolName, "not_allowed")
			return nil, types.NewError(types.ErrToolNotAllowed,
				fmt.Sprintf("tool %q is not in the configured allowlist", toolName)).
				WithDetail("tool_name", toolName)
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	reqOpts := []gateway.RequestOption{
		gateway.WithHeaders(map[string]string{
			"Authorization": "Bearer " + token,
		}),
	}
	if c.signer != nil {
		// Signed per transmission attempt: a nonce is never sent twice,
		// so gateway retries pass receiver-side replay checks.
		reqOpts = append(reqOpts, gateway.WithHeaderFunc(func() (map[string]string, error) {
			signed, err := c.signRequest(toolName, canonical)
			if err != nil {
				return nil, err
			}
			return signed.Headers(), nil
		}))
	}

	cid, err := correlation.Generate(c.cfg.TenantID)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"tool_name":  toolName,
		"parameters": payload,
		"metadata": map[string]any{
			"client_id":   c.cfg.ClientID,
			"passport_id": c.cfg.PassportID,
		},
	}

	data, err := c.gw.Post(ctx, invokeToolPath, gateway.RequestContext{
		TenantID:      c.cfg.TenantID,
		ActorID:       c.cfg.ActorID,
		CorrelationID: cid,
	}, body, reqOpts...)
	if err != nil {
		c.collector.ObserveToolInvocation(toolName, "failure")
		c.logger.Error("tool invocation failed", zap.String("tool", toolName), zap.Error(err))
		return nil, err
	}

	c.collector.ObserveToolInvocation(toolName, "success")
	c.logger.Info("tool invoked", zap.String("tool", toolName))
	return data, nil
}

// signRequest builds the signed security envelope for one invocation.
func (c *Client) signRequest(toolName string, canonical []byte) (*SignedRequest, error) {
	nonce, err := NewNonce()
	if err != nil {
		return nil, err
	}
	timestampMS := c.nowMS()

	return &SignedRequest{
		PassportID:  c.cfg.PassportID,
		ToolName:    toolName,
		TimestampMS: timestampMS,
		Nonce:       nonce,
		Signature:   c.signer.Sign("POST", invokeToolPath, timestampMS, nonce, canonical),
		SDKName:     config.SDKName,
		SDKVersion:  config.SDKVersion,
	}, nil
}

// Package omega is the Go client SDK for the Omega Federation Core API.
//
// A Client bundles the API namespaces behind one gateway transport:
// tools, agents, tasks, evidence packs and governance workflows, plus the
// signed MCP invocation client when client credentials are configured.
// Every request carries the canonical correlation identity and idempotency
// keys on mutating operations.
package omega

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/omega-platform/omega-go/config"
	"github.com/omega-platform/omega-go/correlation"
	"github.com/omega-platform/omega-go/evidence"
	"github.com/omega-platform/omega-go/federation"
	"github.com/omega-platform/omega-go/gateway"
	"github.com/omega-platform/omega-go/types"
	"github.com/omega-platform/omega-go/workflows"
)

// Client is the main SDK entry point.
type Client struct {
	cfg    *config.Config
	gw     *gateway.Gateway
	logger *zap.Logger

	// Tools, Agents, Tasks, Evidence and Workflows are always available.
	Tools     *ToolsNamespace
	Agents    *AgentsNamespace
	Tasks     *TasksNamespace
	Evidence  *evidence.Namespace
	Workflows *workflows.Namespace

	// Federation is the signed MCP invocation client. It is nil unless
	// client credentials are configured.
	Federation *federation.Client
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	logger      *zap.Logger
	gatewayOpts []gateway.Option
}

// WithLogger sets the logger shared by all namespaces.
func WithLogger(logger *zap.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

// WithGatewayOptions forwards options to the underlying gateway, for
// example a custom HTTP client or retry policy.
func WithGatewayOptions(opts ...gateway.Option) Option {
	return func(o *clientOptions) { o.gatewayOpts = append(o.gatewayOpts, opts...) }
}

// New creates a client from the configuration. The federation URL and
// tenant ID are required.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg.FederationURL == "" {
		return nil, types.NewError(types.ErrValidationFailed, "federation_url is required")
	}
	if cfg.TenantID == "" {
		return nil, types.NewError(types.ErrValidationFailed, "tenant_id is required")
	}

	var co clientOptions
	for _, opt := range opts {
		opt(&co)
	}
	logger := co.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	gw := gateway.New(cfg, logger, co.gatewayOpts...)

	c := &Client{
		cfg:    cfg,
		gw:     gw,
		logger: logger,
	}
	c.Tools = &ToolsNamespace{c: c}
	c.Agents = &AgentsNamespace{c: c}
	c.Tasks = &TasksNamespace{c: c}
	c.Evidence = evidence.NewNamespace(cfg, gw, logger)
	c.Workflows = workflows.NewNamespace(cfg, gw, logger)

	if cfg.ClientID != "" {
		fc, err := federation.NewClient(cfg, logger, federation.WithGateway(gw))
		if err != nil {
			return nil, err
		}
		c.Federation = fc
	}

	return c, nil
}

// NewFromEnv creates a client from OMEGA_* environment variables.
func NewFromEnv(opts ...Option) (*Client, error) {
	return New(config.FromEnv(), opts...)
}

// Config returns the client configuration.
func (c *Client) Config() *config.Config { return c.cfg }

// Close releases transport resources. The client must not be used after
// Close.
func (c *Client) Close() {
	c.gw.Close()
}

func (c *Client) requestContext() (gateway.RequestContext, error) {
	cid, err := correlation.Generate(c.cfg.TenantID)
	if err != nil {
		return gateway.RequestContext{}, err
	}
	return gateway.RequestContext{
		TenantID:      c.cfg.TenantID,
		ActorID:       c.cfg.ActorID,
		CorrelationID: cid,
	}, nil
}

// HealthStatus is the Federation Core health probe response.
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// StatusResponse is the rich Federation Core status report.
type StatusResponse struct {
	Status       string         `json:"status"`
	Version      string         `json:"version,omitempty"`
	Uptime       float64        `json:"uptime_s,omitempty"`
	Dependencies map[string]any `json:"dependencies,omitempty"`
}

// Health checks Federation Core liveness.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	rc, err := c.requestContext()
	if err != nil {
		return nil, err
	}
	data, err := c.gw.Get(ctx, "/health", rc, nil)
	if err != nil {
		return nil, err
	}
	var health HealthStatus
	if err := json.Unmarshal(data, &health); err != nil {
		return nil, types.NewError(types.ErrInvalidEnvelope, "failed to parse health response").
			WithCause(err)
	}
	return &health, nil
}

// Status fetches the detailed Federation Core status, including
// dependency health.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	rc, err := c.requestContext()
	if err != nil {
		return nil, err
	}
	data, err := c.gw.Get(ctx, "/status", rc, nil)
	if err != nil {
		return nil, err
	}
	var status StatusResponse
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, types.NewError(types.ErrInvalidEnvelope, "failed to parse status response").
			WithCause(err)
	}
	return &status, nil
}

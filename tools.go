package omega

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/omega-platform/omega-go/gateway"
	"github.com/omega-platform/omega-go/types"
)

// Tool describes one registered tool.
type Tool struct {
	ToolID       string         `json:"tool_id"`
	Name         string         `json:"name,omitempty"`
	Description  string         `json:"description,omitempty"`
	Capability   string         `json:"capability,omitempty"`
	AgentID      string         `json:"agent_id,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	InputSchema  map[string]any `json:"input_schema,omitempty"`
	OutputSchema map[string]any `json:"output_schema,omitempty"`
}

// ToolListResponse is one page of tools.
type ToolListResponse struct {
	Items      []Tool `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// ToolListFilter narrows a tool listing. Zero values are omitted.
type ToolListFilter struct {
	Capability string
	AgentID    string
	Tag        string
	Limit      int
	Cursor     string
}

// ToolInvokeOptions carries per-invocation options.
type ToolInvokeOptions struct {
	TimeoutMS int  `json:"timeout_ms,omitempty"`
	Stream    bool `json:"stream,omitempty"`
}

type toolInvokeContext struct {
	TenantID          string   `json:"tenant_id"`
	ActorID           string   `json:"actor_id"`
	CorrelationID     string   `json:"correlation_id"`
	DecisionReceiptID string   `json:"decision_receipt_id,omitempty"`
	Tags              []string `json:"tags,omitempty"`
}

type toolInvokeRequest struct {
	Input   map[string]any    `json:"input"`
	Options ToolInvokeOptions `json:"options"`
	Context toolInvokeContext `json:"context"`
}

// ToolInvokeResult is the outcome of a tool invocation.
type ToolInvokeResult struct {
	Result           map[string]any `json:"result,omitempty"`
	Status           string         `json:"status,omitempty"`
	DurationMS       int64          `json:"duration_ms,omitempty"`
	EvidencePackHash string         `json:"evidence_pack_hash,omitempty"`
}

// ToolsNamespace exposes tool discovery and invocation.
type ToolsNamespace struct {
	c *Client
}

// List fetches one page of registered tools.
func (n *ToolsNamespace) List(ctx context.Context, filter ToolListFilter) (*ToolListResponse, error) {
	rc, err := n.c.requestContext()
	if err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if filter.Capability != "" {
		params.Set("capability", filter.Capability)
	}
	if filter.AgentID != "" {
		params.Set("agent_id", filter.AgentID)
	}
	if filter.Tag != "" {
		params.Set("tag", filter.Tag)
	}
	if filter.Cursor != "" {
		params.Set("cursor", filter.Cursor)
	}

	data, err := n.c.gw.Get(ctx, "/tools", rc, params)
	if err != nil {
		return nil, err
	}

	var resp ToolListResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, types.NewError(types.ErrInvalidEnvelope, "failed to parse tool list").
			WithCause(err)
	}
	return &resp, nil
}

// Get fetches one tool by ID.
func (n *ToolsNamespace) Get(ctx context.Context, toolID string) (*Tool, error) {
	if toolID == "" {
		return nil, types.NewError(types.ErrValidationFailed, "tool_id is required")
	}
	rc, err := n.c.requestContext()
	if err != nil {
		return nil, err
	}

	data, err := n.c.gw.Get(ctx, "/tools/"+toolID, rc, nil)
	if err != nil {
		return nil, err
	}

	var tool Tool
	if err := json.Unmarshal(data, &tool); err != nil {
		return nil, types.NewError(types.ErrInvalidEnvelope, "failed to parse tool").
			WithCause(err)
	}
	return &tool, nil
}

// Invoke runs a tool. A fresh idempotency key is attached so retries of
// the same call cannot execute the tool twice. Pass decisionReceiptID when
// policy requires an approved decision receipt.
func (n *ToolsNamespace) Invoke(ctx context.Context, toolID string, input map[string]any, opts ToolInvokeOptions, decisionReceiptID string, tags ...string) (*ToolInvokeResult, error) {
	if toolID == "" {
		return nil, types.NewError(types.ErrValidationFailed, "tool_id is required")
	}
	rc, err := n.c.requestContext()
	if err != nil {
		return nil, err
	}

	if input == nil {
		input = map[string]any{}
	}
	body := toolInvokeRequest{
		Input:   input,
		Options: opts,
		Context: toolInvokeContext{
			TenantID:          rc.TenantID,
			ActorID:           rc.ActorID,
			CorrelationID:     rc.CorrelationID,
			DecisionReceiptID: decisionReceiptID,
			Tags:              tags,
		},
	}

	reqOpts := []gateway.RequestOption{gateway.WithIdempotencyKey(uuid.NewString())}
	if decisionReceiptID != "" {
		reqOpts = append(reqOpts, gateway.WithDecisionReceipt(decisionReceiptID))
	}

	data, err := n.c.gw.Post(ctx, "/tools/"+toolID+":invoke", rc, body, reqOpts...)
	if err != nil {
		return nil, err
	}

	var result ToolInvokeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, types.NewError(types.ErrInvalidEnvelope, "failed to parse invocation result").
			WithCause(err)
	}
	return &result, nil
}

package omega

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/omega-platform/omega-go/types"
)

// Agent describes one registered agent.
type Agent struct {
	AgentID      string   `json:"agent_id"`
	Name         string   `json:"name,omitempty"`
	Kind         string   `json:"kind,omitempty"`
	Status       string   `json:"status,omitempty"`
	Description  string   `json:"description,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// AgentListResponse is one page of agents.
type AgentListResponse struct {
	Items      []Agent `json:"items"`
	NextCursor string  `json:"next_cursor,omitempty"`
}

// AgentListFilter narrows an agent listing. Zero values are omitted.
type AgentListFilter struct {
	Kind       string
	Capability string
	Limit      int
	Cursor     string
}

// AgentsNamespace exposes the agent registry.
type AgentsNamespace struct {
	c *Client
}

// List fetches one page of registered agents.
func (n *AgentsNamespace) List(ctx context.Context, filter AgentListFilter) (*AgentListResponse, error) {
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
	if filter.Kind != "" {
		params.Set("kind", filter.Kind)
	}
	if filter.Capability != "" {
		params.Set("capability", filter.Capability)
	}
	if filter.Cursor != "" {
		params.Set("cursor", filter.Cursor)
	}

	data, err := n.c.gw.Get(ctx, "/agents", rc, params)
	if err != nil {
		return nil, err
	}

	var resp AgentListResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, types.NewError(types.ErrInvalidEnvelope, "failed to parse agent list").
			WithCause(err)
	}
	return &resp, nil
}

// Get fetches one agent by ID.
func (n *AgentsNamespace) Get(ctx context.Context, agentID string) (*Agent, error) {
	if agentID == "" {
		return nil, types.NewError(types.ErrValidationFailed, "agent_id is required")
	}
	rc, err := n.c.requestContext()
	if err != nil {
		return nil, err
	}

	data, err := n.c.gw.Get(ctx, "/agents/"+agentID, rc, nil)
	if err != nil {
		return nil, err
	}

	var agent Agent
	if err := json.Unmarshal(data, &agent); err != nil {
		return nil, types.NewError(types.ErrInvalidEnvelope, "failed to parse agent").
			WithCause(err)
	}
	return &agent, nil
}

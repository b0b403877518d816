package omega

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/omega-platform/omega-go/gateway"
	"github.com/omega-platform/omega-go/types"
)

// TaskRouting selects the agent that executes a task.
type TaskRouting struct {
	Strategy   string `json:"strategy,omitempty"`
	Capability string `json:"capability,omitempty"`
	AgentID    string `json:"agent_id,omitempty"`
}

// TaskGovernance carries policy attributes for a task.
type TaskGovernance struct {
	DecisionReceiptID string   `json:"decision_receipt_id,omitempty"`
	Tags              []string `json:"tags,omitempty"`
}

type taskContext struct {
	TenantID      string `json:"tenant_id"`
	ActorID       string `json:"actor_id"`
	CorrelationID string `json:"correlation_id"`
}

type taskCreateRequest struct {
	TaskType   string          `json:"task_type"`
	Input      map[string]any  `json:"input"`
	Routing    *TaskRouting    `json:"routing,omitempty"`
	Governance *TaskGovernance `json:"governance,omitempty"`
	Context    taskContext     `json:"context"`
}

// TaskCreateResponse acknowledges a spawned task.
type TaskCreateResponse struct {
	TaskID    string     `json:"task_id"`
	Status    string     `json:"status"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Task is the state and result of an asynchronous task.
type Task struct {
	TaskID    string         `json:"task_id"`
	TaskType  string         `json:"task_type"`
	Status    string         `json:"status"`
	Input     map[string]any `json:"input,omitempty"`
	Result    map[string]any `json:"result,omitempty"`
	Error     map[string]any `json:"error,omitempty"`
	CreatedAt *time.Time     `json:"created_at,omitempty"`
	UpdatedAt *time.Time     `json:"updated_at,omitempty"`
}

// TasksNamespace exposes asynchronous task execution.
type TasksNamespace struct {
	c *Client
}

// Create spawns a task. A fresh idempotency key is attached so a retried
// create cannot spawn the task twice.
func (n *TasksNamespace) Create(ctx context.Context, taskType string, input map[string]any, routing *TaskRouting, governance *TaskGovernance) (*TaskCreateResponse, error) {
	if taskType == "" {
		return nil, types.NewError(types.ErrValidationFailed, "task_type is required")
	}
	rc, err := n.c.requestContext()
	if err != nil {
		return nil, err
	}

	if input == nil {
		input = map[string]any{}
	}
	body := taskCreateRequest{
		TaskType:   taskType,
		Input:      input,
		Routing:    routing,
		Governance: governance,
		Context: taskContext{
			TenantID:      rc.TenantID,
			ActorID:       rc.ActorID,
			CorrelationID: rc.CorrelationID,
		},
	}

	data, err := n.c.gw.Post(ctx, "/tasks", rc, body,
		gateway.WithIdempotencyKey(uuid.NewString()))
	if err != nil {
		return nil, err
	}

	var resp TaskCreateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, types.NewError(types.ErrInvalidEnvelope, "failed to parse task creation response").
			WithCause(err)
	}
	return &resp, nil
}

// Get fetches task status and, once completed, its result.
func (n *TasksNamespace) Get(ctx context.Context, taskID string) (*Task, error) {
	if taskID == "" {
		return nil, types.NewError(types.ErrValidationFailed, "task_id is required")
	}
	rc, err := n.c.requestContext()
	if err != nil {
		return nil, err
	}

	data, err := n.c.gw.Get(ctx, "/tasks/"+taskID, rc, nil)
	if err != nil {
		return nil, err
	}

	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, types.NewError(types.ErrInvalidEnvelope, "failed to parse task").
			WithCause(err)
	}
	return &task, nil
}

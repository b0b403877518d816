// Package workflows exposes the Federation Core governance workflow API:
// starting runs, inspecting status and logs, resolving approval gates and
// registering workflow artifacts.
package workflows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omega-platform/omega-go/config"
	"github.com/omega-platform/omega-go/correlation"
	"github.com/omega-platform/omega-go/gateway"
	"github.com/omega-platform/omega-go/types"
)

// Namespace is the workflows API surface. Workflow routes live under the
// dedicated gateway transport, not the standard versioned API.
type Namespace struct {
	cfg    *config.Config
	gw     *gateway.Gateway
	logger *zap.Logger
}

func NewNamespace(cfg *config.Config, gw *gateway.Gateway, logger *zap.Logger) *Namespace {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Namespace{
		cfg:    cfg,
		gw:     gw,
		logger: logger.With(zap.String("component", "workflows")),
	}
}

func (n *Namespace) requestContext(correlationID string) (gateway.RequestContext, error) {
	if correlationID == "" {
		cid, err := correlation.Generate(n.cfg.TenantID)
		if err != nil {
			return gateway.RequestContext{}, err
		}
		correlationID = cid
	}
	return gateway.RequestContext{
		TenantID:      n.cfg.TenantID,
		ActorID:       n.cfg.ActorID,
		CorrelationID: correlationID,
	}, nil
}

// runEnvelope is the workflow response shape: either { run, logs, gates }
// or the run object itself at the top level.
type runEnvelope struct {
	Run   json.RawMessage `json:"run"`
	Logs  []RunLogEntry   `json:"logs"`
	Gates []GateInfo      `json:"gates"`
}

func decodeRun(data json.RawMessage, correlationID string) (*RunResult, error) {
	var env runEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, types.NewError(types.ErrInvalidEnvelope, "failed to parse workflow run response").
			WithCause(err)
	}

	raw := env.Run
	if raw == nil {
		raw = data
	}
	var run RunResult
	if err := json.Unmarshal(raw, &run); err != nil {
		return nil, types.NewError(types.ErrInvalidEnvelope, "failed to parse workflow run").
			WithCause(err)
	}

	if len(env.Logs) > 0 {
		run.Logs = env.Logs
	}
	if len(env.Gates) > 0 {
		run.Gates = env.Gates
	}
	if run.CorrelationID == "" {
		run.CorrelationID = correlationID
	}

	// Surface the blocking gate when the run is paused.
	if run.Status == StatusPaused && run.GateInfo == nil {
		for i := range run.Gates {
			if run.Gates[i].Status == GatePending {
				run.GateInfo = &run.Gates[i]
				break
			}
		}
	}
	return &run, nil
}

// Run starts a new workflow run. The request carries a fresh idempotency
// key so a transport-level replay cannot start the run twice.
func (n *Namespace) Run(ctx context.Context, workflowID string, inputs map[string]any, opts *RunOptions) (*RunResult, error) {
	rc, err := n.requestContext("")
	if err != nil {
		return nil, err
	}

	if inputs == nil {
		inputs = map[string]any{}
	}
	body := map[string]any{
		"workflow_id":   workflowID,
		"input_payload": inputs,
	}
	if opts != nil {
		if opts.Metadata != nil {
			body["metadata"] = opts.Metadata
		}
		if len(opts.Tags) > 0 {
			body["tags"] = opts.Tags
		}
		if opts.ParentRunID != "" {
			body["parent_run_id"] = opts.ParentRunID
		}
	}

	data, err := n.gw.FCPost(ctx, "/runs", rc, body, gateway.WithIdempotencyKey(uuid.NewString()))
	if err != nil {
		return nil, err
	}

	run, err := decodeRun(data, rc.CorrelationID)
	if err != nil {
		return nil, err
	}
	n.logger.Info("workflow run started",
		zap.String("workflow_id", workflowID),
		zap.String("run_id", run.RunID),
		zap.String("status", string(run.Status)))
	return run, nil
}

// GetRun fetches the current state of a run.
func (n *Namespace) GetRun(ctx context.Context, runID string, includeLogs, includeGates bool) (*RunResult, error) {
	rc, err := n.requestContext("")
	if err != nil {
		return nil, err
	}
	return n.getRun(ctx, runID, rc, includeLogs, includeGates)
}

func (n *Namespace) getRun(ctx context.Context, runID string, rc gateway.RequestContext, includeLogs, includeGates bool) (*RunResult, error) {
	params := url.Values{}
	if includeLogs {
		params.Set("include_logs", "true")
	}
	if includeGates {
		params.Set("include_gates", "true")
	}

	data, err := n.gw.FCGet(ctx, "/runs/"+runID, rc, params)
	if err != nil {
		return nil, err
	}
	return decodeRun(data, rc.CorrelationID)
}

// GetRunLogs fetches execution log entries for a run. eventType filters by
// FC event code when non-empty.
func (n *Namespace) GetRunLogs(ctx context.Context, runID, eventType string, limit, offset int) ([]RunLogEntry, error) {
	rc, err := n.requestContext("")
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 100
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	if eventType != "" {
		params.Set("event_type", eventType)
	}

	data, err := n.gw.FCGet(ctx, "/runs/"+runID+"/logs", rc, params)
	if err != nil {
		return nil, err
	}

	var logs []RunLogEntry
	if err := json.Unmarshal(data, &logs); err != nil {
		return nil, types.NewError(types.ErrInvalidEnvelope, "failed to parse run logs").
			WithCause(err)
	}
	return logs, nil
}

// ResumeRun resolves a gate on a paused run. decision must be "approve" or
// "deny".
func (n *Namespace) ResumeRun(ctx context.Context, runID, gateID, decision string, input map[string]any, decisionReceiptID string) (*RunResult, error) {
	if decision != "approve" && decision != "deny" {
		return nil, types.NewError(types.ErrValidationFailed,
			`decision must be "approve" or "deny"`).
			WithDetail("decision", decision)
	}

	rc, err := n.requestContext("")
	if err != nil {
		return nil, err
	}

	if input == nil {
		input = map[string]any{}
	}
	body := map[string]any{
		"run_id":   runID,
		"gate_id":  gateID,
		"decision": decision,
		"input":    input,
	}
	opts := []gateway.RequestOption{}
	if decisionReceiptID != "" {
		body["decision_receipt_id"] = decisionReceiptID
		opts = append(opts, gateway.WithDecisionReceipt(decisionReceiptID))
	}

	data, err := n.gw.FCPost(ctx, "/runs/"+runID+":resume", rc, body, opts...)
	if err != nil {
		return nil, err
	}

	run, err := decodeRun(data, rc.CorrelationID)
	if err != nil {
		return nil, err
	}
	n.logger.Info("workflow run resumed",
		zap.String("run_id", runID),
		zap.String("gate_id", gateID),
		zap.String("decision", decision),
		zap.String("status", string(run.Status)))
	return run, nil
}

// Register uploads workflow artifacts. Registration is idempotent on the
// server side; the response reports whether the artifacts already existed.
func (n *Namespace) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	rc, err := n.requestContext("")
	if err != nil {
		return nil, err
	}
	if req.Schemas == nil {
		req.Schemas = map[string]any{}
	}

	data, err := n.gw.FCPost(ctx, "/workflows/register", rc, req,
		gateway.WithIdempotencyKey(uuid.NewString()))
	if err != nil {
		return nil, err
	}

	var result RegisterResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, types.NewError(types.ErrInvalidEnvelope, "failed to parse registration response").
			WithCause(err)
	}
	return &result, nil
}

// WaitForCompletion polls a run until it reaches a terminal state or pauses
// on a gate. All polls share one correlation ID so the server can associate
// them. Exceeding the timeout yields a non-retryable timeout error.
func (n *Namespace) WaitForCompletion(ctx context.Context, runID string, pollInterval, timeout time.Duration) (*RunResult, error) {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}

	rc, err := n.requestContext("")
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	for {
		run, err := n.getRun(ctx, runID, rc, false, true)
		if err != nil {
			return nil, err
		}
		if run.Status.Terminal() || run.Status == StatusPaused {
			return run, nil
		}

		if time.Now().Add(pollInterval).After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return nil, types.NewError(types.ErrTimeout, "workflow wait canceled").
				WithCause(ctx.Err()).
				WithDetail("run_id", runID)
		case <-time.After(pollInterval):
		}
	}

	return nil, types.NewError(types.ErrTimeout,
		fmt.Sprintf("workflow run %s did not complete within %s", runID, timeout)).
		WithRetryable(false).
		WithDetail("run_id", runID)
}

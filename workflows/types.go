package workflows

import "time"

// RunStatus is the execution status of a workflow run.
type RunStatus string

const (
	StatusPending   RunStatus = "pending"
	StatusRunning   RunStatus = "running"
	StatusPaused    RunStatus = "paused"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
	StatusCancelled RunStatus = "cancelled"
)

// Terminal reports whether the run has finished for good. A paused run is
// not terminal, it is waiting for a gate decision.
func (s RunStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// GateStatus is the resolution state of an approval gate.
type GateStatus string

const (
	GatePending  GateStatus = "pending"
	GateApproved GateStatus = "approved"
	GateRejected GateStatus = "rejected"
	GateExpired  GateStatus = "expired"
	GateBypassed GateStatus = "bypassed"
)

// GateInfo describes one approval gate on a workflow run.
type GateInfo struct {
	GateID            string     `json:"gate_id"`
	RunID             string     `json:"run_id"`
	StepID            string     `json:"step_id"`
	GateType          string     `json:"gate_type"`
	GateName          string     `json:"gate_name"`
	Description       string     `json:"description,omitempty"`
	Status            GateStatus `json:"status"`
	RequiredApprovers []string   `json:"required_approvers,omitempty"`
	ApprovedBy        string     `json:"approved_by,omitempty"`
	RejectionReason   string     `json:"rejection_reason,omitempty"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	EvidencePackHash  string     `json:"evidence_pack_hash,omitempty"`
}

// RunLogEntry is one entry in a workflow run's execution log.
type RunLogEntry struct {
	LogID          string         `json:"log_id"`
	RunID          string         `json:"run_id"`
	EventType      string         `json:"event_type"`
	EventCategory  string         `json:"event_category,omitempty"`
	StepID         string         `json:"step_id,omitempty"`
	PreviousStatus string         `json:"previous_status,omitempty"`
	NewStatus      string         `json:"new_status,omitempty"`
	ActorID        string         `json:"actor_id"`
	Message        string         `json:"message"`
	Details        map[string]any `json:"details,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
	DurationMS     *int64         `json:"duration_ms,omitempty"`
	EvidenceHash   string         `json:"evidence_hash,omitempty"`
}

// RunOptions carries optional attributes for starting a run.
type RunOptions struct {
	Tags        []string
	Metadata    map[string]any
	ParentRunID string
}

// RunResult is the state of a workflow run as reported by Federation Core.
type RunResult struct {
	RunID           string    `json:"run_id"`
	WorkflowID      string    `json:"workflow_id"`
	WorkflowVersion string    `json:"workflow_version,omitempty"`
	Status          RunStatus `json:"status"`
	CurrentStep     string    `json:"current_step,omitempty"`
	StepIndex       int       `json:"step_index,omitempty"`

	TenantID      string `json:"tenant_id"`
	ActorID       string `json:"actor_id"`
	CorrelationID string `json:"correlation_id,omitempty"`

	InputPayload  map[string]any `json:"input_payload,omitempty"`
	OutputPayload map[string]any `json:"output_payload,omitempty"`
	ErrorDetails  map[string]any `json:"error_details,omitempty"`

	ReceiptChain        []string `json:"receipt_chain,omitempty"`
	WorkflowReceiptHash string   `json:"workflow_receipt_hash,omitempty"`
	EvidencePackHash    string   `json:"evidence_pack_hash,omitempty"`
	EvidencePackRefs    []string `json:"evidence_pack_refs,omitempty"`

	// GateInfo is the first pending gate when the run is paused.
	GateInfo *GateInfo  `json:"gate_info,omitempty"`
	Gates    []GateInfo `json:"gates,omitempty"`

	CreatedAt   *time.Time `json:"created_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`

	Logs []RunLogEntry `json:"logs,omitempty"`
}

// RegisterRequest carries workflow artifacts for registration.
type RegisterRequest struct {
	WorkflowYAML string         `json:"workflow_yaml"`
	PromptsPOML  string         `json:"prompts_poml"`
	Schemas      map[string]any `json:"schemas"`
	WorkflowID   string         `json:"workflow_id,omitempty"`
	Version      string         `json:"version,omitempty"`
}

// RegisterResult is the registration outcome.
type RegisterResult struct {
	WorkflowID     string         `json:"workflow_id"`
	Version        string         `json:"version"`
	ArtifactHashes map[string]any `json:"artifact_hashes"`
	Idempotent     bool           `json:"idempotent"`
}

// Package evidence exposes read-only access to sealed compliance evidence
// packs. Pack payloads use PascalCase field names on the wire, matching the
// canonical evidence structure.
package evidence

import "time"

// PackStatus is the canonical status vocabulary for evidence packs.
type PackStatus string

const (
	PackUnsigned    PackStatus = "unsigned"
	PackSigned      PackStatus = "signed"
	PackInvalid     PackStatus = "invalid"
	PackTampered    PackStatus = "tampered"
	PackBlobMissing PackStatus = "blob_missing"
)

// EvidenceType classifies how a section's facts were obtained.
type EvidenceType int

const (
	EvidenceObserved EvidenceType = iota
	EvidenceDerived
	EvidenceAsserted
	EvidenceAttested
)

// OperationOutcome is the recorded end state of the evidenced operation.
type OperationOutcome int

const (
	OutcomeCompleted OperationOutcome = iota
	OutcomeDenied
	OutcomeExpired
	OutcomePending
	OutcomeAborted
)

// ExpiryBehavior is the policy applied when an authority receipt expires
// mid-operation.
type ExpiryBehavior int

const (
	ExpiryAbort ExpiryBehavior = iota
	ExpiryCompleteAndFlag
	ExpiryMarkInvalid
)

type ExternalReference struct {
	RefType string `json:"RefType"`
	RefID   string `json:"RefId"`
	RefHash string `json:"RefHash"`
}

type IntegrityScope struct {
	SignedPayloadHash   string              `json:"SignedPayloadHash"`
	HashAlgorithm       string              `json:"HashAlgorithm"`
	IncludedSections    []string            `json:"IncludedSections"`
	ExternalReferences  []ExternalReference `json:"ExternalReferences"`
	SignatureExclusions []string            `json:"SignatureExclusions"`
}

type IdentitySection struct {
	EvidenceType  EvidenceType `json:"EvidenceType"`
	TenantID      string       `json:"TenantId"`
	ActorID       string       `json:"ActorId"`
	CorrelationID string       `json:"CorrelationId"`
	SessionID     string       `json:"SessionId,omitempty"`
}

type OperationSection struct {
	EvidenceType       EvidenceType     `json:"EvidenceType"`
	OpType             string           `json:"OpType"`
	OpID               string           `json:"OpId"`
	RequestedAt        time.Time        `json:"RequestedAt"`
	CompletedAt        *time.Time       `json:"CompletedAt,omitempty"`
	Outcome            OperationOutcome `json:"Outcome"`
	OutcomeReason      string           `json:"OutcomeReason"`
	TargetShardKey     string           `json:"TargetShardKey"`
	RequestPayloadHash string           `json:"RequestPayloadHash"`
}

type Obligation struct {
	ObligationType string            `json:"ObligationType"`
	Parameters     map[string]string `json:"Parameters"`
}

type AlphaReceipt struct {
	ReceiptID      string         `json:"ReceiptId"`
	PolicyRef      string         `json:"PolicyRef"`
	PolicySnapshot map[string]any `json:"PolicySnapshot"`
	Certified      bool           `json:"Certified"`
	ReasonCode     string         `json:"ReasonCode"`
	Obligations    []Obligation   `json:"Obligations"`
	AuditFlags     int            `json:"AuditFlags"`
	IssuedAt       time.Time      `json:"IssuedAt"`
	ValidFrom      time.Time      `json:"ValidFrom"`
	ValidUntil     time.Time      `json:"ValidUntil"`
	ExpiryBehavior ExpiryBehavior `json:"ExpiryBehavior"`
	Signature      string         `json:"Signature"`
	Hash           string         `json:"Hash"`
}

type AuthoritySection struct {
	EvidenceType EvidenceType `json:"EvidenceType"`
	AlphaReceipt AlphaReceipt `json:"AlphaReceipt"`
}

type StateSection struct {
	EvidenceType         EvidenceType   `json:"EvidenceType"`
	BeforeState          map[string]any `json:"BeforeState"`
	AfterState           map[string]any `json:"AfterState,omitempty"`
	DeltaHash            string         `json:"DeltaHash"`
	StateSnapshotVersion string         `json:"StateSnapshotVersion"`
}

type ResourceConsumption struct {
	TokensConsumed int     `json:"TokensConsumed"`
	ComputeUnits   float64 `json:"ComputeUnits"`
	BudgetRef      string  `json:"BudgetRef"`
}

type ExpiryEnforcement struct {
	CheckedAt             []time.Time     `json:"CheckedAt"`
	ExpiryViolation       bool            `json:"ExpiryViolation"`
	ExpiryBehaviorApplied *ExpiryBehavior `json:"ExpiryBehaviorApplied,omitempty"`
}

type ExecutionSection struct {
	EvidenceType        EvidenceType        `json:"EvidenceType"`
	RuntimeReceiptID    string              `json:"RuntimeReceiptId"`
	ExecutionTraceRef   string              `json:"ExecutionTraceRef,omitempty"`
	ResourceConsumption ResourceConsumption `json:"ResourceConsumption"`
	ExpiryEnforcement   ExpiryEnforcement   `json:"ExpiryEnforcement"`
}

type ComplianceSection struct {
	EvidenceType       EvidenceType `json:"EvidenceType"`
	RetentionPolicy    string       `json:"RetentionPolicy"`
	RetentionExpiry    time.Time    `json:"RetentionExpiry"`
	JurisdictionTags   []string     `json:"JurisdictionTags"`
	DataClassification int          `json:"DataClassification"`
	RedactionApplied   bool         `json:"RedactionApplied"`
}

type VerificationSection struct {
	SignedPayloadHash        string `json:"SignedPayloadHash"`
	HashAlgorithm            string `json:"HashAlgorithm"`
	SigningAuthority         string `json:"SigningAuthority"`
	PackSignature            string `json:"PackSignature"`
	VerificationInstructions string `json:"VerificationInstructions"`
}

// Pack is a full sealed evidence pack.
type Pack struct {
	PackID         string              `json:"PackId"`
	PackVersion    string              `json:"PackVersion"`
	CanonVersion   string              `json:"CanonVersion"`
	SealedAt       time.Time           `json:"SealedAt"`
	Status         PackStatus          `json:"Status"`
	IntegrityScope IntegrityScope      `json:"IntegrityScope"`
	Identity       IdentitySection     `json:"Identity"`
	Operation      OperationSection    `json:"Operation"`
	Authority      AuthoritySection    `json:"Authority"`
	State          StateSection        `json:"State"`
	Execution      ExecutionSection    `json:"Execution"`
	Compliance     ComplianceSection   `json:"Compliance"`
	Verification   VerificationSection `json:"Verification"`
}

// PackMetadata is the summary record returned by pack listings.
type PackMetadata struct {
	PackID        string     `json:"PackId"`
	TenantID      string     `json:"TenantId"`
	CorrelationID string     `json:"CorrelationId"`
	Name          string     `json:"Name"`
	CreatedAtUTC  time.Time  `json:"CreatedAtUtc"`
	ArtifactCount int        `json:"ArtifactCount"`
	Status        PackStatus `json:"Status"`
}

// ListResponse is one page of evidence pack metadata.
type ListResponse struct {
	Items []PackMetadata `json:"items"`
}

// VerificationResult is the factual outcome of a verification request.
type VerificationResult struct {
	IsValid   bool      `json:"IsValid"`
	Verdict   string    `json:"Verdict"`
	PackHash  string    `json:"PackHash"`
	Timestamp time.Time `json:"Timestamp"`
	Details   string    `json:"Details"`
}

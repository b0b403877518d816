package evidence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/omega-platform/omega-go/config"
	"github.com/omega-platform/omega-go/evidence"
	"github.com/omega-platform/omega-go/gateway"
	"github.com/omega-platform/omega-go/testutil"
	"github.com/omega-platform/omega-go/types"
)

func newNamespace(t *testing.T, stub *testutil.StubServer) *evidence.Namespace {
	t.Helper()
	cfg := config.Default()
	cfg.FederationURL = stub.URL()
	cfg.TenantID = "acme"
	cfg.ActorID = "auditor"
	cfg.MaxRetries = 0
	gw := gateway.New(cfg, zap.NewNop())
	return evidence.NewNamespace(cfg, gw, zap.NewNop())
}

func TestList(t *testing.T) {
	stub := testutil.NewStubServer()
	defer stub.Close()
	stub.On("GET", "/api/v1/compliance/evidence-packs", testutil.OKEnvelope(map[string]any{
		"items": []map[string]any{
			{
				"PackId":        "pack-1",
				"TenantId":      "acme",
				"CorrelationId": "t:acme|c:0198c0de-0000-7000-8000-000000000001",
				"Name":          "q3 audit",
				"CreatedAtUtc":  "2026-08-01T00:00:00Z",
				"ArtifactCount": 4,
				"Status":        "signed",
			},
		},
	}))

	ns := newNamespace(t, stub)

	resp, err := ns.List(testutil.TestContext(t), 25, "cur-9")
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "pack-1", resp.Items[0].PackID)
	assert.Equal(t, evidence.PackSigned, resp.Items[0].Status)
	assert.Equal(t, 4, resp.Items[0].ArtifactCount)

	q := stub.Request("GET", "/api/v1/compliance/evidence-packs").URL.Query()
	assert.Equal(t, "25", q.Get("limit"))
	assert.Equal(t, "cur-9", q.Get("cursor"))
	assert.NotEmpty(t, q.Get("correlation_id"))
}

func TestGet(t *testing.T) {
	stub := testutil.NewStubServer()
	defer stub.Close()
	stub.On("GET", "/api/v1/compliance/evidence-packs/sha256:abc", testutil.OKEnvelope(map[string]any{
		"PackId":       "pack-1",
		"PackVersion":  "1.0",
		"CanonVersion": "2.1",
		"SealedAt":     "2026-08-01T12:00:00Z",
		"Status":       "signed",
		"Identity": map[string]any{
			"EvidenceType":  0,
			"TenantId":      "acme",
			"ActorId":       "auditor",
			"CorrelationId": "t:acme|c:0198c0de-0000-7000-8000-000000000001",
		},
		"Operation": map[string]any{
			"EvidenceType":  0,
			"OpType":        "tool.invoke",
			"OpId":          "op-7",
			"RequestedAt":   "2026-08-01T11:59:00Z",
			"Outcome":       0,
			"OutcomeReason": "ok",
		},
		"Verification": map[string]any{
			"SignedPayloadHash": "sha256:abc",
			"HashAlgorithm":     "SHA-256",
			"SigningAuthority":  "federation-core",
			"PackSignature":     "sig",
		},
	}))

	ns := newNamespace(t, stub)

	pack, err := ns.Get(testutil.TestContext(t), "sha256:abc")
	require.NoError(t, err)
	assert.Equal(t, "pack-1", pack.PackID)
	assert.Equal(t, evidence.PackSigned, pack.Status)
	assert.Equal(t, "acme", pack.Identity.TenantID)
	assert.Equal(t, evidence.OutcomeCompleted, pack.Operation.Outcome)
	assert.Equal(t, "sha256:abc", pack.Verification.SignedPayloadHash)
}

func TestGet_EmptyHash(t *testing.T) {
	stub := testutil.NewStubServer()
	defer stub.Close()

	ns := newNamespace(t, stub)

	_, err := ns.Get(testutil.TestContext(t), "")
	require.Error(t, err)
	assert.Equal(t, types.ErrValidationFailed, types.GetErrorCode(err))
	assert.Equal(t, 0, stub.TotalCalls())
}

func TestVerify(t *testing.T) {
	stub := testutil.NewStubServer()
	defer stub.Close()
	stub.On("POST", "/api/v1/compliance/evidence-packs/sha256:abc:verify",
		testutil.OKEnvelope(map[string]any{
			"IsValid":   true,
			"Verdict":   "signature_valid",
			"PackHash":  "sha256:abc",
			"Timestamp": "2026-08-30T09:00:00Z",
			"Details":   "all sections verified",
		}))

	ns := newNamespace(t, stub)

	result, err := ns.Verify(testutil.TestContext(t), "sha256:abc")
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Equal(t, "signature_valid", result.Verdict)
	assert.Equal(t, "sha256:abc", result.PackHash)

	assert.JSONEq(t, `{}`,
		string(stub.RequestBody("POST", "/api/v1/compliance/evidence-packs/sha256:abc:verify")))
}

func TestVerify_TamperedPack(t *testing.T) {
	stub := testutil.NewStubServer()
	defer stub.Close()
	stub.On("POST", "/api/v1/compliance/evidence-packs/sha256:bad:verify",
		testutil.OKEnvelope(map[string]any{
			"IsValid":   false,
			"Verdict":   "hash_mismatch",
			"PackHash":  "sha256:bad",
			"Timestamp": "2026-08-30T09:00:00Z",
			"Details":   "payload hash does not match integrity scope",
		}))

	ns := newNamespace(t, stub)

	result, err := ns.Verify(testutil.TestContext(t), "sha256:bad")
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, "hash_mismatch", result.Verdict)
}

package omega_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	omega "github.com/omega-platform/omega-go"
	"github.com/omega-platform/omega-go/testutil"
	"github.com/omega-platform/omega-go/types"
)

func TestToolsList(t *testing.T) {
	stub := testutil.NewStubServer()
	defer stub.Close()
	stub.On("GET", "/api/v1/tools", testutil.OKEnvelope(map[string]any{
		"items": []map[string]any{
			{"tool_id": "csv_processor", "description": "parses CSV files", "capability": "data"},
			{"tool_id": "pdf_reader", "capability": "data"},
		},
		"next_cursor": "cur-2",
	}))

	c := newClient(t, stub, nil)

	resp, err := c.Tools.List(testutil.TestContext(t), omega.ToolListFilter{
		Capability: "data",
		Tag:        "prod",
		Limit:      10,
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "csv_processor", resp.Items[0].ToolID)
	assert.Equal(t, "cur-2", resp.NextCursor)

	q := stub.Request("GET", "/api/v1/tools").URL.Query()
	assert.Equal(t, "data", q.Get("capability"))
	assert.Equal(t, "prod", q.Get("tag"))
	assert.Equal(t, "10", q.Get("limit"))
	assert.Empty(t, q.Get("agent_id"))
}

func TestToolsGet(t *testing.T) {
	stub := testutil.NewStubServer()
	defer stub.Close()
	stub.On("GET", "/api/v1/tools/csv_processor", testutil.OKEnvelope(map[string]any{
		"tool_id":      "csv_processor",
		"description":  "parses CSV files",
		"input_schema": map[string]any{"type": "object"},
	}))

	c := newClient(t, stub, nil)

	tool, err := c.Tools.Get(testutil.TestContext(t), "csv_processor")
	require.NoError(t, err)
	assert.Equal(t, "csv_processor", tool.ToolID)
	assert.Equal(t, "object", tool.InputSchema["type"])
}

func TestToolsInvoke(t *testing.T) {
	stub := testutil.NewStubServer()
	defer stub.Close()
	stub.On("POST", "/api/v1/tools/csv_processor:invoke", testutil.OKEnvelope(map[string]any{
		"result":             map[string]any{"rows": 42},
		"status":             "completed",
		"evidence_pack_hash": "sha256:abc",
	}))

	c := newClient(t, stub, nil)

	result, err := c.Tools.Invoke(testutil.TestContext(t), "csv_processor",
		map[string]any{"file": "data.csv"},
		omega.ToolInvokeOptions{TimeoutMS: 5000},
		"receipt-7", "silentapply")
	require.NoError(t, err)
	assert.Equal(t, "completed", result.Status)
	assert.EqualValues(t, 42, result.Result["rows"])
	assert.Equal(t, "sha256:abc", result.EvidencePackHash)

	req := stub.Request("POST", "/api/v1/tools/csv_processor:invoke")
	assert.NotEmpty(t, req.Header.Get("X-Idempotency-Key"))
	assert.Equal(t, "receipt-7", req.Header.Get("X-Decision-Receipt-Id"))

	var body struct {
		Input   map[string]any `json:"input"`
		Options map[string]any `json:"options"`
		Context map[string]any `json:"context"`
	}
	require.NoError(t, json.Unmarshal(
		stub.RequestBody("POST", "/api/v1/tools/csv_processor:invoke"), &body))
	assert.Equal(t, "data.csv", body.Input["file"])
	assert.EqualValues(t, 5000, body.Options["timeout_ms"])
	assert.Equal(t, "acme", body.Context["tenant_id"])
	assert.Equal(t, "receipt-7", body.Context["decision_receipt_id"])
	assert.Equal(t, []any{"silentapply"}, body.Context["tags"])
	assert.Equal(t, req.Header.Get("X-Correlation-Id"), body.Context["correlation_id"])
}

func TestToolsInvoke_EmptyID(t *testing.T) {
	stub := testutil.NewStubServer()
	defer stub.Close()

	c := newClient(t, stub, nil)

	_, err := c.Tools.Invoke(testutil.TestContext(t), "", nil, omega.ToolInvokeOptions{}, "")
	require.Error(t, err)
	assert.Equal(t, types.ErrValidationFailed, types.GetErrorCode(err))
	assert.Equal(t, 0, stub.TotalCalls())
}

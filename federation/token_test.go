package federation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/omega-platform/omega-go/config"
	"github.com/omega-platform/omega-go/gateway"
	"github.com/omega-platform/omega-go/testutil"
	"github.com/omega-platform/omega-go/types"
)

func newTokenFixture(t *testing.T, stub *testutil.StubServer) *tokenSource {
	cfg := config.Default()
	cfg.FederationURL = stub.URL()
	cfg.MaxRetries = 0
	gw := gateway.New(cfg, zap.NewNop())
	return newTokenSource(gw, "acme", "clint", "cid-1", "secret", zap.NewNop(), nil)
}

func TestToken_FetchAndCache(t *testing.T) {
	stub := testutil.NewStubServer()
	defer stub.Close()
	stub.On("POST", "/api/v1/auth/client/token", testutil.OKEnvelope(map[string]any{
		"access_token": "tok-1",
		"expires_in":   3600,
	}))

	ts := newTokenFixture(t, stub)
	ctx := testutil.TestContext(t)

	tok, err := ts.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	// Second call is served from cache.
	tok, err = ts.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, 1, stub.Calls("POST", "/api/v1/auth/client/token"))

	// The exchange must carry the client credentials.
	assert.JSONEq(t, `{"client_id":"cid-1","client_secret":"secret"}`,
		string(stub.RequestBody("POST", "/api/v1/auth/client/token")))
}

func TestToken_RefreshesNearExpiry(t *testing.T) {
	stub := testutil.NewStubServer()
	defer stub.Close()
	stub.On("POST", "/api/v1/auth/client/token",
		testutil.OKEnvelope(map[string]any{"access_token": "tok-1", "expires_in": 60}),
		testutil.OKEnvelope(map[string]any{"access_token": "tok-2", "expires_in": 3600}),
	)

	ts := newTokenFixture(t, stub)
	ctx := testutil.TestContext(t)

	now := time.Now()
	ts.now = func() time.Time { return now }

	tok, err := ts.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	// Still comfortably valid.
	now = now.Add(30 * time.Second)
	tok, err = ts.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	// Inside the 10s refresh margin: 60s lifetime, 51s elapsed.
	now = now.Add(21 * time.Second)
	tok, err = ts.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.Equal(t, 2, stub.Calls("POST", "/api/v1/auth/client/token"))
}

func TestToken_FailureSurfacedNotRetried(t *testing.T) {
	stub := testutil.NewStubServer()
	defer stub.Close()
	stub.On("POST", "/api/v1/auth/client/token",
		testutil.ErrEnvelope(401, "UNAUTHENTICATED", "bad credentials", false))

	ts := newTokenFixture(t, stub)
	_, err := ts.Token(testutil.TestContext(t))

	require.Error(t, err)
	assert.Equal(t, types.ErrUnauthenticated, types.GetErrorCode(err))
	assert.Equal(t, 1, stub.Calls("POST", "/api/v1/auth/client/token"))
}

func TestToken_MissingAccessToken(t *testing.T) {
	stub := testutil.NewStubServer()
	defer stub.Close()
	stub.On("POST", "/api/v1/auth/client/token", testutil.OKEnvelope(map[string]any{
		"expires_in": 3600,
	}))

	ts := newTokenFixture(t, stub)
	_, err := ts.Token(testutil.TestContext(t))

	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidEnvelope, types.GetErrorCode(err))
}

func TestToken_SingleFlightUnderConcurrency(t *testing.T) {
	stub := testutil.NewStubServer()
	defer stub.Close()
	stub.On("POST", "/api/v1/auth/client/token", testutil.OKEnvelope(map[string]any{
		"access_token": "tok-1",
		"expires_in":   3600,
	}))

	ts := newTokenFixture(t, stub)
	ctx := testutil.TestContext(t)

	var wg sync.WaitGroup
	tokens := make([]string, 16)
	errs := make([]error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = ts.Token(ctx)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 16; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "tok-1", tokens[i])
	}
	// Concurrent callers share one in-flight fetch.
	assert.Equal(t, 1, stub.Calls("POST", "/api/v1/auth/client/token"))
}

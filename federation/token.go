package federation

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/omega-platform/omega-go/correlation"
	"github.com/omega-platform/omega-go/gateway"
	"github.com/omega-platform/omega-go/types"
)

// tokenRefreshMargin is how long before expiry a cached token is considered
// stale and refreshed.
const tokenRefreshMargin = 10 * time.Second

// tokenPath is the client-credential exchange endpoint.
const tokenPath = "/auth/client/token"

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// tokenSource caches the process-local access token and refreshes it via a
// client-credential exchange. Concurrent callers that observe a near-expiry
// token share one in-flight fetch.
type tokenSource struct {
	gw           *gateway.Gateway
	tenantID     string
	actorID      string
	clientID     string
	clientSecret string
	logger       *zap.Logger
	onRefresh    func(result string)

	now func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time

	group singleflight.Group
}

func newTokenSource(gw *gateway.Gateway, tenantID, actorID, clientID, clientSecret string, logger *zap.Logger, onRefresh func(string)) *tokenSource {
	if onRefresh == nil {
		onRefresh = func(string) {}
	}
	return &tokenSource{
		gw:           gw,
		tenantID:     tenantID,
		actorID:      actorID,
		clientID:     clientID,
		clientSecret: clientSecret,
		logger:       logger,
		onRefresh:    onRefresh,
		now:          time.Now,
	}
}

// Token returns a valid access token, fetching or refreshing as needed.
// An authentication failure during refresh is surfaced to the caller and is
// not retried here.
func (ts *tokenSource) Token(ctx context.Context) (string, error) {
	if token, ok := ts.cached(); ok {
		return token, nil
	}

	v, err, _ := ts.group.Do("token", func() (any, error) {
		// Re-check under single-flight: another caller may have just
		// refreshed the cache.
		if token, ok := ts.cached(); ok {
			return token, nil
		}
		return ts.fetch(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// cached returns the token while now < expiry - margin.
func (ts *tokenSource) cached() (string, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.token != "" && ts.now().Before(ts.expiry.Add(-tokenRefreshMargin)) {
		return ts.token, true
	}
	return "", false
}

func (ts *tokenSource) fetch(ctx context.Context) (string, error) {
	cid, err := correlation.Generate(ts.tenantID)
	if err != nil {
		return "", err
	}
	rc := gateway.RequestContext{
		TenantID:      ts.tenantID,
		ActorID:       ts.actorID,
		CorrelationID: cid,
	}

	data, err := ts.gw.Post(ctx, tokenPath, rc, map[string]string{
		"client_id":     ts.clientID,
		"client_secret": ts.clientSecret,
	})
	if err != nil {
		ts.onRefresh("failure")
		ts.logger.Error("access token fetch failed", zap.Error(err))
		return "", err
	}

	var resp tokenResponse
	if err := json.Unmarshal(data, &resp); err != nil || resp.AccessToken == "" {
		ts.onRefresh("failure")
		return "", types.NewError(types.ErrInvalidEnvelope, "token response missing access_token").
			WithCause(err)
	}
	if resp.ExpiresIn <= 0 {
		resp.ExpiresIn = 3600
	}

	ts.mu.Lock()
	ts.token = resp.AccessToken
	ts.expiry = ts.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	ts.mu.Unlock()

	ts.onRefresh("success")
	ts.logger.Info("obtained access token", zap.Int64("expires_in", resp.ExpiresIn))
	return resp.AccessToken, nil
}

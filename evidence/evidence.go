package evidence

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/omega-platform/omega-go/config"
	"github.com/omega-platform/omega-go/correlation"
	"github.com/omega-platform/omega-go/gateway"
	"github.com/omega-platform/omega-go/types"
)

const packsPath = "/compliance/evidence-packs"

// Namespace is the evidence pack API surface. All operations are
// read-only; packs are sealed server-side.
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
		logger: logger.With(zap.String("component", "evidence")),
	}
}

func (n *Namespace) requestContext() (gateway.RequestContext, error) {
	cid, err := correlation.Generate(n.cfg.TenantID)
	if err != nil {
		return gateway.RequestContext{}, err
	}
	return gateway.RequestContext{
		TenantID:      n.cfg.TenantID,
		ActorID:       n.cfg.ActorID,
		CorrelationID: cid,
	}, nil
}

// List fetches one page of evidence pack metadata. cursor continues a
// previous page when non-empty.
func (n *Namespace) List(ctx context.Context, limit int, cursor string) (*ListResponse, error) {
	rc, err := n.requestContext()
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("correlation_id", rc.CorrelationID)
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	data, err := n.gw.Get(ctx, packsPath, rc, params)
	if err != nil {
		return nil, err
	}

	var resp ListResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, types.NewError(types.ErrInvalidEnvelope, "failed to parse evidence pack list").
			WithCause(err)
	}
	return &resp, nil
}

// Get fetches a full evidence pack by hash or ID.
func (n *Namespace) Get(ctx context.Context, packHash string) (*Pack, error) {
	if packHash == "" {
		return nil, types.NewError(types.ErrValidationFailed, "pack hash is required")
	}
	rc, err := n.requestContext()
	if err != nil {
		return nil, err
	}

	data, err := n.gw.Get(ctx, packsPath+"/"+packHash, rc, nil)
	if err != nil {
		return nil, err
	}

	var pack Pack
	if err := json.Unmarshal(data, &pack); err != nil {
		return nil, types.NewError(types.ErrInvalidEnvelope, "failed to parse evidence pack").
			WithCause(err)
	}
	return &pack, nil
}

// Verify asks Federation Core to re-verify a pack's signature and
// integrity scope.
func (n *Namespace) Verify(ctx context.Context, packHash string) (*VerificationResult, error) {
	if packHash == "" {
		return nil, types.NewError(types.ErrValidationFailed, "pack hash is required")
	}
	rc, err := n.requestContext()
	if err != nil {
		return nil, err
	}

	data, err := n.gw.Post(ctx, packsPath+"/"+packHash+":verify", rc, map[string]any{})
	if err != nil {
		return nil, err
	}

	var result VerificationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, types.NewError(types.ErrInvalidEnvelope, "failed to parse verification result").
			WithCause(err)
	}
	n.logger.Info("verified evidence pack",
		zap.String("pack_hash", packHash),
		zap.Bool("is_valid", result.IsValid),
		zap.String("verdict", result.Verdict))
	return &result, nil
}

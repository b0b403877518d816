package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/omega-platform/omega-go/types"
)

// Envelope is the wire-level response wrapper returned by every Federation
// Core API endpoint. Exactly one of Data/Error is meaningful, selected by OK.
type Envelope struct {
	OK    bool             `json:"ok"`
	Data  json.RawMessage  `json:"data,omitempty"`
	Error *ErrorDescriptor `json:"error,omitempty"`
	Meta  Meta             `json:"meta"`
}

// ErrorDescriptor is the error object carried inside a failure envelope.
// Retryable is a pointer so that an explicit server-side value can override
// the status-derived default.
type ErrorDescriptor struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable *bool          `json:"retryable,omitempty"`
}

// Meta carries trace metadata for the response.
type Meta struct {
	CorrelationID string      `json:"correlation_id,omitempty"`
	RequestID     string      `json:"request_id,omitempty"`
	Timestamp     string      `json:"timestamp,omitempty"`
	SDK           SDKIdentity `json:"sdk,omitempty"`
}

// SDKIdentity identifies the SDK that produced a request.
type SDKIdentity struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

// statusKinds maps HTTP status codes to typed error kinds and their default
// retryability. The envelope's own retryable field, when present, overrides
// the default.
var statusKinds = map[int]struct {
	code      types.ErrorCode
	retryable bool
}{
	400: {types.ErrValidationFailed, false},
	401: {types.ErrUnauthenticated, false},
	403: {types.ErrForbidden, false},
	404: {types.ErrNotFound, false},
	408: {types.ErrTimeout, true},
	409: {types.ErrConflict, false},
	429: {types.ErrRateLimited, true},
	500: {types.ErrInternalError, false},
	502: {types.ErrUpstreamError, true},
	503: {types.ErrUpstreamError, true},
	504: {types.ErrTimeout, true},
}

// UnwrapEnvelope turns a raw transport response into a typed outcome: the
// envelope's data on success, or a *types.Error carrying the correlation and
// request identifiers from the response meta.
func UnwrapEnvelope(status int, body []byte) (json.RawMessage, error) {
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, types.NewError(types.ErrInvalidResponse, "failed to parse JSON response").
			WithCause(err).
			WithHTTPStatus(status)
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, types.NewError(types.ErrInvalidResponse, "response is not a JSON object").
			WithHTTPStatus(status)
	}

	// meta.correlation_id and meta.request_id are both optional; absence
	// must not break parsing.
	correlationID, requestID := extractMeta(obj)

	if status >= 400 {
		var desc *ErrorDescriptor
		if raw, ok := obj["error"].(map[string]any); ok && len(raw) > 0 {
			desc = descriptorFromMap(raw)
		} else {
			synth := status >= 500
			desc = &ErrorDescriptor{
				Code:      string(types.ErrHTTPError),
				Message:   fmt.Sprintf("HTTP %d error", status),
				Retryable: &synth,
			}
		}
		return nil, errorFromDescriptor(status, desc, correlationID, requestID)
	}

	var envelope Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, types.NewError(types.ErrInvalidEnvelope, "failed to parse response envelope").
			WithCause(err).
			WithHTTPStatus(status).
			WithCorrelation(correlationID, requestID)
	}

	if !envelope.OK {
		if envelope.Error != nil {
			return nil, errorFromDescriptor(status, envelope.Error,
				envelope.Meta.CorrelationID, envelope.Meta.RequestID)
		}
		return nil, types.NewError(types.ErrEnvelopeError,
			"response envelope indicates failure but no error details provided").
			WithHTTPStatus(status).
			WithCorrelation(envelope.Meta.CorrelationID, envelope.Meta.RequestID)
	}

	return envelope.Data, nil
}

// errorFromDescriptor maps a status code and error descriptor to a typed
// error. Statuses outside the mapping table keep the descriptor's own code.
func errorFromDescriptor(status int, desc *ErrorDescriptor, correlationID, requestID string) *types.Error {
	code := types.ErrorCode(desc.Code)
	if code == "" {
		code = types.ErrUnknown
	}
	retryable := false

	if kind, ok := statusKinds[status]; ok {
		code = kind.code
		retryable = kind.retryable
	}
	if desc.Retryable != nil {
		retryable = *desc.Retryable
	}

	message := desc.Message
	if message == "" {
		message = fmt.Sprintf("HTTP %d error", status)
	}

	return types.NewError(code, message).
		WithDetails(desc.Details).
		WithRetryable(retryable).
		WithHTTPStatus(status).
		WithCorrelation(correlationID, requestID)
}

func extractMeta(obj map[string]any) (correlationID, requestID string) {
	meta, ok := obj["meta"].(map[string]any)
	if !ok {
		return "", ""
	}
	correlationID, _ = meta["correlation_id"].(string)
	requestID, _ = meta["request_id"].(string)
	return correlationID, requestID
}

func descriptorFromMap(raw map[string]any) *ErrorDescriptor {
	desc := &ErrorDescriptor{}
	desc.Code, _ = raw["code"].(string)
	desc.Message, _ = raw["message"].(string)
	if details, ok := raw["details"].(map[string]any); ok {
		desc.Details = details
	}
	if retryable, ok := raw["retryable"].(bool); ok {
		desc.Retryable = &retryable
	}
	return desc
}

// Package correlation builds and validates the canonical correlation
// identifier threaded through every Federation Core request.
//
// The canonical format is t:<tenant>|c:<uuidv7>. The identifier segment is a
// UUIDv7, which is globally unique and time-ordered: correlated events can be
// sorted by creation time without a separate timestamp field.
package correlation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/omega-platform/omega-go/types"
)

// pattern matches the canonical form: t:<tenant>|c:<uuid>.
var pattern = regexp.MustCompile(`^t:([^|]+)\|c:([0-9a-fA-F-]{36})$`)

// Generate creates a canonical correlation ID for the given tenant.
// The tenant must be non-empty and must not contain '|'.
func Generate(tenantID string) (string, error) {
	if strings.TrimSpace(tenantID) == "" {
		return "", types.NewError(types.ErrCorrelationInvalid, "tenant ID cannot be empty")
	}
	if strings.Contains(tenantID, "|") {
		return "", types.NewError(types.ErrCorrelationInvalid,
			fmt.Sprintf("tenant ID cannot contain '|': %s", tenantID))
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", types.NewError(types.ErrCorrelationInvalid, "failed to generate UUIDv7").WithCause(err)
	}
	return fmt.Sprintf("t:%s|c:%s", tenantID, id), nil
}

// Validate parses a correlation ID, returning the tenant and the parsed
// identifier. It fails if the text does not match the canonical two-part
// pattern or the identifier segment is not a valid UUID.
func Validate(correlationID string) (string, uuid.UUID, error) {
	m := pattern.FindStringSubmatch(correlationID)
	if m == nil {
		return "", uuid.Nil, types.NewError(types.ErrCorrelationInvalid,
			fmt.Sprintf("invalid correlation ID format, expected 't:<tenant>|c:<uuidv7>', got: %s", correlationID))
	}

	tenantID, idText := m[1], m[2]
	id, err := uuid.Parse(idText)
	if err != nil {
		return "", uuid.Nil, types.NewError(types.ErrCorrelationInvalid,
			fmt.Sprintf("invalid UUID in correlation ID: %s", idText)).WithCause(err)
	}
	return tenantID, id, nil
}

// Normalize validates a correlation ID and re-serializes it with the
// identifier segment in lowercase hexadecimal form. Idempotent.
func Normalize(correlationID string) (string, error) {
	tenantID, id, err := Validate(correlationID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("t:%s|c:%s", tenantID, id), nil
}

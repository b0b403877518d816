package federation

import (
	"encoding/json"

	"github.com/gowebpki/jcs"

	"github.com/omega-platform/omega-go/types"
)

// Canonicalize serializes a payload into its RFC 8785 (JCS) canonical JSON
// form: object keys sorted lexicographically at every nesting level, no
// insignificant whitespace, consistent escaping. Two logically equal
// payloads always produce byte-identical output, so the canonical form is
// safe to use both for constraint checks and as the exact signing input.
func Canonicalize(payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, types.NewError(types.ErrValidationFailed, "payload is not JSON-serializable").
			WithCause(err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, types.NewError(types.ErrValidationFailed, "failed to canonicalize payload").
			WithCause(err)
	}
	return canonical, nil
}

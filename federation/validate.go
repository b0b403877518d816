package federation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/omega-platform/omega-go/types"
)

// Payload constraint defaults.
const (
	DefaultMaxPayloadBytes = 262144
	DefaultMaxPayloadDepth = 32
)

// PayloadValidator checks payload constraints before any network I/O.
type PayloadValidator struct {
	MaxPayloadBytes int
	MaxPayloadDepth int
}

// NewPayloadValidator creates a validator; non-positive limits select the
// defaults.
func NewPayloadValidator(maxBytes, maxDepth int) *PayloadValidator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPayloadBytes
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxPayloadDepth
	}
	return &PayloadValidator{MaxPayloadBytes: maxBytes, MaxPayloadDepth: maxDepth}
}

// ValidateSize fails with PAYLOAD_TOO_LARGE when the canonical form exceeds
// the byte limit. A payload of exactly the limit passes.
func (v *PayloadValidator) ValidateSize(canonical []byte) error {
	if len(canonical) > v.MaxPayloadBytes {
		return types.NewError(types.ErrPayloadTooLarge,
			fmt.Sprintf("payload size %d bytes exceeds limit of %d bytes", len(canonical), v.MaxPayloadBytes)).
			WithDetail("size_bytes", len(canonical)).
			WithDetail("limit_bytes", v.MaxPayloadBytes)
	}
	return nil
}

// ValidateDepth fails with PAYLOAD_TOO_DEEP when container nesting in the
// canonical form exceeds the depth limit. A payload nested to exactly the
// limit passes. Depth is counted on the canonical bytes, so concretely
// typed containers nest the same as generic maps and slices.
func (v *PayloadValidator) ValidateDepth(canonical []byte) error {
	dec := json.NewDecoder(bytes.NewReader(canonical))
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return types.NewError(types.ErrValidationFailed, "payload is not valid JSON").
				WithCause(err)
		}
		d, ok := tok.(json.Delim)
		if !ok {
			continue
		}
		switch d {
		case '{', '[':
			depth++
			if depth > v.MaxPayloadDepth {
				return types.NewError(types.ErrPayloadTooDeep,
					fmt.Sprintf("payload nesting depth %d exceeds limit of %d", depth, v.MaxPayloadDepth)).
					WithDetail("limit_depth", v.MaxPayloadDepth)
			}
		case '}', ']':
			depth--
		}
	}
}

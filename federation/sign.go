package federation

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/omega-platform/omega-go/types"
)

// nonceBytes is the nonce entropy: 96 bits.
const nonceBytes = 12

// Signer computes HMAC-SHA256 signatures over the canonical signing string.
//
// The client generates a fresh nonce and millisecond timestamp for every
// request and never tracks issued nonces: replay-window rejection is a
// receiver-side invariant that this client supports but does not enforce.
type Signer struct {
	secret []byte
}

// NewSigner creates a signer from a base64-encoded pre-shared secret.
func NewSigner(secretB64 string) (*Signer, error) {
	if secretB64 == "" {
		return nil, types.NewError(types.ErrValidationFailed, "HMAC secret is not configured")
	}
	secret, err := base64.StdEncoding.DecodeString(secretB64)
	if err != nil {
		return nil, types.NewError(types.ErrValidationFailed, "HMAC secret is not valid base64").
			WithCause(err)
	}
	return &Signer{secret: secret}, nil
}

// Sign computes the base64 HMAC-SHA256 signature over the canonical signing
// string: method, path, timestamp, nonce and canonical payload bytes, each
// on its own line. The signature is a pure function of its inputs.
func (s *Signer) Sign(method, path string, timestampMS int64, nonce string, canonical []byte) string {
	signingString := fmt.Sprintf("%s\n%s\n%d\n%s\n%s", method, path, timestampMS, nonce, canonical)

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(signingString))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// NewNonce returns a fresh base64-encoded 96-bit random nonce.
func NewNonce() (string, error) {
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", types.NewError(types.ErrInternalError, "failed to generate nonce").WithCause(err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// SignedRequest carries the security envelope of one signed tool invocation.
// All fields travel as request headers, never as payload fields, so they
// cannot affect or be affected by payload canonicalization.
type SignedRequest struct {
	PassportID  string
	ToolName    string
	TimestampMS int64
	Nonce       string
	Signature   string
	SDKName     string
	SDKVersion  string
}

// Headers renders the signed invocation header set.
func (r *SignedRequest) Headers() map[string]string {
	return map[string]string{
		"X-Omega-Passport":  r.PassportID,
		"X-Omega-Timestamp": fmt.Sprintf("%d", r.TimestampMS),
		"X-Omega-Nonce":     r.Nonce,
		"X-Omega-Signature": r.Signature,
		"X-Omega-SDK":       fmt.Sprintf("%s/%s", r.SDKName, r.SDKVersion),
	}
}

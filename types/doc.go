// Package types defines the shared error taxonomy for the Omega SDK.
//
// All SDK operations fail with a single structured [*Error] value rather
// than raw transport errors, so callers can branch on [ErrorCode], inspect
// the retryable flag, and trace failures via the attached correlation and
// request identifiers.
package types

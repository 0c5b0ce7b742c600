// Package auth implements shared-secret credential validation.
package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"
)

// Reason explains why a request was rejected.
type Reason string

const (
	// ReasonMissing means the credential header was absent from the request.
	ReasonMissing Reason = "missing_credential"
	// ReasonMismatch means the header was present but did not equal the secret.
	ReasonMismatch Reason = "invalid_credential"
)

// Result is the outcome of a validation check: either authorized, or
// rejected with a reason. The zero value is a rejection.
type Result struct {
	authorized bool
	reason     Reason
}

// Authorized reports whether the request carried the correct credential.
func (r Result) Authorized() bool { return r.authorized }

// Reason returns the rejection reason. Empty when authorized.
func (r Result) Reason() Reason { return r.reason }

// Validator checks a request's credential header against a configured
// secret. It holds no mutable state and is safe for concurrent use from any
// number of request goroutines.
type Validator struct {
	header string
	secret []byte
}

// NewValidator creates a Validator for the given header name and secret.
// An empty secret is refused: config validation rejects it first, but a
// Validator must never exist that would authorize the empty string.
func NewValidator(header, secret string) (*Validator, error) {
	if header == "" {
		return nil, fmt.Errorf("auth: credential header name is empty")
	}
	if secret == "" {
		return nil, fmt.Errorf("auth: secret is empty")
	}
	return &Validator{header: header, secret: []byte(secret)}, nil
}

// Header returns the name of the credential header the Validator inspects.
func (v *Validator) Header() string { return v.header }

// Check extracts the credential header and compares its raw value against
// the secret. The comparison is constant-time so response latency does not
// leak how much of a guessed secret matched. Pure function of (header, secret);
// no I/O, no side effects.
func (v *Validator) Check(header http.Header) Result {
	vals := header.Values(v.header)
	if len(vals) == 0 {
		return Result{reason: ReasonMissing}
	}

	// A request carrying several credential values is only authorized when
	// the first one matches; extra values never widen access.
	if subtle.ConstantTimeCompare([]byte(vals[0]), v.secret) != 1 {
		return Result{reason: ReasonMismatch}
	}
	return Result{authorized: true}
}

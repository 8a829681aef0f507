package signer

import (
	"errors"
	"fmt"
	"strings"

	httpclient "github.com/chainworks/policygate/internal/client/http"
)

// ErrorKind classifies a signing failure.
type ErrorKind int

const (
	// ErrRejected means the service evaluated the request and refused to sign
	// (no policy authorized the activity).
	ErrRejected ErrorKind = iota
	// ErrTransport is any HTTP or connectivity failure.
	ErrTransport
	// ErrInvalid is a caller bug caught before any network call.
	ErrInvalid
)

func (k ErrorKind) String() string {
	switch k {
	case ErrRejected:
		return "rejected"
	case ErrTransport:
		return "transport"
	case ErrInvalid:
		return "invalid"
	}
	return "unknown"
}

// SigningError is the structured error returned by the sign-transaction path.
// The service does not expose a machine-readable error taxonomy, so the
// classification happens here, once, at the client boundary; callers must not
// re-match error text themselves.
type SigningError struct {
	Kind   ErrorKind
	Reason string
	Status int
	Err    error
}

func (e *SigningError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("signing %s (status %d): %s", e.Kind, e.Status, e.Reason)
	}
	return fmt.Sprintf("signing %s: %s", e.Kind, e.Reason)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// IsPolicyRejection reports whether err is a signing failure classified as a
// policy rejection.
func IsPolicyRejection(err error) bool {
	var se *SigningError
	return errors.As(err, &se) && se.Kind == ErrRejected
}

// classifySignError maps an upstream failure into a SigningError. Rejections
// are recognized by the service's error text mentioning policies ("polic"
// covers both "policy" and "No policies evaluated"); there is no structured
// signal to key on, so a change in upstream wording would surface here and
// only here.
func classifySignError(err error) *SigningError {
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		kind := ErrTransport
		if mentionsPolicy(httpErr.Body) {
			kind = ErrRejected
		}
		return &SigningError{
			Kind:   kind,
			Reason: httpErr.Body,
			Status: httpErr.StatusCode,
			Err:    err,
		}
	}
	if mentionsPolicy(err.Error()) {
		return &SigningError{Kind: ErrRejected, Reason: err.Error(), Err: err}
	}
	return &SigningError{Kind: ErrTransport, Reason: err.Error(), Err: err}
}

func mentionsPolicy(text string) bool {
	return strings.Contains(strings.ToLower(text), "polic")
}

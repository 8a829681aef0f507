// Package cosign submits unsigned payloads to the signing service for
// co-signing by the delegated signer.
package cosign

import (
	"context"

	"go.uber.org/zap"

	"github.com/chainworks/policygate/internal/logger"
	"github.com/chainworks/policygate/internal/signer"
)

// SignAPI is the slice of the signing-service client the requester needs.
type SignAPI interface {
	SignTransaction(ctx context.Context, organizationID, signWith, unsignedHex, policyID string) (string, error)
}

// Requester submits co-sign requests for one scope and signer address.
type Requester struct {
	api       SignAPI
	scopeID   string
	signerKey string
}

// NewRequester creates a Requester bound to a scope and signer address.
func NewRequester(api SignAPI, scopeID, signerAddress string) (*Requester, error) {
	if scopeID == "" {
		return nil, &signer.SigningError{Kind: signer.ErrInvalid, Reason: "scope id is required"}
	}
	if signerAddress == "" {
		return nil, &signer.SigningError{Kind: signer.ErrInvalid, Reason: "signer address is required"}
	}
	return &Requester{api: api, scopeID: scopeID, signerKey: signerAddress}, nil
}

// CoSign submits the hex-encoded unsigned payload, evaluated under policyID.
// An empty policyID means "attempt with no policy bound" and is used
// deliberately by the no-policy verification scenario. Failures come back as
// *signer.SigningError, already classified; nothing is caught or rewritten
// here.
func (r *Requester) CoSign(ctx context.Context, unsignedHex, policyID string) (string, error) {
	if unsignedHex == "" {
		return "", &signer.SigningError{Kind: signer.ErrInvalid, Reason: "unsigned payload is required"}
	}

	logger.Debug("submitting co-sign request",
		zap.String("scopeId", r.scopeID),
		zap.String("signWith", r.signerKey),
		zap.String("policyId", policyID),
		zap.Int("payloadBytes", len(unsignedHex)/2))

	return r.api.SignTransaction(ctx, r.scopeID, r.signerKey, unsignedHex, policyID)
}

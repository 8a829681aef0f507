package signer

import (
	"context"
)

// TransactionTypeSolana is the transaction type for Solana payloads.
const TransactionTypeSolana = "TRANSACTION_TYPE_SOLANA"

type signTransactionParams struct {
	SignWith            string `json:"signWith"`
	UnsignedTransaction string `json:"unsignedTransaction"`
	Type                string `json:"type"`
	PolicyID            string `json:"policyId,omitempty"`
}

// SignTransaction submits the hex-encoded unsigned payload for co-signing
// with the given signer address. policyID names the policy the activity
// should be evaluated under; an empty policyID submits with no policy bound,
// which is used deliberately by the no-policy verification scenario.
//
// The signed payload comes back hex-encoded. Failures are returned as
// *SigningError with the rejection/transport classification already applied.
func (c *Client) SignTransaction(ctx context.Context, organizationID, signWith, unsignedHex, policyID string) (string, error) {
	if organizationID == "" {
		return "", &SigningError{Kind: ErrInvalid, Reason: "organization id is required"}
	}
	if signWith == "" {
		return "", &SigningError{Kind: ErrInvalid, Reason: "signer address is required"}
	}
	if unsignedHex == "" {
		return "", &SigningError{Kind: ErrInvalid, Reason: "unsigned payload is required"}
	}

	result, err := c.submit(ctx, "/public/v1/submit/sign_transaction",
		"ACTIVITY_TYPE_SIGN_TRANSACTION_V2", organizationID, signTransactionParams{
			SignWith:            signWith,
			UnsignedTransaction: unsignedHex,
			Type:                TransactionTypeSolana,
			PolicyID:            policyID,
		})
	if err != nil {
		return "", classifySignError(err)
	}
	if result.SignTransactionResult == nil || result.SignTransactionResult.SignedTransaction == "" {
		return "", &SigningError{Kind: ErrTransport, Reason: "empty signed transaction in response"}
	}
	return result.SignTransactionResult.SignedTransaction, nil
}

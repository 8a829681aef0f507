// Package chain submits signed payloads to the chain RPC and waits for
// confirmation.
package chain

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chainworks/policygate/internal/logger"
)

// RPC is the slice of the RPC client the submitter needs.
type RPC interface {
	SendEncodedTransaction(ctx context.Context, encodedTx string) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// Submitter sends signed transactions and polls for confirmation.
type Submitter struct {
	rpc          RPC
	pollInterval time.Duration
	maxWait      time.Duration
}

// NewSubmitter creates a Submitter with default polling behavior.
func NewSubmitter(chain RPC) *Submitter {
	return &Submitter{
		rpc:          chain,
		pollInterval: 2 * time.Second,
		maxWait:      90 * time.Second,
	}
}

// Submit decodes the hex-encoded signed transaction returned by the signing
// service and broadcasts it. Returns the transaction signature.
func (s *Submitter) Submit(ctx context.Context, signedHex string) (solana.Signature, error) {
	raw, err := hex.DecodeString(signedHex)
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "decoding signed payload hex")
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "deserializing signed transaction")
	}
	if len(tx.Signatures) == 0 || tx.Signatures[0].IsZero() {
		return solana.Signature{}, errors.New("signed transaction carries no signature")
	}

	sig, err := s.rpc.SendEncodedTransaction(ctx, base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "broadcasting transaction")
	}

	logger.Info("transaction submitted", zap.String("signature", sig.String()))
	return sig, nil
}

// AwaitConfirmation polls signature statuses until the transaction reaches
// confirmed or finalized commitment, the wait budget runs out, or ctx ends.
func (s *Submitter) AwaitConfirmation(ctx context.Context, sig solana.Signature) error {
	deadline := time.Now().Add(s.maxWait)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if time.Now().After(deadline) {
			return errors.Errorf("transaction %s not confirmed within %s", sig, s.maxWait)
		}

		statuses, err := s.rpc.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			logger.Warn("signature status poll failed", zap.Error(err))
			continue
		}
		if len(statuses.Value) == 0 || statuses.Value[0] == nil {
			continue
		}

		status := statuses.Value[0]
		if status.Err != nil {
			return errors.Errorf("transaction %s failed on chain: %v", sig, status.Err)
		}
		switch status.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			logger.Info("transaction confirmed",
				zap.String("signature", sig.String()),
				zap.String("status", string(status.ConfirmationStatus)))
			return nil
		}
	}
}

package chain

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRPC struct {
	sentEncoded string
	sendErr     error
	sig         solana.Signature

	statuses []*rpc.SignatureStatusesResult
	polls    int
}

func (f *fakeRPC) SendEncodedTransaction(ctx context.Context, encodedTx string) (solana.Signature, error) {
	f.sentEncoded = encodedTx
	return f.sig, f.sendErr
}

func (f *fakeRPC) GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	idx := f.polls
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	f.polls++
	return &rpc.GetSignatureStatusesResult{
		Value: []*rpc.SignatureStatusesResult{f.statuses[idx]},
	}, nil
}

func signedTxHex(t *testing.T) string {
	t.Helper()
	payer := solana.MustPublicKeyFromBase58("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	memo := solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

	var blockhash solana.Hash
	blockhash[0] = 7

	ix := solana.NewInstruction(memo, nil, []byte("submit test"))
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, blockhash, solana.TransactionPayer(payer))
	require.NoError(t, err)

	var sig solana.Signature
	for i := range sig {
		sig[i] = byte(i + 1)
	}
	tx.Signatures = []solana.Signature{sig}

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return hex.EncodeToString(raw)
}

func TestSubmitBroadcastsBase64(t *testing.T) {
	f := &fakeRPC{}
	signedHex := signedTxHex(t)

	_, err := NewSubmitter(f).Submit(context.Background(), signedHex)
	require.NoError(t, err)

	raw, err := hex.DecodeString(signedHex)
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(raw), f.sentEncoded)
}

func TestSubmitRejectsBadPayloads(t *testing.T) {
	f := &fakeRPC{}
	s := NewSubmitter(f)

	_, err := s.Submit(context.Background(), "not hex")
	assert.Error(t, err)

	_, err = s.Submit(context.Background(), "00ff00ff")
	assert.Error(t, err)

	assert.Empty(t, f.sentEncoded, "nothing was broadcast")
}

func TestSubmitRejectsUnsignedTransaction(t *testing.T) {
	payer := solana.MustPublicKeyFromBase58("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	memo := solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")
	ix := solana.NewInstruction(memo, nil, []byte("x"))
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{}, solana.TransactionPayer(payer))
	require.NoError(t, err)
	tx.Signatures = []solana.Signature{{}} // zero signature

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	f := &fakeRPC{}
	_, err = NewSubmitter(f).Submit(context.Background(), hex.EncodeToString(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no signature")
}

func TestAwaitConfirmation(t *testing.T) {
	f := &fakeRPC{statuses: []*rpc.SignatureStatusesResult{
		nil,
		{ConfirmationStatus: rpc.ConfirmationStatusProcessed},
		{ConfirmationStatus: rpc.ConfirmationStatusConfirmed},
	}}

	s := NewSubmitter(f)
	s.pollInterval = time.Millisecond
	s.maxWait = time.Second

	err := s.AwaitConfirmation(context.Background(), solana.Signature{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, f.polls, 3)
}

func TestAwaitConfirmationChainError(t *testing.T) {
	f := &fakeRPC{statuses: []*rpc.SignatureStatusesResult{
		{Err: map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}},
	}}

	s := NewSubmitter(f)
	s.pollInterval = time.Millisecond
	s.maxWait = time.Second

	err := s.AwaitConfirmation(context.Background(), solana.Signature{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed on chain")
}

func TestAwaitConfirmationTimesOut(t *testing.T) {
	f := &fakeRPC{statuses: []*rpc.SignatureStatusesResult{nil}}

	s := NewSubmitter(f)
	s.pollInterval = time.Millisecond
	s.maxWait = 10 * time.Millisecond

	err := s.AwaitConfirmation(context.Background(), solana.Signature{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not confirmed within")
}

func TestAwaitConfirmationHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeRPC{statuses: []*rpc.SignatureStatusesResult{nil}}
	s := NewSubmitter(f)
	s.pollInterval = time.Millisecond

	err := s.AwaitConfirmation(ctx, solana.Signature{})
	assert.ErrorIs(t, err, context.Canceled)
}

package txbuild

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChainRPC struct {
	blockhash solana.Hash
	accounts  *rpc.GetMultipleAccountsResult
}

func (f *fakeChainRPC) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{Blockhash: f.blockhash},
	}, nil
}

func (f *fakeChainRPC) GetMultipleAccounts(ctx context.Context, accounts ...solana.PublicKey) (*rpc.GetMultipleAccountsResult, error) {
	return f.accounts, nil
}

func TestBuildMemoWithRequiredCosigner(t *testing.T) {
	chain := &fakeChainRPC{blockhash: testBlockhash()}
	b := NewMemoBuilder(chain)

	unsigned, err := b.BuildMemo(context.Background(), testPayer, testCosigner, true, "hello")
	require.NoError(t, err)

	msg, err := DecodeUnsignedHex(unsigned.PayloadHex)
	require.NoError(t, err)

	// Payer and cosigner are both required signers.
	assert.EqualValues(t, 2, msg.Header.NumRequiredSignatures)
	assert.Equal(t, testPayer, msg.AccountKeys[0])
	assert.Contains(t, msg.AccountKeys, testCosigner)
	require.Len(t, msg.Instructions, 1)
	assert.Equal(t, []byte("hello"), []byte(msg.Instructions[0].Data))
}

func TestBuildMemoWithoutCosigner(t *testing.T) {
	chain := &fakeChainRPC{blockhash: testBlockhash()}
	b := NewMemoBuilder(chain)

	unsigned, err := b.BuildMemo(context.Background(), testPayer, testCosigner, false, "")
	require.NoError(t, err)

	msg, err := DecodeUnsignedHex(unsigned.PayloadHex)
	require.NoError(t, err)

	assert.EqualValues(t, 1, msg.Header.NumRequiredSignatures)
	assert.NotContains(t, msg.AccountKeys, testCosigner)
	// Empty memo text falls back to the default.
	assert.Equal(t, []byte("policy test"), []byte(msg.Instructions[0].Data))
}

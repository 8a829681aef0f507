package txbuild

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"

	"github.com/chainworks/policygate/internal/tokens"
)

// MemoBuilder builds memo transactions for probing the required-memo-signer
// policy.
type MemoBuilder struct {
	rpc ChainRPC
}

// NewMemoBuilder creates a MemoBuilder.
func NewMemoBuilder(chain ChainRPC) *MemoBuilder {
	return &MemoBuilder{rpc: chain}
}

// BuildMemo builds a transaction carrying a single memo instruction, payer as
// fee payer. With requireCosigner true the cosigner key is marked as a
// required signer of the memo instruction, which is what the
// required-memo-signer condition checks for; with it false the memo has no
// extra signer and the condition can never match.
func (b *MemoBuilder) BuildMemo(ctx context.Context, payer, cosigner solana.PublicKey, requireCosigner bool, memoText string) (*Unsigned, error) {
	if memoText == "" {
		memoText = "policy test"
	}

	var metas solana.AccountMetaSlice
	if requireCosigner {
		metas = solana.AccountMetaSlice{
			{PublicKey: cosigner, IsSigner: true, IsWritable: false},
		}
	}
	ix := solana.NewInstruction(tokens.MemoProgramKey, metas, []byte(memoText))

	blockhashRes, err := b.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, errors.Wrap(err, "fetching latest blockhash")
	}
	blockhash := blockhashRes.Value.Blockhash

	payloadHex, err := CompileToUnsignedHex([]solana.Instruction{ix}, payer, blockhash, nil)
	if err != nil {
		return nil, err
	}
	return &Unsigned{PayloadHex: payloadHex, Blockhash: blockhash}, nil
}

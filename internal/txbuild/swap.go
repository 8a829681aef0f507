// Package txbuild composes candidate transactions for co-signing: real swaps
// from aggregator quotes, deliberately-wrong variants for policy probing, and
// memo transactions. Every build fetches its own chain-tip reference; a stale
// one makes the payload unsignable downstream.
package txbuild

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	lookup "github.com/gagliardetto/solana-go/programs/address-lookup-table"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chainworks/policygate/internal/aggregator"
	"github.com/chainworks/policygate/internal/logger"
	"github.com/chainworks/policygate/internal/tokens"
)

// DefaultSlippageBps gives the aggregator enough slack to always find a route.
const DefaultSlippageBps = 300

// ChainRPC is the slice of the RPC client the builders need.
type ChainRPC interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetMultipleAccounts(ctx context.Context, accounts ...solana.PublicKey) (*rpc.GetMultipleAccountsResult, error)
}

// PairMismatchError reports a quote whose input or output identifier differs
// from the requested pair: the aggregator routed through an unexpected asset.
type PairMismatchError struct {
	Field string
	Want  string
	Got   string
}

func (e *PairMismatchError) Error() string {
	return fmt.Sprintf("quote %s mismatch: expected %s, got %s", e.Field, e.Want, e.Got)
}

// Unsigned is a serialized, unsigned payload plus the quote that produced it.
// The quote's amounts let callers cross-check the policy's expected amount
// against what was actually quoted.
type Unsigned struct {
	PayloadHex string
	Quote      *aggregator.Quote
	Blockhash  solana.Hash
}

// SwapBuilder builds unsigned swap transactions from aggregator data.
type SwapBuilder struct {
	agg         *aggregator.Client
	rpc         ChainRPC
	slippageBps int
}

// NewSwapBuilder creates a SwapBuilder.
func NewSwapBuilder(agg *aggregator.Client, chain ChainRPC) *SwapBuilder {
	return &SwapBuilder{agg: agg, rpc: chain, slippageBps: DefaultSlippageBps}
}

// BuildSwap builds the intended SOL to USDC swap for the given amount.
func (b *SwapBuilder) BuildSwap(ctx context.Context, payer solana.PublicKey, amountLamports string) (*Unsigned, error) {
	return b.buildPair(ctx, payer, tokens.SOLMint, tokens.USDCMint, amountLamports)
}

// BuildWrongTokenSwap builds a SOL to BONK swap: same amount, wrong output
// token. An exact-amount SOL/USDC policy routed through the aggregator's own
// program will still see a matching in_amount, so this probes token-aware
// conditions specifically.
func (b *SwapBuilder) BuildWrongTokenSwap(ctx context.Context, payer solana.PublicKey, amountLamports string) (*Unsigned, error) {
	return b.buildPair(ctx, payer, tokens.SOLMint, tokens.BONKMint, amountLamports)
}

// BuildWrongAmountSwap builds the intended pair at twice the approved amount.
func (b *SwapBuilder) BuildWrongAmountSwap(ctx context.Context, payer solana.PublicKey, approvedAmountLamports string) (*Unsigned, error) {
	n, err := strconv.ParseUint(approvedAmountLamports, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing amount %q", approvedAmountLamports)
	}
	wrong := strconv.FormatUint(n*2, 10)
	return b.buildPair(ctx, payer, tokens.SOLMint, tokens.USDCMint, wrong)
}

func (b *SwapBuilder) buildPair(ctx context.Context, payer solana.PublicKey, inputMint, outputMint, amountLamports string) (*Unsigned, error) {
	quote, err := b.agg.GetQuote(ctx, inputMint, outputMint, amountLamports, b.slippageBps)
	if err != nil {
		return nil, err
	}
	if quote.InputMint != inputMint {
		return nil, &PairMismatchError{Field: "input mint", Want: inputMint, Got: quote.InputMint}
	}
	if quote.OutputMint != outputMint {
		return nil, &PairMismatchError{Field: "output mint", Want: outputMint, Got: quote.OutputMint}
	}
	logger.Debug("quote received",
		zap.String("inAmount", quote.InAmount),
		zap.String("outAmount", quote.OutAmount))

	ixSet, err := b.agg.GetSwapInstructions(ctx, quote, payer.String())
	if err != nil {
		return nil, err
	}

	instructions, err := collectInstructions(ixSet)
	if err != nil {
		return nil, err
	}

	// The chain-tip reference must be the freshest available: fetched here,
	// per build, never reused from an earlier step.
	blockhashRes, err := b.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, errors.Wrap(err, "fetching latest blockhash")
	}
	blockhash := blockhashRes.Value.Blockhash

	tables, err := b.resolveLookupTables(ctx, ixSet.AddressLookupTableAddresses)
	if err != nil {
		return nil, err
	}

	payloadHex, err := CompileToUnsignedHex(instructions, payer, blockhash, tables)
	if err != nil {
		return nil, err
	}

	return &Unsigned{PayloadHex: payloadHex, Quote: quote, Blockhash: blockhash}, nil
}

// collectInstructions concatenates the bundle in execution order: compute
// budget, setup, swap, optional cleanup.
func collectInstructions(set *aggregator.InstructionSet) ([]solana.Instruction, error) {
	var out []solana.Instruction
	for _, ix := range set.ComputeBudgetInstructions {
		converted, err := toInstruction(ix)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	for _, ix := range set.SetupInstructions {
		converted, err := toInstruction(ix)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	converted, err := toInstruction(set.SwapInstruction)
	if err != nil {
		return nil, err
	}
	out = append(out, converted)
	if set.CleanupInstruction != nil {
		converted, err := toInstruction(*set.CleanupInstruction)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

func toInstruction(ix aggregator.Instruction) (solana.Instruction, error) {
	program, err := solana.PublicKeyFromBase58(ix.ProgramID)
	if err != nil {
		return nil, errors.Wrapf(err, "instruction program id %q", ix.ProgramID)
	}
	metas := make(solana.AccountMetaSlice, 0, len(ix.Accounts))
	for _, acc := range ix.Accounts {
		key, err := solana.PublicKeyFromBase58(acc.Pubkey)
		if err != nil {
			return nil, errors.Wrapf(err, "instruction account %q", acc.Pubkey)
		}
		metas = append(metas, &solana.AccountMeta{
			PublicKey:  key,
			IsSigner:   acc.IsSigner,
			IsWritable: acc.IsWritable,
		})
	}
	data, err := base64.StdEncoding.DecodeString(ix.Data)
	if err != nil {
		return nil, errors.Wrap(err, "decoding instruction data")
	}
	return solana.NewInstruction(program, metas, data), nil
}

// resolveLookupTables fetches the on-chain state of the referenced address
// lookup tables.
func (b *SwapBuilder) resolveLookupTables(ctx context.Context, addresses []string) (map[solana.PublicKey]solana.PublicKeySlice, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	keys := make([]solana.PublicKey, 0, len(addresses))
	for _, addr := range addresses {
		key, err := solana.PublicKeyFromBase58(addr)
		if err != nil {
			return nil, errors.Wrapf(err, "lookup table address %q", addr)
		}
		keys = append(keys, key)
	}

	result, err := b.rpc.GetMultipleAccounts(ctx, keys...)
	if err != nil {
		return nil, errors.Wrap(err, "fetching lookup table accounts")
	}

	tables := make(map[solana.PublicKey]solana.PublicKeySlice, len(keys))
	for i, account := range result.Value {
		if account == nil {
			logger.Warn("lookup table account not found", zap.String("address", keys[i].String()))
			continue
		}
		state, err := lookup.DecodeAddressLookupTableState(account.Data.GetBinary())
		if err != nil {
			return nil, errors.Wrapf(err, "decoding lookup table %s", keys[i])
		}
		tables[keys[i]] = state.Addresses
	}
	return tables, nil
}

// EncodePayload hex-encodes a serialized message; the signing service expects
// hex for unsigned payloads and returns hex for signed ones.
func EncodePayload(message []byte) string {
	return hex.EncodeToString(message)
}

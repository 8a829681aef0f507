package tokens

import "github.com/gagliardetto/solana-go"

// Solana mint addresses used by the swap flows
const (
	// Native wrapped SOL
	SOLMint = "So11111111111111111111111111111111111111112"

	// USDC on Solana
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

	// BONK on Solana, used as the decoy output for the wrong-token scenario
	BONKMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
)

// Program addresses referenced by policy conditions
const (
	// Jupiter Aggregator v6
	JupiterProgramID = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"

	// ChainWorks swap program
	ChainworksProgramID = "ChainWorksznk6gZyzGHUAxVUNuc79wznbf3DGnVxgyh"

	// Memo program
	MemoProgramID = "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"
)

var (
	SOLMintKey           = solana.MustPublicKeyFromBase58(SOLMint)
	USDCMintKey          = solana.MustPublicKeyFromBase58(USDCMint)
	BONKMintKey          = solana.MustPublicKeyFromBase58(BONKMint)
	JupiterProgramKey    = solana.MustPublicKeyFromBase58(JupiterProgramID)
	ChainworksProgramKey = solana.MustPublicKeyFromBase58(ChainworksProgramID)
	MemoProgramKey       = solana.MustPublicKeyFromBase58(MemoProgramID)
)

package config

import (
	"fmt"
	"os"
	"time"
)

const (
	defaultSignerAPIURL     = "https://api.turnkey.com"
	defaultAggregatorAPIURL = "https://lite-api.jup.ag"
	defaultRPCURL           = "https://api.mainnet-beta.solana.com"
	defaultStepDelay        = 5 * time.Second
	defaultCountdown        = 10 * time.Second
	defaultSwapLamports     = "1000000" // 0.001 SOL
)

// Config holds everything the probe needs to talk to its three external
// collaborators. Credentials are read from the environment per run and are
// never persisted anywhere by this process.
type Config struct {
	// Custodial signing service, parent-organization credentials. These
	// provision and install; they never stamp co-sign requests.
	SignerAPIURL        string
	SignerAPIPublicKey  string
	SignerAPIPrivateKey string
	OrganizationID      string

	// End-user wallet public key (ed25519). The sub-organization's root user
	// is keyed to this, so the API keys below are never root inside it.
	WalletPublicKey string

	// Delegated-signer API credentials (P-256). Co-sign requests are stamped
	// with these; they default to the parent credentials, which matches a
	// deployment where the parent key doubles as the delegated user's key.
	DelegatedAPIPublicKey  string
	DelegatedAPIPrivateKey string

	// Wallet that must co-sign memo transactions. Empty skips the memo
	// scenarios.
	MemoCosigner string

	// DEX aggregator
	AggregatorAPIURL string

	// Chain RPC
	RPCURL string

	// Inter-scenario delay for verification runs (aggregator rate limits)
	StepDelay time.Duration

	// Swap probed and executed by the verification run, in lamports
	SwapAmountLamports string

	// Submit the accepted swap on-chain after a clean run, after Countdown
	SubmitOnPass bool
	Countdown    time.Duration

	// HTTP control server
	Port string
}

// Load reads the configuration from the environment and validates the
// required fields. Missing credentials fail fast before any network call.
func Load() (*Config, error) {
	cfg := &Config{
		SignerAPIURL:        getEnv("SIGNER_API_URL", defaultSignerAPIURL),
		SignerAPIPublicKey:  os.Getenv("SIGNER_API_PUBLIC_KEY"),
		SignerAPIPrivateKey: os.Getenv("SIGNER_API_PRIVATE_KEY"),
		OrganizationID:      os.Getenv("SIGNER_ORGANIZATION_ID"),
		WalletPublicKey:     os.Getenv("WALLET_PUBLIC_KEY"),
		MemoCosigner:        os.Getenv("MEMO_COSIGNER_ADDRESS"),
		AggregatorAPIURL:    getEnv("AGGREGATOR_API_URL", defaultAggregatorAPIURL),
		RPCURL:              getEnv("SOLANA_RPC_URL", defaultRPCURL),
		StepDelay:           defaultStepDelay,
		SwapAmountLamports:  getEnv("SWAP_AMOUNT_LAMPORTS", defaultSwapLamports),
		SubmitOnPass:        os.Getenv("SUBMIT_ON_PASS") == "true",
		Countdown:           defaultCountdown,
		Port:                getEnv("PORT", "8000"),
	}

	if v := os.Getenv("STEP_DELAY_SECONDS"); v != "" {
		d, err := time.ParseDuration(v + "s")
		if err != nil {
			return nil, fmt.Errorf("invalid STEP_DELAY_SECONDS %q: %w", v, err)
		}
		cfg.StepDelay = d
	}
	if v := os.Getenv("COUNTDOWN_SECONDS"); v != "" {
		d, err := time.ParseDuration(v + "s")
		if err != nil {
			return nil, fmt.Errorf("invalid COUNTDOWN_SECONDS %q: %w", v, err)
		}
		cfg.Countdown = d
	}

	if cfg.SignerAPIPublicKey == "" {
		return nil, fmt.Errorf("SIGNER_API_PUBLIC_KEY environment variable is required")
	}
	if cfg.SignerAPIPrivateKey == "" {
		return nil, fmt.Errorf("SIGNER_API_PRIVATE_KEY environment variable is required")
	}
	if cfg.OrganizationID == "" {
		return nil, fmt.Errorf("SIGNER_ORGANIZATION_ID environment variable is required")
	}
	if cfg.WalletPublicKey == "" {
		return nil, fmt.Errorf("WALLET_PUBLIC_KEY environment variable is required")
	}
	if cfg.WalletPublicKey == cfg.SignerAPIPublicKey {
		return nil, fmt.Errorf("WALLET_PUBLIC_KEY must differ from SIGNER_API_PUBLIC_KEY: a wallet key that is also an API key would sit in the root quorum and bypass policies")
	}

	cfg.DelegatedAPIPublicKey = getEnv("DELEGATED_API_PUBLIC_KEY", cfg.SignerAPIPublicKey)
	cfg.DelegatedAPIPrivateKey = getEnv("DELEGATED_API_PRIVATE_KEY", cfg.SignerAPIPrivateKey)

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/chainworks/policygate/internal/aggregator"
	"github.com/chainworks/policygate/internal/chain"
	"github.com/chainworks/policygate/internal/config"
	"github.com/chainworks/policygate/internal/logger"
	"github.com/chainworks/policygate/internal/probe"
	"github.com/chainworks/policygate/internal/scheduler"
	"github.com/chainworks/policygate/internal/signer"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	// Initialize logger first
	logger.InitLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	signerClient, err := signer.New(signer.Config{
		BaseURL:        cfg.SignerAPIURL,
		APIPublicKey:   cfg.SignerAPIPublicKey,
		APIPrivateKey:  cfg.SignerAPIPrivateKey,
		OrganizationID: cfg.OrganizationID,
	})
	if err != nil {
		logger.Fatal("Unable to create signer client", zap.Error(err))
	}

	// Co-sign requests are stamped with the delegated user's key, never the
	// parent key used for provisioning above.
	delegatedClient, err := signer.New(signer.Config{
		BaseURL:        cfg.SignerAPIURL,
		APIPublicKey:   cfg.DelegatedAPIPublicKey,
		APIPrivateKey:  cfg.DelegatedAPIPrivateKey,
		OrganizationID: cfg.OrganizationID,
	})
	if err != nil {
		logger.Fatal("Unable to create delegated signer client", zap.Error(err))
	}

	aggClient := aggregator.New(cfg.AggregatorAPIURL)
	rpcClient := rpc.New(cfg.RPCURL)

	ctx := context.Background()
	p := probe.New(cfg, signerClient, delegatedClient, aggClient, rpcClient)

	report, err := p.Execute(ctx, nil)
	if err != nil {
		logger.Fatal("Verification run aborted", zap.Error(err))
	}

	for _, res := range report.Results {
		logger.Info("scenario result",
			zap.String("scenario", res.Scenario),
			zap.String("expected", string(res.Expected)),
			zap.String("actual", string(res.Actual)),
			zap.Bool("passed", res.Passed),
			zap.Bool("inconclusive", res.Inconclusive),
			zap.String("detail", res.Detail))
	}

	if !report.AllPassed() {
		logger.Error("Verification run had failures",
			zap.Int("passed", report.Passed),
			zap.Int("failed", report.Failed),
			zap.Int("inconclusive", report.Inconclusive))
		os.Exit(1)
	}

	logger.Info("All scenarios passed", zap.Int("passed", report.Passed))

	if cfg.SubmitOnPass {
		signedHex, ok := probe.AcceptedPayload(report)
		if !ok {
			logger.Fatal("No signed payload retained from the accept scenario")
		}
		submitSigned(ctx, cfg, rpcClient, signedHex)
	}
}

// submitSigned sends the co-signed swap on-chain after a cancellable
// countdown. Ctrl-C during the countdown abandons the submission.
func submitSigned(ctx context.Context, cfg *config.Config, rpcClient *rpc.Client, signedHex string) {
	submitter := chain.NewSubmitter(rpcClient)

	handle := scheduler.Start(ctx, cfg.Countdown,
		func(remaining time.Duration) {
			logger.Info("Submitting swap", zap.Duration("in", remaining))
		},
		func(ctx context.Context) error {
			sig, err := submitter.Submit(ctx, signedHex)
			if err != nil {
				return err
			}
			logger.Info("Swap submitted", zap.String("signature", sig.String()))
			return submitter.AwaitConfirmation(ctx, sig)
		})

	if err := <-handle.Done(); err != nil {
		logger.Fatal("Swap submission failed", zap.Error(err))
	}
	logger.Info("Swap confirmed on-chain")
}

package main

import (
	"log"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/chainworks/policygate/internal/aggregator"
	"github.com/chainworks/policygate/internal/config"
	"github.com/chainworks/policygate/internal/handlers"
	"github.com/chainworks/policygate/internal/logger"
	"github.com/chainworks/policygate/internal/probe"
	"github.com/chainworks/policygate/internal/server"
	"github.com/chainworks/policygate/internal/signer"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		// It's often okay if the .env file is missing, especially in production
		// where variables might be set directly in the environment.
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

	p := probe.New(cfg, signerClient, delegatedClient, aggClient, rpcClient)
	common := handlers.NewCommonServices(handlers.NewRunStore(), signerClient)

	r := gin.Default()
	server.InitializeRoutes(r, common, p.Execute)

	logger.Info("Control server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Error starting server", zap.Error(err))
	}
}

// Package provision looks up or creates the per-wallet sub-organization and
// its delegated-signer identity.
package provision

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chainworks/policygate/internal/logger"
	"github.com/chainworks/policygate/internal/signer"
)

// DelegatedUserName is the fixed name of the delegated-signer identity inside
// a sub-organization. It is created once per scope and never rotated; being
// outside the root quorum, it can only act through installed policies.
const DelegatedUserName = "Delegated Signer"

// API is the slice of the signing-service client provisioning needs.
type API interface {
	GetSubOrgByPublicKey(ctx context.Context, publicKey string) (string, error)
	CreateSubOrg(ctx context.Context, publicKey, curveType string) (string, error)
	ListWalletAccounts(ctx context.Context, organizationID string) ([]signer.WalletAccount, error)
	ListUsers(ctx context.Context, organizationID string) ([]signer.User, error)
	CreateDelegatedUser(ctx context.Context, organizationID, userName, apiPublicKey string) (string, error)
}

// Scope is a provisioned sub-organization ready for policy work.
type Scope struct {
	OrganizationID  string
	SolanaAddress   string
	DelegatedUserID string
	Created         bool
}

// EnsureScope looks up the sub-organization keyed to the wallet's public key,
// creating it if absent, and resolves its Solana signing address and
// delegated-user id.
func EnsureScope(ctx context.Context, api API, walletPublicKey, delegateAPIPublicKey string) (*Scope, error) {
	if walletPublicKey == "" {
		return nil, errors.New("wallet public key is required")
	}

	scope := &Scope{}
	orgID, err := api.GetSubOrgByPublicKey(ctx, walletPublicKey)
	if err != nil {
		return nil, err
	}
	if orgID == "" {
		logger.Info("no sub-organization for wallet, creating one",
			zap.String("publicKey", walletPublicKey))
		orgID, err = api.CreateSubOrg(ctx, walletPublicKey, signer.CurveED25519)
		if err != nil {
			return nil, err
		}
		scope.Created = true
	}
	scope.OrganizationID = orgID

	accounts, err := api.ListWalletAccounts(ctx, orgID)
	if err != nil {
		return nil, err
	}
	for _, acc := range accounts {
		if acc.AddressFormat == "ADDRESS_FORMAT_SOLANA" {
			scope.SolanaAddress = acc.Address
			break
		}
	}
	if scope.SolanaAddress == "" {
		return nil, fmt.Errorf("sub-organization %s has no Solana wallet account", orgID)
	}

	userID, err := ensureDelegatedUser(ctx, api, orgID, delegateAPIPublicKey)
	if err != nil {
		return nil, err
	}
	scope.DelegatedUserID = userID

	logger.Info("scope ready",
		zap.String("organizationId", scope.OrganizationID),
		zap.String("solanaAddress", scope.SolanaAddress),
		zap.String("delegatedUserId", scope.DelegatedUserID),
		zap.Bool("created", scope.Created))
	return scope, nil
}

func ensureDelegatedUser(ctx context.Context, api API, organizationID, apiPublicKey string) (string, error) {
	users, err := api.ListUsers(ctx, organizationID)
	if err != nil {
		return "", err
	}
	for _, u := range users {
		if u.UserName == DelegatedUserName {
			return u.UserID, nil
		}
	}

	logger.Info("creating delegated user", zap.String("organizationId", organizationID))
	return api.CreateDelegatedUser(ctx, organizationID, DelegatedUserName, apiPublicKey)
}

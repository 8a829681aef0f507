package signer

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// API key curves accepted for sub-organization root users.
const (
	CurveED25519   = "API_KEY_CURVE_ED25519"
	CurveSECP256K1 = "API_KEY_CURVE_SECP256K1"
)

// WalletAccount is an address under a sub-organization's HD wallet.
type WalletAccount struct {
	Address       string `json:"address"`
	AddressFormat string `json:"addressFormat"`
}

// User is a principal inside a sub-organization.
type User struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type apiKeyParams struct {
	APIKeyName string `json:"apiKeyName"`
	PublicKey  string `json:"publicKey"`
	CurveType  string `json:"curveType"`
}

type rootUserParams struct {
	UserName       string        `json:"userName"`
	UserEmail      string        `json:"userEmail"`
	APIKeys        []apiKeyParams `json:"apiKeys"`
	Authenticators []interface{} `json:"authenticators"`
	OauthProviders []interface{} `json:"oauthProviders"`
}

type walletAccountParams struct {
	Curve         string `json:"curve"`
	PathFormat    string `json:"pathFormat"`
	Path          string `json:"path"`
	AddressFormat string `json:"addressFormat"`
}

type walletParams struct {
	WalletName     string                `json:"walletName"`
	Accounts       []walletAccountParams `json:"accounts"`
	MnemonicLength int                   `json:"mnemonicLength"`
}

type createSubOrgParams struct {
	SubOrganizationName string           `json:"subOrganizationName"`
	RootUsers           []rootUserParams `json:"rootUsers"`
	RootQuorumThreshold int              `json:"rootQuorumThreshold"`
	Wallet              walletParams     `json:"wallet"`
}

// GetSubOrgByPublicKey looks up the sub-organization keyed to a wallet's
// public key. Returns "" when none exists.
func (c *Client) GetSubOrgByPublicKey(ctx context.Context, publicKey string) (string, error) {
	var out struct {
		OrganizationIDs []string `json:"organizationIds"`
	}
	err := c.query(ctx, "/public/v1/query/list_suborgs", map[string]string{
		"organizationId": c.organizationID,
		"filterType":     "PUBLIC_KEY",
		"filterValue":    publicKey,
	}, &out)
	if err != nil {
		return "", errors.Wrap(err, "listing sub-organizations")
	}
	if len(out.OrganizationIDs) == 0 {
		return "", nil
	}
	return out.OrganizationIDs[0], nil
}

// CreateSubOrg provisions a sub-organization for the wallet: a single root
// user authenticated by the wallet's own key (threshold 1) and an HD wallet
// with a Solana and an Ethereum account. Returns the new scope id.
func (c *Client) CreateSubOrg(ctx context.Context, publicKey, curveType string) (string, error) {
	name := fmt.Sprintf("Demo - %s", publicKey)
	params := createSubOrgParams{
		SubOrganizationName: name,
		RootUsers: []rootUserParams{{
			UserName:  publicKey,
			UserEmail: "wallet@domain.com",
			APIKeys: []apiKeyParams{{
				APIKeyName: name,
				PublicKey:  publicKey,
				CurveType:  curveType,
			}},
			Authenticators: []interface{}{},
			OauthProviders: []interface{}{},
		}},
		RootQuorumThreshold: 1,
		Wallet: walletParams{
			WalletName: "Primary Wallet",
			Accounts: []walletAccountParams{
				{Curve: "CURVE_ED25519", PathFormat: "PATH_FORMAT_BIP32", Path: "m/44'/501'/0'/0'", AddressFormat: "ADDRESS_FORMAT_SOLANA"},
				{Curve: "CURVE_SECP256K1", PathFormat: "PATH_FORMAT_BIP32", Path: "m/44'/60'/0'/0/0", AddressFormat: "ADDRESS_FORMAT_ETHEREUM"},
			},
			MnemonicLength: 24,
		},
	}

	result, err := c.submit(ctx, "/public/v1/submit/create_sub_organization",
		"ACTIVITY_TYPE_CREATE_SUB_ORGANIZATION_V7", c.organizationID, params)
	if err != nil {
		return "", errors.Wrap(err, "creating sub-organization")
	}
	if result.CreateSubOrganizationResultV7 == nil || result.CreateSubOrganizationResultV7.SubOrganizationID == "" {
		return "", errors.New("create sub-organization: empty id in response")
	}
	return result.CreateSubOrganizationResultV7.SubOrganizationID, nil
}

// ListWalletAccounts lists the wallet addresses of a sub-organization.
func (c *Client) ListWalletAccounts(ctx context.Context, organizationID string) ([]WalletAccount, error) {
	var out struct {
		Accounts []WalletAccount `json:"accounts"`
	}
	err := c.query(ctx, "/public/v1/query/list_wallet_accounts",
		map[string]string{"organizationId": organizationID}, &out)
	if err != nil {
		return nil, errors.Wrap(err, "listing wallet accounts")
	}
	return out.Accounts, nil
}

// ListUsers lists the users of a sub-organization.
func (c *Client) ListUsers(ctx context.Context, organizationID string) ([]User, error) {
	var out struct {
		Users []User `json:"users"`
	}
	err := c.query(ctx, "/public/v1/query/list_users",
		map[string]string{"organizationId": organizationID}, &out)
	if err != nil {
		return nil, errors.Wrap(err, "listing users")
	}
	return out.Users, nil
}

// CreateDelegatedUser creates the delegated-signer identity inside the
// sub-organization. The user is deliberately not added to the root quorum, so
// it can only ever act through an installed policy naming it in a consensus
// clause.
func (c *Client) CreateDelegatedUser(ctx context.Context, organizationID, userName, apiPublicKey string) (string, error) {
	params := map[string]interface{}{
		"users": []map[string]interface{}{{
			"userName": userName,
			"apiKeys": []apiKeyParams{{
				APIKeyName: fmt.Sprintf("Delegated - %s", userName),
				PublicKey:  apiPublicKey,
				CurveType:  "API_KEY_CURVE_P256",
			}},
			"authenticators": []interface{}{},
			"oauthProviders": []interface{}{},
		}},
	}

	result, err := c.submit(ctx, "/public/v1/submit/create_users",
		"ACTIVITY_TYPE_CREATE_USERS_V3", organizationID, params)
	if err != nil {
		return "", errors.Wrap(err, "creating delegated user")
	}
	if result.CreateUsersResult == nil || len(result.CreateUsersResult.UserIDs) == 0 {
		return "", errors.New("create delegated user: empty user ids in response")
	}
	return result.CreateUsersResult.UserIDs[0], nil
}

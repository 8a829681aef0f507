// Package signer is the client for the custodial signing service: policy and
// smart-contract-interface CRUD, sub-organization provisioning and the
// sign-transaction operation, authenticated by a P-256 request stamp.
package signer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"

	httpclient "github.com/chainworks/policygate/internal/client/http"
)

// Config configures a Client.
type Config struct {
	BaseURL       string
	APIPublicKey  string
	APIPrivateKey string
	// OrganizationID is the parent organization; per-call scope ids
	// (sub-organizations) are passed explicitly on every operation.
	OrganizationID string
}

// Client talks to the signing service. It is constructed explicitly and
// passed to whoever needs it; there is no package-level instance.
type Client struct {
	http           *httpclient.HTTPClient
	stamper        *Stamper
	organizationID string
	now            func() time.Time
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("signer base URL is required")
	}
	if cfg.OrganizationID == "" {
		return nil, errors.New("signer organization id is required")
	}
	stamper, err := NewStamper(cfg.APIPublicKey, cfg.APIPrivateKey)
	if err != nil {
		return nil, err
	}
	return &Client{
		http: httpclient.NewHTTPClient(
			httpclient.WithBaseURL(cfg.BaseURL),
			httpclient.WithTimeout(60*time.Second),
		),
		stamper:        stamper,
		organizationID: cfg.OrganizationID,
		now:            time.Now,
	}, nil
}

// OrganizationID returns the parent organization id.
func (c *Client) OrganizationID() string {
	return c.organizationID
}

func (c *Client) timestampMs() string {
	return fmt.Sprintf("%d", c.now().UnixMilli())
}

// activityRequest is the submit envelope. Parameters is kept as a typed value
// so the whole request marshals in one pass; the resulting bytes are stamped
// and sent unmodified.
type activityRequest struct {
	Type           string      `json:"type"`
	TimestampMs    string      `json:"timestampMs"`
	OrganizationID string      `json:"organizationId"`
	Parameters     interface{} `json:"parameters"`
}

type activityResponse struct {
	Activity struct {
		ID     string         `json:"id"`
		Status string         `json:"status"`
		Result activityResult `json:"result"`
	} `json:"activity"`
}

type activityResult struct {
	SignTransactionResult *struct {
		SignedTransaction string `json:"signedTransaction"`
	} `json:"signTransactionResult,omitempty"`
	CreatePolicyResult *struct {
		PolicyID string `json:"policyId"`
	} `json:"createPolicyResult,omitempty"`
	DeletePolicyResult *struct {
		PolicyID string `json:"policyId"`
	} `json:"deletePolicyResult,omitempty"`
	CreateSmartContractInterfaceResult *struct {
		SmartContractInterfaceID string `json:"smartContractInterfaceId"`
	} `json:"createSmartContractInterfaceResult,omitempty"`
	DeleteSmartContractInterfaceResult *struct {
		SmartContractInterfaceID string `json:"smartContractInterfaceId"`
	} `json:"deleteSmartContractInterfaceResult,omitempty"`
	CreateSubOrganizationResultV7 *struct {
		SubOrganizationID string `json:"subOrganizationId"`
	} `json:"createSubOrganizationResultV7,omitempty"`
	CreateUsersResult *struct {
		UserIDs []string `json:"userIds"`
	} `json:"createUsersResult,omitempty"`
}

// submit posts a stamped activity and decodes the response envelope.
func (c *Client) submit(ctx context.Context, path, activityType, organizationID string, params interface{}) (*activityResult, error) {
	body := activityRequest{
		Type:           activityType,
		TimestampMs:    c.timestampMs(),
		OrganizationID: organizationID,
		Parameters:     params,
	}

	// Serialize once; the stamp covers these exact bytes.
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling activity")
	}
	stamp, err := c.stamper.Stamp(raw)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.PostRaw(ctx, path, raw, httpclient.WithHeader(StampHeader, stamp))
	if err != nil {
		return nil, err
	}

	var out activityResponse
	if err := c.http.ProcessJSONResponse(resp, &out); err != nil {
		return nil, errors.Wrap(err, "decoding activity response")
	}
	return &out.Activity.Result, nil
}

// query posts a stamped read-only request and decodes into out.
func (c *Client) query(ctx context.Context, path string, params interface{}, out interface{}) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return errors.Wrap(err, "marshaling query")
	}
	stamp, err := c.stamper.Stamp(raw)
	if err != nil {
		return err
	}

	resp, err := c.http.PostRaw(ctx, path, raw, httpclient.WithHeader(StampHeader, stamp))
	if err != nil {
		return err
	}
	return c.http.ProcessJSONResponse(resp, out)
}

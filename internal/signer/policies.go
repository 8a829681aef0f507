package signer

import (
	"context"

	"github.com/pkg/errors"
)

// Policy effects
const (
	EffectAllow = "EFFECT_ALLOW"
	EffectDeny  = "EFFECT_DENY"
)

// Policy is a named (effect, consensus, condition) triple evaluated by the
// service against proposed signing activities.
type Policy struct {
	PolicyID   string `json:"policyId"`
	PolicyName string `json:"policyName"`
	Effect     string `json:"effect"`
	Consensus  string `json:"consensus"`
	Condition  string `json:"condition"`
	Notes      string `json:"notes"`
}

// CreatePolicyParams are the fields of a new policy.
type CreatePolicyParams struct {
	PolicyName string `json:"policyName"`
	Effect     string `json:"effect"`
	Consensus  string `json:"consensus,omitempty"`
	Condition  string `json:"condition,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// CreatePolicy creates a policy in the given scope and returns its id.
func (c *Client) CreatePolicy(ctx context.Context, organizationID string, params CreatePolicyParams) (string, error) {
	result, err := c.submit(ctx, "/public/v1/submit/create_policy",
		"ACTIVITY_TYPE_CREATE_POLICY_V3", organizationID, params)
	if err != nil {
		return "", errors.Wrap(err, "creating policy")
	}
	if result.CreatePolicyResult == nil || result.CreatePolicyResult.PolicyID == "" {
		return "", errors.New("create policy: empty policy id in response")
	}
	return result.CreatePolicyResult.PolicyID, nil
}

// GetPolicies lists all policies in the given scope.
func (c *Client) GetPolicies(ctx context.Context, organizationID string) ([]Policy, error) {
	var out struct {
		Policies []Policy `json:"policies"`
	}
	err := c.query(ctx, "/public/v1/query/list_policies",
		map[string]string{"organizationId": organizationID}, &out)
	if err != nil {
		return nil, errors.Wrap(err, "listing policies")
	}
	return out.Policies, nil
}

// DeletePolicy deletes a policy by id.
func (c *Client) DeletePolicy(ctx context.Context, organizationID, policyID string) error {
	params := map[string]string{"policyId": policyID}
	_, err := c.submit(ctx, "/public/v1/submit/delete_policy",
		"ACTIVITY_TYPE_DELETE_POLICY", organizationID, params)
	return errors.Wrapf(err, "deleting policy %s", policyID)
}

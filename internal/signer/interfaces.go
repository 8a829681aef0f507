package signer

import (
	"context"

	"github.com/pkg/errors"
)

// InterfaceTypeSolana is the schema type for Solana program interfaces.
const InterfaceTypeSolana = "SMART_CONTRACT_INTERFACE_TYPE_SOLANA"

// SmartContractInterface is a registered schema document that lets the
// service's policy evaluator parse a program's instruction data into named
// fields.
type SmartContractInterface struct {
	SmartContractInterfaceID string `json:"smartContractInterfaceId"`
	SmartContractAddress     string `json:"smartContractAddress"`
	SmartContractInterface   string `json:"smartContractInterface"`
	Type                     string `json:"type"`
	Label                    string `json:"label"`
	Notes                    string `json:"notes"`
}

// CreateSmartContractInterfaceParams are the fields of a new interface.
type CreateSmartContractInterfaceParams struct {
	SmartContractAddress   string `json:"smartContractAddress"`
	SmartContractInterface string `json:"smartContractInterface"`
	Type                   string `json:"type"`
	Label                  string `json:"label"`
	Notes                  string `json:"notes,omitempty"`
}

// CreateSmartContractInterface registers a program interface in the scope and
// returns its id.
func (c *Client) CreateSmartContractInterface(ctx context.Context, organizationID string, params CreateSmartContractInterfaceParams) (string, error) {
	result, err := c.submit(ctx, "/public/v1/submit/create_smart_contract_interface",
		"ACTIVITY_TYPE_CREATE_SMART_CONTRACT_INTERFACE", organizationID, params)
	if err != nil {
		return "", errors.Wrap(err, "creating smart contract interface")
	}
	if result.CreateSmartContractInterfaceResult == nil || result.CreateSmartContractInterfaceResult.SmartContractInterfaceID == "" {
		return "", errors.New("create smart contract interface: empty id in response")
	}
	return result.CreateSmartContractInterfaceResult.SmartContractInterfaceID, nil
}

// GetSmartContractInterfaces lists the registered interfaces in the scope.
func (c *Client) GetSmartContractInterfaces(ctx context.Context, organizationID string) ([]SmartContractInterface, error) {
	var out struct {
		SmartContractInterfaces []SmartContractInterface `json:"smartContractInterfaces"`
	}
	err := c.query(ctx, "/public/v1/query/list_smart_contract_interfaces",
		map[string]string{"organizationId": organizationID}, &out)
	if err != nil {
		return nil, errors.Wrap(err, "listing smart contract interfaces")
	}
	return out.SmartContractInterfaces, nil
}

// DeleteSmartContractInterface deletes a registered interface by id.
func (c *Client) DeleteSmartContractInterface(ctx context.Context, organizationID, interfaceID string) error {
	params := map[string]string{"smartContractInterfaceId": interfaceID}
	_, err := c.submit(ctx, "/public/v1/submit/delete_smart_contract_interface",
		"ACTIVITY_TYPE_DELETE_SMART_CONTRACT_INTERFACE", organizationID, params)
	return errors.Wrapf(err, "deleting smart contract interface %s", interfaceID)
}

// Package registrar manages the smart-contract interfaces a scope has
// registered with the signing service. A program's interface must be in place
// before a policy condition referencing its parsed fields can ever match;
// installing such a policy first is not an error, it just never authorizes
// anything.
package registrar

import (
	"context"
	_ "embed"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chainworks/policygate/internal/logger"
	"github.com/chainworks/policygate/internal/signer"
	"github.com/chainworks/policygate/internal/tokens"
)

//go:embed idl/jupiter_swap.json
var jupiterIDL []byte

//go:embed idl/chainworks_swap.json
var chainworksIDL []byte

// InterfaceAPI is the slice of the signing-service client the registrar needs.
type InterfaceAPI interface {
	GetSmartContractInterfaces(ctx context.Context, organizationID string) ([]signer.SmartContractInterface, error)
	DeleteSmartContractInterface(ctx context.Context, organizationID, interfaceID string) error
	CreateSmartContractInterface(ctx context.Context, organizationID string, params signer.CreateSmartContractInterfaceParams) (string, error)
}

// Registration is the outcome of a Setup call.
type Registration struct {
	InterfaceID string
	Label       string
	// Confirmed is false when the post-create listing did not show the new
	// interface. Callers that ignore it proceed at their own risk: an
	// unconfirmed interface means amount conditions will silently never match.
	Confirmed bool
}

// Registrar installs exactly one program interface per scope, mirroring the
// policy lifecycle: drain everything, create one, confirm.
type Registrar struct {
	api InterfaceAPI
}

// New creates a Registrar.
func New(api InterfaceAPI) *Registrar {
	return &Registrar{api: api}
}

// Setup removes every registered interface in the scope, registers the given
// schema for programAddress and confirms it by re-listing. Not atomic: a
// failure between the drain and the create leaves the scope with no
// interfaces, which fails closed.
func (r *Registrar) Setup(ctx context.Context, organizationID, programAddress string, schemaJSON []byte, label string) (*Registration, error) {
	if programAddress == "" {
		return nil, errors.New("setup interface: program address is required")
	}
	if len(schemaJSON) == 0 {
		return nil, errors.New("setup interface: schema document is required")
	}

	existing, err := r.api.GetSmartContractInterfaces(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	for _, iface := range existing {
		logger.Info("removing smart contract interface",
			zap.String("interfaceId", iface.SmartContractInterfaceID),
			zap.String("label", iface.Label))
		if err := r.api.DeleteSmartContractInterface(ctx, organizationID, iface.SmartContractInterfaceID); err != nil {
			return nil, err
		}
	}

	interfaceID, err := r.api.CreateSmartContractInterface(ctx, organizationID, signer.CreateSmartContractInterfaceParams{
		SmartContractAddress:   programAddress,
		SmartContractInterface: string(schemaJSON),
		Type:                   signer.InterfaceTypeSolana,
		Label:                  label,
		Notes:                  label + " instruction schema for policy validation",
	})
	if err != nil {
		return nil, err
	}

	confirmed, err := r.confirm(ctx, organizationID, label)
	if err != nil {
		return nil, err
	}
	if confirmed {
		logger.Info("smart contract interface confirmed",
			zap.String("interfaceId", interfaceID),
			zap.String("label", label))
	} else {
		logger.Warn("smart contract interface not found after create",
			zap.String("interfaceId", interfaceID),
			zap.String("label", label))
	}

	return &Registration{InterfaceID: interfaceID, Label: label, Confirmed: confirmed}, nil
}

// SetupJupiter registers the aggregator program's swap interface.
func (r *Registrar) SetupJupiter(ctx context.Context, organizationID string) (*Registration, error) {
	return r.Setup(ctx, organizationID, tokens.JupiterProgramID, jupiterIDL, "Jupiter Aggregator")
}

// SetupChainworks registers the ChainWorks swap interface.
func (r *Registrar) SetupChainworks(ctx context.Context, organizationID string) (*Registration, error) {
	return r.Setup(ctx, organizationID, tokens.ChainworksProgramID, chainworksIDL, "ChainWorks Swap")
}

func (r *Registrar) confirm(ctx context.Context, organizationID, label string) (bool, error) {
	interfaces, err := r.api.GetSmartContractInterfaces(ctx, organizationID)
	if err != nil {
		return false, err
	}
	for _, iface := range interfaces {
		if iface.Label == label {
			return true, nil
		}
	}
	return false, nil
}

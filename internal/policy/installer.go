package policy

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chainworks/policygate/internal/logger"
	"github.com/chainworks/policygate/internal/signer"
)

// PolicyAPI is the slice of the signing-service client the installer needs.
type PolicyAPI interface {
	GetPolicies(ctx context.Context, organizationID string) ([]signer.Policy, error)
	DeletePolicy(ctx context.Context, organizationID, policyID string) error
	CreatePolicy(ctx context.Context, organizationID string, params signer.CreatePolicyParams) (string, error)
}

// installPhase tracks the delete-all-then-create lifecycle. The design allows
// at most one active policy set per scenario; the phase guard turns the
// single-actor assumption into an enforced precondition within this process.
type installPhase int

const (
	phaseIdle installPhase = iota
	phaseDraining
	phaseInstalling
)

// InstallParams describe the one policy an Install call leaves in place.
type InstallParams struct {
	// Label prefixes the policy name; a random suffix avoids name collisions.
	// Names are not idempotency keys.
	Label     string
	Condition string
	Consensus string
	Notes     string
}

// Installer replaces the entire policy set of a scope with a single ALLOW
// policy. A crash between the drain and the create leaves the scope with zero
// policies, which fails closed: with no policy present no activity can be
// authorized.
type Installer struct {
	api PolicyAPI

	mu    sync.Mutex
	phase installPhase
}

// NewInstaller creates an Installer on top of the given client.
func NewInstaller(api PolicyAPI) *Installer {
	return &Installer{api: api}
}

// Install drains every existing policy in the scope, then creates the new one
// and returns its id. Errors from the service are propagated without retry.
// Concurrent Install calls on the same Installer are rejected rather than
// interleaved.
func (in *Installer) Install(ctx context.Context, organizationID string, params InstallParams) (string, error) {
	if params.Condition == "" {
		return "", errors.New("install policy: condition is required")
	}
	if params.Consensus == "" {
		return "", errors.New("install policy: consensus is required")
	}

	if err := in.enter(phaseDraining); err != nil {
		return "", err
	}
	defer in.leave()

	existing, err := in.api.GetPolicies(ctx, organizationID)
	if err != nil {
		return "", err
	}
	for _, p := range existing {
		logger.Info("deleting existing policy",
			zap.String("policyId", p.PolicyID),
			zap.String("policyName", p.PolicyName))
		if err := in.api.DeletePolicy(ctx, organizationID, p.PolicyID); err != nil {
			return "", err
		}
	}

	in.advance(phaseInstalling)

	name := fmt.Sprintf("%s %s", params.Label, uuid.NewString())
	policyID, err := in.api.CreatePolicy(ctx, organizationID, signer.CreatePolicyParams{
		PolicyName: name,
		Effect:     signer.EffectAllow,
		Consensus:  params.Consensus,
		Condition:  params.Condition,
		Notes:      params.Notes,
	})
	if err != nil {
		return "", err
	}

	logger.Info("policy installed",
		zap.String("policyId", policyID),
		zap.String("policyName", name))
	return policyID, nil
}

func (in *Installer) enter(p installPhase) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.phase != phaseIdle {
		return errors.New("install policy: another install is in flight")
	}
	in.phase = p
	return nil
}

func (in *Installer) advance(p installPhase) {
	in.mu.Lock()
	in.phase = p
	in.mu.Unlock()
}

func (in *Installer) leave() {
	in.mu.Lock()
	in.phase = phaseIdle
	in.mu.Unlock()
}

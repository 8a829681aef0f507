// Package probe wires the whole verification flow together: provision the
// scope, register the swap interfaces, install the single allow policy, then
// run the accept/reject scenarios against the co-signer. Both cmd/probe and
// the control server drive the same Probe.
package probe

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"github.com/chainworks/policygate/internal/aggregator"
	"github.com/chainworks/policygate/internal/config"
	"github.com/chainworks/policygate/internal/cosign"
	"github.com/chainworks/policygate/internal/policy"
	"github.com/chainworks/policygate/internal/provision"
	"github.com/chainworks/policygate/internal/registrar"
	"github.com/chainworks/policygate/internal/tokens"
	"github.com/chainworks/policygate/internal/txbuild"
	"github.com/chainworks/policygate/internal/verify"
)

// SwapInstructionName is the parsed instruction the allow policy pins. The
// aggregator routes retail-sized swaps through shared accounts.
const SwapInstructionName = "shared_accounts_route"

// SignerAPI is the provisioning side of the signing service: sub-organization
// and user setup, interface registration, policy lifecycle. It is stamped with
// the parent-organization credentials.
type SignerAPI interface {
	provision.API
	registrar.InterfaceAPI
	policy.PolicyAPI
}

// Probe owns the clients and parameters for one verification flow. The
// provisioning client and the co-signing client carry different credentials:
// co-sign requests are stamped with the delegated user's key, which is not in
// the sub-organization's root quorum and so can only act through policies.
type Probe struct {
	cfg       *config.Config
	signer    SignerAPI
	delegated cosign.SignAPI
	agg       *aggregator.Client
	chain     txbuild.ChainRPC
}

// New assembles a Probe from already-constructed clients.
func New(cfg *config.Config, sc SignerAPI, delegated cosign.SignAPI, agg *aggregator.Client, chain txbuild.ChainRPC) *Probe {
	return &Probe{cfg: cfg, signer: sc, delegated: delegated, agg: agg, chain: chain}
}

// Execute runs the full flow and returns the merged scenario report. onStep,
// when non-nil, is told each scenario label as it starts. The no-policy probe
// runs before the policy is installed; the remaining scenarios run under the
// freshly installed policy.
func (p *Probe) Execute(ctx context.Context, onStep func(label string)) (*verify.Report, error) {
	scope, err := provision.EnsureScope(ctx, p.signer, p.cfg.WalletPublicKey, p.cfg.DelegatedAPIPublicKey)
	if err != nil {
		return nil, errors.Wrap(err, "provisioning scope")
	}

	reg := registrar.New(p.signer)
	if _, err := reg.SetupJupiter(ctx, scope.OrganizationID); err != nil {
		return nil, errors.Wrap(err, "registering aggregator interface")
	}
	if _, err := reg.SetupChainworks(ctx, scope.OrganizationID); err != nil {
		return nil, errors.Wrap(err, "registering swap interface")
	}

	payer, err := solana.PublicKeyFromBase58(scope.SolanaAddress)
	if err != nil {
		return nil, errors.Wrapf(err, "scope wallet address %q", scope.SolanaAddress)
	}

	requester, err := cosign.NewRequester(p.delegated, scope.OrganizationID, scope.SolanaAddress)
	if err != nil {
		return nil, err
	}
	builder := txbuild.NewSwapBuilder(p.agg, p.chain)
	runner := verify.NewRunner(requester, p.cfg.StepDelay)
	runner.OnStep = onStep

	amount := p.cfg.SwapAmountLamports

	// Phase one: no policy is bound yet, so the service must refuse.
	report, err := runner.Run(ctx, []verify.Scenario{{
		Name:   "swap with no policy bound",
		Expect: verify.Reject,
		Build: func(ctx context.Context) (string, error) {
			u, err := builder.BuildSwap(ctx, payer, amount)
			if err != nil {
				return "", err
			}
			return u.PayloadHex, nil
		},
	}})
	if err != nil {
		return report, err
	}

	policyID, err := p.installSwapPolicy(ctx, scope, amount)
	if err != nil {
		return report, err
	}

	second, err := runner.Run(ctx, []verify.Scenario{
		{
			Name:     "swap to a token the policy never named",
			Expect:   verify.Reject,
			PolicyID: policyID,
			Build: func(ctx context.Context) (string, error) {
				u, err := builder.BuildWrongTokenSwap(ctx, payer, amount)
				if err != nil {
					return "", err
				}
				return u.PayloadHex, nil
			},
		},
		{
			Name:     "swap for double the approved amount",
			Expect:   verify.Reject,
			PolicyID: policyID,
			Build: func(ctx context.Context) (string, error) {
				u, err := builder.BuildWrongAmountSwap(ctx, payer, amount)
				if err != nil {
					return "", err
				}
				return u.PayloadHex, nil
			},
		},
		{
			Name:     "swap for the exact approved amount",
			Expect:   verify.Accept,
			PolicyID: policyID,
			Build: func(ctx context.Context) (string, error) {
				u, err := builder.BuildSwap(ctx, payer, amount)
				if err != nil {
					return "", err
				}
				return u.PayloadHex, nil
			},
		},
	})
	merge(report, second)
	if err != nil {
		return report, err
	}

	if p.cfg.MemoCosigner != "" {
		third, err := p.runMemoScenarios(ctx, runner, scope, payer)
		merge(report, third)
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

// runMemoScenarios installs the required-memo-signer policy (draining the swap
// policy, which has served its scenarios by now) and probes it with a memo
// missing the co-signer and a memo carrying it.
func (p *Probe) runMemoScenarios(ctx context.Context, runner *verify.Runner, scope *provision.Scope, payer solana.PublicKey) (*verify.Report, error) {
	cosigner, err := solana.PublicKeyFromBase58(p.cfg.MemoCosigner)
	if err != nil {
		return nil, errors.Wrapf(err, "memo co-signer address %q", p.cfg.MemoCosigner)
	}

	policyID, err := p.installMemoPolicy(ctx, scope)
	if err != nil {
		return nil, err
	}

	memos := txbuild.NewMemoBuilder(p.chain)
	return runner.Run(ctx, []verify.Scenario{
		{
			Name:     "memo without the required co-signer",
			Expect:   verify.Reject,
			PolicyID: policyID,
			Build: func(ctx context.Context) (string, error) {
				u, err := memos.BuildMemo(ctx, payer, cosigner, false, "")
				if err != nil {
					return "", err
				}
				return u.PayloadHex, nil
			},
		},
		{
			Name:     "memo carrying the required co-signer",
			Expect:   verify.Accept,
			PolicyID: policyID,
			Build: func(ctx context.Context) (string, error) {
				u, err := memos.BuildMemo(ctx, payer, cosigner, true, "")
				if err != nil {
					return "", err
				}
				return u.PayloadHex, nil
			},
		},
	})
}

func (p *Probe) installSwapPolicy(ctx context.Context, scope *provision.Scope, amount string) (string, error) {
	condition, err := policy.SwapCondition(tokens.JupiterProgramID, SwapInstructionName, amount)
	if err != nil {
		return "", err
	}
	consensus, err := policy.ApproverConsensus(scope.DelegatedUserID)
	if err != nil {
		return "", err
	}

	installer := policy.NewInstaller(p.signer)
	return installer.Install(ctx, scope.OrganizationID, policy.InstallParams{
		Label:     "Allow exact-amount swap",
		Condition: condition,
		Consensus: consensus,
		Notes:     "Installed by policygate verification run " + time.Now().UTC().Format(time.RFC3339),
	})
}

func (p *Probe) installMemoPolicy(ctx context.Context, scope *provision.Scope) (string, error) {
	condition, err := policy.MemoSignerCondition(p.cfg.MemoCosigner)
	if err != nil {
		return "", err
	}
	consensus, err := policy.ApproverConsensus(scope.DelegatedUserID)
	if err != nil {
		return "", err
	}

	installer := policy.NewInstaller(p.signer)
	return installer.Install(ctx, scope.OrganizationID, policy.InstallParams{
		Label:     "Require memo co-signer",
		Condition: condition,
		Consensus: consensus,
		Notes:     "Installed by policygate verification run " + time.Now().UTC().Format(time.RFC3339),
	})
}

// merge appends the second report's results and counters onto the first.
func merge(dst, src *verify.Report) {
	if src == nil {
		return
	}
	dst.Results = append(dst.Results, src.Results...)
	dst.Passed += src.Passed
	dst.Failed += src.Failed
	dst.Inconclusive += src.Inconclusive
}

// AcceptedPayload returns the signed payload of the accept scenario, if the
// run produced one.
func AcceptedPayload(report *verify.Report) (string, bool) {
	for _, res := range report.Results {
		if res.Expected == verify.Accept && res.Passed && res.SignedPayload != "" {
			return res.SignedPayload, true
		}
	}
	return "", false
}

package verify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chainworks/policygate/internal/logger"
	"github.com/chainworks/policygate/internal/signer"
)

// CoSigner is the slice of the co-sign requester the runner needs.
type CoSigner interface {
	CoSign(ctx context.Context, unsignedHex, policyID string) (string, error)
}

// Runner executes scenarios strictly one after another. The inter-step delay
// is deliberate admission control against the aggregator's rate limits, not a
// correctness requirement; it is injectable so tests run instantly.
type Runner struct {
	cosigner CoSigner
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	// OnStep, when set, is told which scenario is about to run. Used by the
	// control server to surface progress.
	OnStep func(label string)
}

// NewRunner creates a Runner with the given inter-step delay.
func NewRunner(cosigner CoSigner, delay time.Duration) *Runner {
	return &Runner{
		cosigner: cosigner,
		delay:    delay,
		sleep:    sleepCtx,
	}
}

// Run executes the scenarios in order and returns the aggregated report. A
// single inconclusive step does not abort the rest: every scenario is always
// attempted. Cancellation is honored only between scenarios; an in-flight
// request is never abandoned mid-step by the runner itself.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) (*Report, error) {
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios to run")
	}

	report := &Report{}
	for i, s := range scenarios {
		if i > 0 {
			if err := r.sleep(ctx, r.delay); err != nil {
				return report, err
			}
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if r.OnStep != nil {
			r.OnStep(s.Name)
		}
		logger.Info("running verification scenario",
			zap.String("scenario", s.Name),
			zap.String("expected", string(s.Expect)))

		report.add(r.runOne(ctx, s))
	}

	logger.Info("verification run complete",
		zap.Int("passed", report.Passed),
		zap.Int("failed", report.Failed),
		zap.Int("inconclusive", report.Inconclusive))
	return report, nil
}

func (r *Runner) runOne(ctx context.Context, s Scenario) Result {
	res := Result{Scenario: s.Name, Expected: s.Expect}

	unsignedHex, err := s.Build(ctx)
	if err != nil {
		// The candidate never reached the signing service; this says nothing
		// about the policy.
		res.Actual = Errored
		res.Inconclusive = true
		res.Detail = fmt.Sprintf("build failed: %v", err)
		return res
	}

	signed, err := r.cosigner.CoSign(ctx, unsignedHex, s.PolicyID)
	switch {
	case err == nil:
		res.Actual = Accept
		res.Passed = s.Expect == Accept
		if res.Passed {
			res.SignedPayload = signed
			res.Detail = "signed"
		} else {
			res.Detail = "transaction was signed but should have been rejected"
		}
	case signer.IsPolicyRejection(err):
		res.Actual = Reject
		res.Passed = s.Expect == Reject
		if res.Passed {
			res.Detail = fmt.Sprintf("correctly rejected: %v", err)
		} else {
			res.Detail = fmt.Sprintf("rejected but should have been signed: %v", err)
		}
	default:
		res.Actual = Errored
		res.Inconclusive = true
		res.Detail = err.Error()
	}
	return res
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Package verify orchestrates co-sign attempts against deliberately valid and
// deliberately invalid transactions to check that an installed policy accepts
// exactly the intended class of transactions and rejects everything else.
package verify

import "context"

// Outcome is what a scenario expects, or what actually happened.
type Outcome string

const (
	// Accept: the service co-signs the payload.
	Accept Outcome = "accept"
	// Reject: the service refuses under policy evaluation.
	Reject Outcome = "reject"
	// Errored: the attempt failed for a reason unrelated to policy
	// (aggregator, network); only ever an actual outcome, never an expected
	// one.
	Errored Outcome = "error"
)

// Scenario is one probe: a builder producing an unsigned payload that is
// deliberately valid or invalid with respect to the installed policy, the
// policy to evaluate under, and the expected outcome. Builders run at
// scenario time so each attempt gets a fresh chain-tip reference.
type Scenario struct {
	Name     string
	Expect   Outcome
	PolicyID string
	Build    func(ctx context.Context) (unsignedHex string, err error)
}

// Result records how one scenario went.
type Result struct {
	Scenario string  `json:"scenario"`
	Expected Outcome `json:"expected"`
	Actual   Outcome `json:"actual"`
	Passed   bool    `json:"passed"`
	// Inconclusive marks a failure that says nothing about the policy: the
	// build or transport failed before the policy was ever evaluated.
	Inconclusive bool   `json:"inconclusive,omitempty"`
	Detail       string `json:"detail,omitempty"`
	// SignedPayload is retained for audit when an accept scenario succeeds.
	SignedPayload string `json:"signedPayload,omitempty"`
}

// Report aggregates an ordered run of scenarios.
type Report struct {
	Results      []Result `json:"results"`
	Passed       int      `json:"passed"`
	Failed       int      `json:"failed"`
	Inconclusive int      `json:"inconclusive"`
}

// AllPassed reports whether every scenario passed conclusively.
func (r *Report) AllPassed() bool {
	return r.Failed == 0 && r.Inconclusive == 0 && len(r.Results) > 0
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	switch {
	case res.Passed:
		r.Passed++
	case res.Inconclusive:
		r.Inconclusive++
	default:
		r.Failed++
	}
}

// Package validator walks a parsed scenario and checks every phase's
// campaign against the CampaignParams invariants (spec.md §3), plus a few
// non-fatal sanity warnings (SPEC_FULL.md component L).
package validator

import (
	"fmt"

	"github.com/jihwankim/flipsim/pkg/campaign"
	"github.com/jihwankim/flipsim/pkg/scenario"
)

// Result is the outcome of validating a scenario: Errors are invariant
// violations that must block a run, Warnings are suspicious-but-legal
// shapes worth surfacing to the operator.
type Result struct {
	Errors   []string
	Warnings []string
}

// OK reports whether the scenario has no hard errors.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// Validator checks scenarios. It holds no state; New exists for symmetry
// with the rest of this system's constructors and to leave room for future
// configuration (e.g. a safety-limit ceiling on Count).
type Validator struct{}

// New returns a Validator.
func New() *Validator { return &Validator{} }

// Validate walks every phase of s and checks its campaign fields against
// campaign.Params.Validate, collecting all violations rather than stopping
// at the first one.
func (v *Validator) Validate(s *scenario.Scenario) Result {
	var res Result

	if len(s.Spec.Phases) == 0 {
		res.Errors = append(res.Errors, "scenario has no phases")
		return res
	}

	seen := make(map[string]int, len(s.Spec.Phases))
	for i, ph := range s.Spec.Phases {
		if ph.Name == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("phases[%d]: name is required", i))
		} else if prev, ok := seen[ph.Name]; ok {
			res.Errors = append(res.Errors, fmt.Sprintf("phases[%d]: duplicate phase name %q (also used by phases[%d])", i, ph.Name, prev))
		} else {
			seen[ph.Name] = i
		}

		params := ph.Campaign.ToParams()
		if err := params.Validate(); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("phases[%d] (%s): %v", i, ph.Name, err))
			continue
		}

		if params.ExplicitTarget != "" && params.ObserveNS == 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("phases[%d] (%s): targeted campaign with observeNS=0 reads back before the guest has run at all", i, ph.Name))
		}
		if !targeted(params) && params.SnapshotTag != "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("phases[%d] (%s): snapshotTag is ignored by untargeted campaigns", i, ph.Name))
		}
		if params.Count > 10000 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("phases[%d] (%s): count=%d is unusually large", i, ph.Name, params.Count))
		}
	}

	return res
}

func targeted(p campaign.Params) bool { return p.ExplicitTarget != "" }

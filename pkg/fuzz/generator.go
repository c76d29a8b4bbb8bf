package fuzz

import (
	"fmt"

	"github.com/jihwankim/flipsim/pkg/scenario"
)

// ApplyFaultSpec returns a copy of template with every phase's campaign
// kind and interval replaced by a sampled FaultSpec, and the bit replaced
// too in phases that name a target. Each phase's count, target, observeNS,
// and snapshotTag, and an untargeted phase's bit, stay as written in the
// template.
func ApplyFaultSpec(template *scenario.Scenario, spec FaultSpec) *scenario.Scenario {
	out := *template
	out.Spec.Phases = make([]scenario.Phase, len(template.Spec.Phases))
	for i, ph := range template.Spec.Phases {
		c := ph.Campaign
		c.Kind = spec.Kind
		c.MinIntervalNS = spec.MinIntervalNS
		c.MaxIntervalNS = spec.MaxIntervalNS
		if c.Target != "" {
			bit := spec.Bit
			c.Bit = &bit
		}
		out.Spec.Phases[i] = scenario.Phase{Name: ph.Name, Campaign: c}
	}
	return &out
}

// RoundName builds a scenario name for one fuzz round, distinct per round
// so successive reports and log lines don't collide.
func RoundName(base string, round int, spec FaultSpec) string {
	return fmt.Sprintf("%s-round%d-%s", base, round, spec.Slug)
}

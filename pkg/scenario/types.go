// Package scenario is the declarative YAML model for a named sequence of
// campaigns against one guest (SPEC_FULL.md component L).
package scenario

import "github.com/jihwankim/flipsim/pkg/campaign"

// Scenario is a complete, named test scenario: metadata plus an ordered
// list of phases to run against a live monitor bridge.
type Scenario struct {
	Metadata Metadata `yaml:"metadata"`
	Spec     Spec     `yaml:"spec"`
}

// Metadata carries a scenario's name and free-form description.
type Metadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// Spec holds the ordered phase list.
type Spec struct {
	Phases []Phase `yaml:"phases"`
}

// Phase is one scenario entry: a single campaign plus its optional
// snapshot scoping and post-campaign observation window.
type Phase struct {
	Name     string         `yaml:"name"`
	Campaign CampaignFields `yaml:"campaign"`
}

// CampaignFields is the YAML-shaped form of campaign.Params: plain ints and
// strings, converted to campaign.Params after validation. Bit is a pointer
// so "unset" and "bit 0" are distinguishable, mirroring campaign.Params.
type CampaignFields struct {
	Count         int    `yaml:"count"`
	MinIntervalNS int64  `yaml:"minIntervalNS"`
	MaxIntervalNS int64  `yaml:"maxIntervalNS"`
	Kind          string `yaml:"kind"`
	Target        string `yaml:"target,omitempty"`
	Bit           *int   `yaml:"bit,omitempty"`
	ObserveNS     int64  `yaml:"observeNS,omitempty"`
	SnapshotTag   string `yaml:"snapshotTag,omitempty"`
}

// ToParams converts the YAML-shaped fields into campaign.Params.
func (c CampaignFields) ToParams() campaign.Params {
	return campaign.Params{
		Count:          c.Count,
		MinNS:          c.MinIntervalNS,
		MaxNS:          c.MaxIntervalNS,
		Kind:           campaign.Kind(c.Kind),
		ExplicitTarget: c.Target,
		Bit:            c.Bit,
		ObserveNS:      c.ObserveNS,
		SnapshotTag:    c.SnapshotTag,
	}
}

// Package campaign implements the execution stepper and campaign engine:
// advancing guest time by a precise delta, and running a sequence of
// injections with random inter-injection delays, optionally scoped to a
// snapshot (spec.md §4.G, §4.H).
package campaign

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jihwankim/flipsim/pkg/hexutil"
	"github.com/jihwankim/flipsim/pkg/injection"
	"github.com/jihwankim/flipsim/pkg/memtree"
	"github.com/jihwankim/flipsim/pkg/metrics"
	"github.com/jihwankim/flipsim/pkg/monitor"
	"github.com/jihwankim/flipsim/pkg/registers"
)

// Step advances the guest by exactly ns virtual nanoseconds and leaves it
// paused again: it issues "cont" then "stop_delayed ns".
func Step(ctx context.Context, b monitor.Bridge, ns int64) error {
	if _, err := b.HMP(ctx, "cont"); err != nil {
		return fmt.Errorf("campaign: cont: %w", err)
	}
	if _, err := b.HMP(ctx, fmt.Sprintf("stop_delayed %d", ns)); err != nil {
		return fmt.Errorf("campaign: stop_delayed %d: %w", ns, err)
	}
	return nil
}

// Kind selects whether a campaign injects into RAM or a register.
type Kind string

const (
	RAM Kind = "ram"
	Reg Kind = "reg"
)

// Params is CampaignParams from spec.md §3: count >= 1, 0 < MinNS <= MaxNS,
// Kind is ram or reg, with optional explicit target/bit and snapshot scoping
// for a targeted campaign.
type Params struct {
	Count          int
	MinNS          int64
	MaxNS          int64
	Kind           Kind
	ExplicitTarget string // hex address (ram) or register name/wildcard (reg); empty = random/untargeted
	Bit            *int   // paired with ExplicitTarget; nil = random
	ObserveNS      int64  // targeted campaigns only
	SnapshotTag    string // targeted campaigns only; empty = generate a temporary tag
}

// Validate enforces the CampaignParams invariants from spec.md §3: count
// must be at least 1, 0 < MinNS <= MaxNS, Kind must be ram or reg, and
// (ExplicitTarget, Bit) must be all-or-nothing.
func (p Params) Validate() error {
	if p.Count < 1 {
		return fmt.Errorf("campaign: count must be >= 1, got %d", p.Count)
	}
	if p.MinNS <= 0 || p.MinNS > p.MaxNS {
		return fmt.Errorf("campaign: require 0 < min_ns <= max_ns, got min=%d max=%d", p.MinNS, p.MaxNS)
	}
	if p.Kind != RAM && p.Kind != Reg {
		return fmt.Errorf("campaign: kind must be ram or reg, got %q", p.Kind)
	}
	if (p.ExplicitTarget == "") != (p.Bit == nil) {
		return fmt.Errorf("campaign: target and bit must be specified together")
	}
	return nil
}

// TeardownAction is a registered cleanup closure, tagged with a reason for
// the audit log kept by pkg/core/cleanup.
type TeardownAction struct {
	Reason string
	Run    func(ctx context.Context) error
}

// Engine runs campaigns against a live bridge, memory tree, and register
// inventory.
type Engine struct {
	Bridge monitor.Bridge
	Tree   memtree.MemoryTree
	Inv    *registers.Inventory
	RNG    *rand.Rand
}

// Result is the outcome of one campaign run: every successfully logged
// injection plus any registered-but-not-yet-run teardown actions (the
// caller, typically the orchestrator or cleanup coordinator, runs these).
type Result struct {
	Injections []injection.Record
	Teardowns  []TeardownAction
}

// Run executes an untargeted or targeted campaign per p. An injection
// failure terminates the campaign but leaves any already-registered
// teardown (snapshot restoration) intact — the caller must still run
// Result.Teardowns even on error (spec.md §7).
func (e *Engine) Run(ctx context.Context, p Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}

	start := time.Now()
	defer func() { metrics.CampaignDurationSeconds.Observe(time.Since(start).Seconds()) }()

	var res Result

	targeted := p.ExplicitTarget != ""
	if targeted {
		tag, persistent, err := e.setupSnapshot(ctx, p.SnapshotTag)
		if err != nil {
			return res, err
		}
		if !persistent {
			metrics.SnapshotsActive.Inc()
			res.Teardowns = append(res.Teardowns, TeardownAction{
				Reason: fmt.Sprintf("delete temporary snapshot %s", tag),
				Run: func(ctx context.Context) error {
					err := e.teardownTemporarySnapshot(ctx, tag)
					metrics.SnapshotsActive.Dec()
					return err
				},
			})
		}
	}

	for i := 0; i < p.Count; i++ {
		ns := p.MinNS
		if p.MaxNS > p.MinNS {
			ns = p.MinNS + e.RNG.Int63n(p.MaxNS-p.MinNS+1)
		}
		if err := Step(ctx, e.Bridge, ns); err != nil {
			return res, fmt.Errorf("campaign: step: %w", err)
		}

		rec, err := e.injectOne(ctx, p)
		if err != nil {
			metrics.InjectionFailuresTotal.WithLabelValues(string(p.Kind)).Inc()
			return res, fmt.Errorf("campaign: injection %d/%d: %w", i+1, p.Count, err)
		}
		metrics.InjectionsTotal.WithLabelValues(string(p.Kind)).Inc()
		res.Injections = append(res.Injections, rec)
	}

	if targeted {
		if p.ObserveNS > 0 {
			if err := Step(ctx, e.Bridge, p.ObserveNS); err != nil {
				return res, fmt.Errorf("campaign: observe step: %w", err)
			}
		}
		for _, t := range res.Teardowns {
			if err := t.Run(ctx); err != nil {
				return res, fmt.Errorf("campaign: teardown %q: %w", t.Reason, err)
			}
		}
		// Every registered teardown ran successfully above: deregister them
		// so a caller that also owns a cleanup.Coordinator (the orchestrator)
		// doesn't run the same loadvm/delvm pair a second time. A caller
		// still sees a non-empty Result.Teardowns only when Run returned
		// early (injection failure, failed teardown) — that's the
		// coordinator's safety net for an aborted campaign.
		res.Teardowns = nil

		if _, err := e.Bridge.HMP(ctx, "cont"); err == nil {
			_ = e.Bridge.SendSerial(ctx, []byte("\r"))
		}
	}

	return res, nil
}

// setupSnapshot returns the tag to use and whether it is a caller-supplied
// (persistent) tag, per spec.md §4.H: an absent tag generates a fresh unique
// one and savevm's it (temporary); a present tag is loadvm'd first
// (persistent).
func (e *Engine) setupSnapshot(ctx context.Context, tag string) (string, bool, error) {
	if tag != "" {
		if _, err := e.Bridge.HMP(ctx, fmt.Sprintf("loadvm %s", tag)); err != nil {
			return "", true, fmt.Errorf("campaign: loadvm %s: %w", tag, err)
		}
		return tag, true, nil
	}

	fresh := fmt.Sprintf("flipsim-%d", e.RNG.Int63())
	if _, err := e.Bridge.HMP(ctx, fmt.Sprintf("savevm %s", fresh)); err != nil {
		return "", false, fmt.Errorf("campaign: savevm %s: %w", fresh, err)
	}
	return fresh, false, nil
}

func (e *Engine) teardownTemporarySnapshot(ctx context.Context, tag string) error {
	if _, err := e.Bridge.HMP(ctx, fmt.Sprintf("loadvm %s", tag)); err != nil {
		return fmt.Errorf("campaign: loadvm %s: %w", tag, err)
	}
	if _, err := e.Bridge.HMP(ctx, fmt.Sprintf("delvm %s", tag)); err != nil {
		return fmt.Errorf("campaign: delvm %s: %w", tag, err)
	}
	return nil
}

// injectOne performs one injection according to p's kind and target.
func (e *Engine) injectOne(ctx context.Context, p Params) (injection.Record, error) {
	switch p.Kind {
	case RAM:
		if p.ExplicitTarget != "" {
			addr, err := parseHexAddress(p.ExplicitTarget)
			if err != nil {
				return injection.Record{}, err
			}
			return injection.FlipRAM(ctx, e.Bridge, addr, 1, *p.Bit)
		}
		addr, err := e.Tree["memory"].RandomAddress(e.RNG)
		if err != nil {
			return injection.Record{}, fmt.Errorf("campaign: sampling random ram address: %w", err)
		}
		bit := e.RNG.Intn(8)
		return injection.FlipRAM(ctx, e.Bridge, addr, 1, bit)

	case Reg:
		pattern := p.ExplicitTarget
		if pattern == "" {
			pattern = "*"
		}
		return injection.FlipWildcardRegister(ctx, e.Bridge, e.RNG, e.Inv, pattern, p.Bit)

	default:
		return injection.Record{}, fmt.Errorf("campaign: unknown kind %q", p.Kind)
	}
}

func parseHexAddress(s string) (uint64, error) {
	v, err := hexutil.DecodeUint64(s)
	if err != nil {
		return 0, fmt.Errorf("campaign: parsing address %q: %w", s, err)
	}
	return v, nil
}

// Package orchestrator runs a parsed scenario phase by phase against a
// live bridge: resolving the guest's memory tree and register inventory
// once, then stepping each phase's campaign through pkg/campaign, folding
// the results into a TestReport while honoring a mid-run emergency stop
// (SPEC_FULL.md component M).
package orchestrator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jihwankim/flipsim/pkg/campaign"
	"github.com/jihwankim/flipsim/pkg/core/cleanup"
	"github.com/jihwankim/flipsim/pkg/emergency"
	"github.com/jihwankim/flipsim/pkg/memtree"
	"github.com/jihwankim/flipsim/pkg/monitor"
	"github.com/jihwankim/flipsim/pkg/registers"
	"github.com/jihwankim/flipsim/pkg/reporting"
	"github.com/jihwankim/flipsim/pkg/scenario"
)

// Orchestrator drives a scenario's phases in declared order against a
// single live guest connection. It is not safe for concurrent use — the
// underlying Bridge isn't either (see pkg/monitor.Bridge).
type Orchestrator struct {
	bridge monitor.Bridge
	logger *reporting.Logger

	emergencyCtrl *emergency.Controller
}

// New creates an Orchestrator bound to bridge, an already-connected guest
// control channel. logger receives structured progress events.
func New(bridge monitor.Bridge, logger *reporting.Logger) *Orchestrator {
	return &Orchestrator{bridge: bridge, logger: logger}
}

// WithEmergencyController wires ctrl so Execute stops running further
// phases, while still completing registered cleanup, once ctrl signals a
// stop.
func (o *Orchestrator) WithEmergencyController(ctrl *emergency.Controller) *Orchestrator {
	o.emergencyCtrl = ctrl
	return o
}

// Execute resolves the guest's memory tree and register inventory once,
// then runs every phase of s in declared order, accumulating a TestReport.
// A phase whose campaign fails is recorded in the report and execution
// continues to the next phase. An emergency stop ends the run after the
// in-flight phase, and cleanup still runs for every teardown registered so
// far.
func (o *Orchestrator) Execute(ctx context.Context, s *scenario.Scenario) (*reporting.TestReport, error) {
	start := time.Now()
	report := &reporting.TestReport{
		TestID:       generateTestID(),
		ScenarioName: s.Metadata.Name,
		StartTime:    start,
		Status:       reporting.StatusRunning,
	}

	tree, err := o.resolveMemTree(ctx)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("resolving memory tree: %v", err))
		o.finish(report, start, false, false)
		return report, fmt.Errorf("orchestrator: resolving memory tree: %w", err)
	}

	inv := registers.New()
	if lister, ok := o.bridge.(registers.FrameLister); ok {
		if err := inv.Load(ctx, lister, registers.DefaultAArch64Classifier); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("loading register inventory: %v", err))
			o.finish(report, start, false, false)
			return report, fmt.Errorf("orchestrator: loading register inventory: %w", err)
		}
	}

	coord := cleanup.New()
	engine := &campaign.Engine{
		Bridge: o.bridge,
		Tree:   tree,
		Inv:    inv,
		RNG:    rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec
	}

	overallSuccess := true
	stopped := false

	for _, ph := range s.Spec.Phases {
		if o.stopSignalled() {
			stopped = true
			break
		}

		phStart := time.Now()
		pr := reporting.PhaseResult{Name: ph.Name, StartTime: phStart}

		params := ph.Campaign.ToParams()
		res, runErr := engine.Run(ctx, params)
		coord.Register(res.Teardowns...)

		pr.EndTime = time.Now()
		pr.InjectCount = len(res.Injections)
		report.Injections = append(report.Injections, res.Injections...)

		if runErr != nil {
			pr.Success = false
			pr.Error = runErr.Error()
			report.Errors = append(report.Errors, fmt.Sprintf("phase %s: %v", ph.Name, runErr))
			overallSuccess = false
			if o.logger != nil {
				o.logger.Error("phase failed", "phase", ph.Name, "error", runErr)
			}
		} else {
			pr.Success = true
			if o.logger != nil {
				o.logger.Info("phase completed", "phase", ph.Name, "injections", pr.InjectCount)
			}
		}

		report.Phases = append(report.Phases, pr)
	}

	if err := coord.RunAll(ctx); err != nil {
		if o.logger != nil {
			o.logger.Warn("cleanup completed with errors", "error", err)
		}
		report.Errors = append(report.Errors, err.Error())
	}
	report.CleanupSummary = coord.GetSummary()
	report.CleanupLog = coord.AuditLog()

	o.finish(report, start, overallSuccess, stopped)
	return report, nil
}

// resolveMemTree issues the monitor's flat memory-tree query and parses the
// response, giving the campaign engine a fresh view of the guest's current
// RAM layout for this run.
func (o *Orchestrator) resolveMemTree(ctx context.Context) (memtree.MemoryTree, error) {
	out, err := o.bridge.HMP(ctx, "info mtree -f")
	if err != nil {
		return nil, fmt.Errorf("orchestrator: info mtree -f: %w", err)
	}
	tree, err := memtree.Parse(out)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: parsing memory tree: %w", err)
	}
	return tree, nil
}

func (o *Orchestrator) stopSignalled() bool {
	return o.emergencyCtrl != nil && o.emergencyCtrl.IsStopped()
}

func (o *Orchestrator) finish(report *reporting.TestReport, start time.Time, success, stopped bool) {
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(start).String()
	report.Success = success && !stopped
	switch {
	case stopped:
		report.Status = reporting.StatusStopped
	case success:
		report.Status = reporting.StatusCompleted
	default:
		report.Status = reporting.StatusFailed
	}
}

func generateTestID() string {
	return fmt.Sprintf("test-%d", time.Now().UnixNano())
}

package fuzz

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jihwankim/flipsim/pkg/core/orchestrator"
	"github.com/jihwankim/flipsim/pkg/monitor"
	"github.com/jihwankim/flipsim/pkg/reporting"
	"github.com/jihwankim/flipsim/pkg/scenario"
)

// RoundResult is one entry in the JSONL run log.
type RoundResult struct {
	Session   string    `json:"session"`
	Seed      int64     `json:"seed"`
	Round     int       `json:"round"`
	Name      string    `json:"name"`
	Fault     FaultSpec `json:"fault"`
	Result    string    `json:"result"` // "passed" | "failed" | "dry-run" | "interrupted"
	ElapsedS  float64   `json:"elapsed_s"`
	Timestamp string    `json:"timestamp"`
}

// Config holds all settings for a fuzz session.
type Config struct {
	Rounds        int
	MinIntervalNS int64
	MaxIntervalNS int64
	Seed          int64 // 0 = auto-generate
	DryRun        bool
	LogPath       string
}

// Runner drives Rounds successive campaigns against a fixed scenario
// template, sampling a fresh FaultSpec for each round and logging it.
type Runner struct {
	cfg      *Config
	template *scenario.Scenario
	bridge   monitor.Bridge
	logger   *reporting.Logger
}

// NewRunner builds a Runner that runs cfg.Rounds rounds of template against
// bridge.
func NewRunner(cfg *Config, template *scenario.Scenario, bridge monitor.Bridge, logger *reporting.Logger) *Runner {
	return &Runner{cfg: cfg, template: template, bridge: bridge, logger: logger}
}

// Run executes cfg.Rounds fuzz rounds sequentially, logging each round's
// resolved FaultSpec and outcome to cfg.LogPath.
func (r *Runner) Run(ctx context.Context) error {
	seed := r.cfg.Seed
	if seed == 0 {
		seed = rand.Int63() //nolint:gosec
	}
	sampler := NewSampler(seed)

	sessionID := time.Now().Format(time.RFC3339)
	fmt.Printf("seed: %d  (pass --seed %d to reproduce)\n\n", seed, seed)
	fmt.Printf("starting %d fuzz round(s) against %q\n", r.cfg.Rounds, r.template.Metadata.Name)
	fmt.Println(strings.Repeat("-", 72))

	passed, failed := 0, 0
	interrupted := false

	for round := 1; round <= r.cfg.Rounds; round++ {
		if ctx.Err() != nil {
			interrupted = true
			break
		}

		spec := sampler.SampleFault(r.cfg.MinIntervalNS, r.cfg.MaxIntervalNS)
		sc := ApplyFaultSpec(r.template, spec)
		name := RoundName(r.template.Metadata.Name, round, spec)
		sc.Metadata.Name = name

		fmt.Printf("\n[%d/%d] %s\n", round, r.cfg.Rounds, name)

		if r.cfg.DryRun {
			fmt.Println("  (dry-run)")
			r.appendLog(sessionID, seed, round, name, spec, "dry-run", 0)
			continue
		}

		start := time.Now()
		report, runErr := r.execute(ctx, sc)
		elapsed := time.Since(start).Seconds()

		if ctx.Err() != nil {
			r.appendLog(sessionID, seed, round, name, spec, "interrupted", elapsed)
			interrupted = true
			break
		}

		status := "passed"
		if runErr != nil || report == nil || !report.Success {
			status = "failed"
			if runErr != nil {
				r.logger.Error("round execution error", "round", round, "error", runErr)
			}
		}
		fmt.Printf("  -> %s  (%.1fs)\n", strings.ToUpper(status), elapsed)

		if status == "passed" {
			passed++
		} else {
			failed++
		}

		r.appendLog(sessionID, seed, round, name, spec, status, elapsed)
	}

	fmt.Println("\n" + strings.Repeat("-", 72))
	if interrupted {
		fmt.Printf("interrupted. %d passed  %d failed  (seed=%d)\n", passed, failed, seed)
	} else {
		fmt.Printf("done. %d passed  %d failed  (seed=%d)\n", passed, failed, seed)
	}
	if failed > 0 {
		fmt.Printf("\nreproduce: flipsim fuzz --seed %d --rounds %d\n", seed, r.cfg.Rounds)
	}
	fmt.Printf("log: %s\n", r.cfg.LogPath)
	return nil
}

// execute runs sc through the orchestrator against the runner's bridge.
func (r *Runner) execute(ctx context.Context, sc *scenario.Scenario) (*reporting.TestReport, error) {
	orch := orchestrator.New(r.bridge, r.logger)
	return orch.Execute(ctx, sc)
}

// appendLog appends a RoundResult entry to the JSONL log file.
func (r *Runner) appendLog(session string, seed int64, round int, name string, spec FaultSpec, result string, elapsed float64) {
	entry := RoundResult{
		Session:   session,
		Seed:      seed,
		Round:     round,
		Name:      name,
		Fault:     spec,
		Result:    result,
		ElapsedS:  elapsed,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	if err := os.MkdirAll(filepath.Dir(r.cfg.LogPath), 0755); err != nil {
		r.logger.Warn("failed to create log dir", "error", err)
		return
	}

	f, err := os.OpenFile(r.cfg.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		r.logger.Warn("failed to open log file", "error", err)
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = f.WriteString(string(data) + "\n")
}

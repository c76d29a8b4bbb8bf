package reporting

import (
	"time"

	"github.com/jihwankim/flipsim/pkg/core/cleanup"
	"github.com/jihwankim/flipsim/pkg/injection"
)

// TestReport is the complete result of one orchestrator run over a
// scenario: one PhaseResult per declared phase, every injection performed
// across all phases, the cleanup audit, and any per-phase errors.
type TestReport struct {
	TestID       string    `json:"test_id"`
	ScenarioName string    `json:"scenario_name"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Duration     string    `json:"duration"`

	Status  TestStatus `json:"status"`
	Success bool       `json:"success"`

	Phases     []PhaseResult       `json:"phases"`
	Injections []injection.Record `json:"injections"`

	CleanupSummary cleanup.Summary     `json:"cleanup_summary"`
	CleanupLog     []cleanup.AuditEntry `json:"cleanup_log,omitempty"`

	Errors []string `json:"errors,omitempty"`
}

// TestStatus is the overall outcome of an orchestrator run.
type TestStatus string

const (
	StatusRunning   TestStatus = "running"
	StatusCompleted TestStatus = "completed"
	StatusFailed    TestStatus = "failed"
	StatusStopped   TestStatus = "stopped"
)

// PhaseResult is one scenario phase's outcome: its name, whether its
// campaign ran to completion, how many injections it logged, and its
// error if it failed.
type PhaseResult struct {
	Name         string    `json:"name"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Success      bool      `json:"success"`
	InjectCount  int       `json:"inject_count"`
	Error        string    `json:"error,omitempty"`
}

// LiveTestState is the current state of a still-running orchestrator, for
// progress reporting.
type LiveTestState struct {
	TestID       string        `json:"test_id"`
	ScenarioName string        `json:"scenario_name"`
	CurrentPhase string        `json:"current_phase"`
	StartTime    time.Time     `json:"start_time"`
	Elapsed      time.Duration `json:"elapsed"`
	PhasesDone   int           `json:"phases_done"`
	PhasesTotal  int           `json:"phases_total"`
}

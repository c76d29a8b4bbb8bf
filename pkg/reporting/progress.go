package reporting

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OutputFormat is how progress and summaries are rendered.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatTUI  OutputFormat = "tui"
)

// ProgressReporter reports orchestrator progress as it runs.
type ProgressReporter struct {
	format OutputFormat
	logger *Logger
}

// NewProgressReporter creates a progress reporter.
func NewProgressReporter(format OutputFormat, logger *Logger) *ProgressReporter {
	return &ProgressReporter{format: format, logger: logger}
}

// ReportState reports the orchestrator's current live state.
func (pr *ProgressReporter) ReportState(state LiveTestState) {
	switch pr.format {
	case FormatJSON:
		pr.reportJSON(state)
	case FormatTUI:
		pr.reportTUI(state)
	default:
		pr.reportText(state)
	}
}

// ReportPhaseTransition reports the orchestrator moving to a new phase.
func (pr *ProgressReporter) ReportPhaseTransition(from, to string) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event": "phase_transition", "from_phase": from, "to_phase": to, "timestamp": time.Now(),
		})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		fmt.Printf("phase: %s -> %s\n", from, to)
	default:
		fmt.Printf("[PHASE] %s -> %s\n", from, to)
	}
}

// ReportPhaseResult reports one completed phase.
func (pr *ProgressReporter) ReportPhaseResult(r PhaseResult) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{"event": "phase_result", "phase": r, "timestamp": time.Now()})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		fmt.Printf("phase %q: %d injections, success=%v\n", r.Name, r.InjectCount, r.Success)
	default:
		fmt.Printf("[PHASE RESULT] %s: %d injections, success=%v\n", r.Name, r.InjectCount, r.Success)
	}
}

// ReportCleanupStarted reports that teardown is beginning.
func (pr *ProgressReporter) ReportCleanupStarted() {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{"event": "cleanup_started", "timestamp": time.Now()})
		fmt.Println(string(data))
	default:
		fmt.Println("[CLEANUP] starting")
	}
}

// ReportCleanupCompleted reports teardown completion counts.
func (pr *ProgressReporter) ReportCleanupCompleted(succeeded, failed int) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{
			"event": "cleanup_completed", "succeeded": succeeded, "failed": failed, "timestamp": time.Now(),
		})
		fmt.Println(string(data))
	default:
		fmt.Printf("[CLEANUP] complete: %d succeeded, %d failed\n", succeeded, failed)
	}
}

// ReportTestCompleted reports the final report once the run is done.
func (pr *ProgressReporter) ReportTestCompleted(report *TestReport) {
	switch pr.format {
	case FormatJSON:
		data, _ := json.Marshal(map[string]interface{}{"event": "test_completed", "report": report, "timestamp": time.Now()})
		fmt.Println(string(data))
	case FormatTUI:
		pr.clearLine()
		pr.printSummary(report)
	default:
		pr.printSummary(report)
	}
}

func (pr *ProgressReporter) reportText(state LiveTestState) {
	elapsed := state.Elapsed.Round(time.Second)
	fmt.Printf("[%s] phase %s (%d/%d) | elapsed: %s\n",
		time.Now().Format("15:04:05"), state.CurrentPhase, state.PhasesDone, state.PhasesTotal, elapsed)
}

func (pr *ProgressReporter) reportJSON(state LiveTestState) {
	data, err := json.Marshal(state)
	if err != nil {
		pr.logger.Error("failed to marshal live state")
		return
	}
	fmt.Println(string(data))
}

func (pr *ProgressReporter) reportTUI(state LiveTestState) {
	pr.clearScreen()
	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("  scenario: %s  (test %s)\n", state.ScenarioName, state.TestID)
	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("phase: %s (%d/%d)\n", state.CurrentPhase, state.PhasesDone, state.PhasesTotal)
	fmt.Printf("elapsed: %s\n", state.Elapsed.Round(time.Second))
	fmt.Println(strings.Repeat("-", 72))
}

func (pr *ProgressReporter) printSummary(report *TestReport) {
	status := "PASSED"
	if !report.Success {
		status = "FAILED"
	}
	if report.Status == StatusStopped {
		status = "STOPPED"
	}

	fmt.Printf("\n[TEST SUMMARY] %s\n", status)
	fmt.Printf("  scenario: %s\n", report.ScenarioName)
	fmt.Printf("  test id:  %s\n", report.TestID)
	fmt.Printf("  duration: %s\n", report.Duration)
	fmt.Printf("  phases:   %d\n", len(report.Phases))
	fmt.Printf("  injections: %d\n", len(report.Injections))
	for _, ph := range report.Phases {
		mark := "ok"
		if !ph.Success {
			mark = "FAIL"
		}
		fmt.Printf("    - %s [%s] %d injections", ph.Name, mark, ph.InjectCount)
		if ph.Error != "" {
			fmt.Printf(" (%s)", ph.Error)
		}
		fmt.Println()
	}
	fmt.Printf("  cleanup: %d succeeded, %d failed\n", report.CleanupSummary.Succeeded, report.CleanupSummary.Failed)
	fmt.Println()
}

func (pr *ProgressReporter) clearScreen() {
	fmt.Print("\033[2J\033[H")
}

func (pr *ProgressReporter) clearLine() {
	fmt.Print("\033[K")
}

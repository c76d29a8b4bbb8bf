package reporting

import (
	"bufio"
	"io"
	"os"
	"strings"
	"testing"
	"time"
)

// captureStdout redirects os.Stdout for the duration of fn and returns
// everything written to it. The progress reporter writes directly via
// fmt.Print*, so this is the only way to observe its output.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	w.Close()
	var buf strings.Builder
	if _, err := io.Copy(&buf, bufio.NewReader(r)); err != nil {
		t.Fatalf("io.Copy: %v", err)
	}
	return buf.String()
}

func TestReportStateTextFormat(t *testing.T) {
	pr := NewProgressReporter(FormatText, testLogger())
	out := captureStdout(t, func() {
		pr.ReportState(LiveTestState{
			ScenarioName: "ram-sweep", TestID: "t1", CurrentPhase: "warmup",
			PhasesDone: 1, PhasesTotal: 3, Elapsed: 2 * time.Second,
		})
	})
	if !strings.Contains(out, "phase warmup (1/3)") {
		t.Errorf("reportText output = %q, want it to mention the current phase", out)
	}
}

func TestReportStateJSONFormat(t *testing.T) {
	pr := NewProgressReporter(FormatJSON, testLogger())
	out := captureStdout(t, func() {
		pr.ReportState(LiveTestState{ScenarioName: "ram-sweep", TestID: "t1", PhasesTotal: 3})
	})
	if !strings.Contains(out, `"scenario_name":"ram-sweep"`) {
		t.Errorf("reportJSON output = %q, want marshaled LiveTestState JSON", out)
	}
}

func TestReportPhaseTransitionTextFormat(t *testing.T) {
	pr := NewProgressReporter(FormatText, testLogger())
	out := captureStdout(t, func() { pr.ReportPhaseTransition("warmup", "stress") })
	if !strings.Contains(out, "warmup -> stress") {
		t.Errorf("ReportPhaseTransition output = %q, want it to mention both phases", out)
	}
}

func TestReportPhaseResultTextFormat(t *testing.T) {
	pr := NewProgressReporter(FormatText, testLogger())
	out := captureStdout(t, func() {
		pr.ReportPhaseResult(PhaseResult{Name: "stress", Success: false, InjectCount: 4})
	})
	if !strings.Contains(out, "stress:") || !strings.Contains(out, "success=false") {
		t.Errorf("ReportPhaseResult output = %q, want phase name and success flag", out)
	}
}

func TestReportCleanupStartedAndCompleted(t *testing.T) {
	pr := NewProgressReporter(FormatText, testLogger())
	out := captureStdout(t, func() {
		pr.ReportCleanupStarted()
		pr.ReportCleanupCompleted(2, 1)
	})
	if !strings.Contains(out, "starting") {
		t.Errorf("ReportCleanupStarted output = %q, want it to mention starting", out)
	}
	if !strings.Contains(out, "2 succeeded, 1 failed") {
		t.Errorf("ReportCleanupCompleted output = %q, want the succeeded/failed counts", out)
	}
}

func TestReportTestCompletedPrintsSummary(t *testing.T) {
	pr := NewProgressReporter(FormatText, testLogger())
	out := captureStdout(t, func() { pr.ReportTestCompleted(sampleReport()) })
	if !strings.Contains(out, "TEST SUMMARY") || !strings.Contains(out, "PASSED") {
		t.Errorf("ReportTestCompleted output = %q, want a PASSED summary", out)
	}
	if !strings.Contains(out, "stress [FAIL]") {
		t.Errorf("ReportTestCompleted output = %q, want the failed phase marked", out)
	}
}

func TestReportTestCompletedStoppedOverridesSuccess(t *testing.T) {
	r := sampleReport()
	r.Status = StatusStopped
	pr := NewProgressReporter(FormatText, testLogger())
	out := captureStdout(t, func() { pr.ReportTestCompleted(r) })
	if !strings.Contains(out, "STOPPED") {
		t.Errorf("ReportTestCompleted output = %q, want STOPPED despite Success=true", out)
	}
}

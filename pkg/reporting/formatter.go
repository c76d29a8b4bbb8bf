package reporting

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// ReportFormat is a TestReport rendering, selectable via --format.
type ReportFormat string

const (
	ReportFormatText  ReportFormat = "text"
	ReportFormatTable ReportFormat = "table"
	ReportFormatJSON  ReportFormat = "json"
)

// Formatter renders a TestReport as text, a table, or (delegated to
// Storage) JSON.
type Formatter struct {
	logger *Logger
}

// NewFormatter creates a report formatter.
func NewFormatter(logger *Logger) *Formatter {
	return &Formatter{logger: logger}
}

// Render returns report formatted per format. JSON is not handled here —
// Storage.SaveReport already persists the canonical JSON form.
func (f *Formatter) Render(report *TestReport, format ReportFormat) (string, error) {
	switch format {
	case ReportFormatText:
		return f.renderText(report), nil
	case ReportFormatTable:
		return f.renderTable(report), nil
	case ReportFormatJSON:
		return "", fmt.Errorf("reporting: JSON format is produced by Storage.SaveReport, not Formatter")
	default:
		return "", fmt.Errorf("reporting: unsupported report format %q", format)
	}
}

func (f *Formatter) renderText(report *TestReport) string {
	var buf bytes.Buffer

	status := "PASSED"
	if !report.Success {
		status = "FAILED"
	}
	if report.Status == StatusStopped {
		status = "STOPPED"
	}

	buf.WriteString(strings.Repeat("=", 72) + "\n")
	buf.WriteString("  FAULT INJECTION TEST REPORT\n")
	buf.WriteString(strings.Repeat("=", 72) + "\n\n")

	buf.WriteString(fmt.Sprintf("Status:     %s\n", status))
	buf.WriteString(fmt.Sprintf("Test ID:    %s\n", report.TestID))
	buf.WriteString(fmt.Sprintf("Scenario:   %s\n", report.ScenarioName))
	buf.WriteString(fmt.Sprintf("Start:      %s\n", report.StartTime.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("End:        %s\n", report.EndTime.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("Duration:   %s\n\n", report.Duration))

	buf.WriteString(fmt.Sprintf("PHASES (%d)\n", len(report.Phases)))
	buf.WriteString(strings.Repeat("-", 72) + "\n")
	for i, ph := range report.Phases {
		mark := "ok"
		if !ph.Success {
			mark = "FAIL"
		}
		buf.WriteString(fmt.Sprintf("%d. %s [%s] — %d injection(s)\n", i+1, ph.Name, mark, ph.InjectCount))
		if ph.Error != "" {
			buf.WriteString(fmt.Sprintf("   error: %s\n", ph.Error))
		}
	}
	buf.WriteString("\n")

	buf.WriteString(fmt.Sprintf("INJECTIONS (%d)\n", len(report.Injections)))
	buf.WriteString(strings.Repeat("-", 72) + "\n")
	for i, rec := range report.Injections {
		buf.WriteString(fmt.Sprintf("%d. %s: %s -> %s\n", i+1, rec.Target, rec.OldValue, rec.NewValue))
	}
	buf.WriteString("\n")

	buf.WriteString("CLEANUP\n")
	buf.WriteString(strings.Repeat("-", 72) + "\n")
	buf.WriteString(fmt.Sprintf("Total: %d  Succeeded: %d  Failed: %d\n\n",
		report.CleanupSummary.TotalActions, report.CleanupSummary.Succeeded, report.CleanupSummary.Failed))

	if len(report.Errors) > 0 {
		buf.WriteString("ERRORS\n")
		buf.WriteString(strings.Repeat("-", 72) + "\n")
		for i, e := range report.Errors {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, e))
		}
		buf.WriteString("\n")
	}

	buf.WriteString(strings.Repeat("=", 72) + "\n")
	return buf.String()
}

func (f *Formatter) renderTable(report *TestReport) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "scenario %s (test %s), status %s, duration %s\n\n",
		report.ScenarioName, report.TestID, report.Status, report.Duration)

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Phase", "Success", "Injections", "Error"})
	for _, ph := range report.Phases {
		table.Append([]string{
			ph.Name,
			strconv.FormatBool(ph.Success),
			strconv.Itoa(ph.InjectCount),
			ph.Error,
		})
	}
	table.Render()

	fmt.Fprintf(&buf, "\ncleanup: %d/%d succeeded\n",
		report.CleanupSummary.Succeeded, report.CleanupSummary.TotalActions)

	return buf.String()
}

// WriteToFile renders report per format and writes it to path.
func (f *Formatter) WriteToFile(report *TestReport, format ReportFormat, path string) error {
	out, err := f.Render(report, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(out), 0644); err != nil {
		return fmt.Errorf("reporting: writing rendered report: %w", err)
	}
	f.logger.Info("report rendered", "path", path, "format", string(format))
	return nil
}

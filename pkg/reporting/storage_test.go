package reporting

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jihwankim/flipsim/pkg/core/cleanup"
)

func reportAt(testID string, start time.Time) *TestReport {
	return &TestReport{
		TestID:         testID,
		ScenarioName:   "ram-sweep",
		StartTime:      start,
		EndTime:        start.Add(time.Minute),
		Duration:       "1m0s",
		Status:         StatusCompleted,
		Success:        true,
		CleanupSummary: cleanup.Summary{TotalActions: 1, Succeeded: 1},
	}
}

func TestNewStorageCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	if _, err := NewStorage(dir, 10, testLogger()); err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("output directory was not created: %v", err)
	}
}

func TestSaveAndLoadReportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStorage(dir, 10, testLogger())
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	r := reportAt("test-1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	path, err := s.SaveReport(r)
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	loaded, err := s.LoadReport(path)
	if err != nil {
		t.Fatalf("LoadReport: %v", err)
	}
	if loaded.TestID != "test-1" {
		t.Errorf("loaded.TestID = %q, want test-1", loaded.TestID)
	}
}

func TestListReportsSortsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStorage(dir, 10, testLogger())
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	older := reportAt("older", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := reportAt("newer", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	if _, err := s.SaveReport(older); err != nil {
		t.Fatalf("SaveReport(older): %v", err)
	}
	if _, err := s.SaveReport(newer); err != nil {
		t.Fatalf("SaveReport(newer): %v", err)
	}

	summaries, err := s.ListReports()
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("ListReports returned %d summaries, want 2", len(summaries))
	}
	if summaries[0].TestID != "newer" {
		t.Errorf("summaries[0].TestID = %q, want newer (newest first)", summaries[0].TestID)
	}
}

func TestFindReportByTestID(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStorage(dir, 10, testLogger())
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	if _, err := s.SaveReport(reportAt("findme", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	r, err := s.FindReportByTestID("findme")
	if err != nil {
		t.Fatalf("FindReportByTestID: %v", err)
	}
	if r.TestID != "findme" {
		t.Errorf("FindReportByTestID returned TestID %q, want findme", r.TestID)
	}
}

func TestFindReportByTestIDMissing(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStorage(dir, 10, testLogger())
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	if _, err := s.FindReportByTestID("nope"); err == nil {
		t.Fatal("FindReportByTestID for a missing test ID succeeded, want an error")
	}
}

func TestSaveReportPrunesOldestBeyondKeepLastN(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStorage(dir, 2, testLogger())
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	for i, day := range []int{1, 2, 3} {
		_, err := s.SaveReport(reportAt(
			[]string{"a", "b", "c"}[i],
			time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC),
		))
		if err != nil {
			t.Fatalf("SaveReport %d: %v", i, err)
		}
	}

	summaries, err := s.ListReports()
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("ListReports returned %d summaries, want 2 (keepLastN pruned the oldest)", len(summaries))
	}
	for _, sm := range summaries {
		if sm.TestID == "a" {
			t.Error("oldest report (test ID a) survived pruning, want it removed")
		}
	}
}

func TestGetOutputDir(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStorage(dir, 10, testLogger())
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	if s.GetOutputDir() != dir {
		t.Errorf("GetOutputDir() = %q, want %q", s.GetOutputDir(), dir)
	}
}

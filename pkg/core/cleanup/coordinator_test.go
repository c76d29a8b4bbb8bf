package cleanup

import (
	"context"
	"fmt"
	"testing"

	"github.com/jihwankim/flipsim/pkg/campaign"
)

func TestRunAllRunsInReverseOrder(t *testing.T) {
	c := New()
	var order []string
	c.Register(
		campaign.TeardownAction{Reason: "first", Run: func(ctx context.Context) error {
			order = append(order, "first")
			return nil
		}},
		campaign.TeardownAction{Reason: "second", Run: func(ctx context.Context) error {
			order = append(order, "second")
			return nil
		}},
	)

	if err := c.RunAll(context.Background()); err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	want := []string{"second", "first"}
	if len(order) != 2 || order[0] != want[0] || order[1] != want[1] {
		t.Errorf("execution order = %v, want %v", order, want)
	}
}

func TestRunAllContinuesPastFailures(t *testing.T) {
	c := New()
	ran := map[string]bool{}
	c.Register(
		campaign.TeardownAction{Reason: "a", Run: func(ctx context.Context) error {
			ran["a"] = true
			return fmt.Errorf("a failed")
		}},
		campaign.TeardownAction{Reason: "b", Run: func(ctx context.Context) error {
			ran["b"] = true
			return nil
		}},
	)

	err := c.RunAll(context.Background())
	if err == nil {
		t.Fatal("RunAll with a failing action succeeded, want a combined error")
	}
	if !ran["a"] || !ran["b"] {
		t.Errorf("ran = %v, want both a and b to have run despite a's failure", ran)
	}
}

func TestAuditLogAndSummary(t *testing.T) {
	c := New()
	c.Register(
		campaign.TeardownAction{Reason: "ok", Run: func(ctx context.Context) error { return nil }},
		campaign.TeardownAction{Reason: "bad", Run: func(ctx context.Context) error { return fmt.Errorf("boom") }},
	)
	_ = c.RunAll(context.Background())

	log := c.AuditLog()
	if len(log) != 2 {
		t.Fatalf("AuditLog() = %d entries, want 2", len(log))
	}

	summary := c.GetSummary()
	if summary.TotalActions != 2 || summary.Succeeded != 1 || summary.Failed != 1 {
		t.Errorf("GetSummary() = %+v, want {2 1 1}", summary)
	}
	if summary.String() == "" {
		t.Error("Summary.String() returned empty string")
	}
}

func TestRunAllClearsActionsAfterRunning(t *testing.T) {
	c := New()
	c.Register(campaign.TeardownAction{Reason: "x", Run: func(ctx context.Context) error { return nil }})
	if err := c.RunAll(context.Background()); err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	// A second RunAll with nothing newly registered must be a no-op, not a
	// re-run of the first batch.
	if err := c.RunAll(context.Background()); err != nil {
		t.Fatalf("second RunAll: %v", err)
	}
	if len(c.AuditLog()) != 1 {
		t.Errorf("AuditLog() after second empty RunAll = %d entries, want 1 (unchanged)", len(c.AuditLog()))
	}
}

func TestRunAllNoActions(t *testing.T) {
	c := New()
	if err := c.RunAll(context.Background()); err != nil {
		t.Fatalf("RunAll with no registered actions: %v", err)
	}
	if summary := c.GetSummary(); summary.TotalActions != 0 {
		t.Errorf("GetSummary() = %+v, want zero value", summary)
	}
}

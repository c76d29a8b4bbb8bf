// Package cleanup runs a scenario's accumulated teardown actions
// (temporary-snapshot deletions registered by pkg/campaign) and keeps an
// audit log of what ran and whether it succeeded (SPEC_FULL.md component
// N). Every registered action runs regardless of an earlier one's error,
// in reverse registration order, so a later phase's snapshot is torn down
// before an earlier phase's.
package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/jihwankim/flipsim/pkg/campaign"
)

// AuditEntry records the outcome of one teardown action.
type AuditEntry struct {
	Timestamp time.Time
	Reason    string
	Success   bool
	Error     error
}

// Coordinator accumulates teardown actions across however many campaigns
// an orchestrator run performs, then runs them all at the end.
type Coordinator struct {
	actions  []campaign.TeardownAction
	auditLog []AuditEntry
}

// New returns an empty Coordinator.
func New() *Coordinator {
	return &Coordinator{}
}

// Register appends actions to the coordinator's pending list.
func (c *Coordinator) Register(actions ...campaign.TeardownAction) {
	c.actions = append(c.actions, actions...)
}

// RunAll executes every registered action in reverse registration order,
// logging each outcome and continuing past individual failures. It returns
// a combined error if any action failed, but always runs every action.
func (c *Coordinator) RunAll(ctx context.Context) error {
	var firstErr error
	for i := len(c.actions) - 1; i >= 0; i-- {
		a := c.actions[i]
		err := a.Run(ctx)
		c.auditLog = append(c.auditLog, AuditEntry{
			Timestamp: time.Now(),
			Reason:    a.Reason,
			Success:   err == nil,
			Error:     err,
		})
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("cleanup: %s: %w", a.Reason, err)
		}
	}
	c.actions = nil
	if firstErr != nil {
		return fmt.Errorf("cleanup completed with errors, first: %w", firstErr)
	}
	return nil
}

// AuditLog returns every action run so far, in execution order.
func (c *Coordinator) AuditLog() []AuditEntry {
	return c.auditLog
}

// Summary reports how many registered actions ran successfully.
type Summary struct {
	TotalActions int
	Succeeded    int
	Failed       int
}

// String renders the summary as one line.
func (s Summary) String() string {
	return fmt.Sprintf("cleanup summary: %d total actions, %d succeeded, %d failed",
		s.TotalActions, s.Succeeded, s.Failed)
}

// GetSummary tallies the audit log collected by RunAll.
func (c *Coordinator) GetSummary() Summary {
	s := Summary{TotalActions: len(c.auditLog)}
	for _, e := range c.auditLog {
		if e.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

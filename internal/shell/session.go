// Package shell is the debugger-shell command registry (spec.md §4.K): the
// ten user commands, their parameter schemas, and typed handlers dispatched
// by name against a live session.
package shell

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/jihwankim/flipsim/pkg/memtree"
	"github.com/jihwankim/flipsim/pkg/monitor"
	"github.com/jihwankim/flipsim/pkg/registers"
)

// Session is the state shared across commands typed at the shell: the live
// bridge, the session-lifetime register inventory, and the shared RNG.
// The memory tree is deliberately not a Session field — spec.md §3 requires
// it be re-resolved on every command that needs it, never cached.
type Session struct {
	Bridge monitor.Bridge
	Inv    *registers.Inventory
	RNG    *rand.Rand
}

// NewSession creates a Session bound to bridge, with an unloaded register
// inventory and an RNG seeded with seed.
func NewSession(bridge monitor.Bridge, seed int64) *Session {
	return &Session{
		Bridge: bridge,
		Inv:    registers.New(),
		RNG:    rand.New(rand.NewSource(seed)), //nolint:gosec
	}
}

// loadTree issues "info mtree -f" and parses the response fresh.
func (s *Session) loadTree(ctx context.Context) (memtree.MemoryTree, error) {
	out, err := s.Bridge.HMP(ctx, "info mtree -f")
	if err != nil {
		return nil, fmt.Errorf("shell: info mtree -f: %w", err)
	}
	tree, err := memtree.Parse(out)
	if err != nil {
		return nil, fmt.Errorf("shell: parsing memory tree: %w", err)
	}
	return tree, nil
}

// ensureInventory loads the register inventory on first use. Subsequent
// calls are no-ops per Inventory.Load's own idempotence.
func (s *Session) ensureInventory(ctx context.Context) error {
	lister, ok := s.Bridge.(registers.FrameLister)
	if !ok {
		return fmt.Errorf("shell: bridge does not implement register listing")
	}
	return s.Inv.Load(ctx, lister, registers.DefaultAArch64Classifier)
}

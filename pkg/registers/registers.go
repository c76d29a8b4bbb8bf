// Package registers enumerates the guest's CPU register set once per
// debugger session and classifies each register by width and kind.
package registers

import (
	"context"
	"fmt"
	"sync"
)

// Class distinguishes scalar (64-bit) registers from 128-bit vector
// registers, which are flipped one 64-bit half at a time.
type Class int

const (
	Scalar Class = iota
	Vector128
)

func (c Class) String() string {
	if c == Vector128 {
		return "vector128"
	}
	return "scalar"
}

// Descriptor is one register's name, byte width, and class.
type Descriptor struct {
	Name      string
	ByteWidth int
	Class     Class
}

// BitCount returns the number of bits a flip may target: min(8*ByteWidth, 64).
// A vector register exposes 64 bits per half, never its full 128.
func (d Descriptor) BitCount() int {
	n := 8 * d.ByteWidth
	if n > 64 {
		n = 64
	}
	return n
}

// TypeClassifier reports whether a raw architecture-reported type string
// names a register this harness should track. It is supplied by the caller
// because the allow-list is architecture-specific (the default below is
// shaped for AArch64).
type TypeClassifier func(rawType string) (include bool, class Class, byteWidth int)

// DefaultAArch64Classifier accepts the register shapes the original
// implementation tracks: a 64-bit integer-like scalar, a pointer, a function
// pointer, or the architecture's 128-bit vector tagged union. Every other
// type string (aliases, sub-registers) is excluded so a flip never double
// counts a register under two names.
func DefaultAArch64Classifier(rawType string) (bool, Class, int) {
	switch rawType {
	case "long", "long long", "int64_t", "uint64_t":
		return true, Scalar, 8
	case "void *", "func_ptr", "data_ptr", "code_ptr":
		return true, Scalar, 8
	case "vec128", "v128", "int128_union":
		return true, Vector128, 16
	default:
		return false, Scalar, 0
	}
}

// FrameLister is the monitor-bridge-backed source of the current frame's raw
// register list: pairs of (name, architecture-reported type string).
type FrameLister interface {
	ListRegisters(ctx context.Context) ([]RawRegister, error)
}

// RawRegister is one register as reported by the debugger frame, before
// classification.
type RawRegister struct {
	Name string
	Type string
}

// Inventory is the session-lifetime singleton list of classified register
// descriptors. Construction is idempotent: the outcome of the first Load
// call, success or error, is kept for the remainder of the process.
type Inventory struct {
	mu    sync.RWMutex
	once  sync.Once
	descs []Descriptor
	err   error
}

// New returns an empty, unloaded Inventory. Call Load once per session
// before using Descriptors/Find — subsequent Load calls are no-ops.
func New() *Inventory {
	return &Inventory{}
}

// Load queries lister for the current frame's raw registers and classifies
// each with classify, caching the result for the inventory's lifetime. It is
// safe to call concurrently and safe to call more than once: only the first
// call's outcome is kept.
func (inv *Inventory) Load(ctx context.Context, lister FrameLister, classify TypeClassifier) error {
	inv.once.Do(func() {
		raw, err := lister.ListRegisters(ctx)
		if err != nil {
			inv.err = fmt.Errorf("registers: listing frame registers: %w", err)
			return
		}

		var descs []Descriptor
		for _, r := range raw {
			include, class, width := classify(r.Type)
			if !include {
				continue
			}
			descs = append(descs, Descriptor{Name: r.Name, ByteWidth: width, Class: class})
		}

		inv.mu.Lock()
		inv.descs = descs
		inv.mu.Unlock()
	})
	return inv.err
}

// Descriptors returns the cached inventory. Load must have been called
// first; an empty, un-loaded inventory returns an empty slice.
func (inv *Inventory) Descriptors() []Descriptor {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	out := make([]Descriptor, len(inv.descs))
	copy(out, inv.descs)
	return out
}

// Find returns the descriptor with the given exact name, if present.
func (inv *Inventory) Find(name string) (Descriptor, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	for _, d := range inv.descs {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Names returns the cached inventory's register names, in inventory order.
func (inv *Inventory) Names() []string {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	names := make([]string, len(inv.descs))
	for i, d := range inv.descs {
		names[i] = d.Name
	}
	return names
}

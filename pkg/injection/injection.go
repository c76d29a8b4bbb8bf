// Package injection implements the harness's core fault primitives: RAM
// and register bit flips with read-back verification, wildcard register
// selection, and the CSV injection log (spec.md §4.F, §4.I).
package injection

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/jihwankim/flipsim/pkg/hexutil"
	"github.com/jihwankim/flipsim/pkg/monitor"
	"github.com/jihwankim/flipsim/pkg/registers"
)

// Record is one logged injection: a target (hex address or register name)
// and its old/new values, both hex-rendered.
type Record struct {
	Target   string
	OldValue string
	NewValue string
}

// FlipRAM flips one bit at address, reading byteWidth bytes little-endian,
// writing the result back, and verifying by read-back. A mismatch between
// the read-back value and the intended new value is a hard failure: it
// means the monitor silently rejected the write.
func FlipRAM(ctx context.Context, b monitor.Bridge, address uint64, byteWidth int, bit int) (Record, error) {
	if byteWidth < 1 {
		return Record{}, fmt.Errorf("injection: byteWidth must be >= 1, got %d", byteWidth)
	}
	if bit < 0 || bit >= 8*byteWidth {
		return Record{}, fmt.Errorf("injection: bit %d out of range for byteWidth %d", bit, byteWidth)
	}

	old, err := b.ReadMem(ctx, address, byteWidth)
	if err != nil {
		return Record{}, fmt.Errorf("injection: reading 0x%x: %w", address, err)
	}

	oldVal := leToUint(old)
	newVal := oldVal ^ (uint64(1) << uint(bit))
	newBytes := uintToLE(newVal, byteWidth)

	if err := b.WriteMem(ctx, address, newBytes); err != nil {
		return Record{}, fmt.Errorf("injection: writing 0x%x: %w", address, err)
	}

	readback, err := b.ReadMem(ctx, address, byteWidth)
	if err != nil {
		return Record{}, fmt.Errorf("injection: reading back 0x%x: %w", address, err)
	}
	rbVal := leToUint(readback)
	if rbVal != newVal || rbVal == oldVal {
		return Record{}, fmt.Errorf("injection: read-back mismatch at 0x%x: wrote 0x%x, read 0x%x (old 0x%x)",
			address, newVal, rbVal, oldVal)
	}

	rec := Record{
		Target:   hexutil.EncodeUint64(address),
		OldValue: hexutil.EncodeUint64(oldVal),
		NewValue: hexutil.EncodeUint64(newVal),
	}
	Log(rec)
	return rec, nil
}

// FlipOutcome distinguishes a successful register flip from the normal
// read-only/squashed-write retry signal.
type FlipOutcome int

const (
	FlipSuccess FlipOutcome = iota
	FlipRetry               // register is read-only or the write was squashed
)

// FlipRegister flips one bit of the named register. bit may be nil to draw
// a bit uniformly at random within the register's bit count. Vector
// registers are flipped one 64-bit half at a time, the half chosen
// uniformly at random; index 0 is the architecturally lower 64 bits.
func FlipRegister(ctx context.Context, b monitor.Bridge, rng *rand.Rand, desc registers.Descriptor, bit *int) (Record, FlipOutcome, error) {
	bitCount := desc.BitCount()

	half := 0
	if desc.Class == registers.Vector128 {
		half = rng.Intn(2)
	}

	b2 := 0
	if bit != nil {
		b2 = *bit
		if b2 < 0 || b2 >= bitCount {
			return Record{}, FlipRetry, fmt.Errorf("injection: bit %d out of range for register %s (%d bits)", b2, desc.Name, bitCount)
		}
	} else {
		b2 = rng.Intn(bitCount)
	}

	old, err := b.ReadReg(ctx, desc.Name, half)
	if err != nil {
		return Record{}, FlipRetry, fmt.Errorf("injection: reading register %s: %w", desc.Name, err)
	}

	var mask uint64 = ^uint64(0)
	if bitCount < 64 {
		mask = (uint64(1) << uint(bitCount)) - 1
	}

	newVal := old ^ (uint64(1) << uint(b2))

	if err := b.WriteReg(ctx, desc.Name, half, newVal); err != nil {
		return Record{}, FlipRetry, fmt.Errorf("injection: writing register %s: %w", desc.Name, err)
	}

	readback, err := b.ReadReg(ctx, desc.Name, half)
	if err != nil {
		return Record{}, FlipRetry, fmt.Errorf("injection: reading back register %s: %w", desc.Name, err)
	}

	maskedNew := newVal & mask
	maskedOld := old & mask
	maskedRB := readback & mask

	switch {
	case maskedRB == maskedNew:
		rec := Record{
			Target:   desc.Name,
			OldValue: hexutil.EncodeUint64(maskedOld),
			NewValue: hexutil.EncodeUint64(maskedNew),
		}
		Log(rec)
		return rec, FlipSuccess, nil
	case maskedRB == maskedOld:
		// Read-only or squashed write: normal, caller retries with another register.
		return Record{}, FlipRetry, nil
	default:
		return Record{}, FlipRetry, fmt.Errorf(
			"injection: hard failure on register %s: wrote 0x%x, read 0x%x, old 0x%x",
			desc.Name, maskedNew, maskedRB, maskedOld)
	}
}

// ExpandWildcard expands a register name possibly containing '*' wildcards
// into the subset of names matching "^seg1.*seg2.*…$", where segments are
// the literal pieces split on '*'.
func ExpandWildcard(pattern string, names []string) ([]string, error) {
	if !strings.Contains(pattern, "*") {
		for _, n := range names {
			if n == pattern {
				return []string{n}, nil
			}
		}
		return nil, nil
	}

	segments := strings.Split(pattern, "*")
	var quoted []string
	for _, s := range segments {
		quoted = append(quoted, regexp.QuoteMeta(s))
	}
	reSrc := "^" + strings.Join(quoted, ".*") + "$"
	re, err := regexp.Compile(reSrc)
	if err != nil {
		return nil, fmt.Errorf("injection: compiling wildcard pattern %q: %w", pattern, err)
	}

	var matches []string
	for _, n := range names {
		if re.MatchString(n) {
			matches = append(matches, n)
		}
	}
	return matches, nil
}

// FlipWildcardRegister expands pattern, shuffles the match set, and tries
// each in order until one flip succeeds. Returns an error if the subset is
// exhausted without success.
func FlipWildcardRegister(ctx context.Context, b monitor.Bridge, rng *rand.Rand, inv *registers.Inventory, pattern string, bit *int) (Record, error) {
	matches, err := ExpandWildcard(pattern, inv.Names())
	if err != nil {
		return Record{}, err
	}
	if len(matches) == 0 {
		return Record{}, fmt.Errorf("injection: wildcard %q matches no register", pattern)
	}

	rng.Shuffle(len(matches), func(i, j int) { matches[i], matches[j] = matches[j], matches[i] })

	for _, name := range matches {
		desc, ok := inv.Find(name)
		if !ok {
			continue
		}
		rec, outcome, err := FlipRegister(ctx, b, rng, desc, bit)
		if err != nil {
			return Record{}, err
		}
		if outcome == FlipSuccess {
			return rec, nil
		}
	}

	return Record{}, fmt.Errorf("injection: out of registers to try for pattern %q", pattern)
}

func leToUint(b []byte) uint64 {
	var v uint64
	for i, by := range b {
		v |= uint64(by) << uint(8*i)
	}
	return v
}

func uintToLE(v uint64, width int) []byte {
	out := make([]byte, width)
	for i := 0; i < width; i++ {
		out[i] = byte(v >> uint(8*i))
	}
	return out
}

// Package monitor defines the opaque contract this harness uses to talk to
// the running emulator. The rest of the core depends only on this
// interface; pkg/monitor/gdbremote supplies the one concrete adapter.
package monitor

import "context"

// Bridge is the emulator control-channel contract. Every implementation
// must be safe for sequential use from a single goroutine; the core never
// calls a Bridge method concurrently with another on the same instance
// (see spec.md §5 — single-threaded, cooperative scheduling).
type Bridge interface {
	// HMP executes a monitor (human monitor protocol) command synchronously
	// and returns its textual output.
	HMP(ctx context.Context, cmd string) (string, error)

	// ReadMem reads length bytes of guest-physical memory starting at addr.
	ReadMem(ctx context.Context, addr uint64, length int) ([]byte, error)

	// WriteMem writes data to guest-physical memory starting at addr.
	WriteMem(ctx context.Context, addr uint64, data []byte) error

	// ReadReg reads the named register, scoped to the currently selected
	// guest CPU. half selects which 64-bit half to read for a vector
	// register (ignored for scalars); index 0 is the architecturally lower
	// 64 bits.
	ReadReg(ctx context.Context, name string, half int) (uint64, error)

	// WriteReg writes value into the named register's given half.
	WriteReg(ctx context.Context, name string, half int, value uint64) error

	// Eval evaluates a debugger expression (e.g. "main+0x20") and returns
	// its integer value, used to resolve symbolic addresses.
	Eval(ctx context.Context, expr string) (uint64, error)

	// SendSerial writes raw bytes to the guest's serial port.
	SendSerial(ctx context.Context, data []byte) error
}

package shell

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jihwankim/flipsim/internal/shellarg"
	"github.com/jihwankim/flipsim/pkg/campaign"
	"github.com/jihwankim/flipsim/pkg/injection"
)

// builtinCommands returns exactly the ten commands named in spec.md §6.
// loop needs r to re-dispatch by name, so the registry passes itself in.
func builtinCommands(r *Registry) []Command {
	return []Command{
		{
			Name: "listram",
			Doc:  "List all RAM ranges allocated by the emulator and one sampled address.",
			Handler: cmdListram,
		},
		{
			Name: "listreg",
			Doc:  "List every inventoried CPU register and its width.",
			Handler: cmdListreg,
		},
		{
			Name: "stop_delayed",
			Doc:  "Advance guest time by --ns nanoseconds and re-pause.",
			Schema: shellarg.Schema{Params: []shellarg.Param{
				{Name: "ns", Type: shellarg.TInt, Required: true},
			}},
			Handler: cmdStopDelayed,
		},
		{
			Name: "inject",
			Doc:  "Flip a bit in RAM at --address (or a random address), width --bytewidth, bit --bit.",
			Schema: shellarg.Schema{Params: []shellarg.Param{
				{Name: "address", Type: shellarg.TString},
				{Name: "bytewidth", Type: shellarg.TInt},
				{Name: "bit", Type: shellarg.TInt},
			}},
			Handler: cmdInject,
		},
		{
			Name: "inject_reg",
			Doc:  "Flip a bit in --register (name or wildcard, default *) at --bit (default random).",
			Schema: shellarg.Schema{Params: []shellarg.Param{
				{Name: "register", Type: shellarg.TString},
				{Name: "bit", Type: shellarg.TInt},
			}},
			Handler: cmdInjectReg,
		},
		{
			Name: "loginject",
			Doc:  "Initialise the CSV injection log at --filename.",
			Schema: shellarg.Schema{Params: []shellarg.Param{
				{Name: "filename", Type: shellarg.TString, Required: true},
			}},
			Handler: cmdLoginject,
		},
		{
			Name: "autoinject",
			Doc:  "Inject --total-fault-number untargeted faults of --fault-type, spaced by a random interval in [--min-interval, --max-interval].",
			Schema: shellarg.Schema{Params: []shellarg.Param{
				{Name: "total-fault-number", Type: shellarg.TInt, Required: true},
				{Name: "min-interval", Type: shellarg.TDuration, Required: true},
				{Name: "max-interval", Type: shellarg.TDuration, Required: true},
				{Name: "fault-type", Type: shellarg.TChoice, Required: true, Choices: []string{"ram", "reg"}},
			}},
			Handler: cmdAutoinject,
		},
		{
			Name: "snapinject",
			Doc:  "Like autoinject, scoped to a snapshot; --fault-location/--bit-index target one address or register, --observe-time waits before teardown.",
			Schema: shellarg.Schema{Params: []shellarg.Param{
				{Name: "total-fault-number", Type: shellarg.TInt, Required: true},
				{Name: "min-interval", Type: shellarg.TDuration, Required: true},
				{Name: "max-interval", Type: shellarg.TDuration, Required: true},
				{Name: "fault-type", Type: shellarg.TChoice, Required: true, Choices: []string{"ram", "reg"}},
				{Name: "fault-location", Type: shellarg.TString},
				{Name: "bit-index", Type: shellarg.TInt},
				{Name: "observe-time", Type: shellarg.TDuration, Required: true},
				{Name: "snapshot-tag", Type: shellarg.TString},
			}},
			Handler: cmdSnapinject,
		},
		{
			Name: "loop",
			Doc:  "Repeat --command [--command-args ...] --times times.",
			Schema: shellarg.Schema{
				Params: []shellarg.Param{
					{Name: "times", Type: shellarg.TInt, Required: true},
					{Name: "command", Type: shellarg.TString, Required: true},
				},
				VariadicName: "command-args",
			},
			Handler: cmdLoop(r),
		},
		{
			Name: "appinject",
			Doc:  "Flip one bit each at --total-fault-number addresses sampled from --range-file.",
			Schema: shellarg.Schema{Params: []shellarg.Param{
				{Name: "total-fault-number", Type: shellarg.TInt, Required: true},
				{Name: "range-file", Type: shellarg.TString, Required: true},
			}},
			Handler: cmdAppinject,
		},
	}
}

func cmdListram(ctx context.Context, s *Session, _ shellarg.Values) error {
	tree, err := s.loadTree(ctx)
	if err != nil {
		return err
	}
	view := tree["memory"]
	fmt.Println("ram ranges:")
	for _, rg := range view.RAMRanges() {
		fmt.Printf("  0x%x-0x%x\n", rg.Start, rg.End)
	}
	addr, err := view.RandomAddress(s.RNG)
	if err != nil {
		return err
	}
	fmt.Printf("sampled address: 0x%x\n", addr)
	return nil
}

func cmdListreg(ctx context.Context, s *Session, _ shellarg.Values) error {
	if err := s.ensureInventory(ctx); err != nil {
		return err
	}
	descs := s.Inv.Descriptors()
	if len(descs) == 0 {
		fmt.Println("no registers in inventory")
		return nil
	}
	maxlen := 0
	for _, d := range descs {
		if len(d.Name) > maxlen {
			maxlen = len(d.Name)
		}
	}
	fmt.Println("registers:")
	for _, d := range descs {
		fmt.Printf("  %-*s -> %d byte(s) (%s)\n", maxlen, d.Name, d.ByteWidth, d.Class)
	}
	return nil
}

func cmdStopDelayed(ctx context.Context, s *Session, v shellarg.Values) error {
	ns := v.GetInt("ns")
	if ns <= 0 {
		return fmt.Errorf("shell: --ns must be > 0")
	}
	return campaign.Step(ctx, s.Bridge, ns)
}

func cmdInject(ctx context.Context, s *Session, v shellarg.Values) error {
	var address uint64
	bytewidth := 1

	if v.Has("address") {
		if !v.Has("bytewidth") {
			return fmt.Errorf("shell: --bytewidth is required when --address is given")
		}
		expr := v.Get("address")
		addr, err := s.Bridge.Eval(ctx, expr)
		if err != nil {
			return fmt.Errorf("shell: resolving address %q: %w", expr, err)
		}
		address = addr
		bytewidth = int(v.GetInt("bytewidth"))
		if bytewidth < 1 {
			return fmt.Errorf("shell: --bytewidth must be >= 1")
		}
	} else {
		tree, err := s.loadTree(ctx)
		if err != nil {
			return err
		}
		addr, err := tree["memory"].RandomAddress(s.RNG)
		if err != nil {
			return fmt.Errorf("shell: sampling random address: %w", err)
		}
		address = addr
	}

	bit := s.RNG.Intn(8 * bytewidth)
	if v.Has("bit") {
		bit = int(v.GetInt("bit"))
	}
	if bit < 0 || bit >= 8*bytewidth {
		return fmt.Errorf("shell: --bit %d out of range for bytewidth %d", bit, bytewidth)
	}

	rec, err := injection.FlipRAM(ctx, s.Bridge, address, bytewidth, bit)
	if err != nil {
		return err
	}
	fmt.Printf("flipped %s: %s -> %s\n", rec.Target, rec.OldValue, rec.NewValue)
	return nil
}

func cmdInjectReg(ctx context.Context, s *Session, v shellarg.Values) error {
	if err := s.ensureInventory(ctx); err != nil {
		return err
	}
	pattern := v.Get("register")
	if pattern == "" {
		pattern = "*"
	}
	var bitPtr *int
	if v.Has("bit") {
		b := int(v.GetInt("bit"))
		bitPtr = &b
	}
	rec, err := injection.FlipWildcardRegister(ctx, s.Bridge, s.RNG, s.Inv, pattern, bitPtr)
	if err != nil {
		return err
	}
	fmt.Printf("flipped %s: %s -> %s\n", rec.Target, rec.OldValue, rec.NewValue)
	return nil
}

func cmdLoginject(_ context.Context, _ *Session, v shellarg.Values) error {
	path := v.Get("filename")
	if err := injection.InitLog(path); err != nil {
		return err
	}
	fmt.Printf("logging injections to %s\n", path)
	return nil
}

func cmdAutoinject(ctx context.Context, s *Session, v shellarg.Values) error {
	tree, err := s.loadTree(ctx)
	if err != nil {
		return err
	}
	kind := campaign.Kind(v.Get("fault-type"))
	if kind == campaign.Reg {
		if err := s.ensureInventory(ctx); err != nil {
			return err
		}
	}

	params := campaign.Params{
		Count: int(v.GetInt("total-fault-number")),
		MinNS: v.GetDuration("min-interval"),
		MaxNS: v.GetDuration("max-interval"),
		Kind:  kind,
	}

	engine := &campaign.Engine{Bridge: s.Bridge, Tree: tree, Inv: s.Inv, RNG: s.RNG}
	start := time.Now()
	res, runErr := engine.Run(ctx, params)
	fmt.Printf("total injection duration: %s\n", time.Since(start))
	if runErr != nil {
		return runErr
	}
	fmt.Printf("%d injection(s) completed\n", len(res.Injections))
	return nil
}

func cmdSnapinject(ctx context.Context, s *Session, v shellarg.Values) error {
	tree, err := s.loadTree(ctx)
	if err != nil {
		return err
	}
	kind := campaign.Kind(v.Get("fault-type"))
	if kind == campaign.Reg {
		if err := s.ensureInventory(ctx); err != nil {
			return err
		}
	}

	hasLoc := v.Has("fault-location")
	hasBit := v.Has("bit-index")
	if hasLoc != hasBit {
		return fmt.Errorf("shell: --fault-location and --bit-index must be specified together")
	}

	params := campaign.Params{
		Count:       int(v.GetInt("total-fault-number")),
		MinNS:       v.GetDuration("min-interval"),
		MaxNS:       v.GetDuration("max-interval"),
		Kind:        kind,
		ObserveNS:   v.GetDuration("observe-time"),
		SnapshotTag: v.Get("snapshot-tag"),
	}
	if hasLoc {
		params.ExplicitTarget = v.Get("fault-location")
		bit := int(v.GetInt("bit-index"))
		params.Bit = &bit
	}

	engine := &campaign.Engine{Bridge: s.Bridge, Tree: tree, Inv: s.Inv, RNG: s.RNG}
	start := time.Now()
	res, runErr := engine.Run(ctx, params)
	fmt.Printf("total injection duration: %s\n", time.Since(start))
	if runErr != nil {
		return runErr
	}
	fmt.Printf("%d injection(s) completed\n", len(res.Injections))
	return nil
}

func cmdLoop(r *Registry) func(context.Context, *Session, shellarg.Values) error {
	return func(ctx context.Context, s *Session, v shellarg.Values) error {
		times := v.GetInt("times")
		if times < 1 {
			return fmt.Errorf("shell: --times must be >= 1")
		}
		name := v.Get("command")
		rest := strings.Join(v.Variadic, " ")
		for i := int64(0); i < times; i++ {
			if err := r.Dispatch(ctx, s, name, rest); err != nil {
				fmt.Printf("loop iteration %d/%d: %v\n", i+1, times, err)
			}
		}
		return nil
	}
}

func cmdAppinject(ctx context.Context, s *Session, v shellarg.Values) error {
	count := int(v.GetInt("total-fault-number"))
	if count <= 0 {
		return fmt.Errorf("shell: --total-fault-number must be > 0")
	}
	addrs, err := parseRangeFile(v.Get("range-file"))
	if err != nil {
		return err
	}
	if len(addrs) == 0 {
		return fmt.Errorf("shell: no valid addresses found in range file")
	}
	if count > len(addrs) {
		return fmt.Errorf("shell: requested %d injections, but only %d address(es) found", count, len(addrs))
	}

	s.RNG.Shuffle(len(addrs), func(i, j int) { addrs[i], addrs[j] = addrs[j], addrs[i] })
	targets := addrs[:count]

	fmt.Printf("performing %d bitflip injection(s) from %d available address(es)\n", count, len(addrs))
	for _, addr := range targets {
		bit := s.RNG.Intn(8)
		rec, err := injection.FlipRAM(ctx, s.Bridge, addr, 1, bit)
		if err != nil {
			fmt.Printf("injection failed at 0x%x: %v\n", addr, err)
			continue
		}
		fmt.Printf("flipped %s: %s -> %s\n", rec.Target, rec.OldValue, rec.NewValue)
	}
	return nil
}

// parseRangeFile reads the range-file format consumed by appinject: one
// "0xHEX-0xHEX" interval per line, inclusive start / exclusive end, byte
// granularity. Blank lines are skipped; malformed lines are skipped with a
// warning.
func parseRangeFile(path string) ([]uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("shell: opening %s: %w", path, err)
	}
	defer f.Close()

	var addrs []uint64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "-", 2)
		if len(parts) != 2 {
			fmt.Printf("shell: skipping malformed range line %q\n", line)
			continue
		}
		start, err1 := strconv.ParseUint(strings.TrimPrefix(parts[0], "0x"), 16, 64)
		end, err2 := strconv.ParseUint(strings.TrimPrefix(parts[1], "0x"), 16, 64)
		if err1 != nil || err2 != nil || end <= start {
			fmt.Printf("shell: skipping malformed range line %q\n", line)
			continue
		}
		for a := start; a < end; a++ {
			addrs = append(addrs, a)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("shell: scanning range file: %w", err)
	}
	return addrs, nil
}

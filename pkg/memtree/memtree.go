// Package memtree parses the emulator monitor's "info mtree -f" report into a
// structured flat-view model and supports uniform random sampling over RAM.
package memtree

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// MemoryRange is an immutable record describing one rendered region of an
// address space. end is inclusive as the monitor reports it.
type MemoryRange struct {
	Start    uint64
	End      uint64
	Priority int
	Kind     string
	Name     string
}

// Len returns the byte length of the range, treating End as exclusive for
// length arithmetic.
func (r MemoryRange) Len() uint64 {
	return r.End - r.Start + 1
}

// FlatView is an ordered sequence of MemoryRange values in parse order.
// Duplicates are permitted; the source may legitimately repeat overlapping
// regions at different priorities.
type FlatView []MemoryRange

// RAMRanges returns the subsequence of ranges whose Kind is "ram".
func (v FlatView) RAMRanges() []MemoryRange {
	var out []MemoryRange
	for _, r := range v {
		if r.Kind == "ram" {
			out = append(out, r)
		}
	}
	return out
}

// RandomAddress draws a byte address uniformly from [Start, End) of each RAM
// range in v; the inclusive End byte of a range is never returned. It
// follows the offset-accumulation form called out in the reference
// implementation: draw an offset uniformly in [0, L) where L is the sum of
// End-Start over the RAM ranges, then walk ranges subtracting each range's
// End-Start until the offset falls inside the current range.
func (v FlatView) RandomAddress(rng *rand.Rand) (uint64, error) {
	ram := v.RAMRanges()
	if len(ram) == 0 {
		return 0, fmt.Errorf("memtree: no ram ranges to sample from")
	}

	var total uint64
	for _, r := range ram {
		total += r.End - r.Start
	}
	if total == 0 {
		// A single one-byte RAM range: Start == End everywhere, so total
		// accumulates to 0 under the (end-start) convention below. Return
		// the lone byte directly rather than dividing by zero.
		return ram[0].Start, nil
	}

	offset := uint64(rng.Int63n(int64(total)))
	for _, r := range ram {
		width := r.End - r.Start
		if offset < width {
			return r.Start + offset, nil
		}
		offset -= width
	}
	// Unreachable given the accumulation above, but fall back to the last
	// range's start rather than panicking.
	return ram[len(ram)-1].Start, nil
}

// MemoryTree maps an address-space name (e.g. "memory", "I/O") to its
// FlatView. An address space with no rendered ranges is absent from the map.
type MemoryTree map[string]FlatView

var (
	asLineRe    = regexp.MustCompile(`^\s*AS\s+"([^"]*)",\s*root:\s*(.*)$`)
	rootLineRe  = regexp.MustCompile(`^\s*Root memory region:\s*(.*)$`)
	rangeLineRe = regexp.MustCompile(`^\s*([0-9a-fA-F]+)-([0-9a-fA-F]+)\s+\(prio\s+(-?\d+),\s*([^)]+)\):\s*(\S+)`)
	flatviewRe  = regexp.MustCompile(`^FlatView #\d+`)
	emptyRe     = regexp.MustCompile(`^\s*No rendered FlatView\s*$`)
)

// Parse parses the text response to the monitor's flat memory-tree query.
func Parse(report string) (MemoryTree, error) {
	tree := MemoryTree{}
	scanner := bufio.NewScanner(strings.NewReader(report))

	var (
		curNames []string
		curView  FlatView
		inBlock  bool
	)

	flush := func() {
		if !inBlock {
			return
		}
		for _, n := range curNames {
			if len(curView) > 0 {
				tree[n] = append(tree[n], curView...)
			}
		}
		curNames = nil
		curView = nil
		inBlock = false
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case flatviewRe.MatchString(line):
			flush()
			inBlock = true

		case asLineRe.MatchString(line):
			m := asLineRe.FindStringSubmatch(line)
			if m == nil || m[1] == "" {
				// Aborts the whole Parse call rather than just this flatview;
				// matches qemu_utils.py's _extract_address_space_name, which
				// lets its ValueError propagate out of mtree() the same way.
				return nil, fmt.Errorf("memtree: malformed AS line: %q", line)
			}
			curNames = append(curNames, m[1])

		case rootLineRe.MatchString(line):
			// informational only; root region name is not needed downstream

		case emptyRe.MatchString(line):
			// This flatview renders nothing: drop any address spaces
			// collected so far in this block without adding them to tree.
			curNames = nil
			curView = nil

		case rangeLineRe.MatchString(line):
			m := rangeLineRe.FindStringSubmatch(line)
			start, err1 := strconv.ParseUint(m[1], 16, 64)
			end, err2 := strconv.ParseUint(m[2], 16, 64)
			prio, err3 := strconv.Atoi(m[3])
			if err1 != nil || err2 != nil || err3 != nil || start > end {
				// Unparseable range line: skip with a warning, keep going.
				fmt.Fprintf(os.Stderr, "memtree: skipping unparseable range line: %q\n", line)
				continue
			}
			curView = append(curView, MemoryRange{
				Start:    start,
				End:      end,
				Priority: prio,
				Kind:     strings.TrimSpace(m[4]),
				Name:     m[5],
			})

		default:
			// blank or unrecognized line within a block: ignore
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("memtree: scanning report: %w", err)
	}

	return tree, nil
}

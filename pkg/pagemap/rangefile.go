package pagemap

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// WriteRangeFile writes intervals in the range-file format consumed by
// appinject: one "0xHEX-0xHEX" line per interval, inclusive start,
// exclusive end, byte granularity.
func WriteRangeFile(path string, intervals []Interval) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pagemap: creating range file %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, iv := range intervals {
		if _, err := fmt.Fprintf(w, "0x%x-0x%x\n", iv.Start, iv.End); err != nil {
			return fmt.Errorf("pagemap: writing range file: %w", err)
		}
	}
	return w.Flush()
}

// ReadRangeFile parses a range file, skipping blank lines silently and
// non-conforming lines with a warning printed to stderr.
func ReadRangeFile(path string) ([]Interval, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pagemap: opening range file %s: %w", path, err)
	}
	defer f.Close()

	var intervals []Interval
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "-", 2)
		if len(parts) != 2 {
			fmt.Fprintf(os.Stderr, "pagemap: skipping malformed range line: %q\n", line)
			continue
		}
		start, err1 := strconv.ParseUint(strings.TrimPrefix(parts[0], "0x"), 16, 64)
		end, err2 := strconv.ParseUint(strings.TrimPrefix(parts[1], "0x"), 16, 64)
		if err1 != nil || err2 != nil || start >= end {
			fmt.Fprintf(os.Stderr, "pagemap: skipping malformed range line: %q\n", line)
			continue
		}
		intervals = append(intervals, Interval{Start: start, End: end})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("pagemap: scanning range file: %w", err)
	}
	return intervals, nil
}

// CandidateAddresses expands intervals into the set of individual byte
// addresses they cover (inclusive start, exclusive end).
func CandidateAddresses(intervals []Interval) []uint64 {
	var out []uint64
	for _, iv := range intervals {
		for a := iv.Start; a < iv.End; a++ {
			out = append(out, a)
		}
	}
	return out
}

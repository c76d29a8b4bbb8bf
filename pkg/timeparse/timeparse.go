// Package timeparse parses the duration literals accepted throughout the
// debugger shell (e.g. "500", "10ms", "2s", "1m") into nanosecond counts.
package timeparse

import (
	"fmt"
	"strconv"
	"strings"
)

// suffixes is ordered longest-match-first so "ms" is tried before "s" and
// "us"/"ns" before the empty suffix.
var suffixes = []struct {
	suffix string
	scale  int64
}{
	{"ms", 1_000_000},
	{"us", 1_000},
	{"ns", 1},
	{"m", 60_000_000_000},
	{"s", 1_000_000_000},
	{"", 1},
}

// Parse converts a duration literal into a strictly positive nanosecond count.
// The numeric prefix must be a positive decimal integer; zero or negative
// values, and unparseable prefixes, are rejected.
func Parse(literal string) (int64, error) {
	s := strings.TrimSpace(literal)
	if s == "" {
		return 0, fmt.Errorf("timeparse: empty duration literal")
	}

	for _, suf := range suffixes {
		if suf.suffix != "" && !strings.HasSuffix(s, suf.suffix) {
			continue
		}
		numPart := strings.TrimSuffix(s, suf.suffix)
		if numPart == "" {
			continue
		}
		n, err := strconv.ParseInt(numPart, 10, 64)
		if err != nil {
			continue
		}
		if n <= 0 {
			return 0, fmt.Errorf("timeparse: %q must be a strictly positive integer", literal)
		}
		return n * suf.scale, nil
	}

	return 0, fmt.Errorf("timeparse: cannot parse duration literal %q", literal)
}

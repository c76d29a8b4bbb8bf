package pagemap

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const sampleMaps = `00400000-00452000 r-xp 00000000 08:02 173521      /bin/cat
00651000-00652000 r--p 00051000 08:02 173521      /bin/cat
00652000-00653000 rw-p 00052000 08:02 173521      /bin/cat
00c0b000-00c2e000 rw-p 00000000 00:00 0           [heap]
7f4b8d000000-7f4b8d021000 rw-p 00000000 00:00 0
malformed line with no addresses
7f4b8d200000-7f4b8d400000 r--p 00000000 00:00 0   [anon-short]
`

func writeMapsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "maps")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestParseMapsSkipsMalformedLines(t *testing.T) {
	path := writeMapsFile(t, sampleMaps)
	ranges, err := parseMaps(path)
	if err != nil {
		t.Fatalf("parseMaps: %v", err)
	}
	// 6 well-formed lines, the "malformed line..." entry is skipped.
	if len(ranges) != 6 {
		t.Fatalf("parseMaps returned %d ranges, want 6", len(ranges))
	}
}

func TestParseMapsExtractsAddressesAndAnonymity(t *testing.T) {
	path := writeMapsFile(t, sampleMaps)
	ranges, err := parseMaps(path)
	if err != nil {
		t.Fatalf("parseMaps: %v", err)
	}
	first := ranges[0]
	if first.start != 0x00400000 || first.end != 0x00452000 {
		t.Errorf("first range = [0x%x,0x%x), want [0x400000,0x452000)", first.start, first.end)
	}
	if first.anonymous {
		t.Error("/bin/cat-backed mapping reported anonymous, want false (inode != 0)")
	}
	heap := ranges[3]
	if !heap.anonymous {
		t.Error("[heap] mapping (inode 0) reported non-anonymous, want true")
	}
}

func TestParseMapsMissingFile(t *testing.T) {
	if _, err := parseMaps("/no/such/maps/file"); err == nil {
		t.Fatal("parseMaps on a missing file succeeded, want an error")
	}
}

func TestSelectRangesReadableMode(t *testing.T) {
	ranges := []vmRange{
		{start: 1, end: 2, perms: "r-xp", anonymous: false},
		{start: 2, end: 3, perms: "-w-p", anonymous: true},
		{start: 3, end: 4, perms: "rw-p", anonymous: true},
	}
	got := selectRanges(ranges, ModeReadable)
	if len(got) != 2 {
		t.Fatalf("ModeReadable selected %d ranges, want 2 (the two with 'r')", len(got))
	}
}

func TestSelectRangesAnonymousPrivateMode(t *testing.T) {
	ranges := []vmRange{
		{start: 1, end: 2, perms: "rw-p", anonymous: true},  // matches
		{start: 2, end: 3, perms: "rw-p", anonymous: false}, // file-backed, excluded
		{start: 3, end: 4, perms: "r--p", anonymous: true},  // not writable, excluded
		{start: 4, end: 5, perms: "rw-s", anonymous: true},  // shared not private, excluded
	}
	got := selectRanges(ranges, ModeAnonymousPrivate)
	if len(got) != 1 || got[0].start != 1 {
		t.Fatalf("ModeAnonymousPrivate = %+v, want exactly the one anon/rw/private range", got)
	}
}

func TestMergeIntervalsMergesAdjacentPages(t *testing.T) {
	pages := []uint64{0, PageSize, 2 * PageSize}
	got := MergeIntervals(pages)
	want := []Interval{{Start: 0, End: 3 * PageSize}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeIntervals(%v) = %v, want %v", pages, got, want)
	}
}

func TestMergeIntervalsSeparatesNonAdjacentPages(t *testing.T) {
	pages := []uint64{0, PageSize, 100 * PageSize}
	got := MergeIntervals(pages)
	if len(got) != 2 {
		t.Fatalf("MergeIntervals produced %d intervals, want 2", len(got))
	}
}

func TestMergeIntervalsDeduplicates(t *testing.T) {
	pages := []uint64{0, 0, PageSize}
	got := MergeIntervals(pages)
	want := []Interval{{Start: 0, End: 2 * PageSize}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeIntervals with a duplicate page = %v, want %v", got, want)
	}
}

func TestMergeIntervalsEmpty(t *testing.T) {
	if got := MergeIntervals(nil); got != nil {
		t.Errorf("MergeIntervals(nil) = %v, want nil", got)
	}
}

func TestExpandDescendantsIncludesRoots(t *testing.T) {
	self := int32(os.Getpid())
	out, err := ExpandDescendants([]int32{self})
	if err != nil {
		t.Fatalf("ExpandDescendants: %v", err)
	}
	found := false
	for _, pid := range out {
		if pid == self {
			found = true
		}
	}
	if !found {
		t.Errorf("ExpandDescendants(%d) = %v, want it to include the root pid", self, out)
	}
}

func TestWalkPIDSelf(t *testing.T) {
	phys, err := WalkPID(int32(os.Getpid()), ModeReadable)
	if err != nil {
		t.Skipf("pagemap unavailable in this environment: %v", err)
	}
	for _, p := range phys {
		if p%PageSize != 0 {
			t.Errorf("physical address 0x%x is not page-aligned", p)
		}
	}
}

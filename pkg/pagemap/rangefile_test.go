package pagemap

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestWriteAndReadRangeFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranges.txt")
	intervals := []Interval{{Start: 0x1000, End: 0x2000}, {Start: 0x5000, End: 0x5004}}

	if err := WriteRangeFile(path, intervals); err != nil {
		t.Fatalf("WriteRangeFile: %v", err)
	}
	got, err := ReadRangeFile(path)
	if err != nil {
		t.Fatalf("ReadRangeFile: %v", err)
	}
	if !reflect.DeepEqual(got, intervals) {
		t.Errorf("round trip = %v, want %v", got, intervals)
	}
}

func TestReadRangeFileSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranges.txt")
	content := "0x1000-0x1010\n\nnot-a-range\n0x2000-0x1fff\n0x3000-0x3004\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadRangeFile(path)
	if err != nil {
		t.Fatalf("ReadRangeFile: %v", err)
	}
	want := []Interval{{Start: 0x1000, End: 0x1010}, {Start: 0x3000, End: 0x3004}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadRangeFile = %v, want %v (malformed/inverted lines skipped)", got, want)
	}
}

func TestReadRangeFileMissing(t *testing.T) {
	if _, err := ReadRangeFile("/no/such/range/file"); err == nil {
		t.Fatal("ReadRangeFile of a missing file succeeded, want an error")
	}
}

func TestCandidateAddressesExpandsIntervals(t *testing.T) {
	intervals := []Interval{{Start: 0x10, End: 0x13}, {Start: 0x20, End: 0x21}}
	got := CandidateAddresses(intervals)
	want := []uint64{0x10, 0x11, 0x12, 0x20}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CandidateAddresses = %v, want %v", got, want)
	}
}

func TestCandidateAddressesEmpty(t *testing.T) {
	if got := CandidateAddresses(nil); got != nil {
		t.Errorf("CandidateAddresses(nil) = %v, want nil", got)
	}
}

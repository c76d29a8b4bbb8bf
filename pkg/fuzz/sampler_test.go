package fuzz

import "testing"

func TestSampleBitWithinWidth(t *testing.T) {
	s := NewSampler(1)
	for i := 0; i < 500; i++ {
		for _, width := range []int{8, 64} {
			bit := s.sampleBit(width)
			if bit < 0 || bit >= width {
				t.Fatalf("sampleBit(%d) = %d, out of range", width, bit)
			}
		}
	}
}

func TestTriangularWithinBounds(t *testing.T) {
	s := NewSampler(2)
	for i := 0; i < 500; i++ {
		v := s.triangular(0, 10, 5)
		if v < 0 || v > 10 {
			t.Fatalf("triangular(0,10,5) = %v, out of [0,10]", v)
		}
	}
}

func TestLogUniformWithinBounds(t *testing.T) {
	s := NewSampler(3)
	for i := 0; i < 500; i++ {
		v := s.logUniform(100, 100000)
		if v < 100 || v > 100000 {
			t.Fatalf("logUniform(100,100000) = %d, out of range", v)
		}
	}
}

func TestWeightedChoiceOnlyReturnsDeclaredChoices(t *testing.T) {
	s := NewSampler(4)
	choices := []string{"ram", "reg"}
	weights := []int{2, 1}
	seen := map[string]int{}
	for i := 0; i < 300; i++ {
		c := s.weightedChoice(choices, weights)
		seen[c]++
	}
	if seen["ram"] == 0 || seen["reg"] == 0 {
		t.Fatalf("weightedChoice never produced both choices: %v", seen)
	}
	if len(seen) != 2 {
		t.Fatalf("weightedChoice produced an undeclared choice: %v", seen)
	}
}

func TestWeightedChoiceSingleWeightAlwaysWins(t *testing.T) {
	s := NewSampler(5)
	for i := 0; i < 50; i++ {
		c := s.weightedChoice([]string{"only"}, []int{1})
		if c != "only" {
			t.Fatalf("weightedChoice with a single option returned %q", c)
		}
	}
}

func TestSampleFaultProducesConsistentWidthAndBit(t *testing.T) {
	s := NewSampler(6)
	for i := 0; i < 500; i++ {
		spec := s.SampleFault(1000, 2000)
		wantWidth := 8
		if spec.Kind == "reg" {
			wantWidth = 64
		}
		if spec.BitWidth != wantWidth {
			t.Fatalf("BitWidth = %d for kind %q, want %d", spec.BitWidth, spec.Kind, wantWidth)
		}
		if spec.Bit < 0 || spec.Bit >= spec.BitWidth {
			t.Fatalf("Bit = %d out of range for width %d", spec.Bit, spec.BitWidth)
		}
		if spec.MinIntervalNS < 1000 || spec.MinIntervalNS > 2000 {
			t.Fatalf("MinIntervalNS = %d, out of [1000,2000]", spec.MinIntervalNS)
		}
		if spec.MinIntervalNS != spec.MaxIntervalNS {
			t.Fatalf("SampleFault returned a range (%d,%d), want a single resolved interval",
				spec.MinIntervalNS, spec.MaxIntervalNS)
		}
		if spec.Slug == "" {
			t.Fatal("Slug is empty")
		}
	}
}

func TestSampleFaultIsDeterministicForAGivenSeed(t *testing.T) {
	a := NewSampler(42).SampleFault(500, 5000)
	b := NewSampler(42).SampleFault(500, 5000)
	if a != b {
		t.Fatalf("SampleFault with the same seed produced different specs: %+v vs %+v", a, b)
	}
}

// Package fuzz samples campaign parameters from near-threshold
// distributions across repeated rounds, instead of requiring an operator
// to hand-pick a bit index and timing window for every scenario
// (SPEC_FULL.md component Q).
package fuzz

import (
	"fmt"
	"math"
	"math/rand"
)

// FaultSpec is a fully-resolved, loggable description of one sampled
// campaign.
type FaultSpec struct {
	Kind          string `json:"kind"` // ram | reg
	BitWidth      int    `json:"bit_width"`
	Bit           int    `json:"bit"`
	MinIntervalNS int64  `json:"min_interval_ns"`
	MaxIntervalNS int64  `json:"max_interval_ns"`
	Slug          string `json:"slug"` // e.g. "reg-bit12-500000ns"
}

// Sampler holds a seeded RNG and produces FaultSpecs.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a Sampler seeded with the given value.
func NewSampler(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))} //nolint:gosec
}

// triangular samples from a triangular distribution on [lo, hi] with the
// given mode.
func (s *Sampler) triangular(lo, hi, mode float64) float64 {
	u := s.rng.Float64()
	fc := (mode - lo) / (hi - lo)
	if u < fc {
		return lo + math.Sqrt(u*(hi-lo)*(mode-lo))
	}
	return hi - math.Sqrt((1-u)*(hi-lo)*(hi-mode))
}

// logUniform samples uniformly in log-space on [lo, hi], returning the
// nearest int64.
func (s *Sampler) logUniform(lo, hi float64) int64 {
	return int64(math.Round(math.Exp(s.rng.Float64()*(math.Log(hi)-math.Log(lo)) + math.Log(lo))))
}

// weightedChoice picks one element from choices according to integer
// weights.
func (s *Sampler) weightedChoice(choices []string, weights []int) string {
	total := 0
	for _, w := range weights {
		total += w
	}
	r := s.rng.Intn(total)
	for i, w := range weights {
		r -= w
		if r < 0 {
			return choices[i]
		}
	}
	return choices[len(choices)-1]
}

// sampleBit picks a bit index within [0, width), triangularly biased toward
// the middle of the word: a flip in a high/sign bit is disproportionately
// likely to crash the guest immediately and is the less interesting case to
// observe over many rounds.
func (s *Sampler) sampleBit(width int) int {
	hi := float64(width - 1)
	mode := hi / 2
	return int(math.Round(s.triangular(0, hi, mode)))
}

// SampleFault returns a fully-resolved campaign description: RAM-vs-register
// kind (weighted 2:1 toward RAM, since most reported single-event upsets are
// memory-side), a bit index within a byte (RAM) or 64-bit word (register),
// and an inter-injection interval drawn log-uniformly from
// [minIntervalNS, maxIntervalNS].
func (s *Sampler) SampleFault(minIntervalNS, maxIntervalNS int64) FaultSpec {
	kind := s.weightedChoice([]string{"ram", "reg"}, []int{2, 1})

	width := 8
	if kind == "reg" {
		width = 64
	}
	bit := s.sampleBit(width)

	interval := s.logUniform(float64(minIntervalNS), float64(maxIntervalNS))

	return FaultSpec{
		Kind:          kind,
		BitWidth:      width,
		Bit:           bit,
		MinIntervalNS: interval,
		MaxIntervalNS: interval,
		Slug:          fmt.Sprintf("%s-bit%d-%dns", kind, bit, interval),
	}
}

package wave

import "math"

// OscShape tags one of the PTN procedural-noise oscillator waveforms
// (spec.md §3 "VoicePTN").
type OscShape uint8

const (
	OscSine OscShape = iota
	OscSawUp
	OscSawDown
	OscRect
	OscTri
	OscNoise
	OscNoiseWhite
)

// Noise is a small deterministic PRNG (xorshift32) so noise oscillators are
// reproducible across renders of the same project (spec.md §8 invariant 7
// "rendering the same project twice produces byte-identical output").
type Noise struct{ state uint32 }

// NewNoiseGenerator constructs the deterministic generator a PTN sub-unit's
// noise-shaped oscillators share for one rasterization pass.
func NewNoiseGenerator(seed uint32) *Noise {
	if seed == 0 {
		seed = 0x9E3779B9
	}
	return &Noise{state: seed}
}

func (r *Noise) next() float32 {
	x := r.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	r.state = x
	return float32(x)/float32(1<<32)*2 - 1
}

// Oscillator is one main/frequency-modulator/volume-modulator oscillator of
// a PTN sub-unit (spec.md §3).
type Oscillator struct {
	Shape       OscShape
	FrequencyHz float32
	VolumePct   float32 // 0..100
	PhasePct    float32 // 0..100, percent of period
	Reverse     bool
}

// Sample evaluates the oscillator's waveform at absolute time t (seconds),
// returning a value in [-1, 1] (before VolumePct scaling). gen is a shared
// noise generator for OscNoise/OscNoiseWhite shapes.
func (o Oscillator) Sample(t float64, gen *Noise) float32 {
	phase := t*float64(o.FrequencyHz) + float64(o.PhasePct)/100.0
	phase -= math.Floor(phase)
	if o.Reverse {
		phase = 1 - phase
	}

	var v float32
	switch o.Shape {
	case OscSine:
		v = float32(math.Sin(2 * math.Pi * phase))
	case OscSawUp:
		v = float32(phase*2 - 1)
	case OscSawDown:
		v = float32(1 - phase*2)
	case OscRect:
		if phase < 0.5 {
			v = 1
		} else {
			v = -1
		}
	case OscTri:
		if phase < 0.5 {
			v = float32(phase*4 - 1)
		} else {
			v = float32(3 - phase*4)
		}
	case OscNoise, OscNoiseWhite:
		if gen != nil {
			v = gen.next()
		}
	}
	return v * (o.VolumePct / 100.0)
}

package ptcop

import "math"

// Pan is a stereo pan position clamped to [-1, 1], -1 full left, 1 full
// right, 0 center.
type Pan float32

// NewPan clamps v into the Pan range.
func NewPan(v float32) Pan {
	return Pan(clampf(v, -1, 1))
}

func (p Pan) Float32() float32 { return float32(p) }

// UnitInterval is a normalized value clamped to [0, 1], used for velocity
// and volume.
type UnitInterval float32

// NewUnitInterval clamps v into [0, 1].
func NewUnitInterval(v float32) UnitInterval {
	return UnitInterval(clampf(v, 0, 1))
}

func (u UnitInterval) Float32() float32 { return float32(u) }

// Tuning is a frequency multiplier clamped to [0, 9.99999].
type Tuning float32

const tuningMax = 9.99999

// NewTuning clamps v into the Tuning range. A non-finite input clamps to 1.0
// (unity) rather than propagating NaN/Inf into the sampler's hot path.
func NewTuning(v float32) Tuning {
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return Tuning(1.0)
	}
	return Tuning(clampf(v, 0, tuningMax))
}

func (t Tuning) Float32() float32 { return float32(t) }

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Key mapping constants (see spec.md §4.4).
const (
	// KeyC0 is the note-unit value for C0, the pxtone key origin.
	KeyC0 = 13056
	// KeyDefault is the default key_now for a freshly constructed unit
	// state: 3.75 octaves above C0, 220 Hz under the key mapping below.
	KeyDefault = 24576
	// KeyUnitsPerSemitone is the number of key units in one semitone.
	KeyUnitsPerSemitone = 256

	// BasicKeyDefault is the basic_key assigned to a voice loaded from a
	// bare instrument file that carries no key of its own; it is also the
	// reference key of the PCM cycle-to-index ratio.
	BasicKeyDefault = 17664

	// freqC0 is the frequency in Hz of KeyC0.
	freqC0 = 16.3515
	// semitonesPerOctaveUnits is key units per octave (12 semitones).
	semitonesPerOctaveUnits = 12 * KeyUnitsPerSemitone
)

// KeyToFrequency converts a key-unit pitch into Hz using the pxtone mapping:
// 256 note-units per semitone, 13056 == C0 == 16.3515 Hz.
func KeyToFrequency(key int32) float64 {
	return freqC0 * math.Pow(2, float64(key-KeyC0)/float64(semitonesPerOctaveUnits))
}

// PCM flag bits (see spec.md §4.5 "PCM flags").
const (
	PCMFlagLoop     uint32 = 0x01
	PCMFlagSmooth   uint32 = 0x02
	PCMFlagBeatFit  uint32 = 0x04
	pcmFlagsDefined        = PCMFlagLoop | PCMFlagSmooth | PCMFlagBeatFit
)

package ptcop

import (
	"github.com/gopxtone/ptcop/internal/wave"
)

// ptnMaxSamples bounds a PTN voice's rasterized buffer length (spec.md §3
// "VoicePTN": sample count <= 480000).
const ptnMaxSamples = 480000

// ptnBakeRate is the rate the oscillator graph is rasterized at; the stored
// sample count is defined against it.
const ptnBakeRate = 44100.0

// PTNSubUnit is one oscillator-graph voice within a VoicePTN: a main
// oscillator optionally modulated by a frequency and a volume oscillator,
// panned and enveloped independently of its siblings (spec.md §3).
type PTNSubUnit struct {
	Enabled bool
	Pan     Pan
	Main    wave.Oscillator
	FreqMod wave.Oscillator
	VolMod  wave.Oscillator
	HasFreq bool
	HasVol  bool

	Envelope *wave.Envelope
}

// VoicePTN is a procedurally generated noise/oscillator voice: every
// sub-unit is rasterized once, at load time, into a fixed-length cycle
// buffer using a seeded deterministic generator (spec.md §8 invariant 7),
// then resampled at playback rate like a PCM voice. Grounded on
// internal/wave/noise.go's Oscillator.Sample and envelope.go's release
// curve; the matePTN field layout is documented in reader_ptn.go.
type VoicePTN struct {
	Header VoiceHeader

	subUnits []ptnBakedUnit
	onSecs   float64

	// Source sub-unit definitions and sample count, retained so the writer
	// can re-serialize the oscillator graph instead of the baked buffers.
	srcSubUnits []PTNSubUnit
	sampleCount int

	// ratioToA maps a playback cycle to a baked-buffer index the same way
	// VoicePCM's does; PTN buffers are rasterized at 44.1kHz.
	ratioToA float64
}

type ptnBakedUnit struct {
	cycle    []float32
	pan      Pan
	envelope *wave.Envelope
}

// NewVoicePTN rasterizes every sub-unit's oscillator graph into a cycle
// buffer sampleCount long, using a per-sub-unit deterministic noise
// generator seeded from its index so repeated renders are byte-identical.
func NewVoicePTN(hdr VoiceHeader, subUnits []PTNSubUnit, sampleCount int) *VoicePTN {
	if sampleCount > ptnMaxSamples {
		sampleCount = ptnMaxSamples
	}
	if sampleCount < 1 {
		sampleCount = 1
	}

	v := &VoicePTN{Header: hdr, srcSubUnits: subUnits, sampleCount: sampleCount}
	v.ratioToA = computeRatioToA(sampleCount, ptnBakeRate, hdr.BasicKey)
	for i, su := range subUnits {
		if !su.Enabled {
			continue
		}
		gen := wave.NewNoiseGenerator(uint32(i) + 1)
		freqGen := wave.NewNoiseGenerator(uint32(i)*3 + 2)
		volGen := wave.NewNoiseGenerator(uint32(i)*3 + 3)

		buf := make([]float32, sampleCount)
		for n := 0; n < sampleCount; n++ {
			t := float64(n) / ptnBakeRate
			freqHz := float64(su.Main.FrequencyHz)
			if su.HasFreq {
				freqHz += float64(su.FreqMod.Sample(t, freqGen)) * float64(su.Main.FrequencyHz)
			}
			main := su.Main
			main.FrequencyHz = float32(freqHz)
			s := main.Sample(t, gen)
			if su.HasVol {
				s *= 1 + su.VolMod.Sample(t, volGen)
			}
			buf[n] = s
		}

		v.subUnits = append(v.subUnits, ptnBakedUnit{
			cycle:    scaleByVolume(buf, hdr.Volume),
			pan:      su.Pan,
			envelope: su.Envelope,
		})
	}
	return v
}

// SetElapsed records wall-clock seconds since note-on for envelope attack
// evaluation, mirroring VoicePTV.SetElapsed.
func (v *VoicePTN) SetElapsed(secs float64) { v.onSecs = secs }

// HasTail reports whether any sub-unit's envelope defines a release tail,
// mirroring VoicePTV.HasTail. spec.md §4.3 extends envelope release to PTN
// the same way it does for PTV.
func (v *VoicePTN) HasTail() bool {
	for _, su := range v.subUnits {
		if su.envelope.HasTail() {
			return true
		}
	}
	return false
}

// ReleaseGain returns the release-tail gain secsIntoRelease past note-off,
// the maximum across any tailed sub-unit, mirroring VoicePTV.ReleaseGain.
func (v *VoicePTN) ReleaseGain(secsIntoRelease float64) float32 {
	var g float32
	for _, su := range v.subUnits {
		if su.envelope.HasTail() {
			if rg := su.envelope.ReleaseGain(secsIntoRelease); rg > g {
				g = rg
			}
		}
	}
	return g
}

// TailDurationSecs returns the longest release tail among this voice's
// sub-units, or 0 if none has a tail, mirroring VoicePTV.TailDurationSecs.
func (v *VoicePTN) TailDurationSecs() float64 {
	var d float64
	for _, su := range v.subUnits {
		if t := su.envelope.TailDurationSecs(); t > d {
			d = t
		}
	}
	return d
}

// PanWeight implements Voice, exposing the voice's own header pan
// (spec.md §3) for the sampler to apply alongside unit-level PanVolume.
// This is distinct from each sub-unit's own Pan field, which Sample already
// applies internally when mixing sub-units together.
func (v *VoicePTN) PanWeight() (float32, float32) { return v.Header.PanWeight() }

// Sample implements Voice, summing every enabled sub-unit's rasterized
// buffer with its own pan weight applied for the requested channel. The
// baked buffers index by cycle the way a PCM voice does (cycle / ratio_to_a)
// rather than per wave period: a noise hit plays through its buffer once at
// key-relative speed and then falls silent.
func (v *VoicePTN) Sample(cycle float64, channel int) float32 {
	if v.ratioToA == 0 {
		return 0
	}
	idx := int(cycle / v.ratioToA * float64(v.Header.Tuning))
	var out float32
	for _, su := range v.subUnits {
		if idx < 0 || idx >= len(su.cycle) {
			continue
		}
		s := su.cycle[idx]
		l, r := panWeight(su.pan)
		if channel == 0 {
			s *= l
		} else {
			s *= r
		}
		if su.envelope != nil {
			s *= wave.AttackGain(su.envelope, v.onSecs)
		}
		out += s
	}
	return out
}

// panWeight is the unit-level pan law shared across the sampler and the
// voice variants (spec.md §4.4): center maps to (1, 1).
func panWeight(p Pan) (float32, float32) {
	v := float32(p)
	l := clampf(1-v, 0, 1)
	r := clampf(1+v, 0, 1)
	return l, r
}

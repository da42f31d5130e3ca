package ptcop

import (
	"math"

	"github.com/gopxtone/ptcop/internal/wave"
)

// VoicePTV is a rasterized single-cycle waveform voice: the voice's
// coordinate or overtone points are rendered once, at load time, into a
// fixed-length cycle buffer, then resampled at playback rate the same way a
// PCM voice is (spec.md §3 "VoicePTV"). Grounded on internal/wave/coord.go
// and internal/wave/overtone.go for rasterization and internal/wave/envelope.go
// for the optional volume envelope.
type VoicePTV struct {
	Header VoiceHeader

	cycle    []float32 // one rasterized period (resolution or bufLen samples)
	envelope *wave.Envelope

	// Source wave definition, retained so the writer can re-serialize the
	// voice exactly as it was read instead of reverse-engineering the baked
	// cycle buffer.
	hasWave     bool
	waveType    uint32 // 0 coordinate, 1 overtone
	coordPoints []wave.CoordPoint
	resolution  int
	overtones   []wave.Overtone

	onSecs float64 // wall-clock seconds since note-on, set by the sampler each frame
}

// NewVoicePTVFromCoord builds a VoicePTV from wave-type-0 coordinate points.
// The rasterized cycle is scaled by the header's nominal 0..128 Volume per
// spec.md §3 ("VoicePTV ... rasterized to a fixed-size cycle buffer and
// scaled by voice volume").
func NewVoicePTVFromCoord(hdr VoiceHeader, points []wave.CoordPoint, resolution int, env *wave.Envelope) *VoicePTV {
	return &VoicePTV{
		Header:      hdr,
		cycle:       scaleByVolume(wave.RasterizeCoord(points, resolution, resolution), hdr.Volume),
		envelope:    env,
		hasWave:     len(points) > 0,
		waveType:    0,
		coordPoints: points,
		resolution:  resolution,
	}
}

// NewVoicePTVFromOvertone builds a VoicePTV from wave-type-1 overtone pairs,
// scaled by voice volume per spec.md §3 (see NewVoicePTVFromCoord).
func NewVoicePTVFromOvertone(hdr VoiceHeader, tones []wave.Overtone, bufLen int, env *wave.Envelope) *VoicePTV {
	return &VoicePTV{
		Header:    hdr,
		cycle:     scaleByVolume(wave.RasterizeOvertone(tones, bufLen), hdr.Volume),
		envelope:  env,
		hasWave:   len(tones) > 0,
		waveType:  1,
		overtones: tones,
	}
}

// scaleByVolume multiplies buf in place by the nominal 0..128 voice volume
// (128 == unity gain), shared by every voice variant's header (spec.md §3).
func scaleByVolume(buf []float32, volume int32) []float32 {
	g := float32(volume) / 128.0
	for i := range buf {
		buf[i] *= g
	}
	return buf
}

// SetElapsed records the wall-clock time since this voice's most recent
// note-on, used to evaluate the attack portion of its envelope. The sampler
// calls this once per rendered frame for each unit that is sounding or in
// its release tail.
func (v *VoicePTV) SetElapsed(secs float64) { v.onSecs = secs }

// ReleaseGain reports the envelope's remaining gain secsIntoRelease after
// note-off, or 1 if the voice has no envelope (spec.md §4.4 per-unit
// idle/sounding/releasing state machine).
func (v *VoicePTV) ReleaseGain(secsIntoRelease float64) float32 {
	if v.envelope == nil {
		return 1
	}
	return v.envelope.ReleaseGain(secsIntoRelease)
}

// HasTail reports whether the voice has a release tail to run out before
// the unit returns to idle.
func (v *VoicePTV) HasTail() bool {
	return v.envelope != nil && v.envelope.HasTail()
}

// TailDurationSecs reports how long the release tail lasts.
func (v *VoicePTV) TailDurationSecs() float64 {
	if v.envelope == nil {
		return 0
	}
	return v.envelope.TailDurationSecs()
}

// PanWeight implements Voice, exposing the voice's own header pan
// (spec.md §3) for the sampler to apply alongside unit-level PanVolume.
func (v *VoicePTV) PanWeight() (float32, float32) { return v.Header.PanWeight() }

// Sample implements Voice for a rasterized single-cycle voice (spec.md
// §4.3): the buffer is indexed at (cycle mod 1.0) · buffer_len, scaled by
// the attack-envelope gain at the voice's currently recorded elapsed time.
func (v *VoicePTV) Sample(cycle float64, channel int) float32 {
	if len(v.cycle) == 0 {
		return 0
	}
	n := len(v.cycle)
	c := cycle * float64(v.Header.Tuning)
	frac := c - math.Floor(c)
	idx := int(frac * float64(n))
	if idx >= n {
		idx = n - 1
	}
	s := v.cycle[idx]
	if v.envelope != nil {
		s *= wave.AttackGain(v.envelope, v.onSecs)
	}
	return s
}

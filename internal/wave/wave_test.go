package wave

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRasterizeOvertoneSingleTone(t *testing.T) {
	// One fundamental at amplitude 128 is a unit sine: 128*sin(2*pi*thru)/(1*128).
	out := RasterizeOvertone([]Overtone{{Freq: 1, Amp: 128}}, 4)
	assert.InDelta(t, 0, out[0], 1e-6)
	assert.InDelta(t, 1, out[1], 1e-6)
	assert.InDelta(t, 0, out[2], 1e-6)
	assert.InDelta(t, -1, out[3], 1e-6)
}

func TestRasterizeOvertoneZeroFreqSkipped(t *testing.T) {
	out := RasterizeOvertone([]Overtone{{Freq: 0, Amp: 128}}, 8)
	for _, v := range out {
		assert.Zero(t, v)
	}
}

func TestRasterizeCoordInterpolates(t *testing.T) {
	// A two-point ramp from -128 at x=0 to 127 at x=100 over resolution 200
	// wraps back down across the second half.
	points := []CoordPoint{{X: 0, Y: -128}, {X: 100, Y: 127}}
	out := RasterizeCoord(points, 200, 200)

	assert.InDelta(t, -1.0, out[0], 1e-3)
	// Midway up the first segment.
	assert.InDelta(t, float64(out[50]), (float64(-128)+float64(127))/2/128, 0.02)
	assert.InDelta(t, 127.0/128, out[100], 0.02)
}

func TestRasterizeCoordEmpty(t *testing.T) {
	out := RasterizeCoord(nil, 200, 16)
	for _, v := range out {
		assert.Zero(t, v)
	}
}

func TestEnvelopeReleaseGain(t *testing.T) {
	env := &Envelope{
		FPS:  10,
		Tail: []EnvelopePoint{{X: 0, Y: 1}, {X: 20, Y: 0}},
	}
	assert.True(t, env.HasTail())
	assert.InDelta(t, 2.0, env.TailDurationSecs(), 1e-9)

	assert.InDelta(t, 1.0, env.ReleaseGain(0), 1e-6)
	assert.InDelta(t, 0.5, env.ReleaseGain(1), 1e-6)
	assert.InDelta(t, 0.0, env.ReleaseGain(2), 1e-6)
	assert.InDelta(t, 0.0, env.ReleaseGain(5), 1e-6)
}

func TestEnvelopeNoTail(t *testing.T) {
	var env *Envelope
	assert.False(t, env.HasTail())
	assert.Zero(t, env.TailDurationSecs())
	assert.EqualValues(t, 1, env.ReleaseGain(1))
}

func TestAttackGain(t *testing.T) {
	env := &Envelope{
		FPS:  10,
		Head: []EnvelopePoint{{X: 0, Y: 0}, {X: 10, Y: 1}},
	}
	assert.InDelta(t, 0.0, AttackGain(env, 0), 1e-6)
	assert.InDelta(t, 0.5, AttackGain(env, 0.5), 1e-6)
	// Past the last head point the gain holds at unity.
	assert.EqualValues(t, 1, AttackGain(env, 2))
	assert.EqualValues(t, 1, AttackGain(nil, 0.5))
}

func TestOscillatorShapes(t *testing.T) {
	osc := func(shape OscShape) Oscillator {
		return Oscillator{Shape: shape, FrequencyHz: 1, VolumePct: 100}
	}

	assert.InDelta(t, 0, osc(OscSine).Sample(0, nil), 1e-6)
	assert.InDelta(t, 1, osc(OscSine).Sample(0.25, nil), 1e-6)

	assert.InDelta(t, -1, osc(OscSawUp).Sample(0, nil), 1e-6)
	assert.InDelta(t, 0, osc(OscSawUp).Sample(0.5, nil), 1e-6)
	assert.InDelta(t, 1, osc(OscSawDown).Sample(0, nil), 1e-6)

	assert.EqualValues(t, 1, osc(OscRect).Sample(0.25, nil))
	assert.EqualValues(t, -1, osc(OscRect).Sample(0.75, nil))

	assert.InDelta(t, 0, osc(OscTri).Sample(0.25, nil), 1e-6)
	assert.InDelta(t, 1, osc(OscTri).Sample(0.5, nil), 1e-6)
}

func TestOscillatorVolumeAndPhase(t *testing.T) {
	o := Oscillator{Shape: OscSine, FrequencyHz: 1, VolumePct: 50, PhasePct: 25}
	// Phase offset of 25% puts t=0 at the sine peak; half volume halves it.
	assert.InDelta(t, 0.5, o.Sample(0, nil), 1e-6)
}

func TestOscillatorReverse(t *testing.T) {
	fwd := Oscillator{Shape: OscSawUp, FrequencyHz: 1, VolumePct: 100}
	rev := fwd
	rev.Reverse = true
	assert.InDelta(t, float64(fwd.Sample(0.25, nil)), -float64(rev.Sample(0.25, nil)), 0.01)
}

func TestNoiseDeterministic(t *testing.T) {
	a := NewNoiseGenerator(42)
	b := NewNoiseGenerator(42)
	for i := 0; i < 64; i++ {
		va, vb := a.next(), b.next()
		assert.Equal(t, va, vb)
		assert.LessOrEqual(t, float64(va), 1.0)
		assert.GreaterOrEqual(t, float64(va), -1.0)
	}
}

func TestNoiseZeroSeedSubstituted(t *testing.T) {
	// A zero xorshift state would be a fixed point; the constructor must
	// substitute something that actually advances.
	g := NewNoiseGenerator(0)
	assert.NotZero(t, g.next())
}

// TestOvertoneMatchesClosedForm cross-checks the rasterizer against the
// direct formula for a two-tone wave.
func TestOvertoneMatchesClosedForm(t *testing.T) {
	tones := []Overtone{{Freq: 1, Amp: 128}, {Freq: 2, Amp: 64}}
	out := RasterizeOvertone(tones, 100)
	for i, got := range out {
		thru := float64(i) / 100
		want := math.Sin(2*math.Pi*thru) + 64*math.Sin(2*math.Pi*2*thru)/(2*128)
		assert.InDelta(t, want, float64(got), 1e-5)
	}
}

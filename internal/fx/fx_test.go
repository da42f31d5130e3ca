package fx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDelayLineEcho(t *testing.T) {
	dl := NewDelayLine(4, 1, 0.5)

	out := make([]int32, 1)
	in := make([]int32, 1)

	// An impulse comes back after the delay length, halved each repeat.
	in[0] = 16384
	dl.Process(in, out)
	assert.EqualValues(t, 0, out[0])

	in[0] = 0
	for i := 0; i < 3; i++ {
		dl.Process(in, out)
		assert.EqualValues(t, 0, out[0])
	}

	dl.Process(in, out)
	assert.EqualValues(t, 16384, out[0])

	for i := 0; i < 3; i++ {
		dl.Process(in, out)
		assert.EqualValues(t, 0, out[0])
	}
	dl.Process(in, out)
	assert.EqualValues(t, 8192, out[0])
}

func TestDelayLineStereoIndependentChannels(t *testing.T) {
	dl := NewDelayLine(2, 2, 1)

	dl.Process([]int32{100, -200}, make([]int32, 2))
	dl.Process([]int32{0, 0}, make([]int32, 2))

	out := make([]int32, 2)
	dl.Process([]int32{0, 0}, out)
	assert.EqualValues(t, 100, out[0])
	assert.EqualValues(t, -200, out[1])
}

func TestDelayLineReset(t *testing.T) {
	dl := NewDelayLine(2, 1, 1)
	dl.Process([]int32{500}, make([]int32, 1))
	dl.Reset()

	out := make([]int32, 1)
	for i := 0; i < 8; i++ {
		dl.Process([]int32{0}, out)
		assert.EqualValues(t, 0, out[0])
	}
}

func TestOverdrivePassesBelowCut(t *testing.T) {
	od := Overdrive{Cut: 0.9, Amp: 1}
	assert.InDelta(t, 0.5, od.Apply(0.5), 1e-6)
	assert.InDelta(t, -0.5, od.Apply(-0.5), 1e-6)
}

func TestOverdriveCompressesAboveCut(t *testing.T) {
	od := Overdrive{Cut: 0.9, Amp: 2}
	got := od.Apply(1)
	assert.Greater(t, got, od.Cut)
	assert.Less(t, got, float32(1))

	neg := od.Apply(-1)
	assert.InDelta(t, float64(got), float64(-neg), 1e-6)
}

package ptcop

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPanClamp(t *testing.T) {
	assert.Equal(t, Pan(-1), NewPan(-5))
	assert.Equal(t, Pan(1), NewPan(5))
	assert.Equal(t, Pan(0), NewPan(0))
}

func TestUnitIntervalClamp(t *testing.T) {
	assert.Equal(t, UnitInterval(0), NewUnitInterval(-1))
	assert.Equal(t, UnitInterval(1), NewUnitInterval(2))
	assert.Equal(t, UnitInterval(0.5), NewUnitInterval(0.5))
}

func TestTuningClamp(t *testing.T) {
	assert.Equal(t, Tuning(0), NewTuning(-1))
	assert.Equal(t, Tuning(tuningMax), NewTuning(100))
	assert.Equal(t, Tuning(1), NewTuning(float32(1.0)))
}

func TestTuningNonFinite(t *testing.T) {
	assert.Equal(t, Tuning(1), NewTuning(float32(math.NaN())))
	assert.Equal(t, Tuning(1), NewTuning(float32(math.Inf(1))))
	assert.Equal(t, Tuning(1), NewTuning(float32(math.Inf(-1))))
}

// TestKeyToFrequency checks the pxtone key mapping anchors: key 13056 is C0
// at 16.3515 Hz, and the default key 24576 sits 3.75 octaves up at 220 Hz.
func TestKeyToFrequency(t *testing.T) {
	assert.InDelta(t, 16.3515, KeyToFrequency(KeyC0), 0.001)
	assert.InDelta(t, 220.0, KeyToFrequency(KeyDefault), 0.25)
	// One semitone is 256 key units.
	assert.InDelta(t, KeyToFrequency(KeyDefault)*math.Pow(2, 1.0/12),
		KeyToFrequency(KeyDefault+KeyUnitsPerSemitone), 0.1)
}

// TestUnitNameTruncation checks spec.md §3's 16-byte UTF-8-safe truncation
// for unit names.
func TestUnitNameTruncation(t *testing.T) {
	u := NewUnit("this name is definitely longer than sixteen bytes")
	assert.LessOrEqual(t, len(u.Name), maxUnitNameBytes)

	// A multi-byte rune sitting on the boundary must not be split.
	u2 := NewUnit("123456789012345éé") // 15 ascii + 2x 2-byte rune
	assert.LessOrEqual(t, len(u2.Name), maxUnitNameBytes)
	for _, r := range u2.Name {
		_ = r // ranging validates UTF-8; a corrupt tail would panic/garble
	}
}

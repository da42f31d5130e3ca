package ptcop

// Voice is the sampling contract shared by every voice variant (spec.md
// §4.3). cycle is the cumulative number of wave-cycles since note-on
// (fractional); channel is 0 or 1. The return value is a normalized
// amplitude in approximately [-0.5, 0.5] (mono voices may exceed this; the
// sampler's mixer scales and clamps).
type Voice interface {
	Sample(cycle float64, channel int) float32

	// PanWeight returns this voice's own header pan (spec.md §3's shared
	// VoiceHeader.Pan, 0..128/64-center) as (left, right) gain multipliers,
	// applied by the sampler on top of the unit-level PanVolume event
	// weight (spec.md §4.4 step 6).
	PanWeight() (left, right float32)
}

// VoiceHeader carries the fields every voice variant shares (spec.md §3).
type VoiceHeader struct {
	BasicKey int32
	Volume   int32 // nominal 0..128
	Pan      int32 // nominal 0..128, 64 center
	Tuning   float32
}

// FullVolume is the header's nominal "unity gain" Volume (128). Only the
// matePTV sub-stream carries a per-voice Volume on disk (spec.md §4.5); the
// matePCM/mateOGGV/matePTN outer blocks don't, so their decoders default
// VoiceHeader.Volume to FullVolume rather than leaving it at the zero value,
// which would otherwise silence every PCM/OGGV/PTN voice once the shared
// scaleByVolume step (voice_ptv.go) is applied uniformly.
const FullVolume int32 = 128

// CenterPan is the header's nominal center Pan value (64 of 0..128). Like
// FullVolume, the matePCM/mateOGGV/matePTN outer blocks carry no per-voice
// Pan field on disk (only matePTV's sub-stream does), so their decoders
// default VoiceHeader.Pan to CenterPan rather than the zero value, which
// PanWeight would otherwise read as hard-left.
const CenterPan int32 = 64

// PanWeight returns the (left, right) gain multipliers for the voice
// header's nominal 0..128 pan value (64 == center), using the same pan law
// as the sampler's per-unit PanVolume (spec.md §4.4): center maps to
// (1, 1), full left/right zeroes the opposite channel.
func (h VoiceHeader) PanWeight() (float32, float32) {
	p := clampf(float32(h.Pan)/64.0-1.0, -1, 1) // remap 0..128 to -1..1
	l := clampf(1-p, 0, 1)
	r := clampf(1+p, 0, 1)
	return l, r
}

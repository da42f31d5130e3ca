package ptcop

// Overdrive is an effect-routing descriptor: units whose most recent
// GroupNo event selects Group get soft-clipped by this cut/amp pair.
// Grounded on internal/comb/comb.go's effect-descriptor shape, generalized
// from reverb to a waveshaper (spec.md §3 "Overdrive").
type Overdrive struct {
	Group uint8
	Cut   float32 // clamped to [0.5, 0.999]
	Amp   float32 // clamped to [0.1, 8.0]
}

// NewOverdrive clamps cut and amp into their valid ranges.
func NewOverdrive(group uint8, cut, amp float32) Overdrive {
	return Overdrive{
		Group: group,
		Cut:   clampf(cut, 0.5, 0.999),
		Amp:   clampf(amp, 0.1, 8.0),
	}
}

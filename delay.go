package ptcop

// DelayFrequencyUnit selects how a Delay's magnitude is interpreted.
type DelayFrequencyUnit uint8

const (
	DelayBeat DelayFrequencyUnit = iota
	DelayMeasure
	DelaySecond
)

// Delay is an effect-routing descriptor: units whose most recent GroupNo
// event selects Group get echoed through a feedback delay line of this
// length and decay. Grounded on internal/comb/comb.go's Comb/CombAdd shape
// (spec.md §3 "Delay").
type Delay struct {
	Group     uint8
	FreqUnit  DelayFrequencyUnit
	FreqValue float32 // magnitude in FreqUnit's units

	feedbackPct100 int32 // feedback rate stored internally as percent*100
}

// NewDelay builds a Delay with feedback clamped to [0, 1].
func NewDelay(group uint8, unit DelayFrequencyUnit, value float32, feedback float32) Delay {
	return Delay{
		Group:          group,
		FreqUnit:       unit,
		FreqValue:      value,
		feedbackPct100: int32(clampf(feedback, 0, 1) * 10000),
	}
}

// Feedback returns the feedback rate as a fraction in [0, 1].
func (d Delay) Feedback() float32 {
	return float32(d.feedbackPct100) / 10000
}

// SetFeedback stores fraction (clamped to [0,1]) as percent*100, matching
// the on-disk representation (spec.md §3).
func (d *Delay) SetFeedback(fraction float32) {
	d.feedbackPct100 = int32(clampf(fraction, 0, 1) * 10000)
}

// DelaySamples converts the Delay's frequency/magnitude into a sample-count
// delay length given the project's tempo/beat-count and the render sample
// rate.
func (d Delay) DelaySamples(beatNum int32, beatTempo float32, sampleRate int) int {
	secsPerBeat := 60.0 / float64(beatTempo)
	var secs float64
	switch d.FreqUnit {
	case DelayBeat:
		secs = float64(d.FreqValue) * secsPerBeat
	case DelayMeasure:
		secs = float64(d.FreqValue) * secsPerBeat * float64(beatNum)
	default: // DelaySecond
		secs = float64(d.FreqValue)
	}
	n := int(secs * float64(sampleRate))
	if n < 1 {
		n = 1
	}
	return n
}

package ptcop

import "unicode/utf8"

// Project is the in-memory representation of a decoded .ptcop document: the
// master settings plus every unit/event/woice/delay/overdrive it owns.
// Nothing in this tree holds a back-pointer to Project or to any sibling;
// all cross-references are plain integer indices (spec.md §2, §3). Grounded
// on the teacher's Song struct (Title, Channels, Orders, Samples, Tempo,
// Speed) as the "one aggregate owns every child collection" shape, and on
// mukunda--modlib/common/common.go's Module type for editing methods living
// directly on the aggregate.
type Project struct {
	Name    string
	Comment string

	BeatNum       int32
	BeatTempo     float32
	BeatClock     int32
	NumMeasures   int32
	RepeatMeasure int32
	LastMeasure   int32

	Units      []Unit
	Woices     []*Woice
	Delays     []Delay
	Overdrives []Overdrive

	Events EventList
}

// NewProject returns an empty project with the format's documented defaults
// (spec.md §3 "Project").
func NewProject() *Project {
	return &Project{
		BeatNum:     4,
		BeatTempo:   120,
		BeatClock:   480,
		NumMeasures: 1,
	}
}

// AddUnit appends a unit and returns its index.
func (p *Project) AddUnit(u Unit) int {
	p.Units = append(p.Units, u)
	return len(p.Units) - 1
}

// RemoveUnit deletes the unit at index i, scrubbing or re-homing every event
// that referenced it (spec.md §5 "removing a unit").
func (p *Project) RemoveUnit(i int) error {
	if i < 0 || i >= len(p.Units) {
		return ErrBadIndex
	}
	p.Units = append(p.Units[:i], p.Units[i+1:]...)
	p.Events.RemoveUnitReferences(i)
	return nil
}

// AddWoice appends a woice slot and returns its index.
func (p *Project) AddWoice(w *Woice) int {
	p.Woices = append(p.Woices, w)
	return len(p.Woices) - 1
}

// RemoveWoice deletes the woice slot at index i. Any VoiceNo event pointing
// past the removed slot is not rewritten here; callers that allow removal
// while events reference the slot must re-home those events themselves,
// mirroring how spec.md leaves VoiceNo-after-removal undefined outside of
// the unit-removal case.
func (p *Project) RemoveWoice(i int) error {
	if i < 0 || i >= len(p.Woices) {
		return ErrBadIndex
	}
	p.Woices = append(p.Woices[:i], p.Woices[i+1:]...)
	return nil
}

// AddDelay appends a delay descriptor and returns its index.
func (p *Project) AddDelay(d Delay) int {
	p.Delays = append(p.Delays, d)
	return len(p.Delays) - 1
}

// AddOverdrive appends an overdrive descriptor and returns its index.
func (p *Project) AddOverdrive(o Overdrive) int {
	p.Overdrives = append(p.Overdrives, o)
	return len(p.Overdrives) - 1
}

// AddEvent inserts ev into the project's event list in clock/priority order.
func (p *Project) AddEvent(ev Event) error {
	return p.Events.Add(ev)
}

// RemoveEvent deletes the event at position i in clock order.
func (p *Project) RemoveEvent(i int) error {
	return p.Events.Remove(i)
}

// SetName sets the project name; it must be valid UTF-8 (spec.md §3).
func (p *Project) SetName(name string) error {
	if !utf8.ValidString(name) {
		return ErrInvalidText
	}
	p.Name = name
	return nil
}

// SetComment sets the project comment; it must be valid UTF-8.
func (p *Project) SetComment(comment string) error {
	if !utf8.ValidString(comment) {
		return ErrInvalidText
	}
	p.Comment = comment
	return nil
}

// TickToMeasureBeat converts an absolute clock tick to a (measure, beat,
// clock-within-beat) triple using the project's beat_num/beat_clock, per
// SPEC_FULL.md's supplemented tick<->measure/beat helpers (grounded on
// original_source/src/pxtone/util.rs).
func (p *Project) TickToMeasureBeat(tick int32) (measure, beat, clock int32) {
	if p.BeatClock <= 0 || p.BeatNum <= 0 {
		return 0, 0, tick
	}
	ticksPerMeasure := p.BeatClock * p.BeatNum
	measure = tick / ticksPerMeasure
	rem := tick % ticksPerMeasure
	beat = rem / p.BeatClock
	clock = rem % p.BeatClock
	return
}

// MeasureBeatToTick is the inverse of TickToMeasureBeat.
func (p *Project) MeasureBeatToTick(measure, beat, clock int32) int32 {
	return measure*p.BeatClock*p.BeatNum + beat*p.BeatClock + clock
}

// TotalClocks returns the project's length in ticks: num_measures measures
// of beat_num beats of beat_clock ticks each.
func (p *Project) TotalClocks() int32 {
	return p.NumMeasures * p.BeatNum * p.BeatClock
}

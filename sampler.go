package ptcop

import (
	"math"

	"github.com/gopxtone/ptcop/internal/fx"
)

// chunkFrames is the render granularity the event cursor advances by
// (spec.md §4.4: "the reference uses 100-frame chunks").
const chunkFrames = 100

// onState tracks an active note, set on an On event and cleared once the
// unit returns to idle (spec.md §4.4 "UnitState").
type onState struct {
	startTick  int32
	lengthTick int32
	cycle      float64
}

// unitState is the sampler's per-unit runtime state, distinct from the
// editing-surface Unit type in unit.go (spec.md §4.4 "UnitState").
type unitState struct {
	on *onState

	keyNow    int32
	keyStart  int32
	keyMargin int32

	portaTicks     int32
	portaStartTick int32

	volume    UnitInterval
	velocity  UnitInterval
	panVolume Pan
	panTime   Pan
	tuning    Tuning
	woiceNo   int
	groupNo   uint8
}

func newUnitState() *unitState {
	return &unitState{
		keyNow:   KeyDefault,
		keyStart: KeyDefault,
		volume:   NewUnitInterval(1),
		velocity: NewUnitInterval(1),
		tuning:   NewTuning(1),
		woiceNo:  -1,
	}
}

// FadeDirection selects which way Sampler.SetFade ramps master volume.
type FadeDirection int

const (
	FadeNone FadeDirection = iota
	FadeIn
	FadeOut
)

// Sampler renders a Project to interleaved PCM. Grounded on the teacher's
// Player (player.go): the tickSamplePos/samplesPerTick chunked generation
// loop, per-channel runtime state, and accumulate-then-downshift mixing
// are all carried over, translated from MOD's tick/row model to ptcop's
// absolute-tick event-stream model (spec.md §4.4).
type Sampler struct {
	project *Project

	channels   int
	sampleRate int

	smp       int64 // global sample counter
	lastClock int64 // clock boundary applyEvents last advanced to; -1 before the first call
	eventIdx  int

	units map[uint8]*unitState

	masterVolume float32
	loop         bool
	muteEnabled  bool

	fadeDir     FadeDirection
	fadeTotal   int64
	fadeElapsed int64

	delayLines     map[uint8]*fx.DelayLine
	overdriveByGrp map[uint8]Overdrive

	// Per-frame group accumulation scratch, indexed by GroupNo. Kept on the
	// sampler so renderFrame allocates nothing per frame.
	groupAcc  [256][2]float32
	groupSeen [256]bool
	groupUsed []uint8

	ready bool
}

// NewSampler constructs a Sampler over project. Call SetAudioFormat and
// PrepareSample before the first Sample call.
func NewSampler(project *Project) *Sampler {
	s := &Sampler{project: project, masterVolume: 1, muteEnabled: true}
	s.resetUnits()
	return s
}

func (s *Sampler) resetUnits() {
	s.units = make(map[uint8]*unitState)
	for i := range s.project.Units {
		s.units[uint8(i)] = newUnitState()
	}
}

// SetAudioFormat configures the sampler's output shape; it does not mutate
// the project (spec.md §4.4).
func (s *Sampler) SetAudioFormat(channels, sampleRate int) {
	s.channels = channels
	s.sampleRate = sampleRate
	s.ready = s.channels > 0 && s.sampleRate > 0
	s.rebuildEffectBuses()
}

func (s *Sampler) rebuildEffectBuses() {
	s.delayLines = make(map[uint8]*fx.DelayLine)
	for _, d := range s.project.Delays {
		n := d.DelaySamples(s.project.BeatNum, s.project.BeatTempo, s.sampleRate)
		s.delayLines[d.Group] = fx.NewDelayLine(n, s.channels, d.Feedback())
	}
	s.overdriveByGrp = make(map[uint8]Overdrive)
	for _, o := range s.project.Overdrives {
		s.overdriveByGrp[o.Group] = o
	}
}

// PrepareSample resets playback cursors to the start of the project;
// idempotent.
func (s *Sampler) PrepareSample() {
	s.smp = 0
	s.lastClock = -1
	s.eventIdx = 0
	s.fadeDir = FadeNone
	s.resetUnits()
	for _, dl := range s.delayLines {
		dl.Reset()
	}
}

// SetLoop enables or disables looping back to the start once the project's
// total clock length is exhausted.
func (s *Sampler) SetLoop(loop bool) { s.loop = loop }

// SetFade begins a linear fade in or out over duration seconds; dir ==
// FadeNone cancels any fade in progress.
func (s *Sampler) SetFade(dir FadeDirection, duration float64) {
	s.fadeDir = dir
	s.fadeElapsed = 0
	s.fadeTotal = int64(duration * float64(s.sampleRate))
	if s.fadeTotal < 1 {
		s.fadeTotal = 1
	}
}

// SetUnitMuteEnabled controls whether the per-unit Muted flags are honored
// during rendering. Disabling it plays every unit, muted or not, without
// touching the project.
func (s *Sampler) SetUnitMuteEnabled(enabled bool) { s.muteEnabled = enabled }

// SetMasterVolume sets the overall output gain multiplier.
func (s *Sampler) SetMasterVolume(v float32) { s.masterVolume = v }

// NowClock returns the current playback position in ticks.
func (s *Sampler) NowClock() int32 {
	return s.clockAt(s.smp)
}

// EndClock returns the project's total length in ticks.
func (s *Sampler) EndClock() int32 { return s.project.TotalClocks() }

// SamplingOffset returns the current sample offset.
func (s *Sampler) SamplingOffset() int64 { return s.smp }

// SamplingEnd returns the total sample count for one full pass of the
// project at the current tempo and sample rate.
func (s *Sampler) SamplingEnd() int64 {
	return s.samplesForClock(s.EndClock())
}

// TotalSamples is an alias for SamplingEnd kept for API parity with hosts
// that distinguish "total" from "end" when loop points diverge; here they
// are equal since loop points are not separately modeled.
func (s *Sampler) TotalSamples() int64 { return s.SamplingEnd() }

// IsDoneSampling reports whether playback has reached the project's end
// and looping is disabled.
func (s *Sampler) IsDoneSampling() bool {
	return !s.loop && s.smp >= s.SamplingEnd()
}

func (s *Sampler) ticksPerSample() float64 {
	return (float64(s.project.BeatClock) * float64(s.project.BeatTempo) / 60.0) / float64(s.sampleRate)
}

func (s *Sampler) clockAt(smp int64) int32 {
	return int32(float64(smp) * s.ticksPerSample())
}

func (s *Sampler) samplesForClock(clock int32) int64 {
	tps := s.ticksPerSample()
	if tps <= 0 {
		return 0
	}
	return int64(float64(clock) / tps)
}

// Sample renders len(buffer)/channels frames into buffer as interleaved
// signed 16-bit PCM (spec.md §4.4 "sample").
func (s *Sampler) Sample(buffer []int16) error {
	if !s.ready {
		return ErrRenderNotReady
	}
	frames := len(buffer) / s.channels

	for start := 0; start < frames; start += chunkFrames {
		n := chunkFrames
		if start+n > frames {
			n = frames - start
		}
		s.renderChunk(buffer[start*s.channels:(start+n)*s.channels], n)
	}
	return nil
}

func (s *Sampler) renderChunk(out []int16, frames int) {
	chunkEndSmp := s.smp + int64(frames)
	boundaryClock := uint32(s.clockAt(chunkEndSmp))
	s.applyEvents(boundaryClock)

	for f := 0; f < frames; f++ {
		s.renderFrame(out[f*s.channels : (f+1)*s.channels])
		s.smp++
	}

	if s.loop && s.smp >= s.SamplingEnd() {
		s.PrepareSample()
	}
}

// applyEvents advances the event cursor, applying every event with
// clock <= upTo (spec.md §4.4 step 2). The cursor (eventIdx) only ever
// moves forward and each index is visited exactly once across the whole
// render, so every event reached here is by construction one that has not
// yet been applied; gating on a clock comparison as well (as an earlier
// version of this method did) drops every event but the first at a shared
// clock, since eventIdx has already moved past them by the time they're
// considered. lastClock is tracked only for diagnostics/bookkeeping.
func (s *Sampler) applyEvents(upTo uint32) {
	for s.eventIdx < s.project.Events.Len() {
		ev := s.project.Events.At(s.eventIdx)
		if int64(ev.Clock) > int64(upTo) {
			break
		}
		s.applyEvent(ev)
		s.eventIdx++
	}
	if int64(upTo) > s.lastClock {
		s.lastClock = int64(upTo)
	}
}

func (s *Sampler) applyEvent(ev Event) {
	if !ev.Kind.IsUnitLevel() {
		return
	}
	st, ok := s.units[ev.UnitNo]
	if !ok {
		st = newUnitState()
		s.units[ev.UnitNo] = st
	}

	switch ev.Kind {
	case EventOn:
		st.keyStart = st.keyNow
		st.keyMargin = 0
		st.on = &onState{startTick: int32(ev.Clock), lengthTick: int32(ev.U32)}
	case EventKey:
		// The glide restarts from wherever the pitch currently is, so
		// back-to-back Key events chain smoothly.
		st.keyStart = st.keyNow
		st.keyMargin = ev.I32 - st.keyNow
		st.portaStartTick = int32(ev.Clock)
		if st.portaTicks == 0 {
			st.keyNow = ev.I32
			st.keyStart = ev.I32
			st.keyMargin = 0
		}
	case EventPanVolume:
		st.panVolume = ev.Pan
	case EventVelocity:
		st.velocity = ev.UI
	case EventVolume:
		st.volume = ev.UI
	case EventPortament:
		st.portaTicks = int32(ev.U32)
	case EventVoiceNo:
		// Resetting cycle but leaving key_now alone mirrors the reference
		// engine's comment on mid-note instrument switches (DESIGN.md Open
		// Question 1).
		st.woiceNo = int(ev.U8)
		if st.on != nil {
			st.on.cycle = 0
		}
	case EventGroupNo:
		st.groupNo = ev.U8
	case EventTuning:
		st.tuning = ev.Tun
	case EventPanTime:
		st.panTime = ev.Pan
	}
}

func (s *Sampler) renderFrame(frame []int16) {
	clockTicks := s.clockAt(s.smp)
	for _, g := range s.groupUsed {
		s.groupAcc[g] = [2]float32{}
		s.groupSeen[g] = false
	}
	s.groupUsed = s.groupUsed[:0]

	// Units are walked in index order rather than ranged over the map
	// directly: Go randomizes map iteration order, and summing unit outputs
	// in a different order each call would make floating-point rounding
	// non-reproducible across otherwise identical renders (spec.md §8
	// invariant 7).
	for unitNo := 0; unitNo < len(s.project.Units); unitNo++ {
		st, ok := s.units[uint8(unitNo)]
		if !ok || (s.muteEnabled && s.project.Units[unitNo].Muted) {
			continue
		}
		s.advancePortamento(st, clockTicks)

		sounding, releaseSecs := s.unitWindow(st, clockTicks)
		woice := s.resolveWoice(st.woiceNo)
		if woice == nil {
			continue
		}

		releaseGain := float32(1)
		if !sounding {
			switch {
			case releaseSecs < 0:
				continue
			case woice.HasReleaseTail() && releaseSecs <= woice.TailDurationSecs():
				releaseGain = woice.ReleaseGain(releaseSecs)
			default:
				// PCM/OGGV/PTN without a release tail: clamp at on.length
				// (spec.md §4.3 "Envelope release").
				continue
			}
		}

		keyFreq := KeyToFrequency(st.keyNow)
		deltaSecs := 1.0 / float64(s.sampleRate)
		if st.on != nil {
			st.on.cycle += deltaSecs * keyFreq * float64(st.tuning)
		}
		setVoicesElapsed(woice, s.onElapsedSecs(st, clockTicks))

		if !s.groupSeen[st.groupNo] {
			s.groupSeen[st.groupNo] = true
			s.groupUsed = append(s.groupUsed, st.groupNo)
		}
		acc := &s.groupAcc[st.groupNo]
		for ch := 0; ch < s.channels; ch++ {
			v := sampleWoice(woice, st.on.cycleOrZero(), ch)
			l, r := panWeight(st.panVolume)
			weight := l
			if ch == 1 {
				weight = r
			}
			v *= weight * float32(st.volume) * float32(st.velocity) * releaseGain
			acc[ch] += v
		}
	}

	var mixed [2]float32
	for _, group := range s.groupUsed {
		acc := &s.groupAcc[group]
		s.applyGroupEffects(group, acc)
		mixed[0] += acc[0]
		mixed[1] += acc[1]
	}

	fade := s.fadeStep()
	for ch := 0; ch < s.channels; ch++ {
		v := mixed[ch] / 2 * s.masterVolume * fade * outputScale
		frame[ch] = clampSample(v)
	}
}

// outputScale converts a voice's normalized float output (roughly [-1, 1],
// per spec.md §4.3 "approximately [-0.5, 0.5]... the mixer scales and
// clamps") into signed 16-bit PCM range at the final mixdown step.
const outputScale = 32767

// applyGroupEffects routes one group's accumulated frame through its
// overdrive and delay buses, per DESIGN.md's Open Question 4 resolution:
// additive per-group buses addressed by a unit's most recent GroupNo event.
func (s *Sampler) applyGroupEffects(group uint8, acc *[2]float32) {
	if od, ok := s.overdriveByGrp[group]; ok {
		shaped := fx.Overdrive{Cut: od.Cut, Amp: od.Amp}
		acc[0] = shaped.Apply(acc[0])
		acc[1] = shaped.Apply(acc[1])
	}
	if dl, ok := s.delayLines[group]; ok {
		var dry, wet [2]int32
		for ch := 0; ch < s.channels && ch < 2; ch++ {
			dry[ch] = int32(acc[ch] * 32768)
		}
		dl.Process(dry[:s.channels], wet[:s.channels])
		for ch := 0; ch < s.channels && ch < 2; ch++ {
			acc[ch] += float32(wet[ch]) / 32768
		}
	}
}

// cycleOrZero lets renderFrame read an on-state's cycle without special-
// casing a nil on (a unit can be found by woice but not sounding).
func (o *onState) cycleOrZero() float64 {
	if o == nil {
		return 0
	}
	return o.cycle
}

func (s *Sampler) advancePortamento(st *unitState, clockTicks int32) {
	if st.on == nil {
		return
	}
	if st.portaTicks > 0 {
		t := float64(clockTicks-st.portaStartTick) / float64(st.portaTicks)
		t = clampf64(t, 0, 1)
		st.keyNow = st.keyStart + int32(float64(st.keyMargin)*t)
	} else {
		st.keyNow = st.keyStart + st.keyMargin
	}
}

func clampf64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// unitWindow reports whether the unit is currently sounding, and if it is
// past note-off, how many seconds past note-off it is (-1 if it has no on
// at all or is still sounding). The caller compares that time with the
// woice's tail length.
func (s *Sampler) unitWindow(st *unitState, clockTicks int32) (sounding bool, releaseSecs float64) {
	if st.on == nil {
		return false, -1
	}
	endTick := st.on.startTick + st.on.lengthTick
	if clockTicks <= endTick {
		return true, -1
	}
	ticksPerSec := float64(s.project.BeatClock) * float64(s.project.BeatTempo) / 60.0
	if ticksPerSec <= 0 {
		return false, -1
	}
	releaseSecs = float64(clockTicks-endTick) / ticksPerSec
	return false, releaseSecs
}

// elapsedSetter is implemented by voice variants with an attack envelope
// (VoicePTV, VoicePTN); PCM/OGGV voices have no envelope and don't need it.
type elapsedSetter interface {
	SetElapsed(secs float64)
}

// setVoicesElapsed records wall-clock seconds since note-on on every voice
// in a woice that tracks an attack envelope, ahead of sampling it.
func setVoicesElapsed(w *Woice, secs float64) {
	w.EachVoice(func(v Voice) {
		if es, ok := v.(elapsedSetter); ok {
			es.SetElapsed(secs)
		}
	})
}

// onElapsedSecs reports wall-clock seconds since the unit's current on
// started, or 0 if it isn't sounding.
func (s *Sampler) onElapsedSecs(st *unitState, clockTicks int32) float64 {
	if st.on == nil {
		return 0
	}
	ticksPerSec := float64(s.project.BeatClock) * float64(s.project.BeatTempo) / 60.0
	if ticksPerSec <= 0 {
		return 0
	}
	return float64(clockTicks-st.on.startTick) / ticksPerSec
}

func (s *Sampler) resolveWoice(idx int) *Woice {
	if idx < 0 || idx >= len(s.project.Woices) {
		return nil
	}
	return s.project.Woices[idx]
}

// sampleWoice sums every voice in a woice slot (PTV layers stack; other
// kinds hold exactly one voice), per spec.md §3 "Woice". Each voice's own
// header pan (spec.md §3's shared VoiceHeader.Pan) is applied here, on top
// of the unit-level PanVolume weight the caller applies to the sum
// (spec.md §4.4 step 6).
func sampleWoice(w *Woice, cycle float64, channel int) float32 {
	var sum float32
	w.EachVoice(func(v Voice) {
		l, r := v.PanWeight()
		weight := l
		if channel == 1 {
			weight = r
		}
		sum += v.Sample(cycle, channel) * weight
	})
	return sum
}

// fadeStep returns this frame's fade gain and advances the fade by one
// frame; called exactly once per output frame regardless of channel count.
func (s *Sampler) fadeStep() float32 {
	if s.fadeDir == FadeNone || s.fadeTotal == 0 {
		return 1
	}
	t := float32(s.fadeElapsed) / float32(s.fadeTotal)
	if t > 1 {
		t = 1
	}
	s.fadeElapsed++
	if s.fadeDir == FadeIn {
		return t
	}
	return 1 - t
}

func clampSample(v float32) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

package ptcop

// WoiceKind tags which voice variant a Woice holds (spec.md §3 "Woice").
type WoiceKind uint8

const (
	WoicePCM WoiceKind = iota
	WoicePTV
	WoicePTN
	WoiceOGGV
)

// Woice is one instrument slot of a Project: a tagged union over the four
// voice-data shapes the format supports. Grounded on the teacher's
// Song.Samples []Sample ownership in mod.go/s3m.go (the project owns a flat
// list of instrument slots referenced by index from unit events), generalized
// here to a union since ptcop voices come in four incompatible shapes rather
// than one.
type Woice struct {
	Kind WoiceKind
	Name string

	PCM  []*VoicePCM  // len 1 for PCM
	PTV  []*VoicePTV  // one or more rasterized wave voices
	PTN  []*VoicePTN  // len 1 for PTN
	OGGV []*VoiceOGGV // len 1 for OGGV
}

// Voices returns the Woice's voice list regardless of kind, for code that
// only needs to sample every voice in the slot (e.g. the sampler mixing a
// multi-voice PTV woice).
func (w *Woice) Voices() []Voice {
	switch w.Kind {
	case WoicePCM:
		out := make([]Voice, len(w.PCM))
		for i, v := range w.PCM {
			out[i] = v
		}
		return out
	case WoicePTV:
		out := make([]Voice, len(w.PTV))
		for i, v := range w.PTV {
			out[i] = v
		}
		return out
	case WoicePTN:
		out := make([]Voice, len(w.PTN))
		for i, v := range w.PTN {
			out[i] = v
		}
		return out
	case WoiceOGGV:
		out := make([]Voice, len(w.OGGV))
		for i, v := range w.OGGV {
			out[i] = v
		}
		return out
	}
	return nil
}

// EachVoice calls fn for every voice in the slot, in order, without
// allocating the aggregate slice Voices builds; the sampler's per-frame path
// uses this.
func (w *Woice) EachVoice(fn func(Voice)) {
	switch w.Kind {
	case WoicePCM:
		for _, v := range w.PCM {
			fn(v)
		}
	case WoicePTV:
		for _, v := range w.PTV {
			fn(v)
		}
	case WoicePTN:
		for _, v := range w.PTN {
			fn(v)
		}
	case WoiceOGGV:
		for _, v := range w.OGGV {
			fn(v)
		}
	}
}

// HasReleaseTail reports whether any voice in this woice defines an
// envelope release tail (spec.md §4.3 "Envelope release"). PTV and PTN
// voices carry envelopes in this implementation; PCM/OGGV notes cut off at
// on.length instead.
func (w *Woice) HasReleaseTail() bool {
	for _, v := range w.PTV {
		if v.HasTail() {
			return true
		}
	}
	for _, v := range w.PTN {
		if v.HasTail() {
			return true
		}
	}
	return false
}

// ReleaseGain returns the release-tail gain secsIntoRelease past note-off,
// the maximum across any tailed PTV/PTN layer. Callers must check
// HasReleaseTail first.
func (w *Woice) ReleaseGain(secsIntoRelease float64) float32 {
	var g float32
	for _, v := range w.PTV {
		if v.HasTail() {
			if rg := v.ReleaseGain(secsIntoRelease); rg > g {
				g = rg
			}
		}
	}
	for _, v := range w.PTN {
		if v.HasTail() {
			if rg := v.ReleaseGain(secsIntoRelease); rg > g {
				g = rg
			}
		}
	}
	return g
}

// TailDurationSecs returns the longest release tail among this woice's
// voices, or 0 if none has a tail.
func (w *Woice) TailDurationSecs() float64 {
	var d float64
	for _, v := range w.PTV {
		if t := v.TailDurationSecs(); t > d {
			d = t
		}
	}
	for _, v := range w.PTN {
		if t := v.TailDurationSecs(); t > d {
			d = t
		}
	}
	return d
}

// NewPCMWoice wraps a single PCM voice in a Woice slot.
func NewPCMWoice(name string, v *VoicePCM) *Woice {
	return &Woice{Kind: WoicePCM, Name: name, PCM: []*VoicePCM{v}}
}

// NewPTVWoice wraps one or more PTV voices in a Woice slot.
func NewPTVWoice(name string, vs []*VoicePTV) *Woice {
	return &Woice{Kind: WoicePTV, Name: name, PTV: vs}
}

// NewPTNWoice wraps a single PTN voice in a Woice slot.
func NewPTNWoice(name string, v *VoicePTN) *Woice {
	return &Woice{Kind: WoicePTN, Name: name, PTN: []*VoicePTN{v}}
}

// NewOGGVWoice wraps a single OGGV voice in a Woice slot.
func NewOGGVWoice(name string, v *VoiceOGGV) *Woice {
	return &Woice{Kind: WoiceOGGV, Name: name, OGGV: []*VoiceOGGV{v}}
}

package ptcop

import "math"

// sampleBuffer is the normalized f32 PCM shape shared by VoicePCM and
// VoiceOGGV: decoded once at load time, indexed by a fixed-point playback
// position at render time. Grounded on the teacher's mixer_scalar.go, which
// walks sample.Data with a fixed-point position accumulator (pos>>16).
type sampleBuffer struct {
	data     []float32 // interleaved by channel
	channels int
	frames   int
}

func (b *sampleBuffer) at(frame, channel int) float32 {
	if frame < 0 || frame >= b.frames {
		return 0
	}
	ch := channel
	if ch >= b.channels {
		ch = b.channels - 1
	}
	return b.data[frame*b.channels+ch]
}

// VoicePCM is a raw-sample instrument voice (spec.md §3 "VoicePCM").
type VoicePCM struct {
	Header VoiceHeader

	Channels         int // 1 or 2
	SamplesPerSecond int
	BitsPerSample    int // 8 or 16
	Loop             bool
	Smooth           bool
	BeatFit          bool

	buf sampleBuffer

	// ratioToA is the denominator mapping a playback cycle to a buffer
	// index (spec.md §3 "VoicePCM"): (sample_count / (200*sps/44100)) /
	// 2^((17664-basic_key)/3072).
	ratioToA float64
}

const pcmRatioClockDiv = 3072

// computeRatioToA precomputes the cycle-to-buffer-index ratio for a freshly
// loaded PCM voice.
func computeRatioToA(sampleCount int, sps int, basicKey int32) float64 {
	denom := float64(sampleCount) / (200.0 * float64(sps) / 44100.0)
	return denom / math.Pow(2, (float64(BasicKeyDefault)-float64(basicKey))/float64(pcmRatioClockDiv))
}

// NewVoicePCM constructs a VoicePCM from decoded normalized sample data,
// scaled by the header's nominal 0..128 Volume per spec.md §3's shared
// VoiceHeader contract (see scaleByVolume in voice_ptv.go).
func NewVoicePCM(hdr VoiceHeader, channels, sps, bits int, data []float32, loop, smooth, beatFit bool) *VoicePCM {
	frames := 0
	if channels > 0 {
		frames = len(data) / channels
	}
	v := &VoicePCM{
		Header:           hdr,
		Channels:         channels,
		SamplesPerSecond: sps,
		BitsPerSample:    bits,
		Loop:             loop,
		Smooth:           smooth,
		BeatFit:          beatFit,
		buf:              sampleBuffer{data: scaleByVolume(data, hdr.Volume), channels: channels, frames: frames},
	}
	v.ratioToA = computeRatioToA(frames, sps, hdr.BasicKey)
	return v
}

// smoothRampFrames is ~4ms of ramp-in at 44.1kHz per spec.md §4.3
// (sample_rate/250 samples); computed per-instance from SamplesPerSecond.
func (v *VoicePCM) smoothRampFrames() int {
	if v.SamplesPerSecond <= 0 {
		return 0
	}
	return v.SamplesPerSecond / 250
}

// PanWeight implements Voice, exposing the voice's own header pan
// (spec.md §3) for the sampler to apply alongside unit-level PanVolume.
func (v *VoicePCM) PanWeight() (float32, float32) { return v.Header.PanWeight() }

// Sample implements Voice for a raw PCM instrument (spec.md §4.3).
func (v *VoicePCM) Sample(cycle float64, channel int) float32 {
	if v.ratioToA == 0 {
		return 0
	}
	idx := cycle / v.ratioToA * float64(v.Header.Tuning)
	frame := int(idx)

	if v.Loop {
		if v.buf.frames > 0 {
			frame %= v.buf.frames
			if frame < 0 {
				frame += v.buf.frames
			}
		} else {
			frame = 0
		}
	} else if frame >= v.buf.frames {
		return 0
	}

	s := v.buf.at(frame, channel)

	if v.Smooth {
		ramp := v.smoothRampFrames()
		if ramp > 0 && frame < ramp {
			s *= float32(frame) / float32(ramp)
		}
	}

	return s
}

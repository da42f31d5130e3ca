package ptcop

import (
	"bytes"
	"fmt"

	"github.com/jfreymuth/oggvorbis"
)

// VoiceOGGV is an Ogg Vorbis voice: the container is decoded once, at load
// time, into the same normalized f32 buffer shape VoicePCM uses, so playback
// reuses VoicePCM's cycle-to-index math unchanged (spec.md §3 "VoiceOGGV").
// Decoding is grounded on the DOMAIN STACK's jfreymuth/oggvorbis (see
// SPEC_FULL.md; no pure-Go Vorbis decoder exists in the example pack).
type VoiceOGGV struct {
	*VoicePCM

	// raw retains the original container bytes so the writer can round-trip
	// a project without re-encoding audio it cannot itself produce.
	raw []byte
}

// DecodeVoiceOGGV decodes an Ogg Vorbis container into a playable voice.
func DecodeVoiceOGGV(hdr VoiceHeader, basicKey int32, container []byte, loop, smooth, beatFit bool) (*VoiceOGGV, error) {
	r, err := oggvorbis.NewReader(bytes.NewReader(container))
	if err != nil {
		return nil, fmt.Errorf("%w: oggv decode: %v", ErrDecodeFailure, err)
	}

	channels := r.Channels()
	sps := r.SampleRate()

	var data []float32
	buf := make([]float32, 4096*channels)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data = append(data, buf[:n]...)
		}
		if err != nil {
			break
		}
	}

	pcm := NewVoicePCM(hdr, channels, sps, 16, data, loop, smooth, beatFit)
	return &VoiceOGGV{VoicePCM: pcm, raw: container}, nil
}

// RawContainer returns the original Ogg Vorbis bytes for re-serialization.
func (v *VoiceOGGV) RawContainer() []byte { return v.raw }

// A very simple WAVE file writer
// Wrote my own after trying out a couple of others I found but
// both required me to know the quantity of audio data before I
// write it.
// See http://soundfile.sapp.org/doc/WaveFormat/ for format
// documentation.

package wav

import (
	"encoding/binary"
	"io"
)

const PCM = 1

type Writer struct {
	WS       io.WriteSeeker
	channels int
}

type Format struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// WriteInterleaved writes a buffer of interleaved signed 16-bit samples
// (sample i, channel c at samples[i*channels+c]), matching the Sampler's
// output shape directly so callers don't need to de-interleave first.
func (w *Writer) WriteInterleaved(samples []int16) error {
	return binary.Write(w.WS, binary.LittleEndian, samples)
}

// WriteFrame writes samples organized as [channel][sampleNum], kept for
// callers that already have per-channel buffers (e.g. ported from the
// teacher's modwav tool).
func (w *Writer) WriteFrame(samples [][]int16) error {
	if len(samples) == 0 {
		return nil
	}
	interleaved := make([]int16, len(samples[0])*w.channels)
	for ch := 0; ch < w.channels && ch < len(samples); ch++ {
		for i, s := range samples[ch] {
			interleaved[i*w.channels+ch] = s
		}
	}
	return w.WriteInterleaved(interleaved)
}

func (w *Writer) Finish() (int64, error) {
	wlen, err := w.WS.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}

	offset, err := w.WS.Seek(4, io.SeekStart)
	if offset != 4 || err != nil {
		return 0, err
	}
	if err := binary.Write(w.WS, binary.LittleEndian, int32(wlen-8)); err != nil {
		return 0, err
	}
	offset, err = w.WS.Seek(40, io.SeekStart)
	if offset != 40 || err != nil {
		return 0, err
	}
	if err := binary.Write(w.WS, binary.LittleEndian, int32(wlen-44)); err != nil {
		return 0, err
	}

	return wlen, nil
}

// NewWriter writes a WAV header for channels-channel, 16-bit PCM audio at
// sampleRate and returns a Writer ready for WriteInterleaved/WriteFrame
// calls, generalized from the teacher's hardcoded-stereo version to honor
// the Sampler's configured channel count (1 or 2).
func NewWriter(ws io.WriteSeeker, sampleRate, channels int) (*Writer, error) {
	writer := &Writer{WS: ws, channels: channels}

	if _, err := ws.Write([]byte("RIFF")); err != nil {
		return nil, err
	}

	// Write out zero for now, come back and fill this later
	if err := binary.Write(ws, binary.LittleEndian, int32(0)); err != nil {
		return nil, err
	}

	if _, err := ws.Write([]byte("WAVE")); err != nil {
		return nil, err
	}

	// Write format chunk
	if _, err := ws.Write([]byte("fmt ")); err != nil {
		return nil, err
	}
	if err := binary.Write(ws, binary.LittleEndian, int32(16)); err != nil {
		return nil, err
	}
	format := Format{AudioFormat: PCM, Channels: uint16(channels), SampleRate: uint32(sampleRate), BitsPerSample: 16}
	format.ByteRate = uint32(sampleRate) * uint32(channels) * (16 / 8)
	format.BlockAlign = uint16(channels) * (16 / 8)
	if err := binary.Write(ws, binary.LittleEndian, format); err != nil {
		return nil, err
	}

	// Write data chunk header
	if _, err := ws.Write([]byte("data")); err != nil {
		return nil, err
	}
	// Write out zero for the data size for now, come back and fill this later
	if err := binary.Write(ws, binary.LittleEndian, int32(0)); err != nil {
		return nil, err
	}

	return writer, nil
}

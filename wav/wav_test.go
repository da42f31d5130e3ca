package wav

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSeeker is an in-memory io.WriteSeeker for exercising the two-pass
// header patching without touching the filesystem.
type memSeeker struct {
	buf []byte
	pos int64
}

func (m *memSeeker) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:], p)
	m.pos = end
	return len(p), nil
}

func (m *memSeeker) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		m.pos = offset
	case io.SeekCurrent:
		m.pos += offset
	case io.SeekEnd:
		m.pos = int64(len(m.buf)) + offset
	}
	return m.pos, nil
}

func TestWriteDecodeRoundTrip(t *testing.T) {
	var ms memSeeker
	w, err := NewWriter(&ms, 44100, 2)
	require.NoError(t, err)

	samples := []int16{0, 100, -100, 32767, -32768, 1, 2, 3}
	require.NoError(t, w.WriteInterleaved(samples))
	_, err = w.Finish()
	require.NoError(t, err)

	d, err := Decode(bytes.NewReader(ms.buf))
	require.NoError(t, err)

	assert.EqualValues(t, PCM, d.Format.AudioFormat)
	assert.EqualValues(t, 2, d.Format.Channels)
	assert.EqualValues(t, 44100, d.Format.SampleRate)
	assert.EqualValues(t, 16, d.Format.BitsPerSample)
	require.Equal(t, len(samples)*2, len(d.Samples))

	got := make([]int16, len(samples))
	require.NoError(t, binary.Read(bytes.NewReader(d.Samples), binary.LittleEndian, got))
	assert.Equal(t, samples, got)
}

func TestDecodeNotWave(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("definitely not a wave file")))
	assert.ErrorIs(t, err, ErrNotWave)
}

func TestDecodeSkipsUnknownChunks(t *testing.T) {
	var ms memSeeker
	w, err := NewWriter(&ms, 8000, 1)
	require.NoError(t, err)
	require.NoError(t, w.WriteInterleaved([]int16{7, 8, 9}))
	_, err = w.Finish()
	require.NoError(t, err)

	// Splice a LIST chunk between the fmt and data chunks (fmt ends at
	// byte 36 in the canonical layout the writer produces).
	var spliced []byte
	spliced = append(spliced, ms.buf[:36]...)
	spliced = append(spliced, []byte("LIST")...)
	spliced = append(spliced, 4, 0, 0, 0)
	spliced = append(spliced, 'I', 'N', 'F', 'O')
	spliced = append(spliced, ms.buf[36:]...)

	d, err := Decode(bytes.NewReader(spliced))
	require.NoError(t, err)
	assert.EqualValues(t, 1, d.Format.Channels)
	assert.Equal(t, 6, len(d.Samples))
}

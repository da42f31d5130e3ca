package ptcop

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/gopxtone/ptcop/internal/wave"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTestWAV assembles a minimal canonical RIFF WAVE byte stream.
func buildTestWAV(channels, sampleRate int, samples []int16) []byte {
	var data bytes.Buffer
	_ = binary.Write(&data, binary.LittleEndian, samples)

	var out bytes.Buffer
	out.WriteString("RIFF")
	_ = binary.Write(&out, binary.LittleEndian, uint32(36+data.Len()))
	out.WriteString("WAVE")
	out.WriteString("fmt ")
	_ = binary.Write(&out, binary.LittleEndian, uint32(16))
	_ = binary.Write(&out, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&out, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&out, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&out, binary.LittleEndian, uint32(sampleRate*channels*2))
	_ = binary.Write(&out, binary.LittleEndian, uint16(channels*2))
	_ = binary.Write(&out, binary.LittleEndian, uint16(16))
	out.WriteString("data")
	_ = binary.Write(&out, binary.LittleEndian, uint32(data.Len()))
	out.Write(data.Bytes())
	return out.Bytes()
}

func TestAddWoiceFromBytesPCM(t *testing.T) {
	p := NewProject()
	file := buildTestWAV(1, 22050, []int16{0, 16384, 0, -16384})

	idx, err := p.AddWoiceFromBytes(WoicePCM, "kick", file)
	require.NoError(t, err)
	require.Equal(t, 0, idx)
	require.Equal(t, WoicePCM, p.Woices[0].Kind)

	v := p.Woices[0].PCM[0]
	assert.Equal(t, 1, v.Channels)
	assert.Equal(t, 22050, v.SamplesPerSecond)
	assert.Equal(t, 16, v.BitsPerSample)
	assert.EqualValues(t, BasicKeyDefault, v.Header.BasicKey)
	assert.False(t, v.Loop)
}

func TestAddWoiceFromBytesPTV(t *testing.T) {
	src := NewVoicePTVFromOvertone(
		VoiceHeader{BasicKey: KeyC0, Volume: FullVolume, Pan: CenterPan, Tuning: 1.0},
		[]wave.Overtone{{Freq: 1, Amp: 128}}, 256, nil)

	var body bytes.Buffer
	writeVarint(&body, 0)
	writeVarint(&body, 0)
	writeVarint(&body, 0)
	writeVarint(&body, 1)
	encodePTVVoice(&body, src)

	var stream bytes.Buffer
	stream.WriteString(ptvStreamTag)
	writeUint32LE(&stream, maxPTVVersion)
	writeUint32LE(&stream, uint32(body.Len()))
	stream.Write(body.Bytes())

	p := NewProject()
	idx, err := p.AddWoiceFromBytes(WoicePTV, "lead", stream.Bytes())
	require.NoError(t, err)
	require.Equal(t, WoicePTV, p.Woices[idx].Kind)
	assert.Equal(t, src.overtones, p.Woices[idx].PTV[0].overtones)
}

func TestAddWoiceFromBytesBadPayload(t *testing.T) {
	p := NewProject()
	_, err := p.AddWoiceFromBytes(WoicePCM, "x", []byte("not a wav"))
	assert.ErrorIs(t, err, ErrFormatInvalid)

	_, err = p.AddWoiceFromBytes(WoiceKind(99), "x", nil)
	assert.ErrorIs(t, err, ErrUnsupportedVoice)

	assert.Empty(t, p.Woices)
}

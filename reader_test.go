package ptcop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func buildRoundTripProject() *Project {
	p := NewProject()
	p.Name = "demo"
	p.Comment = "a comment"
	p.BeatClock = 240
	p.BeatNum = 3
	p.BeatTempo = 140

	p.AddUnit(NewUnit("lead"))
	p.AddUnit(NewUnit("drums"))

	hdr := VoiceHeader{BasicKey: KeyC0, Volume: FullVolume, Pan: CenterPan, Tuning: 1.0}
	pcmData := []float32{0, 0.25, 0.5, 0.25, 0, -0.25, -0.5, -0.25}
	pcm := NewVoicePCM(hdr, 1, 44100, 16, pcmData, true, false, false)
	p.AddWoice(NewPCMWoice("kick", pcm))

	_ = p.AddEvent(Event{Clock: 0, UnitNo: 0, Kind: EventVoiceNo, U8: 0})
	_ = p.AddEvent(Event{Clock: 0, UnitNo: 0, Kind: EventVolume, UI: NewUnitInterval(1)})
	_ = p.AddEvent(Event{Clock: 0, UnitNo: 0, Kind: EventOn, U32: 240})
	_ = p.AddEvent(Event{Clock: 240, UnitNo: 1, Kind: EventPanVolume, Pan: NewPan(-1)})

	return p
}

// TestEncodeDecodeRoundTrip is spec.md §8 invariant 3: read(write(p)) is
// equivalent to p for master fields, units, woices and events.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := buildRoundTripProject()

	got, err := Decode(Encode(p))
	require.NoError(t, err)

	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Comment, got.Comment)
	assert.Equal(t, p.BeatClock, got.BeatClock)
	assert.Equal(t, p.BeatNum, got.BeatNum)
	assert.Equal(t, p.BeatTempo, got.BeatTempo)

	require.Equal(t, len(p.Units), len(got.Units))
	for i := range p.Units {
		assert.Equal(t, p.Units[i].Name, got.Units[i].Name)
	}

	require.Equal(t, 1, len(got.Woices))
	require.Equal(t, WoicePCM, got.Woices[0].Kind)
	gotPCM := got.Woices[0].PCM[0]
	wantPCM := p.Woices[0].PCM[0]
	assert.Equal(t, wantPCM.Channels, gotPCM.Channels)
	assert.Equal(t, wantPCM.SamplesPerSecond, gotPCM.SamplesPerSecond)
	assert.Equal(t, wantPCM.BitsPerSample, gotPCM.BitsPerSample)
	assert.Equal(t, wantPCM.Loop, gotPCM.Loop)
	assert.Equal(t, wantPCM.Smooth, gotPCM.Smooth)
	assert.Equal(t, wantPCM.BeatFit, gotPCM.BeatFit)

	require.Equal(t, p.Events.Len(), got.Events.Len())
	for i := 0; i < p.Events.Len(); i++ {
		a, b := p.Events.At(i), got.Events.At(i)
		assert.Equal(t, a.Clock, b.Clock, "event %d clock", i)
		assert.Equal(t, a.Kind, b.Kind, "event %d kind", i)
		assert.Equal(t, a.UnitNo, b.UnitNo, "event %d unit", i)
	}
}

func TestDecodeTruncatedFile(t *testing.T) {
	full := Encode(buildRoundTripProject())
	_, err := Decode(full[:10])
	assert.ErrorIs(t, err, ErrFormatInvalid)
}

func TestDecodeMissingMagic(t *testing.T) {
	_, err := Decode([]byte("not a ptcop file at all, too short for the header"))
	assert.ErrorIs(t, err, ErrFormatInvalid)
}

func TestDecodeAntiOper(t *testing.T) {
	var out []byte
	out = append(out, []byte(headerMagic)...)
	out = append(out, 0, 0, 0, 0) // exe_ver, reserved

	tag := make([]byte, 8)
	copy(tag, "antiOPER")
	out = append(out, tag...)
	out = append(out, 0, 0, 0, 0) // zero-length payload

	_, err := Decode(out)
	assert.ErrorIs(t, err, ErrFormatRejected)
}

// TestDecodeUnresolvedReference checks spec.md §4.5's forward-reference
// rule: an event whose unit_no never resolves must fail after pxtoneND.
func TestDecodeUnresolvedReference(t *testing.T) {
	p := NewProject() // zero units
	_ = p.AddEvent(Event{Clock: 0, UnitNo: 5, Kind: EventOn, U32: 10})

	_, err := Decode(Encode(p))
	assert.ErrorIs(t, err, ErrUnresolvedReference)
}

// TestEventPayloadRoundTrip is spec.md §8 invariant 2 as a property: every
// event payload on the representable subset (Pan snapped to multiples of
// 1/64, Velocity to multiples of 1/128) survives the disk <-> memory conversion of §4.7.
func TestEventPayloadRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := NewProject()
		p.AddUnit(NewUnit("u"))

		pan := NewPan(float32(rapid.IntRange(0, 128).Draw(t, "pan"))/64 - 1)
		vel := NewUnitInterval(float32(rapid.IntRange(0, 128).Draw(t, "vel")) / 128)
		key := rapid.Int32Range(0, 1<<20).Draw(t, "key")
		length := rapid.Uint32Range(0, 1<<24).Draw(t, "length")
		tun := NewTuning(rapid.Float32Range(0, tuningMax).Draw(t, "tun"))

		require.NoError(t, p.AddEvent(Event{Clock: 0, UnitNo: 0, Kind: EventPanVolume, Pan: pan}))
		require.NoError(t, p.AddEvent(Event{Clock: 0, UnitNo: 0, Kind: EventVelocity, UI: vel}))
		require.NoError(t, p.AddEvent(Event{Clock: 0, UnitNo: 0, Kind: EventKey, I32: key}))
		require.NoError(t, p.AddEvent(Event{Clock: 0, UnitNo: 0, Kind: EventTuning, Tun: tun}))
		require.NoError(t, p.AddEvent(Event{Clock: 0, UnitNo: 0, Kind: EventOn, U32: length}))

		got, err := Decode(Encode(p))
		require.NoError(t, err)
		require.Equal(t, p.Events.Len(), got.Events.Len())
		for i := 0; i < p.Events.Len(); i++ {
			a, b := p.Events.At(i), got.Events.At(i)
			require.Equal(t, a.Kind, b.Kind)
			switch a.Kind {
			case EventPanVolume:
				assert.Equal(t, a.Pan, b.Pan)
			case EventVelocity:
				assert.Equal(t, a.UI, b.UI)
			case EventKey:
				assert.Equal(t, a.I32, b.I32)
			case EventTuning:
				assert.Equal(t, a.Tun, b.Tun)
			case EventOn:
				assert.Equal(t, a.U32, b.U32)
			}
		}
	})
}

// TestDecodeSkipsUnrecognizedBlock checks spec.md §4.5/§6: an unknown block
// tag is skipped, not a fatal error.
func TestDecodeSkipsUnrecognizedBlock(t *testing.T) {
	base := Encode(buildRoundTripProject())

	// Splice an unrecognized block in right after the header.
	headerLen := len(headerMagic) + 4 // magic, exe_ver, reserved
	var out []byte
	out = append(out, base[:headerLen]...)
	tag := make([]byte, 8)
	copy(tag, "mysteryX")
	out = append(out, tag...)
	out = append(out, 3, 0, 0, 0) // 3-byte payload
	out = append(out, 1, 2, 3)
	out = append(out, base[headerLen:]...)

	_, err := Decode(out)
	assert.NoError(t, err)
}

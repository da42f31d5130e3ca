package ptcop

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/gopxtone/ptcop/internal/wave"
)

// Encode serializes p back to .ptcop bytes, mirroring Decode's block table
// (spec.md §4.6). Block output order is fixed: textNAME, textCOMM, MasterV5,
// num UNIT, assiUNIT per unit, matePCM/mateOGGV/matePTV/matePTN in woice
// order, Event V5, pxtoneND. Grounded on the teacher's wav/wav.go two-pass
// "write placeholder, seek back and patch" idiom, generalized here to a
// single forward pass since every block's size is known before it is
// written (no streaming audio payload to size after the fact).
func Encode(p *Project) []byte {
	var out bytes.Buffer
	out.WriteString(headerMagic)
	writeUint16LE(&out, 0) // exe_ver
	writeUint16LE(&out, 0) // reserved

	writeBlock(&out, "textNAME", []byte(p.Name))
	writeBlock(&out, "textCOMM", []byte(p.Comment))
	writeBlock(&out, "MasterV5", encodeMasterV5(p))
	writeBlock(&out, "num UNIT", encodeUint32(uint32(len(p.Units))))

	for i, u := range p.Units {
		writeBlock(&out, "assiUNIT", encodeAssiUnit(i, u))
	}

	for _, w := range p.Woices {
		switch w.Kind {
		case WoicePCM:
			writeBlock(&out, "matePCM ", encodeMatePCM(w.PCM[0]))
		case WoiceOGGV:
			writeBlock(&out, "mateOGGV", encodeMateOGGV(w.OGGV[0]))
		case WoicePTV:
			writeBlock(&out, "matePTV ", encodeMatePTV(w.PTV))
		case WoicePTN:
			writeBlock(&out, "matePTN ", encodeMatePTN(w.PTN[0]))
		}
	}

	writeBlock(&out, "Event V5", encodeEventsV5(p))
	writeBlock(&out, "pxtoneND", nil)

	return out.Bytes()
}

func writeBlock(out *bytes.Buffer, tag string, payload []byte) {
	tagBytes := make([]byte, 8)
	copy(tagBytes, tag)
	out.Write(tagBytes)
	writeUint32LE(out, uint32(len(payload)))
	out.Write(payload)
}

func encodeMasterV5(p *Project) []byte {
	var buf bytes.Buffer
	writeInt16LE(&buf, int16(p.BeatClock))
	buf.WriteByte(byte(int8(p.BeatNum)))
	writeFloat32LE(&buf, p.BeatTempo)
	writeInt32LE(&buf, p.RepeatMeasure)
	writeInt32LE(&buf, p.LastMeasure)
	return buf.Bytes()
}

func encodeAssiUnit(index int, u Unit) []byte {
	var buf bytes.Buffer
	writeUint16LE(&buf, uint16(index))
	writeUint16LE(&buf, 0)
	name := make([]byte, maxUnitNameBytes)
	copy(name, u.Name)
	buf.Write(name)
	return buf.Bytes()
}

func encodeMatePCM(v *VoicePCM) []byte {
	var buf bytes.Buffer
	writeUint16LE(&buf, 0) // legacy x3x_unit_no
	writeUint16LE(&buf, uint16(v.Header.BasicKey))

	var flags uint32
	if v.Loop {
		flags |= PCMFlagLoop
	}
	if v.Smooth {
		flags |= PCMFlagSmooth
	}
	if v.BeatFit {
		flags |= PCMFlagBeatFit
	}
	writeUint32LE(&buf, flags)
	writeUint16LE(&buf, uint16(v.Channels))
	writeUint16LE(&buf, uint16(v.BitsPerSample))
	writeUint32LE(&buf, uint32(v.SamplesPerSecond))
	writeFloat32LE(&buf, v.Header.Tuning)

	raw := encodeRawPCM(v.buf.data, v.BitsPerSample)
	writeUint32LE(&buf, uint32(len(raw)))
	buf.Write(raw)
	return buf.Bytes()
}

func encodeRawPCM(data []float32, bits int) []byte {
	switch bits {
	case 8:
		out := make([]byte, len(data))
		for i, s := range data {
			out[i] = byte(clampf(s*128+128, 0, 255))
		}
		return out
	default: // 16-bit
		out := make([]byte, len(data)*2)
		for i, s := range data {
			v := int16(clampf(s*32768, -32768, 32767))
			binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
		}
		return out
	}
}

func encodeMateOGGV(v *VoiceOGGV) []byte {
	var buf bytes.Buffer
	writeUint16LE(&buf, 0)
	writeUint16LE(&buf, uint16(v.Header.BasicKey))
	var flags uint32
	if v.Loop {
		flags |= PCMFlagLoop
	}
	if v.Smooth {
		flags |= PCMFlagSmooth
	}
	if v.BeatFit {
		flags |= PCMFlagBeatFit
	}
	writeUint32LE(&buf, flags)
	writeFloat32LE(&buf, v.Header.Tuning)
	writeUint32LE(&buf, uint32(v.Channels))
	writeUint32LE(&buf, uint32(v.SamplesPerSecond))
	writeUint32LE(&buf, uint32(v.buf.frames))
	raw := v.RawContainer()
	writeUint32LE(&buf, uint32(len(raw)))
	buf.Write(raw)
	return buf.Bytes()
}

func encodeMatePTV(voices []*VoicePTV) []byte {
	var body bytes.Buffer
	writeVarint(&body, 0) // x3x_basic_key
	writeVarint(&body, 0) // work1
	writeVarint(&body, 0) // work2
	writeVarint(&body, uint32(len(voices)))
	for _, v := range voices {
		encodePTVVoice(&body, v)
	}

	var sub bytes.Buffer
	sub.WriteString(ptvStreamTag)
	writeUint32LE(&sub, maxPTVVersion)
	writeUint32LE(&sub, uint32(body.Len()))
	sub.Write(body.Bytes())

	var outer bytes.Buffer
	writeUint16LE(&outer, 0)
	writeUint16LE(&outer, 0)
	// The per-voice tuning below already carries the product of the block
	// and voice tuning the reader computed; the block field stays at unity
	// so re-decoding does not apply it twice.
	writeFloat32LE(&outer, 1)
	writeUint32LE(&outer, uint32(sub.Len()))
	outer.Write(sub.Bytes())
	return outer.Bytes()
}

func encodePTVVoice(buf *bytes.Buffer, v *VoicePTV) {
	writeVarint(buf, uint32(v.Header.BasicKey))
	writeVarint(buf, uint32(v.Header.Volume))
	writeVarint(buf, uint32(v.Header.Pan))
	writeVarint(buf, math.Float32bits(v.Header.Tuning))
	writeVarint(buf, 0) // voice_flags

	hasEnv := v.envelope != nil
	var dataFlags uint32
	if v.hasWave {
		dataFlags |= 0x1
	}
	if hasEnv {
		dataFlags |= 0x2
	}
	writeVarint(buf, dataFlags)

	if v.hasWave {
		writeVarint(buf, v.waveType)
		switch v.waveType {
		case 0:
			writeVarint(buf, uint32(len(v.coordPoints)))
			writeVarint(buf, uint32(v.resolution))
			for _, pt := range v.coordPoints {
				buf.WriteByte(pt.X)
				buf.WriteByte(byte(pt.Y))
			}
		case 1:
			writeVarint(buf, uint32(len(v.overtones)))
			for _, tone := range v.overtones {
				writeVarint(buf, tone.Freq)
				writeVarint(buf, uint32(tone.Amp))
			}
		}
	}
	if hasEnv {
		writeEnvelope(buf, v.envelope)
	}
}

func writeEnvelope(buf *bytes.Buffer, env *wave.Envelope) {
	writeVarint(buf, uint32(env.FPS))
	writeVarint(buf, uint32(len(env.Head)))
	writeVarint(buf, uint32(len(env.Body)))
	writeVarint(buf, uint32(len(env.Tail)))
	writeEnvelopePoints(buf, env.Head)
	writeEnvelopePoints(buf, env.Body)
	writeEnvelopePoints(buf, env.Tail)
}

func writeEnvelopePoints(buf *bytes.Buffer, pts []wave.EnvelopePoint) {
	for _, pt := range pts {
		writeVarint(buf, uint32(pt.X))
		writeVarint(buf, uint32(pt.Y*128))
	}
}

func encodeMatePTN(v *VoicePTN) []byte {
	var sub bytes.Buffer
	sub.WriteString(ptnStreamTag)
	writeUint32LE(&sub, maxPTNVersion)
	writeVarint(&sub, uint32(v.sampleCount))
	writeVarint(&sub, uint32(len(v.srcSubUnits)))
	for _, su := range v.srcSubUnits {
		encodePTNSubUnit(&sub, su)
	}

	var outer bytes.Buffer
	writeUint16LE(&outer, 0)
	writeUint16LE(&outer, uint16(v.Header.BasicKey))
	writeUint32LE(&outer, 0)
	writeFloat32LE(&outer, v.Header.Tuning)
	writeUint32LE(&outer, uint32(sub.Len()))
	outer.Write(sub.Bytes())
	return outer.Bytes()
}

func encodePTNSubUnit(buf *bytes.Buffer, su PTNSubUnit) {
	enabled := uint32(0)
	if su.Enabled {
		enabled = 1
	}
	writeVarint(buf, enabled)
	writeVarint(buf, uint32((float32(su.Pan)+1)/2*128))

	if su.Envelope != nil {
		writeVarint(buf, 1)
		writeEnvelope(buf, su.Envelope)
	} else {
		writeVarint(buf, 0)
	}

	writePTNOscillator(buf, su.Main)
	if su.HasFreq {
		writeVarint(buf, 1)
		writePTNOscillator(buf, su.FreqMod)
	} else {
		writeVarint(buf, 0)
	}
	if su.HasVol {
		writeVarint(buf, 1)
		writePTNOscillator(buf, su.VolMod)
	} else {
		writeVarint(buf, 0)
	}
}

func writePTNOscillator(buf *bytes.Buffer, o wave.Oscillator) {
	writeVarint(buf, uint32(o.Shape))
	writeVarint(buf, math.Float32bits(o.FrequencyHz))
	writeVarint(buf, uint32(o.VolumePct))
	writeVarint(buf, uint32(o.PhasePct))
	reverse := uint32(0)
	if o.Reverse {
		reverse = 1
	}
	writeVarint(buf, reverse)
}

func encodeEventsV5(p *Project) []byte {
	var buf bytes.Buffer
	writeUint32LE(&buf, uint32(p.Events.Len()))

	var lastClock uint32
	for i := 0; i < p.Events.Len(); i++ {
		ev := p.Events.At(i)
		delta := ev.Clock - lastClock
		lastClock = ev.Clock

		writeVarint(&buf, delta)
		buf.WriteByte(byte(ev.Kind))
		buf.WriteByte(ev.UnitNo)

		switch ev.Kind {
		case EventOn, EventPortament:
			writeVarint(&buf, ev.U32)
		case EventKey:
			writeVarint(&buf, uint32(ev.I32))
		case EventVoiceNo, EventGroupNo:
			writeVarint(&buf, uint32(ev.U8))
		case EventPanVolume, EventPanTime:
			writeVarint(&buf, uint32((float32(ev.Pan)+1)/2*128))
		case EventVelocity, EventVolume:
			writeVarint(&buf, uint32(float32(ev.UI)*128))
		case EventTuning:
			writeVarint(&buf, math.Float32bits(float32(ev.Tun)))
		default:
			writeVarint(&buf, ev.U32)
		}
	}
	return buf.Bytes()
}

func encodeUint32(n uint32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, n)
	return out
}

func writeUint16LE(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeInt16LE(buf *bytes.Buffer, v int16) {
	writeUint16LE(buf, uint16(v))
}

func writeUint32LE(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeInt32LE(buf *bytes.Buffer, v int32) {
	writeUint32LE(buf, uint32(v))
}

func writeFloat32LE(buf *bytes.Buffer, v float32) {
	writeUint32LE(buf, math.Float32bits(v))
}

package ptcop

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// headerMagic is the 16-byte literal every .ptcop file must begin with
// (spec.md §4.5 "Header").
const headerMagic = "PTCOLLAGE-071119"

// Decode parses a complete .ptcop file into a Project (spec.md §4.5).
func Decode(data []byte) (*Project, error) {
	r := bytes.NewReader(data)

	magic := make([]byte, len(headerMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != headerMagic {
		return nil, fmt.Errorf("%w: missing PTCOLLAGE header", ErrFormatInvalid)
	}
	var exeVer, reserved uint16
	if err := readUint16LE(r, &exeVer); err != nil {
		return nil, err
	}
	if err := readUint16LE(r, &reserved); err != nil {
		return nil, err
	}
	dumpf("header: exe_ver=%d", exeVer)

	p := NewProject()
	terminated := false

	for !terminated {
		tag := make([]byte, 8)
		if _, err := io.ReadFull(r, tag); err != nil {
			return nil, fmt.Errorf("%w: truncated block stream", ErrFormatInvalid)
		}
		var size uint32
		if err := readUint32LE(r, &size); err != nil {
			return nil, err
		}
		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("%w: block %q payload truncated", ErrFormatInvalid, tag)
		}
		dumpf("block %q size=%d", tag, size)

		switch string(tag) {
		case "MasterV5":
			if err := decodeMasterV5(p, payload); err != nil {
				return nil, err
			}
		case "Event V5":
			if err := decodeEventsV5(p, payload); err != nil {
				return nil, err
			}
		case "matePCM ":
			if err := decodeMatePCM(p, payload); err != nil {
				return nil, err
			}
		case "mateOGGV":
			if err := decodeMateOGGV(p, payload); err != nil {
				return nil, err
			}
		case "matePTV ":
			if err := decodeMatePTV(p, payload); err != nil {
				return nil, err
			}
		case "matePTN ":
			if err := decodeMatePTN(p, payload); err != nil {
				return nil, err
			}
		case "num UNIT":
			// Informational only; the reference unit count is derived from
			// assiUNIT blocks below.
		case "textNAME":
			p.Name = decodeText(payload)
		case "textCOMM":
			p.Comment = decodeText(payload)
		case "assiUNIT":
			if err := decodeAssiUnit(p, payload); err != nil {
				return nil, err
			}
		case "pxtoneND":
			terminated = true
		case "antiOPER":
			return nil, ErrFormatRejected
		default:
			// Unrecognized block: skipped, not retained (spec.md §6 "drop
			// is the current reference behavior").
		}
	}

	if err := validateReferences(p); err != nil {
		return nil, err
	}

	// Event-clock extrapolation (spec.md §4.5): ensure num_measures covers
	// the last parsed event.
	if p.BeatNum > 0 && p.BeatClock > 0 {
		last := int32(p.Events.LastClock())
		needed := (last + p.BeatNum*p.BeatClock - 1) / (p.BeatNum * p.BeatClock)
		if needed > p.NumMeasures {
			p.NumMeasures = needed
		}
	}

	return p, nil
}

func decodeMasterV5(p *Project, payload []byte) error {
	r := bytes.NewReader(payload)
	var beatClock int16
	var beatNum int8
	var beatTempo float32
	var clockRepeat, clockLast int32

	if err := readInt16LE(r, &beatClock); err != nil {
		return err
	}
	if err := readInt8(r, &beatNum); err != nil {
		return err
	}
	if err := readFloat32LE(r, &beatTempo); err != nil {
		return err
	}
	if err := readInt32LE(r, &clockRepeat); err != nil {
		return err
	}
	if err := readInt32LE(r, &clockLast); err != nil {
		return err
	}

	p.BeatClock = int32(beatClock)
	p.BeatNum = int32(beatNum)
	p.BeatTempo = beatTempo
	p.RepeatMeasure = clockRepeat
	p.LastMeasure = clockLast
	return nil
}

// decodeEventsV5 decodes the event stream (spec.md §4.5 "Event encoding",
// §4.7 disk<->memory conversions). Each record is
// v_r(pos_delta), kind byte, unit_no byte, v_r(value).
func decodeEventsV5(p *Project, payload []byte) error {
	r := bytes.NewReader(payload)
	var n uint32
	if err := readUint32LE(r, &n); err != nil {
		return err
	}

	var clock uint32
	for i := uint32(0); i < n; i++ {
		delta, err := readVarint(r)
		if err != nil {
			return err
		}
		kindByte, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("%w: truncated event record", ErrFormatInvalid)
		}
		unitNo, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("%w: truncated event record", ErrFormatInvalid)
		}
		value, err := readVarint(r)
		if err != nil {
			return err
		}

		kind := EventKind(kindByte)

		if kind == EventNull {
			// Skipped with a warning; a Null record's delta does not
			// advance the running clock (spec.md §4.5).
			dumpf("event: skipped Null kind at clock=%d", clock)
			continue
		}
		clock += delta

		ev := Event{Clock: clock, UnitNo: unitNo, Kind: kind}
		switch kind {
		case EventOn, EventPortament:
			ev.U32 = value
		case EventKey:
			ev.I32 = int32(value)
		case EventVoiceNo, EventGroupNo:
			ev.U8 = uint8(value)
		case EventPanVolume, EventPanTime:
			ev.Pan = NewPan((float32(value)/128.0)*2 - 1)
		case EventVelocity, EventVolume:
			ev.UI = NewUnitInterval(float32(value) / 128.0)
		case EventTuning:
			ev.Tun = NewTuning(math.Float32frombits(value))
		default:
			ev.U32 = value
		}

		if err := p.Events.Add(ev); err != nil {
			return fmt.Errorf("%w: %v", ErrAddEvent, err)
		}
	}
	return nil
}

func decodeMatePCM(p *Project, payload []byte) error {
	r := bytes.NewReader(payload)
	var legacyUnitNo, basicKey uint16
	var flags uint32
	var channels, bitsPerSample uint16
	var sps uint32
	var tuning float32
	var dataSize uint32

	if err := readUint16LE(r, &legacyUnitNo); err != nil {
		return err
	}
	if err := readUint16LE(r, &basicKey); err != nil {
		return err
	}
	if err := readUint32LE(r, &flags); err != nil {
		return err
	}
	if flags&^pcmFlagsDefined != 0 {
		return fmt.Errorf("%w: matePCM flags 0x%x set undefined bits", ErrFormatInvalid, flags)
	}
	if err := readUint16LE(r, &channels); err != nil {
		return err
	}
	if err := readUint16LE(r, &bitsPerSample); err != nil {
		return err
	}
	if err := readUint32LE(r, &sps); err != nil {
		return err
	}
	if err := readFloat32LE(r, &tuning); err != nil {
		return err
	}
	if err := readUint32LE(r, &dataSize); err != nil {
		return err
	}
	raw := make([]byte, dataSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return fmt.Errorf("%w: matePCM data truncated", ErrFormatInvalid)
	}

	data, err := decodeRawPCM(raw, int(channels), int(bitsPerSample))
	if err != nil {
		return err
	}

	hdr := VoiceHeader{BasicKey: int32(basicKey), Volume: FullVolume, Pan: CenterPan, Tuning: tuning}
	voice := NewVoicePCM(hdr, int(channels), int(sps), int(bitsPerSample), data,
		flags&PCMFlagLoop != 0, flags&PCMFlagSmooth != 0, flags&PCMFlagBeatFit != 0)
	p.AddWoice(NewPCMWoice("", voice))
	return nil
}

// decodeRawPCM converts interleaved 8- or 16-bit PCM into normalized f32
// samples in [-1, 1]. Grounded on the teacher's s3m.go unsigned->signed
// sample conversion (`int8(byte ^ 128)`) for the 8-bit case.
func decodeRawPCM(raw []byte, channels, bits int) ([]float32, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("%w: matePCM channels must be positive", ErrUnsupportedVoice)
	}
	switch bits {
	case 8:
		out := make([]float32, len(raw))
		for i, b := range raw {
			out[i] = (float32(b) - 128) / 128.0
		}
		return out, nil
	case 16:
		if len(raw)%2 != 0 {
			return nil, fmt.Errorf("%w: matePCM 16-bit data has odd length", ErrFormatInvalid)
		}
		n := len(raw) / 2
		out := make([]float32, n)
		for i := 0; i < n; i++ {
			v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
			out[i] = float32(v) / 32768.0
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: matePCM bits-per-sample %d unsupported", ErrUnsupportedVoice, bits)
	}
}

func decodeMateOGGV(p *Project, payload []byte) error {
	r := bytes.NewReader(payload)
	var reserved, basicKey uint16
	var flags uint32
	var tuning float32
	var channels, sps, sampleNum, dataSize uint32

	if err := readUint16LE(r, &reserved); err != nil {
		return err
	}
	if err := readUint16LE(r, &basicKey); err != nil {
		return err
	}
	if err := readUint32LE(r, &flags); err != nil {
		return err
	}
	if err := readFloat32LE(r, &tuning); err != nil {
		return err
	}
	if err := readUint32LE(r, &channels); err != nil {
		return err
	}
	if err := readUint32LE(r, &sps); err != nil {
		return err
	}
	if err := readUint32LE(r, &sampleNum); err != nil {
		return err
	}
	_ = sampleNum
	if err := readUint32LE(r, &dataSize); err != nil {
		return err
	}
	container := make([]byte, dataSize)
	if _, err := io.ReadFull(r, container); err != nil {
		return fmt.Errorf("%w: mateOGGV data truncated", ErrFormatInvalid)
	}

	hdr := VoiceHeader{BasicKey: int32(basicKey), Volume: FullVolume, Pan: CenterPan, Tuning: tuning}
	voice, err := DecodeVoiceOGGV(hdr, int32(basicKey), container,
		flags&PCMFlagLoop != 0, flags&PCMFlagSmooth != 0, flags&PCMFlagBeatFit != 0)
	if err != nil {
		return err
	}
	p.AddWoice(NewOGGVWoice("", voice))
	return nil
}

func decodeMatePTV(p *Project, payload []byte) error {
	r := bytes.NewReader(payload)
	var reserved1, reserved2 uint16
	var tuning float32
	var size uint32

	if err := readUint16LE(r, &reserved1); err != nil {
		return err
	}
	if err := readUint16LE(r, &reserved2); err != nil {
		return err
	}
	if err := readFloat32LE(r, &tuning); err != nil {
		return err
	}
	if err := readUint32LE(r, &size); err != nil {
		return err
	}
	sub := make([]byte, size)
	if _, err := io.ReadFull(r, sub); err != nil {
		return fmt.Errorf("%w: matePTV sub-stream truncated", ErrFormatInvalid)
	}

	voices, err := decodePTVVoices(sub, tuning)
	if err != nil {
		return err
	}
	p.AddWoice(NewPTVWoice("", voices))
	return nil
}

func decodeMatePTN(p *Project, payload []byte) error {
	r := bytes.NewReader(payload)
	var reserved1, basicKey uint16
	var flags uint32
	var tuning float32
	var size uint32

	if err := readUint16LE(r, &reserved1); err != nil {
		return err
	}
	if err := readUint16LE(r, &basicKey); err != nil {
		return err
	}
	if err := readUint32LE(r, &flags); err != nil {
		return err
	}
	if err := readFloat32LE(r, &tuning); err != nil {
		return err
	}
	if err := readUint32LE(r, &size); err != nil {
		return err
	}
	sub := make([]byte, size)
	if _, err := io.ReadFull(r, sub); err != nil {
		return fmt.Errorf("%w: matePTN sub-stream truncated", ErrFormatInvalid)
	}

	voice, err := decodePTNVoice(sub, int32(basicKey), tuning)
	if err != nil {
		return err
	}
	p.AddWoice(NewPTNWoice("", voice))
	return nil
}

func decodeAssiUnit(p *Project, payload []byte) error {
	r := bytes.NewReader(payload)
	var index, reserved uint16
	if err := readUint16LE(r, &index); err != nil {
		return err
	}
	if err := readUint16LE(r, &reserved); err != nil {
		return err
	}
	nameBuf := make([]byte, maxUnitNameBytes)
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return fmt.Errorf("%w: assiUNIT name truncated", ErrFormatInvalid)
	}

	for len(p.Units) <= int(index) {
		p.Units = append(p.Units, NewUnit(""))
	}
	p.Units[index] = NewUnit(decodeText(nameBuf))
	return nil
}

// decodeText trims a block's raw bytes at the first NUL and returns the
// remainder as a string; the bytes are not checked for valid UTF-8.
func decodeText(raw []byte) string {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return string(raw)
}

// validateReferences checks that every event's unit_no resolves against the
// final unit list, and every VoiceNo event's woice index against the final
// woice list, per spec.md §4.5's forward-reference rule: the reader
// must not fail on forward references but must fail if they are still
// unresolved after pxtoneND.
func validateReferences(p *Project) error {
	var badRef error
	p.Events.Iter(func(ev Event) bool {
		if ev.Kind.IsUnitLevel() && int(ev.UnitNo) >= len(p.Units) {
			badRef = fmt.Errorf("%w: event references unit %d, only %d defined", ErrUnresolvedReference, ev.UnitNo, len(p.Units))
			return false
		}
		if ev.Kind == EventVoiceNo && int(ev.U8) >= len(p.Woices) {
			badRef = fmt.Errorf("%w: event references woice %d, only %d defined", ErrUnresolvedReference, ev.U8, len(p.Woices))
			return false
		}
		return true
	})
	return badRef
}

func readUint16LE(r *bytes.Reader, out *uint16) error {
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return fmt.Errorf("%w: %v", ErrFormatInvalid, err)
	}
	return nil
}

func readInt16LE(r *bytes.Reader, out *int16) error {
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return fmt.Errorf("%w: %v", ErrFormatInvalid, err)
	}
	return nil
}

func readInt8(r *bytes.Reader, out *int8) error {
	b, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFormatInvalid, err)
	}
	*out = int8(b)
	return nil
}

func readUint32LE(r *bytes.Reader, out *uint32) error {
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return fmt.Errorf("%w: %v", ErrFormatInvalid, err)
	}
	return nil
}

func readInt32LE(r *bytes.Reader, out *int32) error {
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return fmt.Errorf("%w: %v", ErrFormatInvalid, err)
	}
	return nil
}

func readFloat32LE(r *bytes.Reader, out *float32) error {
	if err := binary.Read(r, binary.LittleEndian, out); err != nil {
		return fmt.Errorf("%w: %v", ErrFormatInvalid, err)
	}
	return nil
}

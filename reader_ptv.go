package ptcop

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/gopxtone/ptcop/internal/wave"
)

// ptvStreamTag is the literal sub-stream header inside a matePTV block
// (spec.md §4.5 "PTV sub-stream").
const ptvStreamTag = "PTVOICE-"

// maxPTVVersion is the highest version the reader accepts (spec.md §4.5).
const maxPTVVersion = 20060111

// decodePTVVoices decodes an embedded PTVOICE- sub-stream into its voices.
// outerTuning is the matePTV block's own tuning field, shared by every voice
// it contains.
func decodePTVVoices(payload []byte, outerTuning float32) ([]*VoicePTV, error) {
	r := bytes.NewReader(payload)

	tag := make([]byte, len(ptvStreamTag))
	if _, err := io.ReadFull(r, tag); err != nil || string(tag) != ptvStreamTag {
		return nil, fmt.Errorf("%w: matePTV missing PTVOICE- tag", ErrFormatInvalid)
	}

	var version, total uint32
	if err := readUint32LE(r, &version); err != nil {
		return nil, err
	}
	if version > maxPTVVersion {
		return nil, fmt.Errorf("%w: PTVOICE- version %d exceeds maximum", ErrFormatInvalid, version)
	}
	if err := readUint32LE(r, &total); err != nil {
		return nil, err
	}

	if _, err := readVarint(r); err != nil { // x3x_basic_key, legacy/unused
		return nil, err
	}
	if _, err := readVarint(r); err != nil { // work1
		return nil, err
	}
	if _, err := readVarint(r); err != nil { // work2
		return nil, err
	}
	voiceNum, err := readVarint(r)
	if err != nil {
		return nil, err
	}

	voices := make([]*VoicePTV, 0, voiceNum)
	for i := uint32(0); i < voiceNum; i++ {
		v, err := decodeOnePTVVoice(r, outerTuning)
		if err != nil {
			return nil, err
		}
		voices = append(voices, v)
	}
	return voices, nil
}

func decodeOnePTVVoice(r *bytes.Reader, outerTuning float32) (*VoicePTV, error) {
	basicKey, err := readVarint(r)
	if err != nil {
		return nil, err
	}
	volume, err := readVarint(r)
	if err != nil {
		return nil, err
	}
	pan, err := readVarint(r)
	if err != nil {
		return nil, err
	}
	tuningBits, err := readVarint(r)
	if err != nil {
		return nil, err
	}
	_, err = readVarint(r) // voice_flags, currently unused by rendering
	if err != nil {
		return nil, err
	}
	dataFlags, err := readVarint(r)
	if err != nil {
		return nil, err
	}

	hdr := VoiceHeader{
		BasicKey: int32(basicKey),
		Volume:   int32(volume),
		Pan:      int32(pan),
		Tuning:   float32(NewTuning(math.Float32frombits(tuningBits))),
	}
	if outerTuning != 0 {
		hdr.Tuning = float32(NewTuning(hdr.Tuning * outerTuning))
	}

	var (
		coordPoints []wave.CoordPoint
		overtones   []wave.Overtone
		resolution  int
		waveType    uint32
		haveWave    bool
		env         *wave.Envelope
	)

	if dataFlags&0x1 != 0 {
		haveWave = true
		waveType, err = readVarint(r)
		if err != nil {
			return nil, err
		}
		switch waveType {
		case 0:
			numPoints, err := readVarint(r)
			if err != nil {
				return nil, err
			}
			res, err := readVarint(r)
			if err != nil {
				return nil, err
			}
			resolution = int(res)
			coordPoints = make([]wave.CoordPoint, numPoints)
			for i := range coordPoints {
				x, err := r.ReadByte()
				if err != nil {
					return nil, fmt.Errorf("%w: truncated PTV coordinate point", ErrFormatInvalid)
				}
				y, err := r.ReadByte()
				if err != nil {
					return nil, fmt.Errorf("%w: truncated PTV coordinate point", ErrFormatInvalid)
				}
				coordPoints[i] = wave.CoordPoint{X: x, Y: int8(y)}
			}
		case 1:
			numTones, err := readVarint(r)
			if err != nil {
				return nil, err
			}
			overtones = make([]wave.Overtone, numTones)
			for i := range overtones {
				freq, err := readVarint(r)
				if err != nil {
					return nil, err
				}
				amp, err := readVarint(r)
				if err != nil {
					return nil, err
				}
				overtones[i] = wave.Overtone{Freq: freq, Amp: int16(amp)}
			}
		default:
			return nil, fmt.Errorf("%w: unknown PTV wave type %d", ErrFormatInvalid, waveType)
		}
	}

	if dataFlags&0x2 != 0 {
		fps, err := readVarint(r)
		if err != nil {
			return nil, err
		}
		headNum, err := readVarint(r)
		if err != nil {
			return nil, err
		}
		bodyNum, err := readVarint(r)
		if err != nil {
			return nil, err
		}
		tailNum, err := readVarint(r)
		if err != nil {
			return nil, err
		}
		env = &wave.Envelope{FPS: float32(fps)}
		env.Head, err = readEnvelopePoints(r, int(headNum))
		if err != nil {
			return nil, err
		}
		env.Body, err = readEnvelopePoints(r, int(bodyNum))
		if err != nil {
			return nil, err
		}
		env.Tail, err = readEnvelopePoints(r, int(tailNum))
		if err != nil {
			return nil, err
		}
	}

	const minCycleLen = 200
	switch {
	case haveWave && waveType == 0:
		return NewVoicePTVFromCoord(hdr, coordPoints, resolution, env), nil
	case haveWave && waveType == 1:
		return NewVoicePTVFromOvertone(hdr, overtones, minCycleLen, env), nil
	default:
		return NewVoicePTVFromCoord(hdr, nil, minCycleLen, env), nil
	}
}

func readEnvelopePoints(r *bytes.Reader, n int) ([]wave.EnvelopePoint, error) {
	pts := make([]wave.EnvelopePoint, n)
	for i := range pts {
		x, err := readVarint(r)
		if err != nil {
			return nil, err
		}
		y, err := readVarint(r)
		if err != nil {
			return nil, err
		}
		pts[i] = wave.EnvelopePoint{X: float32(x), Y: float32(y) / 128.0}
	}
	return pts, nil
}

package ptcop

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/gopxtone/ptcop/internal/wave"
)

// ptnStreamTag is the literal sub-stream header inside a matePTN block,
// mirroring PTVOICE-'s shape for the noise-unit voice variant. The exact
// field layout here follows the reference engine's PTN sub-unit structure
// as documented in original_source's woice decoders (see DESIGN.md Open
// Question 2): a sample count, a sub-unit count, and per sub-unit an
// enable flag, pan, optional envelope, a main oscillator and optional
// frequency and volume modulators.
const ptnStreamTag = "PTNOISE-"

// maxPTNVersion mirrors PTV's version ceiling; the reference format shares
// the same versioning convention across its voice sub-streams.
const maxPTNVersion = 20060111

// decodePTNVoice decodes an embedded PTNOISE- sub-stream into a single
// VoicePTN (matePTN wraps exactly one PTN voice per spec.md §3).
func decodePTNVoice(payload []byte, basicKey int32, outerTuning float32) (*VoicePTN, error) {
	r := bytes.NewReader(payload)

	tag := make([]byte, len(ptnStreamTag))
	if _, err := io.ReadFull(r, tag); err != nil || string(tag) != ptnStreamTag {
		return nil, fmt.Errorf("%w: matePTN missing PTNOISE- tag", ErrFormatInvalid)
	}

	var version uint32
	if err := readUint32LE(r, &version); err != nil {
		return nil, err
	}
	if version > maxPTNVersion {
		return nil, fmt.Errorf("%w: PTNOISE- version %d exceeds maximum", ErrFormatInvalid, version)
	}

	sampleNum, err := readVarint(r)
	if err != nil {
		return nil, err
	}
	subUnitNum, err := readVarint(r)
	if err != nil {
		return nil, err
	}
	if sampleNum > ptnMaxSamples {
		return nil, fmt.Errorf("%w: PTN sample count %d exceeds maximum", ErrFormatInvalid, sampleNum)
	}

	subUnits := make([]PTNSubUnit, 0, subUnitNum)
	for i := uint32(0); i < subUnitNum; i++ {
		su, err := decodePTNSubUnit(r)
		if err != nil {
			return nil, err
		}
		subUnits = append(subUnits, su)
	}

	hdr := VoiceHeader{BasicKey: basicKey, Volume: FullVolume, Pan: CenterPan, Tuning: outerTuning}
	return NewVoicePTN(hdr, subUnits, int(sampleNum)), nil
}

func decodePTNSubUnit(r *bytes.Reader) (PTNSubUnit, error) {
	var su PTNSubUnit

	enabled, err := readVarint(r)
	if err != nil {
		return su, err
	}
	su.Enabled = enabled != 0

	pan, err := readVarint(r)
	if err != nil {
		return su, err
	}
	su.Pan = NewPan((float32(pan)/128.0)*2 - 1)

	hasEnv, err := readVarint(r)
	if err != nil {
		return su, err
	}
	if hasEnv != 0 {
		fps, err := readVarint(r)
		if err != nil {
			return su, err
		}
		headNum, err := readVarint(r)
		if err != nil {
			return su, err
		}
		bodyNum, err := readVarint(r)
		if err != nil {
			return su, err
		}
		tailNum, err := readVarint(r)
		if err != nil {
			return su, err
		}
		env := &wave.Envelope{FPS: float32(fps)}
		env.Head, err = readEnvelopePoints(r, int(headNum))
		if err != nil {
			return su, err
		}
		env.Body, err = readEnvelopePoints(r, int(bodyNum))
		if err != nil {
			return su, err
		}
		env.Tail, err = readEnvelopePoints(r, int(tailNum))
		if err != nil {
			return su, err
		}
		su.Envelope = env
	}

	su.Main, err = decodePTNOscillator(r)
	if err != nil {
		return su, err
	}
	var hasFreq, hasVol uint32
	hasFreq, err = readVarint(r)
	if err != nil {
		return su, err
	}
	su.HasFreq = hasFreq != 0
	if su.HasFreq {
		su.FreqMod, err = decodePTNOscillator(r)
		if err != nil {
			return su, err
		}
	}
	hasVol, err = readVarint(r)
	if err != nil {
		return su, err
	}
	su.HasVol = hasVol != 0
	if su.HasVol {
		su.VolMod, err = decodePTNOscillator(r)
		if err != nil {
			return su, err
		}
	}

	return su, nil
}

func decodePTNOscillator(r *bytes.Reader) (wave.Oscillator, error) {
	shape, err := readVarint(r)
	if err != nil {
		return wave.Oscillator{}, err
	}
	freqBits, err := readVarint(r)
	if err != nil {
		return wave.Oscillator{}, err
	}
	volPct, err := readVarint(r)
	if err != nil {
		return wave.Oscillator{}, err
	}
	phasePct, err := readVarint(r)
	if err != nil {
		return wave.Oscillator{}, err
	}
	reverse, err := readVarint(r)
	if err != nil {
		return wave.Oscillator{}, err
	}

	return wave.Oscillator{
		Shape:       wave.OscShape(shape),
		FrequencyHz: math.Float32frombits(freqBits),
		VolumePct:   float32(volPct),
		PhasePct:    float32(phasePct),
		Reverse:     reverse != 0,
	}, nil
}

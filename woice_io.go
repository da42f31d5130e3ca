package ptcop

import (
	"bytes"
	"fmt"

	"github.com/gopxtone/ptcop/wav"
)

// AddWoiceFromBytes builds a woice from a standalone instrument file's bytes
// and appends it to the project, returning its index (spec.md §6: "Adding a
// woice from file requires the file bytes and the woice-kind tag"). The
// expected payload per kind: WoicePCM takes a RIFF WAVE file, WoiceOGGV an
// Ogg Vorbis container, WoicePTV a PTVOICE- stream, WoicePTN a PTNOISE-
// stream. Fields the payload does not carry default to BasicKeyDefault,
// FullVolume, CenterPan and a tuning of 1.
func (p *Project) AddWoiceFromBytes(kind WoiceKind, name string, data []byte) (int, error) {
	hdr := VoiceHeader{BasicKey: BasicKeyDefault, Volume: FullVolume, Pan: CenterPan, Tuning: 1.0}

	switch kind {
	case WoicePCM:
		f, err := wav.Decode(bytes.NewReader(data))
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrFormatInvalid, err)
		}
		samples, err := decodeRawPCM(f.Samples, int(f.Format.Channels), int(f.Format.BitsPerSample))
		if err != nil {
			return 0, err
		}
		v := NewVoicePCM(hdr, int(f.Format.Channels), int(f.Format.SampleRate),
			int(f.Format.BitsPerSample), samples, false, false, false)
		return p.AddWoice(NewPCMWoice(name, v)), nil

	case WoiceOGGV:
		v, err := DecodeVoiceOGGV(hdr, hdr.BasicKey, data, false, false, false)
		if err != nil {
			return 0, err
		}
		return p.AddWoice(NewOGGVWoice(name, v)), nil

	case WoicePTV:
		voices, err := decodePTVVoices(data, 1.0)
		if err != nil {
			return 0, err
		}
		return p.AddWoice(NewPTVWoice(name, voices)), nil

	case WoicePTN:
		v, err := decodePTNVoice(data, BasicKeyDefault, 1.0)
		if err != nil {
			return 0, err
		}
		return p.AddWoice(NewPTNWoice(name, v)), nil

	default:
		return 0, fmt.Errorf("%w: unknown woice kind %d", ErrUnsupportedVoice, kind)
	}
}

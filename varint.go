package ptcop

import (
	"bytes"
	"fmt"
)

// readVarint decodes a v_r varint: up to 5 bytes, LSB-first, 7 data bits per
// byte with the high bit as a continuation flag. Semantically identical to
// unsigned LEB128. Grounded on the hand-rolled bit-reader idiom in
// mukunda--modlib/itmod/bitstream.go and the manual little-endian field
// decoding in kelindar-ultima-sdk/internal/uop/uop.go.
func readVarint(r *bytes.Reader) (uint32, error) {
	var result uint32
	for i := 0; i < 5; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("%w: truncated varint", ErrFormatInvalid)
		}
		result |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return result, nil
		}
	}
	return 0, fmt.Errorf("%w: varint exceeds 5 bytes", ErrFormatInvalid)
}

// writeVarint encodes n as a v_r varint using the minimum number of bytes,
// the mirror of readVarint.
func writeVarint(buf *bytes.Buffer, n uint32) {
	for {
		b := byte(n & 0x7F)
		n >>= 7
		if n != 0 {
			buf.WriteByte(b | 0x80)
		} else {
			buf.WriteByte(b)
			return
		}
	}
}

// varintLen returns the number of bytes writeVarint would emit for n,
// without allocating.
func varintLen(n uint32) int {
	l := 1
	for n >>= 7; n != 0; n >>= 7 {
		l++
	}
	return l
}

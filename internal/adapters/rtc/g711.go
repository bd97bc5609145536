package rtc

import "encoding/binary"

// Law selects the G.711 companding variant.
type Law int

const (
	ULaw Law = iota
	ALaw
)

const g711Rate = 8000

// DecodeG711 expands companded samples to little-endian PCM16.
func DecodeG711(payload []byte, law Law) []byte {
	out := make([]byte, 2*len(payload))
	expand := ulawToLinear
	if law == ALaw {
		expand = alawToLinear
	}
	for i, b := range payload {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(expand(b)))
	}
	return out
}

func ulawToLinear(u byte) int16 {
	const bias = 0x84
	u = ^u
	t := (int16(u&0x0F) << 3) + bias
	t <<= (u & 0x70) >> 4
	if u&0x80 != 0 {
		return bias - t
	}
	return t - bias
}

func alawToLinear(a byte) int16 {
	a ^= 0x55
	t := int16(a&0x0F) << 4
	seg := (a & 0x70) >> 4
	switch seg {
	case 0:
		t += 8
	case 1:
		t += 0x108
	default:
		t += 0x108
		t <<= seg - 1
	}
	if a&0x80 != 0 {
		return t
	}
	return -t
}

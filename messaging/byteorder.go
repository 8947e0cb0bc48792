package messaging

import (
	"fmt"
	"strings"
)

// ByteOrder selects how the data bytes of a frame are assembled into the
// 64-bit frame value that signal bit positions index into.
//
// LittleEndian places byte i at bit 8*i. BigEndian treats the message's
// first width bytes as one big-endian integer, where width is the number
// of bytes its signal layout spans; the last of them holds bits 0-7.
// Bytes a frame does not carry read as zero and padding past the width is
// ignored, so the frame's Length never moves a signal.
type ByteOrder int

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

func (o ByteOrder) String() string {
	switch o {
	case LittleEndian:
		return "little"
	case BigEndian:
		return "big"
	default:
		return fmt.Sprintf("ByteOrder(%d)", int(o))
	}
}

// ParseByteOrder accepts "little"/"intel" and "big"/"motorola"; an empty
// string means little endian.
func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "little", "intel":
		return LittleEndian, nil
	case "big", "motorola":
		return BigEndian, nil
	default:
		return 0, fmt.Errorf("unknown byte order %q", s)
	}
}

// assemble builds the frame value from data, the bytes a frame carries.
// width is the message's layout width in bytes.
func (o ByteOrder) assemble(data []byte, width int) uint64 {
	var v uint64
	if o == BigEndian {
		for i := 0; i < width; i++ {
			v <<= 8
			if i < len(data) {
				v |= uint64(data[i])
			}
		}
		return v
	}
	for i, b := range data {
		v |= uint64(b) << (8 * i)
	}
	return v
}

func (o ByteOrder) disassemble(v uint64, n int, out []byte) {
	for i := 0; i < n; i++ {
		shift := 8 * i
		if o == BigEndian {
			shift = 8 * (n - 1 - i)
		}
		out[i] = byte((v >> shift) & 0xFF)
	}
}

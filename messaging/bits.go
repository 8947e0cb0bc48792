package messaging

// mask returns a mask covering bits [startBit, startBit+bitLen).
func mask(startBit, bitLen int) uint64 {
	if bitLen <= 0 {
		return 0
	}
	if bitLen >= 64 {
		return ^uint64(0) << startBit
	}
	return ((uint64(1) << bitLen) - 1) << startBit
}

func getBits(payload uint64, startBit, bitLen int) uint64 {
	return (payload & mask(startBit, bitLen)) >> startBit
}

func setBits(payload uint64, startBit, bitLen int, value uint64) uint64 {
	m := mask(startBit, bitLen)
	payload &^= m
	payload |= (value << startBit) & m
	return payload
}

// fits reports whether raw is representable in bitLen unsigned bits.
func fits(raw int64, bitLen int) bool {
	if raw < 0 {
		return false
	}
	if bitLen >= 64 {
		return true
	}
	return uint64(raw) < uint64(1)<<bitLen
}

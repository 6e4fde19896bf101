package fec

// EncodeBytes protects a byte stream, expanding each byte MSB first
// before applying the mode's redundancy. Under Hamming74 every byte
// becomes two codewords, 14 transmitted bits.
func EncodeBytes(mode Mode, data []byte) []int {
	bits := make([]int, 0, len(data)*8)
	for _, b := range data {
		for shift := 7; shift >= 0; shift-- {
			bits = append(bits, int(b>>shift)&1)
		}
	}
	return Encode(mode, bits)
}

// DecodeBytes reverses EncodeBytes, packing the repaired bits back into
// bytes. Trailing bits that do not fill a byte are dropped; the Result
// carries the correction accounting and the raw bit stream.
func DecodeBytes(mode Mode, bits []int) ([]byte, Result) {
	res := Decode(mode, bits)
	n := len(res.Bits) / 8
	out := make([]byte, n)
	for i := 0; i < n*8; i++ {
		if res.Bits[i] != 0 {
			out[i/8] |= 1 << (7 - i%8)
		}
	}
	return out, res
}

package fec

// Hamming(7,4) with the codeword layout [p1 p2 d1 p3 d2 d3 d4].
//
// A nonzero syndrome names exactly one bit position (1-based) to flip,
// which corrects every single-bit error. Two bit errors in one codeword
// produce a syndrome that points at the wrong position, so the decoder
// may silently "correct" into a different codeword. That is the known
// Hamming(7,4) limitation; no 2-bit correction is claimed.

// encode4 maps 4 data bits to a 7-bit codeword.
func encode4(d1, d2, d3, d4 int) [7]int {
	p1 := d1 ^ d2 ^ d4
	p2 := d1 ^ d3 ^ d4
	p3 := d2 ^ d3 ^ d4
	return [7]int{p1, p2, d1, p3, d2, d3, d4}
}

// decode7 recovers 4 data bits from a 7-bit codeword, flipping the single
// position a nonzero syndrome identifies. corrected reports whether a flip
// happened.
func decode7(cw [7]int) (data [4]int, corrected bool) {
	s1 := cw[0] ^ cw[2] ^ cw[4] ^ cw[6]
	s2 := cw[1] ^ cw[2] ^ cw[5] ^ cw[6]
	s3 := cw[3] ^ cw[4] ^ cw[5] ^ cw[6]
	syndrome := s3<<2 | s2<<1 | s1
	if syndrome != 0 {
		cw[syndrome-1] ^= 1
		corrected = true
	}
	return [4]int{cw[2], cw[4], cw[5], cw[6]}, corrected
}

// hammingEncode protects bits in groups of 4, zero-padding the final
// group. Byte-aligned input (the packet path) never needs padding.
func hammingEncode(bits []int) []int {
	out := make([]int, 0, ((len(bits)+3)/4)*7)
	for start := 0; start < len(bits); start += 4 {
		var group [4]int
		for i := 0; i < 4; i++ {
			if start+i < len(bits) {
				group[i] = bits[start+i]
			}
		}
		cw := encode4(group[0], group[1], group[2], group[3])
		out = append(out, cw[:]...)
	}
	return out
}

// hammingDecode consumes 7-bit codewords, zero-padding a truncated final
// codeword so a channel that shaved trailing bits still yields data.
func hammingDecode(bits []int) Result {
	res := Result{Bits: make([]int, 0, (len(bits)/7)*4)}
	for start := 0; start < len(bits); start += 7 {
		var cw [7]int
		for i := 0; i < 7; i++ {
			if start+i < len(bits) {
				cw[i] = bits[start+i]
			}
		}
		data, corrected := decode7(cw)
		if corrected {
			res.Corrected++
		}
		res.Bits = append(res.Bits, data[:]...)
	}
	return res
}

package fec

// parityBlockLen is the data block size protected by one parity bit.
const parityBlockLen = 8

// parityEncode appends an even-parity bit after every block of up to
// parityBlockLen data bits. A trailing partial block still gets its bit.
func parityEncode(bits []int) []int {
	out := make([]int, 0, len(bits)+len(bits)/parityBlockLen+1)
	for start := 0; start < len(bits); start += parityBlockLen {
		end := start + parityBlockLen
		if end > len(bits) {
			end = len(bits)
		}
		ones := 0
		for _, b := range bits[start:end] {
			out = append(out, b)
			if b != 0 {
				ones++
			}
		}
		out = append(out, ones%2)
	}
	return out
}

// parityDecode strips parity bits and counts blocks whose parity failed.
// Parity only detects; the data bits pass through unchanged.
func parityDecode(bits []int) Result {
	res := Result{Bits: make([]int, 0, len(bits))}
	for start := 0; start < len(bits); start += parityBlockLen + 1 {
		end := start + parityBlockLen + 1
		if end > len(bits) {
			end = len(bits)
		}
		block := bits[start:end]
		if len(block) < 2 {
			// A lone trailing bit cannot carry data plus parity.
			res.Detected++
			break
		}
		ones := 0
		for _, b := range block {
			if b != 0 {
				ones++
			}
		}
		if ones%2 != 0 {
			res.Detected++
		}
		res.Bits = append(res.Bits, block[:len(block)-1]...)
	}
	return res
}

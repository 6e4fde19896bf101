package modem

import (
	"fmt"
	"unicode/utf8"
)

// DecodeError reports a bit sequence that did not decode to valid text.
// Partial holds the best-effort decode with invalid bytes replaced, so a
// caller can still display what survived the channel.
type DecodeError struct {
	Partial string
	Reason  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode bits: %s", e.Reason)
}

// TextToBits expands a UTF-8 string into its bits, one byte at a time,
// most significant bit first.
func TextToBits(text string) []int {
	data := []byte(text)
	bits := make([]int, 0, len(data)*8)
	for _, b := range data {
		for shift := 7; shift >= 0; shift-- {
			bits = append(bits, int(b>>shift)&1)
		}
	}
	return bits
}

// BitsToBytes packs bits into bytes, MSB first. A trailing partial byte is
// zero-padded, matching the corruption-tolerant behavior the demodulator
// needs.
func BitsToBytes(bits []int) []byte {
	n := (len(bits) + 7) / 8
	out := make([]byte, n)
	for i, bit := range bits {
		if bit != 0 {
			out[i/8] |= 1 << (7 - i%8)
		}
	}
	return out
}

// BytesToBits is the inverse of BitsToBytes.
func BytesToBits(data []byte) []int {
	bits := make([]int, 0, len(data)*8)
	for _, b := range data {
		for shift := 7; shift >= 0; shift-- {
			bits = append(bits, int(b>>shift)&1)
		}
	}
	return bits
}

// BitsToText reassembles bits into a UTF-8 string. Invalid byte sequences
// yield a DecodeError carrying the replacement-decoded partial text rather
// than silently returning garbage.
func BitsToText(bits []int) (string, error) {
	data := BitsToBytes(bits)
	if utf8.Valid(data) {
		return string(data), nil
	}
	partial := string([]rune(string(data))) // invalid bytes become U+FFFD
	return "", &DecodeError{Partial: partial, Reason: "bit sequence is not valid UTF-8"}
}

// BitErrors counts positions where a and b differ, comparing up to the
// shorter length; missing bits count as errors.
func BitErrors(a, b []int) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	errs := 0
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			errs++
		}
	}
	if len(a) != len(b) {
		diff := len(a) - len(b)
		if diff < 0 {
			diff = -diff
		}
		errs += diff
	}
	return errs
}

// BER returns the bit error rate of received against sent. An empty sent
// sequence has rate 0.
func BER(sent, received []int) float64 {
	if len(sent) == 0 {
		return 0
	}
	return float64(BitErrors(sent, received)) / float64(len(sent))
}

// Package fec adds and consumes forward-error-correction redundancy on
// bit sequences before they reach the modulator.
package fec

import "fmt"

// Mode selects the redundancy scheme.
type Mode int

const (
	// None transmits the bits unchanged.
	None Mode = iota
	// Parity appends one even-parity bit per 8-bit block. It detects an
	// odd number of errors in a block and corrects nothing.
	Parity
	// Hamming74 encodes every 4 data bits into a 7-bit codeword that can
	// correct any single-bit error per codeword.
	Hamming74
)

func (m Mode) String() string {
	switch m {
	case None:
		return "none"
	case Parity:
		return "parity"
	case Hamming74:
		return "hamming74"
	default:
		return "unknown"
	}
}

// ParseMode converts a string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "none", "":
		return None, nil
	case "parity":
		return Parity, nil
	case "hamming74", "hamming":
		return Hamming74, nil
	default:
		return Mode(0), fmt.Errorf("unsupported FEC mode %q", s)
	}
}

// Result is the outcome of decoding a protected bit stream.
type Result struct {
	Bits []int
	// Corrected counts codewords where a single-bit error was repaired
	// (Hamming only).
	Corrected int
	// Detected counts blocks where an error was detected but not
	// corrected (parity only).
	Detected int
}

// Encode applies the mode's redundancy to bits.
func Encode(mode Mode, bits []int) []int {
	switch mode {
	case Parity:
		return parityEncode(bits)
	case Hamming74:
		return hammingEncode(bits)
	default:
		return append([]int(nil), bits...)
	}
}

// Decode strips the mode's redundancy, repairing what the scheme allows.
func Decode(mode Mode, bits []int) Result {
	switch mode {
	case Parity:
		return parityDecode(bits)
	case Hamming74:
		return hammingDecode(bits)
	default:
		return Result{Bits: append([]int(nil), bits...)}
	}
}

// EncodedLen returns the transmitted length for n data bits under mode.
func EncodedLen(mode Mode, n int) int {
	switch mode {
	case Parity:
		blocks := (n + parityBlockLen - 1) / parityBlockLen
		return n + blocks
	case Hamming74:
		groups := (n + 3) / 4
		return groups * 7
	default:
		return n
	}
}

package packet

import (
	"fmt"
	"math/rand"
)

// CorruptionMode selects how Corrupt damages a frame.
type CorruptionMode int

const (
	// BitFlip flips each bit independently with the given rate.
	BitFlip CorruptionMode = iota
	// ByteDrop removes the given count of bytes at random positions.
	ByteDrop
	// Burst flips a contiguous run of bits of the given length.
	Burst
)

func (m CorruptionMode) String() string {
	switch m {
	case BitFlip:
		return "bit_flip"
	case ByteDrop:
		return "byte_drop"
	case Burst:
		return "burst"
	default:
		return "unknown"
	}
}

// ParseCorruptionMode converts a string to a CorruptionMode.
func ParseCorruptionMode(s string) (CorruptionMode, error) {
	switch s {
	case "bit_flip", "":
		return BitFlip, nil
	case "byte_drop":
		return ByteDrop, nil
	case "burst":
		return Burst, nil
	default:
		return CorruptionMode(0), fmt.Errorf("unsupported corruption mode %q", s)
	}
}

// Corruption describes the outcome of one corruption pass.
type Corruption struct {
	Frame        []byte
	BitsFlipped  int
	BytesDropped int
	// Unparseable is set when byte drops shrank the frame below the
	// minimum parseable length. The bytes are still returned; parsing
	// them will report a ValidationError.
	Unparseable bool
}

// Corrupt damages a copy of raw and returns it; the input is never
// mutated, so before/after comparison stays meaningful. For BitFlip the
// amount is a per-bit probability in [0,1]; for ByteDrop and Burst it is a
// count of bytes/bits. Deterministic for a seeded rng.
func Corrupt(raw []byte, mode CorruptionMode, amount float64, rng *rand.Rand) Corruption {
	out := append([]byte(nil), raw...)
	c := Corruption{}
	switch mode {
	case BitFlip:
		for i := range out {
			for bit := 0; bit < 8; bit++ {
				if rng.Float64() < amount {
					out[i] ^= 1 << bit
					c.BitsFlipped++
				}
			}
		}
	case ByteDrop:
		drops := int(amount)
		for d := 0; d < drops && len(out) > 0; d++ {
			i := rng.Intn(len(out))
			out = append(out[:i], out[i+1:]...)
			c.BytesDropped++
		}
		c.Unparseable = len(out) < MinFrameLen
	case Burst:
		totalBits := len(out) * 8
		n := int(amount)
		if n > totalBits {
			n = totalBits
		}
		if n > 0 {
			start := rng.Intn(totalBits - n + 1)
			for b := start; b < start+n; b++ {
				out[b/8] ^= 1 << (7 - b%8)
				c.BitsFlipped++
			}
		}
	}
	c.Frame = out
	return c
}

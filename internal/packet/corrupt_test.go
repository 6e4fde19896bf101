package packet

import (
	"bytes"
	"math/rand"
	"testing"
)

func testFrame(t *testing.T) []byte {
	t.Helper()
	raw, err := Create([]byte("GROUND CONTROL"), 9, 123456)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return raw
}

func TestCorruptDoesNotMutateInput(t *testing.T) {
	raw := testFrame(t)
	before := append([]byte(nil), raw...)
	for _, mode := range []CorruptionMode{BitFlip, ByteDrop, Burst} {
		Corrupt(raw, mode, 3, rand.New(rand.NewSource(5)))
		if !bytes.Equal(raw, before) {
			t.Fatalf("%s mutated its input", mode)
		}
	}
}

func TestBitFlip(t *testing.T) {
	raw := testFrame(t)
	c := Corrupt(raw, BitFlip, 1.0, rand.New(rand.NewSource(1)))
	if c.BitsFlipped != len(raw)*8 {
		t.Fatalf("rate 1.0 flipped %d bits, want %d", c.BitsFlipped, len(raw)*8)
	}
	if len(c.Frame) != len(raw) {
		t.Fatalf("bit flips changed the frame length")
	}

	c = Corrupt(raw, BitFlip, 0, rand.New(rand.NewSource(1)))
	if c.BitsFlipped != 0 || !bytes.Equal(c.Frame, raw) {
		t.Fatalf("rate 0 still damaged the frame")
	}
}

func TestByteDrop(t *testing.T) {
	raw := testFrame(t)
	c := Corrupt(raw, ByteDrop, 3, rand.New(rand.NewSource(2)))
	if c.BytesDropped != 3 {
		t.Fatalf("dropped %d bytes, want 3", c.BytesDropped)
	}
	if len(c.Frame) != len(raw)-3 {
		t.Fatalf("frame is %d bytes, want %d", len(c.Frame), len(raw)-3)
	}
	if c.Unparseable {
		t.Fatalf("frame of %d bytes flagged unparseable", len(c.Frame))
	}

	// Dropping below the minimum frame length must be flagged, and the
	// remains must still be safe to parse.
	c = Corrupt(raw, ByteDrop, float64(len(raw)-MinFrameLen+1), rand.New(rand.NewSource(3)))
	if !c.Unparseable {
		t.Fatalf("%d-byte frame not flagged unparseable", len(c.Frame))
	}
	if _, err := Parse(c.Frame); err == nil {
		t.Fatalf("unparseable remains parsed without error")
	}
}

func TestBurst(t *testing.T) {
	raw := testFrame(t)
	c := Corrupt(raw, Burst, 16, rand.New(rand.NewSource(4)))
	if c.BitsFlipped != 16 {
		t.Fatalf("burst flipped %d bits, want 16", c.BitsFlipped)
	}
	// The flipped bits must form one contiguous run.
	first, last := -1, -1
	for i := 0; i < len(raw)*8; i++ {
		orig := raw[i/8] >> (7 - i%8) & 1
		got := c.Frame[i/8] >> (7 - i%8) & 1
		if orig != got {
			if first == -1 {
				first = i
			}
			last = i
		}
	}
	if last-first+1 != 16 {
		t.Fatalf("flipped bits span %d positions, want a contiguous run of 16", last-first+1)
	}
}

func TestCorruptDeterministicForSeed(t *testing.T) {
	raw := testFrame(t)
	a := Corrupt(raw, BitFlip, 0.2, rand.New(rand.NewSource(99)))
	b := Corrupt(raw, BitFlip, 0.2, rand.New(rand.NewSource(99)))
	if !bytes.Equal(a.Frame, b.Frame) {
		t.Fatalf("identically seeded corruption differs")
	}
}

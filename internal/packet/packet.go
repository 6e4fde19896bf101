// Package packet implements the toy downlink frame:
//
//	PREAMBLE(4) | ID(2) | LENGTH(2) | TIMESTAMP(4) | PAYLOAD(LENGTH) | CRC16(2)
//
// All integers are big-endian. The CRC covers the header and payload but
// not the preamble.
package packet

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/orbiterzero/groundlink/internal/waveform"
)

// Preamble is the fixed four-byte sync pattern opening every frame.
var Preamble = []byte{0xAA, 0xAA, 0xAA, 0xAA}

const (
	preambleLen = 4
	headerLen   = 8 // id(2) + length(2) + timestamp(4)
	crcLen      = 2

	// MinFrameLen is the shortest parseable frame: empty payload.
	MinFrameLen = preambleLen + headerLen + crcLen
)

// ValidationError reports a structurally malformed frame. Corruption that
// leaves the structure intact is not an error; it surfaces as
// Packet.ChecksumOK == false.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("malformed packet: %s", e.Reason)
}

// Packet is a parsed downlink frame.
type Packet struct {
	ID         uint16
	Length     uint16
	Timestamp  uint32
	Payload    []byte
	CRC        uint16
	ChecksumOK bool
}

// Overhead is the fixed framing cost in bytes added around a payload.
func Overhead() int { return MinFrameLen }

// Create serializes a frame around payload. Payloads above 65535 bytes do
// not fit the 16-bit length field and are rejected before serialization.
func Create(payload []byte, id uint16, timestamp uint32) ([]byte, error) {
	if len(payload) > math.MaxUint16 {
		return nil, &waveform.ConfigurationError{Param: "payload", Reason: "exceeds 65535 bytes"}
	}
	buf := make([]byte, 0, MinFrameLen+len(payload))
	buf = append(buf, Preamble...)
	buf = binary.BigEndian.AppendUint16(buf, id)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(payload)))
	buf = binary.BigEndian.AppendUint32(buf, timestamp)
	buf = append(buf, payload...)
	crc := CRC16(buf[preambleLen:])
	buf = binary.BigEndian.AppendUint16(buf, crc)
	return buf, nil
}

// Parse decodes a frame. Structural failures (short buffer, wrong
// preamble, declared length disagreeing with the bytes present) return a
// ValidationError; a frame that parses but fails its CRC is returned with
// ChecksumOK false. Parse never panics on corrupted input.
func Parse(raw []byte) (Packet, error) {
	if len(raw) < MinFrameLen {
		return Packet{}, &ValidationError{Reason: fmt.Sprintf("frame is %d bytes, need at least %d", len(raw), MinFrameLen)}
	}
	if !bytes.Equal(raw[:preambleLen], Preamble) {
		return Packet{}, &ValidationError{Reason: "preamble mismatch"}
	}

	header := raw[preambleLen:]
	p := Packet{
		ID:        binary.BigEndian.Uint16(header[0:2]),
		Length:    binary.BigEndian.Uint16(header[2:4]),
		Timestamp: binary.BigEndian.Uint32(header[4:8]),
	}

	// The length field is authoritative: the frame must hold exactly the
	// declared payload plus the trailer.
	want := MinFrameLen + int(p.Length)
	if len(raw) != want {
		return Packet{}, &ValidationError{Reason: fmt.Sprintf("declared payload of %d bytes, frame is %d bytes (want %d)", p.Length, len(raw), want)}
	}

	p.Payload = append([]byte(nil), raw[preambleLen+headerLen:len(raw)-crcLen]...)
	p.CRC = binary.BigEndian.Uint16(raw[len(raw)-crcLen:])
	p.ChecksumOK = CRC16(raw[preambleLen:len(raw)-crcLen]) == p.CRC
	return p, nil
}

// Validate reports whether raw parses cleanly and its checksum matches.
func Validate(raw []byte) bool {
	p, err := Parse(raw)
	return err == nil && p.ChecksumOK
}

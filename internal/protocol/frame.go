package protocol

import (
	"encoding/binary"
	"fmt"
)

// Generation selects one of the two framing schemes
type Generation int

const (
	// Legacy frames are opcode, payload, checksum
	Legacy Generation = iota
	// V2 frames wrap a legacy frame in the B0 B1 B2 B3 envelope
	V2
)

// String returns a human-readable generation name
func (g Generation) String() string {
	switch g {
	case Legacy:
		return "legacy"
	case V2:
		return "v2"
	default:
		return fmt.Sprintf("Generation(%d)", int(g))
	}
}

// ParseGeneration converts "legacy" or "v2" into a Generation
func ParseGeneration(s string) (Generation, error) {
	switch s {
	case "legacy", "Legacy":
		return Legacy, nil
	case "v2", "V2":
		return V2, nil
	}
	return Legacy, Errorf(KindInvalidRange, "unknown protocol generation %q", s)
}

const (
	// DefaultPort is the TCP command port of every known controller
	DefaultPort = 5577

	// LegacyMinFrameSize is opcode plus checksum
	LegacyMinFrameSize = 2

	// V2HeaderSize is the envelope header before the inner frame
	V2HeaderSize = 10

	// V2MinFrameSize is the header, the smallest inner frame and the outer checksum
	V2MinFrameSize = V2HeaderSize + LegacyMinFrameSize + 1

	// V2EnvelopeVersion is the only envelope version seen in the field
	V2EnvelopeVersion = 0x01

	// DiscriminatorLocal marks frames sent over the LAN
	DiscriminatorLocal = 0x01
	// DiscriminatorRemote marks frames relayed through the vendor cloud
	DiscriminatorRemote = 0x02
)

// V2Magic is the fixed envelope prefix
var V2Magic = [4]byte{0xb0, 0xb1, 0xb2, 0xb3}

// Frame is a decoded command or response.
// Seq and Remote are only meaningful for V2 frames.
type Frame struct {
	Opcode  byte
	Payload []byte
	Seq     byte
	Remote  bool
}

// String returns a short description for logs
func (f *Frame) String() string {
	return fmt.Sprintf("Frame{opcode=0x%02x, payload=% x, seq=%d}", f.Opcode, f.Payload, f.Seq)
}

// Checksum returns the sum of data mod 256
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// EncodeCommand builds a complete frame for opcode and payload using
// sequence number zero.
func EncodeCommand(opcode byte, payload []byte, gen Generation) []byte {
	return EncodeFrame(Frame{Opcode: opcode, Payload: payload}, gen)
}

// EncodeFrame serializes f for the given generation.
//
// Legacy layout:
//
//	[0]     opcode
//	[1..n]  payload
//	[n+1]   checksum
//
// V2 layout wraps the legacy frame:
//
//	[0..3]  B0 B1 B2 B3
//	[4..5]  00 01
//	[6]     01 local / 02 remote
//	[7]     f.Seq
//	[8..9]  len(inner), big-endian
//	[10..]  inner legacy frame
//	[last]  checksum over bytes [0..last-1]
func EncodeFrame(f Frame, gen Generation) []byte {
	inner := make([]byte, 0, 1+len(f.Payload)+1)
	inner = append(inner, f.Opcode)
	inner = append(inner, f.Payload...)
	inner = append(inner, Checksum(inner))

	if gen != V2 {
		return inner
	}

	out := make([]byte, V2HeaderSize, V2HeaderSize+len(inner)+1)
	copy(out[0:4], V2Magic[:])
	out[4] = 0x00
	out[5] = V2EnvelopeVersion
	out[6] = DiscriminatorLocal
	if f.Remote {
		out[6] = DiscriminatorRemote
	}
	out[7] = f.Seq
	binary.BigEndian.PutUint16(out[8:10], uint16(len(inner)))
	out = append(out, inner...)
	out = append(out, Checksum(out))
	return out
}

// DecodeResponse parses and validates a raw inbound frame.
//
// It returns ErrFrameTooShort when data is below the minimum frame size,
// ErrChecksumMismatch when any checksum disagrees with its trailing byte,
// and ErrFrameTooShort when a checksum-valid V2 envelope declares a length
// that disagrees with the bytes received.
func DecodeResponse(data []byte, gen Generation) (*Frame, error) {
	if gen == V2 {
		return decodeV2(data)
	}
	return decodeLegacy(data)
}

func decodeLegacy(data []byte) (*Frame, error) {
	if len(data) < LegacyMinFrameSize {
		return nil, Errorf(KindFrameTooShort, "legacy frame is %d bytes, need at least %d", len(data), LegacyMinFrameSize)
	}

	last := len(data) - 1
	if want := Checksum(data[:last]); want != data[last] {
		return nil, Errorf(KindChecksumMismatch, "got 0x%02x, computed 0x%02x", data[last], want)
	}

	payload := make([]byte, last-1)
	copy(payload, data[1:last])
	return &Frame{Opcode: data[0], Payload: payload}, nil
}

func decodeV2(data []byte) (*Frame, error) {
	if len(data) < V2MinFrameSize {
		return nil, Errorf(KindFrameTooShort, "v2 frame is %d bytes, need at least %d", len(data), V2MinFrameSize)
	}

	last := len(data) - 1
	if want := Checksum(data[:last]); want != data[last] {
		return nil, Errorf(KindChecksumMismatch, "v2 envelope: got 0x%02x, computed 0x%02x", data[last], want)
	}

	declared := int(binary.BigEndian.Uint16(data[8:10]))
	if got := last - V2HeaderSize; got != declared {
		return nil, Errorf(KindFrameTooShort, "v2 envelope declares %d inner bytes, received %d", declared, got)
	}

	if [4]byte(data[0:4]) != V2Magic || data[4] != 0x00 || data[5] != V2EnvelopeVersion {
		return nil, Errorf(KindFrameTooShort, "bad v2 envelope header % x", data[:6])
	}
	if data[6] != DiscriminatorLocal && data[6] != DiscriminatorRemote {
		return nil, Errorf(KindFrameTooShort, "unknown v2 discriminator 0x%02x", data[6])
	}

	frame, err := decodeLegacy(data[V2HeaderSize:last])
	if err != nil {
		return nil, fmt.Errorf("v2 inner frame: %w", err)
	}
	frame.Seq = data[7]
	frame.Remote = data[6] == DiscriminatorRemote
	return frame, nil
}

// V2BodyLength returns the number of bytes that follow a V2 envelope header,
// inner frame plus outer checksum. Used by readers to size the second read.
func V2BodyLength(header []byte) (int, error) {
	if len(header) < V2HeaderSize {
		return 0, Errorf(KindFrameTooShort, "v2 header is %d bytes, need %d", len(header), V2HeaderSize)
	}
	if [4]byte(header[0:4]) != V2Magic {
		return 0, Errorf(KindFrameTooShort, "bad v2 magic % x", header[0:4])
	}
	return int(binary.BigEndian.Uint16(header[8:10])) + 1, nil
}

// Package protocol implements the LEDENET wire protocol spoken by Magic Home
// style WiFi LED controllers.
//
// The controllers listen on TCP port 5577 and exchange short binary frames.
// Two framing generations exist in the field.
//
// # Legacy Frames
//
// Legacy frames are a single opcode byte, a command specific payload and a
// trailing checksum:
//
//	[0]     opcode
//	[1..n]  payload
//	[n+1]   checksum       sum of all preceding bytes, mod 256
//
// # V2 Frames
//
// Newer firmware (addressable strips and most devices shipped after 2020)
// wraps a complete legacy frame in an outer envelope:
//
//	[0..3]  B0 B1 B2 B3    magic
//	[4]     00
//	[5]     01             envelope version
//	[6]     discriminator  01 local, 02 remote relay
//	[7]     sequence       per-connection counter
//	[8..9]  length         inner frame length (big-endian)
//	[10..]  inner          legacy frame including its own checksum
//	[last]  checksum       sum of all preceding bytes, mod 256
//
// Both checksums are verified when decoding.
//
// # Usage Example - Encoding
//
//	raw := protocol.EncodeCommand(protocol.OpQueryState, []byte{0x8a, 0x8b}, protocol.Legacy)
//	// raw = 81 8a 8b 96
//
// # Usage Example - Decoding
//
//	frame, err := protocol.DecodeResponse(raw, protocol.Legacy)
//	if errors.Is(err, protocol.ErrChecksumMismatch) {
//	    // retry the request
//	}
//
// All functions in this package are pure. Retry and socket handling live in
// the transport and device packages.
package protocol

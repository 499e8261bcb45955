package protocol

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func TestChecksum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want byte
	}{
		{"empty", nil, 0x00},
		{"state query", []byte{0x81, 0x8a, 0x8b}, 0x96},
		{"wraps mod 256", []byte{0xff, 0x02}, 0x01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum(tt.data); got != tt.want {
				t.Errorf("Checksum() = 0x%02x, want 0x%02x", got, tt.want)
			}
		})
	}
}

func TestEncodeCommand(t *testing.T) {
	tests := []struct {
		name    string
		opcode  byte
		payload []byte
		gen     Generation
		want    string
	}{
		{"legacy state query", 0x81, []byte{0x8a, 0x8b}, Legacy, "818a8b96"},
		{"legacy power on", 0x71, []byte{0x23, 0x0f}, Legacy, "71230fa3"},
		{"legacy power off", 0x71, []byte{0x24, 0x0f}, Legacy, "71240fa4"},
		{"v2 state query", 0x81, []byte{0x8a, 0x8b}, V2, "b0b1b2b30001010000" + "04" + "818a8b96" + "f8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeCommand(tt.opcode, tt.payload, tt.gen)
			if want := mustHex(t, tt.want); !bytes.Equal(got, want) {
				t.Errorf("EncodeCommand() = % x, want % x", got, want)
			}
		})
	}
}

func TestEncodeFrameV2Sequence(t *testing.T) {
	got := EncodeFrame(Frame{Opcode: 0x81, Payload: []byte{0x8a, 0x8b}, Seq: 0x0c}, V2)
	want := mustHex(t, "b0b1b2b30001010c0004818a8b9604")
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeFrame() = % x, want % x", got, want)
	}

	remote := EncodeFrame(Frame{Opcode: 0x81, Payload: []byte{0x8a, 0x8b}, Remote: true}, V2)
	if remote[6] != DiscriminatorRemote {
		t.Errorf("discriminator = 0x%02x, want 0x%02x", remote[6], DiscriminatorRemote)
	}
}

func TestRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		{0x8a, 0x8b},
		{0x23, 0x0f},
		{0xff, 0x00, 0xff, 0x00, 0x00, 0xf0, 0x0f},
		bytes.Repeat([]byte{0xa5}, 86),
	}
	for _, gen := range []Generation{Legacy, V2} {
		for _, opcode := range []byte{0x00, 0x31, 0x81, 0xff} {
			for _, payload := range payloads {
				raw := EncodeCommand(opcode, payload, gen)
				f, err := DecodeResponse(raw, gen)
				if err != nil {
					t.Fatalf("%s opcode 0x%02x: DecodeResponse() error = %v", gen, opcode, err)
				}
				if f.Opcode != opcode {
					t.Errorf("%s: opcode = 0x%02x, want 0x%02x", gen, f.Opcode, opcode)
				}
				if !bytes.Equal(f.Payload, payload) {
					t.Errorf("%s: payload = % x, want % x", gen, f.Payload, payload)
				}
			}
		}
	}
}

func TestDecodeResponseChecksumSensitivity(t *testing.T) {
	payload := []byte{0x33, 0x23, 0x61, 0x23, 0x01, 0xff, 0x00, 0x00, 0x00, 0x04, 0x00, 0xf0}

	legacy := EncodeCommand(0x81, payload, Legacy)
	for i := 0; i < len(legacy)-1; i++ {
		for bit := 0; bit < 8; bit++ {
			corrupt := bytes.Clone(legacy)
			corrupt[i] ^= 1 << bit
			_, err := DecodeResponse(corrupt, Legacy)
			if !errors.Is(err, ErrChecksumMismatch) {
				t.Fatalf("legacy byte %d bit %d: error = %v, want ErrChecksumMismatch", i, bit, err)
			}
		}
	}

	v2 := EncodeCommand(0x81, payload, V2)
	for i := 0; i < len(v2)-1; i++ {
		for bit := 0; bit < 8; bit++ {
			corrupt := bytes.Clone(v2)
			corrupt[i] ^= 1 << bit
			_, err := DecodeResponse(corrupt, V2)
			if !errors.Is(err, ErrChecksumMismatch) {
				t.Fatalf("v2 byte %d bit %d: error = %v, want ErrChecksumMismatch", i, bit, err)
			}
		}
	}
}

func TestDecodeResponseInnerChecksum(t *testing.T) {
	raw := EncodeCommand(0x81, []byte{0x8a, 0x8b}, V2)
	// corrupt the inner checksum and repair the outer one
	raw[len(raw)-2]++
	raw[len(raw)-1] = Checksum(raw[:len(raw)-1])

	_, err := DecodeResponse(raw, V2)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("error = %v, want ErrChecksumMismatch", err)
	}
}

// resealed recomputes the outer checksum of a V2 envelope body.
func resealed(body []byte) []byte {
	return append(bytes.Clone(body), Checksum(body))
}

func TestDecodeResponseLength(t *testing.T) {
	v2 := EncodeCommand(0x81, []byte{0x8a, 0x8b}, V2)
	last := len(v2) - 1

	longer := bytes.Clone(v2[:last])
	longer[9]++

	tests := []struct {
		name string
		data []byte
		gen  Generation
	}{
		{"legacy empty", nil, Legacy},
		{"legacy single byte", []byte{0x81}, Legacy},
		{"v2 below minimum", v2[:V2MinFrameSize-1], V2},
		{"v2 truncated", resealed(v2[:last-1]), V2},
		{"v2 trailing garbage", resealed(append(bytes.Clone(v2[:last]), 0x00)), V2},
		{"v2 declared length too long", resealed(longer), V2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeResponse(tt.data, tt.gen)
			if !errors.Is(err, ErrFrameTooShort) {
				t.Errorf("error = %v, want ErrFrameTooShort", err)
			}
		})
	}
}

func TestDecodeResponseBadEnvelope(t *testing.T) {
	raw := EncodeCommand(0x81, []byte{0x8a, 0x8b}, V2)
	raw[6] = 0x07
	raw[len(raw)-1] = Checksum(raw[:len(raw)-1])

	_, err := DecodeResponse(raw, V2)
	if !errors.Is(err, ErrFrameTooShort) {
		t.Errorf("error = %v, want ErrFrameTooShort", err)
	}
}

func TestV2BodyLength(t *testing.T) {
	raw := mustHex(t, "b0b1b2b30001010c0004818a8b9604")
	n, err := V2BodyLength(raw[:V2HeaderSize])
	if err != nil {
		t.Fatalf("V2BodyLength() error = %v", err)
	}
	if n != 5 {
		t.Errorf("V2BodyLength() = %d, want 5", n)
	}

	if _, err := V2BodyLength([]byte{0x81, 0x33}); !errors.Is(err, ErrFrameTooShort) {
		t.Errorf("short header error = %v, want ErrFrameTooShort", err)
	}
}

func TestParseGeneration(t *testing.T) {
	if g, err := ParseGeneration("v2"); err != nil || g != V2 {
		t.Errorf("ParseGeneration(v2) = %v, %v", g, err)
	}
	if _, err := ParseGeneration("v3"); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("ParseGeneration(v3) error = %v, want ErrInvalidRange", err)
	}
}

func TestDecodeCapturedV2StateResponse(t *testing.T) {
	raw := mustHex(t, "b0b1b2b30001010c000e811a23280000640f000001000660a2")
	f, err := DecodeResponse(raw, V2)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if f.Opcode != OpQueryState || f.Seq != 0x0c || f.Remote {
		t.Errorf("frame = %s", f)
	}
	payload, err := ParseStateResponse(f)
	if err != nil {
		t.Fatalf("ParseStateResponse() error = %v", err)
	}
	if payload[0] != 0x1a || payload[1] != PowerOn {
		t.Errorf("payload = % x", payload)
	}
}

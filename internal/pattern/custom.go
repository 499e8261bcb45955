package pattern

import (
	"fmt"
	"strings"

	"github.com/muurk/fluxled/internal/colors"
	"github.com/muurk/fluxled/internal/protocol"
)

// MaxColors is the number of color slots in a custom pattern
const MaxColors = 16

// Transition is the step style of a custom pattern
type Transition byte

const (
	Gradual Transition = 0x3A
	Jump    Transition = 0x3B
	Strobe  Transition = 0x3C
)

// String returns the transition name
func (t Transition) String() string {
	switch t {
	case Gradual:
		return "gradual"
	case Jump:
		return "jump"
	case Strobe:
		return "strobe"
	default:
		return fmt.Sprintf("Transition(0x%02X)", byte(t))
	}
}

// Valid reports whether t is a known transition
func (t Transition) Valid() bool {
	return t == Gradual || t == Jump || t == Strobe
}

// ParseTransition converts a name into a Transition
func ParseTransition(s string) (Transition, error) {
	switch strings.ToLower(s) {
	case "gradual":
		return Gradual, nil
	case "jump":
		return Jump, nil
	case "strobe":
		return Strobe, nil
	}
	return 0, protocol.Errorf(protocol.KindInvalidRange, "unknown transition %q", s)
}

// Custom is a caller-defined color sequence
type Custom struct {
	Transition Transition
	Speed      int
	Colors     []colors.RGB
}

const (
	customHeader     = 2
	customTerminator = 0xFF
	padSlot          = "\x00\x01\x02\x03"
)

// Validate checks a custom pattern before it is encoded
func (c Custom) Validate() error {
	if !c.Transition.Valid() {
		return protocol.Errorf(protocol.KindInvalidRange, "unknown transition 0x%02X", byte(c.Transition))
	}
	if err := checkSpeed(c.Speed); err != nil {
		return err
	}
	if len(c.Colors) == 0 {
		return protocol.Errorf(protocol.KindInvalidRange, "custom pattern needs at least one color")
	}
	if len(c.Colors) > MaxColors {
		return protocol.Errorf(protocol.KindTooManyColors, "%d colors, maximum is %d", len(c.Colors), MaxColors)
	}
	return nil
}

// EncodeCustom returns the body form of a custom pattern
func EncodeCustom(t Transition, speed int, cs []colors.RGB) ([]byte, error) {
	c := Custom{Transition: t, Speed: speed, Colors: cs}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	out := make([]byte, 0, customHeader+3*len(cs)+1)
	out = append(out, byte(t), protocol.SpeedToDelay(speed))
	for _, rgb := range cs {
		out = append(out, rgb.R, rgb.G, rgb.B)
	}
	return append(out, customTerminator), nil
}

// DecodeCustom parses the body form produced by EncodeCustom
func DecodeCustom(b []byte) (Custom, error) {
	n := len(b) - customHeader - 1
	if n < 3 || n%3 != 0 {
		return Custom{}, protocol.Errorf(protocol.KindMalformedPattern, "%d bytes is not a header, whole RGB triples and a terminator", len(b))
	}
	if b[len(b)-1] != customTerminator {
		return Custom{}, protocol.Errorf(protocol.KindMalformedPattern, "terminator is 0x%02X, want 0xFF", b[len(b)-1])
	}
	t := Transition(b[0])
	if !t.Valid() {
		return Custom{}, protocol.Errorf(protocol.KindMalformedPattern, "unknown transition 0x%02X", b[0])
	}
	if n/3 > MaxColors {
		return Custom{}, protocol.Errorf(protocol.KindTooManyColors, "%d colors, maximum is %d", n/3, MaxColors)
	}

	c := Custom{
		Transition: t,
		Speed:      protocol.DelayToSpeed(b[1]),
		Colors:     make([]colors.RGB, 0, n/3),
	}
	for i := customHeader; i < customHeader+n; i += 3 {
		c.Colors = append(c.Colors, colors.RGB{R: b[i], G: b[i+1], B: b[i+2]})
	}
	return c, nil
}

// CustomCommand builds the 0x51 device command for c.
//
// Frame Structure:
//
//	51 R G B                 first color, the opcode doubles as its lead byte
//	00 R G B                 colors 2..n
//	00 01 02 03              filler for each unused slot up to 16
//	00 delay transition FF 0F
func CustomCommand(c Custom) (protocol.Frame, error) {
	if err := c.Validate(); err != nil {
		return protocol.Frame{}, err
	}

	payload := make([]byte, 0, 3+4*(MaxColors-1)+5)
	for i, rgb := range c.Colors {
		if i > 0 {
			payload = append(payload, 0x00)
		}
		payload = append(payload, rgb.R, rgb.G, rgb.B)
	}
	for i := len(c.Colors); i < MaxColors; i++ {
		payload = append(payload, padSlot...)
	}
	payload = append(payload, 0x00, protocol.SpeedToDelay(c.Speed), byte(c.Transition), customTerminator, protocol.Terminator)
	return protocol.Frame{Opcode: protocol.OpCustom, Payload: payload}, nil
}

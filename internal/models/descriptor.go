package models

import (
	"fmt"
	"slices"

	"github.com/muurk/fluxled/internal/protocol"
)

// PixelProtocol identifies the LED driver chip family of addressable strips
type PixelProtocol int

const (
	PixelNone PixelProtocol = iota
	PixelWS2812B
)

// String returns the chip family name
func (p PixelProtocol) String() string {
	if p == PixelWS2812B {
		return "WS2812B"
	}
	return "none"
}

// Descriptor is the capability profile of one model id
type Descriptor struct {
	ModelNum byte
	Name     string
	// Advertised holds the model strings devices of this kind put in
	// discovery replies, e.g. "AK001-ZJ2145".
	Advertised []string

	Generation    protocol.Generation
	Channels      ChannelSet
	Addressable   bool
	PixelProtocol PixelProtocol
	Microphone    bool

	// WritesWhiteAndColors marks firmware that ignores the levels write
	// mode and always updates every channel.
	WritesWhiteAndColors bool
	// NineByteLevels marks firmware that expects the levels command with
	// a separate cool white byte.
	NineByteLevels bool
	// WhiteInRedSlot marks single channel controllers that carry the warm
	// white level in the red byte.
	WhiteInRedSlot bool
	// Switch marks relay devices with no dimmable channels.
	Switch bool

	// Fallback is set on descriptors synthesized for unknown model ids
	Fallback bool
}

// String returns a short description for logs and tables
func (d Descriptor) String() string {
	return fmt.Sprintf("0x%02X %s (%s, %s)", d.ModelNum, d.Name, d.Generation, d.Channels)
}

// WhiteOnly reports whether the device has white channels and no color
func (d Descriptor) WhiteOnly() bool {
	return d.Channels.HasWhite() && !d.Channels.HasColor()
}

func (d Descriptor) clone() Descriptor {
	d.Advertised = slices.Clone(d.Advertised)
	return d
}

package models

import "strings"

// Channel is one output channel of a controller
type Channel uint8

const (
	Red Channel = iota
	Green
	Blue
	WarmWhite
	CoolWhite

	numChannels
)

// AllChannels lists the channels in wire order
var AllChannels = [...]Channel{Red, Green, Blue, WarmWhite, CoolWhite}

// String returns the short channel name
func (c Channel) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	case WarmWhite:
		return "warm_white"
	case CoolWhite:
		return "cool_white"
	default:
		return "unknown"
	}
}

// ChannelSet is a bit set of channels
type ChannelSet uint8

// Common channel sets
const (
	ChannelsNone  ChannelSet = 0
	ChannelsRGB              = ChannelSet(1<<Red | 1<<Green | 1<<Blue)
	ChannelsW                = ChannelSet(1 << WarmWhite)
	ChannelsRGBW             = ChannelsRGB | ChannelsW
	ChannelsRGBWW            = ChannelsRGBW | ChannelSet(1<<CoolWhite)
)

// NewChannelSet builds a set from the given channels
func NewChannelSet(channels ...Channel) ChannelSet {
	var s ChannelSet
	for _, c := range channels {
		s |= 1 << c
	}
	return s
}

// Has reports whether c is in the set
func (s ChannelSet) Has(c Channel) bool {
	return c < numChannels && s&(1<<c) != 0
}

// HasColor reports whether any of R, G or B is present
func (s ChannelSet) HasColor() bool {
	return s&ChannelsRGB != 0
}

// HasWhite reports whether any white channel is present
func (s ChannelSet) HasWhite() bool {
	return s.Has(WarmWhite) || s.Has(CoolWhite)
}

// Len returns the number of channels in the set
func (s ChannelSet) Len() int {
	n := 0
	for _, c := range AllChannels {
		if s.Has(c) {
			n++
		}
	}
	return n
}

// String renders the set as e.g. "RGBWC"
func (s ChannelSet) String() string {
	if s == ChannelsNone {
		return "none"
	}
	var b strings.Builder
	for i, c := range AllChannels {
		if s.Has(c) {
			b.WriteByte("RGBWC"[i])
		}
	}
	return b.String()
}

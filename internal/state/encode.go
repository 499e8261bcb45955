package state

import (
	"github.com/muurk/fluxled/internal/colors"
	"github.com/muurk/fluxled/internal/models"
	"github.com/muurk/fluxled/internal/pattern"
	"github.com/muurk/fluxled/internal/protocol"
)

// Change is a requested state change. Each change encodes to exactly one
// command frame.
type Change interface {
	change()
}

// Power switches the device on or off
type Power struct {
	On bool
}

// Color sets the RGB channels
type Color struct {
	colors.RGB
}

// WarmWhite sets the warm white channel to a 0-100 percent level
type WarmWhite struct {
	Percent int
}

// CoolWhite sets the cool white channel to a 0-100 percent level
type CoolWhite struct {
	Percent int
}

// Levels sets raw 0-255 values for an arbitrary set of channels
type Levels struct {
	Channels models.ChannelSet
	Values   [5]byte
}

// Preset starts a built-in pattern, or an effect on addressable strips
type Preset struct {
	Code  byte
	Speed int
}

// Custom downloads and starts a custom pattern
type Custom struct {
	pattern.Custom
}

func (Power) change()     {}
func (Color) change()     {}
func (WarmWhite) change() {}
func (CoolWhite) change() {}
func (Levels) change()    {}
func (Preset) change()    {}
func (Custom) change()    {}

// With returns a copy of l with channel c set to v
func (l Levels) With(c models.Channel, v byte) Levels {
	l.Channels |= models.NewChannelSet(c)
	l.Values[c] = v
	return l
}

// Encode builds the command frame that applies ch to a device described
// by desc. Requests for channels desc lacks fail with UnsupportedChannel
// and out of range values with InvalidRange.
func Encode(ch Change, desc models.Descriptor) (protocol.Frame, error) {
	switch c := ch.(type) {
	case Power:
		return protocol.BuildPower(c.On), nil
	case Color:
		return encodeLevels(Levels{}.With(models.Red, c.R).With(models.Green, c.G).With(models.Blue, c.B), desc)
	case WarmWhite:
		return encodeWhite(models.WarmWhite, c.Percent, desc)
	case CoolWhite:
		return encodeWhite(models.CoolWhite, c.Percent, desc)
	case Levels:
		return encodeLevels(c, desc)
	case Preset:
		if desc.Switch {
			return protocol.Frame{}, protocol.Errorf(protocol.KindUnsupportedChannel, "%s cannot run patterns", desc.Name)
		}
		return pattern.PresetCommand(c.Code, c.Speed, desc.Addressable)
	case Custom:
		if !desc.Channels.HasColor() {
			return protocol.Frame{}, protocol.Errorf(protocol.KindUnsupportedChannel, "%s has no color channels", desc.Name)
		}
		return pattern.CustomCommand(c.Custom)
	case nil:
		return protocol.Frame{}, protocol.Errorf(protocol.KindInvalidRange, "nil change")
	default:
		return protocol.Frame{}, protocol.Errorf(protocol.KindInvalidRange, "unsupported change %T", ch)
	}
}

// EncodeChange is Encode followed by framing for desc's generation, with
// sequence number zero.
func EncodeChange(ch Change, desc models.Descriptor) ([]byte, error) {
	f, err := Encode(ch, desc)
	if err != nil {
		return nil, err
	}
	return protocol.EncodeFrame(f, desc.Generation), nil
}

func encodeWhite(c models.Channel, percent int, desc models.Descriptor) (protocol.Frame, error) {
	if percent < 0 || percent > 100 {
		return protocol.Frame{}, protocol.Errorf(protocol.KindInvalidRange, "%s level %d outside 0-100", c, percent)
	}
	return encodeLevels(Levels{}.With(c, protocol.PercentToByte(percent)), desc)
}

func encodeLevels(l Levels, desc models.Descriptor) (protocol.Frame, error) {
	if l.Channels == models.ChannelsNone {
		return protocol.Frame{}, protocol.Errorf(protocol.KindInvalidRange, "no channels requested")
	}
	for _, c := range models.AllChannels {
		if l.Channels.Has(c) && !desc.Channels.Has(c) {
			return protocol.Frame{}, protocol.Errorf(protocol.KindUnsupportedChannel, "%s on %s (channels %s)", c, desc.Name, desc.Channels)
		}
	}

	v := l.Values
	if desc.Generation == protocol.V2 {
		return protocol.BuildLevelsV2(v[models.Red], v[models.Green], v[models.Blue]), nil
	}

	mode := protocol.WriteAll
	switch {
	case desc.WritesWhiteAndColors:
	case !l.Channels.HasWhite():
		mode = protocol.WriteColors
	case !l.Channels.HasColor():
		mode = protocol.WriteWhites
	}

	r, g, b, ww, cw := v[models.Red], v[models.Green], v[models.Blue], v[models.WarmWhite], v[models.CoolWhite]
	if desc.WhiteInRedSlot {
		r, ww = ww, 0
		mode = protocol.WriteColors
	}

	if desc.NineByteLevels {
		return protocol.BuildLevels9(r, g, b, ww, cw, mode, true), nil
	}
	return protocol.BuildLevels8(r, g, b, ww, mode, true), nil
}

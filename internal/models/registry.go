package models

import (
	"go.uber.org/zap"

	"github.com/muurk/fluxled/internal/logging"
	"github.com/muurk/fluxled/internal/protocol"
)

// UnknownModelName is the name given to fallback descriptors
const UnknownModelName = "Unknown Model"

// builtin is the descriptor table. New hardware is added as a row here.
var builtin = []Descriptor{
	{ModelNum: 0x01, Name: "Original LEDENET", Channels: ChannelsRGB},
	{ModelNum: 0x04, Name: "UFO LED WiFi Controller", Advertised: []string{"AK001-ZJ200"},
		Channels: ChannelsRGBW, WritesWhiteAndColors: true},
	{ModelNum: 0x06, Name: "Magic Home Branded RGBW Controller", Advertised: []string{"AK001-ZJ2147"},
		Channels: ChannelsRGBW},
	{ModelNum: 0x07, Name: "Magic Home Branded RGBWW Controller",
		Channels: ChannelsRGBWW, NineByteLevels: true},
	{ModelNum: 0x0E, Name: "Floor Lamp", Advertised: []string{"AK001-ZJ2104"},
		Channels: ChannelsRGBWW, NineByteLevels: true},
	{ModelNum: 0x21, Name: "Magic Home Branded Single Channel Controller",
		Channels: ChannelsW, WhiteInRedSlot: true},
	{ModelNum: 0x25, Name: "WiFi RGBWW Controller", Advertised: []string{"AK001-ZJ200"},
		Channels: ChannelsRGBWW, NineByteLevels: true},
	{ModelNum: 0x33, Name: "Magic Home Branded RGB Controller", Advertised: []string{"AK001-ZJ2145", "AK001-ZJ2146"},
		Channels: ChannelsRGB, WritesWhiteAndColors: true},
	{ModelNum: 0x35, Name: "Smart Bulb", Advertised: []string{"AK001-ZJ2145", "AK001-ZJ2101", "AK001-ZJ2104"},
		Channels: ChannelsRGBWW, NineByteLevels: true},
	{ModelNum: 0x41, Name: "Magic Home Branded Single Channel Controller",
		Channels: ChannelsW, WhiteInRedSlot: true},
	{ModelNum: 0x44, Name: "RGBW Controller", Channels: ChannelsRGBW},
	{ModelNum: 0x45, Name: "RGB and Dimmer Controller", Channels: ChannelsRGBW},
	{ModelNum: 0x81, Name: "RGBW Controller", Channels: ChannelsRGBW, WritesWhiteAndColors: true},
	{ModelNum: 0x97, Name: "Smart Switch", Advertised: []string{"AK001-ZJ2134"},
		Channels: ChannelsNone, Switch: true},
	{ModelNum: 0xA1, Name: "Unknown Addressable", Generation: protocol.V2,
		Channels: ChannelsRGB, Addressable: true, PixelProtocol: PixelWS2812B},
	{ModelNum: 0xA2, Name: "Generic Addressable", Advertised: []string{"AK001-ZJ2104"}, Generation: protocol.V2,
		Channels: ChannelsRGB, Addressable: true, PixelProtocol: PixelWS2812B},
	{ModelNum: 0xA3, Name: "Magic Home Branded Addressable", Advertised: []string{"K001-ZJ2148"}, Generation: protocol.V2,
		Channels: ChannelsRGB, Addressable: true, PixelProtocol: PixelWS2812B, Microphone: true},
}

// Registry is an immutable model id to descriptor table.
// It is safe for concurrent use.
type Registry struct {
	byModel map[byte]Descriptor
	logger  *zap.Logger
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the logger used to report unknown model ids
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithDescriptors adds or replaces table rows, e.g. for hardware not yet
// in the built-in table.
func WithDescriptors(descs ...Descriptor) Option {
	return func(r *Registry) {
		for _, d := range descs {
			r.byModel[d.ModelNum] = d.clone()
		}
	}
}

// NewRegistry builds the descriptor table
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{byModel: make(map[byte]Descriptor, len(builtin))}
	for _, d := range builtin {
		r.byModel[d.ModelNum] = d.clone()
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.Or(r.logger)
	return r
}

// Lookup returns the descriptor for modelNum. It never fails: unknown ids
// get the RGB-only legacy fallback and an UnknownModel warning is logged.
func (r *Registry) Lookup(modelNum byte) Descriptor {
	if d, ok := r.LookupKnown(modelNum); ok {
		return d
	}
	r.logger.Warn("Unknown model, using RGB fallback",
		zap.Error(protocol.Errorf(protocol.KindUnknownModel, "model 0x%02X", modelNum)),
		zap.Uint8("model", modelNum),
	)
	return Fallback(modelNum)
}

// LookupKnown returns the descriptor for modelNum and whether it is in the table
func (r *Registry) LookupKnown(modelNum byte) (Descriptor, bool) {
	d, ok := r.byModel[modelNum]
	if !ok {
		return Descriptor{}, false
	}
	return d.clone(), true
}

// ByAdvertisedModel returns every descriptor whose advertised model strings
// include model, ordered by model id.
func (r *Registry) ByAdvertisedModel(model string) []Descriptor {
	var out []Descriptor
	for id := 0; id <= 0xff; id++ {
		d, ok := r.byModel[byte(id)]
		if !ok {
			continue
		}
		for _, m := range d.Advertised {
			if m == model {
				out = append(out, d.clone())
				break
			}
		}
	}
	return out
}

// NameForAdvertised returns a human-readable name for a discovery model
// string. Ambiguous strings name every candidate.
func (r *Registry) NameForAdvertised(model string) string {
	matches := r.ByAdvertisedModel(model)
	switch len(matches) {
	case 0:
		return UnknownModelName
	case 1:
		return matches[0].Name
	}
	name := matches[0].Name
	for _, d := range matches[1:] {
		if d.Name != name {
			name += " / " + d.Name
		}
	}
	return name
}

// All returns every descriptor ordered by model id
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.byModel))
	for id := 0; id <= 0xff; id++ {
		if d, ok := r.byModel[byte(id)]; ok {
			out = append(out, d.clone())
		}
	}
	return out
}

// Fallback returns the conservative descriptor used for unknown model ids
func Fallback(modelNum byte) Descriptor {
	return Descriptor{
		ModelNum:   modelNum,
		Name:       UnknownModelName,
		Generation: protocol.Legacy,
		Channels:   ChannelsRGB,
		Fallback:   true,
	}
}

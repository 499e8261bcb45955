package models

import (
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/muurk/fluxled/internal/protocol"
)

func TestLookupKnownModels(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		model      byte
		generation protocol.Generation
		channels   ChannelSet
		verify     func(t *testing.T, d Descriptor)
	}{
		{0x33, protocol.Legacy, ChannelsRGB, func(t *testing.T, d Descriptor) {
			if !d.WritesWhiteAndColors {
				t.Error("0x33 should always write whites and colors")
			}
		}},
		{0x35, protocol.Legacy, ChannelsRGBWW, func(t *testing.T, d Descriptor) {
			if !d.NineByteLevels {
				t.Error("0x35 should use 9 byte levels")
			}
		}},
		{0x21, protocol.Legacy, ChannelsW, func(t *testing.T, d Descriptor) {
			if !d.WhiteInRedSlot || !d.WhiteOnly() {
				t.Error("0x21 should be white only with the level in the red slot")
			}
		}},
		{0x97, protocol.Legacy, ChannelsNone, func(t *testing.T, d Descriptor) {
			if !d.Switch {
				t.Error("0x97 should be a switch")
			}
		}},
		{0xA3, protocol.V2, ChannelsRGB, func(t *testing.T, d Descriptor) {
			if !d.Addressable || d.PixelProtocol != PixelWS2812B || !d.Microphone {
				t.Errorf("0xA3 = %+v, want addressable WS2812B with microphone", d)
			}
		}},
	}
	for _, tt := range tests {
		d := r.Lookup(tt.model)
		if d.ModelNum != tt.model || d.Fallback {
			t.Errorf("Lookup(0x%02X) = %v", tt.model, d)
			continue
		}
		if d.Generation != tt.generation {
			t.Errorf("0x%02X generation = %v, want %v", tt.model, d.Generation, tt.generation)
		}
		if d.Channels != tt.channels {
			t.Errorf("0x%02X channels = %v, want %v", tt.model, d.Channels, tt.channels)
		}
		tt.verify(t, d)
	}
}

func TestLookupFallback(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := NewRegistry(WithLogger(zap.New(core)))

	d := r.Lookup(0xFF)
	if !d.Fallback || d.Name != UnknownModelName {
		t.Errorf("Lookup(0xFF) = %v, want fallback", d)
	}
	if d.Generation != protocol.Legacy || d.Channels != ChannelsRGB || d.ModelNum != 0xFF {
		t.Errorf("fallback = %+v, want RGB legacy for 0xFF", d)
	}
	if logs.Len() != 1 {
		t.Errorf("logged %d warnings, want 1", logs.Len())
	}

	if _, ok := r.LookupKnown(0xFF); ok {
		t.Error("LookupKnown(0xFF) should report false")
	}
}

func TestLookupReturnsCopies(t *testing.T) {
	r := NewRegistry()
	d := r.Lookup(0x33)
	d.Advertised[0] = "mutated"
	d.Channels = ChannelsNone

	again := r.Lookup(0x33)
	if again.Advertised[0] != "AK001-ZJ2145" || again.Channels != ChannelsRGB {
		t.Errorf("registry row was mutated through a returned descriptor: %+v", again)
	}
}

func TestWithDescriptors(t *testing.T) {
	r := NewRegistry(WithDescriptors(Descriptor{ModelNum: 0x62, Name: "Test Strip", Channels: ChannelsRGBW}))
	d, ok := r.LookupKnown(0x62)
	if !ok || d.Name != "Test Strip" {
		t.Errorf("LookupKnown(0x62) = %v, %v", d, ok)
	}
}

func TestByAdvertisedModel(t *testing.T) {
	r := NewRegistry()

	got := r.ByAdvertisedModel("AK001-ZJ2145")
	if len(got) != 2 || got[0].ModelNum != 0x33 || got[1].ModelNum != 0x35 {
		t.Errorf("ByAdvertisedModel() = %v", got)
	}
	if name := r.NameForAdvertised("AK001-ZJ2134"); name != "Smart Switch" {
		t.Errorf("NameForAdvertised(ZJ2134) = %q", name)
	}
	if name := r.NameForAdvertised("AK001-ZJ2145"); name != "Magic Home Branded RGB Controller / Smart Bulb" {
		t.Errorf("NameForAdvertised(ZJ2145) = %q", name)
	}
	if name := r.NameForAdvertised("HF-LPB100"); name != UnknownModelName {
		t.Errorf("NameForAdvertised(unknown) = %q", name)
	}
}

func TestConcurrentLookup(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for m := 0; m < 256; m++ {
				_ = r.Lookup(byte(m + id))
			}
		}(i)
	}
	wg.Wait()
}

func TestChannelSet(t *testing.T) {
	s := NewChannelSet(Red, WarmWhite)
	if !s.Has(Red) || s.Has(Green) || !s.HasWhite() || !s.HasColor() {
		t.Errorf("set %v membership wrong", s)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if ChannelsRGBWW.String() != "RGBWC" || ChannelsNone.String() != "none" {
		t.Errorf("String() = %q / %q", ChannelsRGBWW, ChannelsNone)
	}
}

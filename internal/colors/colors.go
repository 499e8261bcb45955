// Package colors resolves color names and web hex strings to RGB triples.
package colors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"

	"github.com/muurk/fluxled/internal/protocol"
)

// RGB is a 24-bit color
type RGB struct {
	R, G, B byte
}

// String renders the color as #rrggbb
func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// IsBlack reports whether all three components are zero
func (c RGB) IsBlack() bool {
	return c.R == 0 && c.G == 0 && c.B == 0
}

// Resolver maps a human color name or hex string to RGB
type Resolver interface {
	Resolve(name string) (RGB, error)
}

// Table resolves CSS color names, #rrggbb / #rgb hex strings and
// "r,g,b" decimal triples. Extra entries take precedence over CSS names.
type Table struct {
	Extra map[string]RGB
}

// Default is a Table with only the CSS names
var Default Resolver = Table{}

// Resolve implements Resolver. Unrecognized input returns an InvalidRange error.
func (t Table) Resolve(name string) (RGB, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return RGB{}, protocol.Errorf(protocol.KindInvalidRange, "empty color")
	}
	if c, ok := t.Extra[key]; ok {
		return c, nil
	}
	if c, ok := colornames.Map[strings.ReplaceAll(key, " ", "")]; ok {
		return RGB{R: c.R, G: c.G, B: c.B}, nil
	}
	if strings.Contains(key, ",") {
		return parseTriple(key)
	}

	hex := key
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return RGB{}, protocol.Wrap(protocol.KindInvalidRange, err, fmt.Sprintf("unknown color %q", name))
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

func parseTriple(s string) (RGB, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return RGB{}, protocol.Errorf(protocol.KindInvalidRange, "color %q needs three components", s)
	}
	var out [3]byte
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return RGB{}, protocol.Errorf(protocol.KindInvalidRange, "color component %q is not 0-255", p)
		}
		out[i] = byte(v)
	}
	return RGB{R: out[0], G: out[1], B: out[2]}, nil
}

// Name returns the CSS name of c if it has an exact one
func Name(c RGB) (string, bool) {
	for _, name := range colornames.Names {
		v := colornames.Map[name]
		if v.R == c.R && v.G == c.G && v.B == c.B {
			return name, true
		}
	}
	return "", false
}

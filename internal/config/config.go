package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/muurk/fluxled/internal/colors"
	"github.com/muurk/fluxled/internal/pattern"
	"github.com/muurk/fluxled/internal/protocol"
)

// CurrentVersion is the config file format version
const CurrentVersion = 1

// Default values used when the file or a field is absent
const (
	DefaultTimeout          = 5 * time.Second
	DefaultRetries          = 2
	DefaultDiscoveryTimeout = 10 * time.Second
	DefaultBroadcastAddress = "255.255.255.255"
	DefaultFormat           = "detailed"
)

// Config represents the entire user configuration file
type Config struct {
	Version  int                 `yaml:"version"`
	Defaults *Defaults           `yaml:"defaults,omitempty"`
	Devices  map[string]*Device  `yaml:"devices,omitempty"`  // Keyed by alias
	Patterns map[string]*Pattern `yaml:"patterns,omitempty"` // Named custom patterns
	Colors   map[string]string   `yaml:"colors,omitempty"`   // Extra color names, "#rrggbb" or "r,g,b"
}

// Defaults holds connection and output settings applied to every command
type Defaults struct {
	Port             int           `yaml:"port"`
	Timeout          time.Duration `yaml:"timeout"`
	Retries          int           `yaml:"retries"`
	DiscoveryTimeout time.Duration `yaml:"discovery_timeout"`
	BroadcastAddress string        `yaml:"broadcast_address"`
	Format           string        `yaml:"format,omitempty"` // detailed, compact or json
}

// Device is a user-assigned alias for a controller
type Device struct {
	Address    string `yaml:"address"`              // Host or host:port
	Model      string `yaml:"model,omitempty"`      // Model id, e.g. "0x44"
	Generation string `yaml:"generation,omitempty"` // "legacy" or "v2"; probed when empty
	Note       string `yaml:"note,omitempty"`
}

// Pattern is a named custom pattern
type Pattern struct {
	Transition string   `yaml:"transition"` // gradual, jump or strobe
	Speed      int      `yaml:"speed"`      // 0-100
	Colors     []string `yaml:"colors"`     // Color names or hex strings
}

// Target is a resolved device address plus whatever the alias pins down
type Target struct {
	Alias      string
	Address    string
	Model      byte
	HasModel   bool
	Generation protocol.Generation
	HasGen     bool
}

// NewConfig creates a Config with default values
func NewConfig() *Config {
	return &Config{
		Version:  CurrentVersion,
		Defaults: DefaultDefaults(),
		Devices:  make(map[string]*Device),
		Patterns: make(map[string]*Pattern),
		Colors:   make(map[string]string),
	}
}

// DefaultDefaults returns the built-in defaults
func DefaultDefaults() *Defaults {
	return &Defaults{
		Port:             protocol.DefaultPort,
		Timeout:          DefaultTimeout,
		Retries:          DefaultRetries,
		DiscoveryTimeout: DefaultDiscoveryTimeout,
		BroadcastAddress: DefaultBroadcastAddress,
		Format:           DefaultFormat,
	}
}

// normalize fills absent sections and fields with defaults
func (c *Config) normalize() {
	if c.Devices == nil {
		c.Devices = make(map[string]*Device)
	}
	if c.Patterns == nil {
		c.Patterns = make(map[string]*Pattern)
	}
	if c.Colors == nil {
		c.Colors = make(map[string]string)
	}
	def := DefaultDefaults()
	if c.Defaults == nil {
		c.Defaults = def
		return
	}
	d := c.Defaults
	if d.Port == 0 {
		d.Port = def.Port
	}
	if d.Timeout == 0 {
		d.Timeout = def.Timeout
	}
	if d.DiscoveryTimeout == 0 {
		d.DiscoveryTimeout = def.DiscoveryTimeout
	}
	if d.BroadcastAddress == "" {
		d.BroadcastAddress = def.BroadcastAddress
	}
	if d.Format == "" {
		d.Format = def.Format
	}
}

// Validate checks every section and reports the first problem found
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %d (expected %d)", c.Version, CurrentVersion)
	}
	if d := c.Defaults; d != nil {
		if d.Port < 0 || d.Port > 65535 {
			return fmt.Errorf("defaults: port %d out of range", d.Port)
		}
		if d.Retries < 0 {
			return fmt.Errorf("defaults: retries must not be negative")
		}
		if d.Timeout < 0 || d.DiscoveryTimeout < 0 {
			return fmt.Errorf("defaults: timeouts must not be negative")
		}
		switch d.Format {
		case "", "detailed", "compact", "json":
		default:
			return fmt.Errorf("defaults: unknown format %q", d.Format)
		}
	}
	for alias := range c.Devices {
		if _, err := c.ResolveDevice(alias); err != nil {
			return err
		}
	}
	table := c.ColorTable()
	for name := range c.Patterns {
		if _, err := c.Pattern(name, table); err != nil {
			return err
		}
	}
	return nil
}

// SetDevice adds or replaces an alias
func (c *Config) SetDevice(alias string, d *Device) {
	if c.Devices == nil {
		c.Devices = make(map[string]*Device)
	}
	c.Devices[alias] = d
}

// RemoveDevice deletes an alias and reports whether it existed
func (c *Config) RemoveDevice(alias string) bool {
	if _, ok := c.Devices[alias]; !ok {
		return false
	}
	delete(c.Devices, alias)
	return true
}

// Aliases returns the device aliases in sorted order
func (c *Config) Aliases() []string {
	out := make([]string, 0, len(c.Devices))
	for a := range c.Devices {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// ResolveDevice turns an alias or a literal address into a Target.
// Anything that is not an alias is treated as an address.
func (c *Config) ResolveDevice(nameOrAddr string) (Target, error) {
	d, ok := c.Devices[nameOrAddr]
	if !ok {
		if nameOrAddr == "" {
			return Target{}, fmt.Errorf("no device given")
		}
		return Target{Address: nameOrAddr}, nil
	}
	if d == nil || d.Address == "" {
		return Target{}, fmt.Errorf("device %q: address is required", nameOrAddr)
	}

	t := Target{Alias: nameOrAddr, Address: d.Address}
	if d.Model != "" {
		n, err := strconv.ParseUint(d.Model, 0, 8)
		if err != nil {
			return Target{}, fmt.Errorf("device %q: invalid model %q: %w", nameOrAddr, d.Model, err)
		}
		t.Model, t.HasModel = byte(n), true
	}
	if d.Generation != "" {
		g, err := protocol.ParseGeneration(d.Generation)
		if err != nil {
			return Target{}, fmt.Errorf("device %q: %w", nameOrAddr, err)
		}
		t.Generation, t.HasGen = g, true
	}
	return t, nil
}

// ColorTable returns a resolver that knows the configured color names in
// addition to the CSS names.
func (c *Config) ColorTable() colors.Table {
	extra := make(map[string]colors.RGB, len(c.Colors))
	for name, value := range c.Colors {
		rgb, err := colors.Default.Resolve(value)
		if err != nil {
			continue
		}
		extra[strings.ToLower(strings.TrimSpace(name))] = rgb
	}
	return colors.Table{Extra: extra}
}

// Pattern converts the named pattern into a validated custom pattern
func (c *Config) Pattern(name string, resolver colors.Resolver) (pattern.Custom, error) {
	p, ok := c.Patterns[name]
	if !ok || p == nil {
		return pattern.Custom{}, fmt.Errorf("unknown pattern %q", name)
	}
	if resolver == nil {
		resolver = colors.Default
	}

	transition, err := pattern.ParseTransition(p.Transition)
	if err != nil {
		return pattern.Custom{}, fmt.Errorf("pattern %q: %w", name, err)
	}
	custom := pattern.Custom{Transition: transition, Speed: p.Speed}
	for _, s := range p.Colors {
		rgb, err := resolver.Resolve(s)
		if err != nil {
			return pattern.Custom{}, fmt.Errorf("pattern %q: %w", name, err)
		}
		custom.Colors = append(custom.Colors, rgb)
	}
	if err := custom.Validate(); err != nil {
		return pattern.Custom{}, fmt.Errorf("pattern %q: %w", name, err)
	}
	return custom, nil
}

// PatternNames returns the configured pattern names in sorted order
func (c *Config) PatternNames() []string {
	out := make([]string, 0, len(c.Patterns))
	for n := range c.Patterns {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

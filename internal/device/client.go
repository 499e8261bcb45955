package device

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/fluxled/internal/colors"
	"github.com/muurk/fluxled/internal/logging"
	"github.com/muurk/fluxled/internal/models"
	"github.com/muurk/fluxled/internal/pattern"
	"github.com/muurk/fluxled/internal/protocol"
	"github.com/muurk/fluxled/internal/state"
	"github.com/muurk/fluxled/internal/timer"
	"github.com/muurk/fluxled/internal/transport"
)

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithRegistry sets the model registry used to resolve descriptors
func WithRegistry(r *models.Registry) Option {
	return func(c *Client) { c.registry = r }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRetries sets the number of extra attempts after a transient failure
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithRetryInterval sets the initial pause between attempts
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.retryInterval = d
		}
	}
}

// WithGeneration skips generation probing
func WithGeneration(g protocol.Generation) Option {
	return func(c *Client) {
		c.gen = g
		c.genKnown = true
	}
}

// WithModel declares the model id up front so writes need no state query
// first. The descriptor is replaced if a later query reports another id.
func WithModel(model byte) Option {
	return func(c *Client) {
		c.model = model
		c.modelKnown = true
	}
}

// WithClock sets the time source used by SetClock
func WithClock(clock Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithDialer replaces the TCP dialer
func WithDialer(d transport.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// Client is a handle to one controller. Its methods are safe for
// concurrent use; requests reach the device one at a time.
type Client struct {
	addr          string
	registry      *models.Registry
	log           *zap.Logger
	clock         Clock
	timeout       time.Duration
	retries       int
	retryInterval time.Duration
	dialer        transport.Dialer
	conn          *transport.Conn
	model         byte
	modelKnown    bool

	mu       sync.Mutex
	gen      protocol.Generation
	genKnown bool
	desc     models.Descriptor
	ready    bool
}

// New returns a handle for addr without touching the network. A bare host
// gets the default command port.
func New(addr string, opts ...Option) *Client {
	c := &Client{
		addr:          withDefaultPort(addr),
		clock:         SystemClock{},
		timeout:       transport.DefaultTimeout,
		retries:       DefaultRetries,
		retryInterval: defaultRetryInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = models.NewRegistry(models.WithLogger(c.log))
	}
	c.log = logging.Or(c.log).With(zap.String("device", c.addr))
	if c.modelKnown {
		desc := c.registry.Lookup(c.model)
		if !c.genKnown || desc.Generation == protocol.V2 {
			c.gen = desc.Generation
			c.genKnown = true
		}
		desc.Generation = c.gen
		c.desc = desc
		c.ready = true
	}

	topts := []transport.Option{transport.WithLogger(c.log), transport.WithTimeout(c.timeout)}
	if c.dialer != nil {
		topts = append(topts, transport.WithDialer(c.dialer))
	}
	c.conn = transport.New(c.addr, topts...)
	return c
}

// Connect opens a handle to addr and identifies the device with a state
// query.
func Connect(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	c := New(addr, opts...)
	if _, err := c.Query(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Addr returns the device's TCP address
func (c *Client) Addr() string {
	return c.addr
}

// Descriptor returns the capability profile, or false before the first
// successful query.
func (c *Client) Descriptor() (models.Descriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.desc, c.ready
}

// Generation returns the protocol generation in use
func (c *Client) Generation() protocol.Generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// Query reads the current device state
func (c *Client) Query(ctx context.Context) (state.DeviceState, error) {
	var st state.DeviceState
	err := c.withRetry(ctx, "query", func(ctx context.Context) error {
		payload, err := c.queryPayload(ctx)
		if err != nil {
			return err
		}
		desc := c.identify(payload[0])
		st, err = state.Decode(payload, desc)
		return err
	})
	return st, err
}

// queryPayload sends a state query, probing the generation when it is not
// yet known: legacy first, then V2 on a fresh socket.
func (c *Client) queryPayload(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	gen, known := c.gen, c.genKnown
	c.mu.Unlock()

	if known {
		return c.exchangeState(ctx, gen)
	}

	payload, err := c.exchangeState(ctx, protocol.Legacy)
	if err == nil {
		c.setGeneration(protocol.Legacy)
		return payload, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if !silentOrHungUp(err) {
		// Bytes came back, so the device speaks legacy framing.
		return nil, err
	}
	c.log.Debug("Legacy state query failed, trying V2", zap.Error(err))

	if rerr := c.conn.Reconnect(ctx); rerr != nil {
		return nil, rerr
	}
	payload, v2err := c.exchangeState(ctx, protocol.V2)
	if v2err != nil {
		return nil, errors.Join(err, v2err)
	}
	c.setGeneration(protocol.V2)
	return payload, nil
}

func (c *Client) exchangeState(ctx context.Context, gen protocol.Generation) ([]byte, error) {
	reply, err := c.conn.Exchange(ctx, protocol.BuildStateQuery(), gen, protocol.StateResponseSize)
	if err != nil {
		return nil, err
	}
	return protocol.ParseStateResponse(reply)
}

func (c *Client) setGeneration(g protocol.Generation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen = g
	c.genKnown = true
}

// identify resolves the descriptor for a reported model id. A descriptor
// that names a newer generation than the one that answered wins.
func (c *Client) identify(model byte) models.Descriptor {
	desc := c.registry.Lookup(model)

	c.mu.Lock()
	defer c.mu.Unlock()
	if desc.Generation == protocol.V2 && c.gen != protocol.V2 {
		c.log.Debug("Model uses V2 framing", zap.String("model", desc.String()))
		c.gen = protocol.V2
	}
	desc.Generation = c.gen
	if !c.ready || c.desc.ModelNum != desc.ModelNum {
		c.log.Info("Identified device",
			zap.String("model", desc.String()),
			zap.String("generation", c.gen.String()),
		)
	}
	c.desc = desc
	c.ready = true
	return desc
}

// descriptor returns the descriptor, querying the device first if needed
func (c *Client) descriptor(ctx context.Context) (models.Descriptor, error) {
	if desc, ok := c.Descriptor(); ok {
		return desc, nil
	}
	if _, err := c.Query(ctx); err != nil {
		return models.Descriptor{}, err
	}
	desc, _ := c.Descriptor()
	return desc, nil
}

// Apply encodes ch for this device and sends it. Power changes wait for
// the device's acknowledgement; other changes are fire and forget.
func (c *Client) Apply(ctx context.Context, ch state.Change) error {
	desc, err := c.descriptor(ctx)
	if err != nil {
		return err
	}
	f, err := state.Encode(ch, desc)
	if err != nil {
		return err
	}

	if p, ok := ch.(state.Power); ok {
		return c.withRetry(ctx, "power", func(ctx context.Context) error {
			reply, err := c.conn.Exchange(ctx, f, desc.Generation, protocol.PowerResponseSize)
			if err != nil {
				return err
			}
			on, err := protocol.ParsePowerResponse(reply)
			if err != nil {
				return err
			}
			if on != p.On {
				c.log.Warn("Power ack disagrees with request", zap.Bool("requested", p.On), zap.Bool("reported", on))
			}
			return nil
		})
	}

	return c.withRetry(ctx, "write", func(ctx context.Context) error {
		return c.conn.Send(ctx, f, desc.Generation)
	})
}

// SetPower turns the device on or off
func (c *Client) SetPower(ctx context.Context, on bool) error {
	return c.Apply(ctx, state.Power{On: on})
}

// TurnOn turns the device on
func (c *Client) TurnOn(ctx context.Context) error {
	return c.SetPower(ctx, true)
}

// TurnOff turns the device off
func (c *Client) TurnOff(ctx context.Context) error {
	return c.SetPower(ctx, false)
}

// SetColor sets a solid RGB color
func (c *Client) SetColor(ctx context.Context, rgb colors.RGB) error {
	return c.Apply(ctx, state.Color{RGB: rgb})
}

// SetWarmWhite sets the warm white channel to percent (0-100)
func (c *Client) SetWarmWhite(ctx context.Context, percent int) error {
	return c.Apply(ctx, state.WarmWhite{Percent: percent})
}

// SetCoolWhite sets the cool white channel to percent (0-100)
func (c *Client) SetCoolWhite(ctx context.Context, percent int) error {
	return c.Apply(ctx, state.CoolWhite{Percent: percent})
}

// SetLevels writes raw channel levels
func (c *Client) SetLevels(ctx context.Context, l state.Levels) error {
	return c.Apply(ctx, l)
}

// SetPreset starts a built-in pattern (or an effect on addressable strips)
// at speed percent.
func (c *Client) SetPreset(ctx context.Context, code byte, speed int) error {
	return c.Apply(ctx, state.Preset{Code: code, Speed: speed})
}

// SetCustomPattern downloads and starts a custom pattern
func (c *Client) SetCustomPattern(ctx context.Context, p pattern.Custom) error {
	return c.Apply(ctx, state.Custom{Custom: p})
}

// GetTimers reads the six timer slots
func (c *Client) GetTimers(ctx context.Context) ([timer.NumSlots]timer.Slot, error) {
	var slots [timer.NumSlots]timer.Slot
	desc, err := c.descriptor(ctx)
	if err != nil {
		return slots, err
	}
	err = c.withRetry(ctx, "get timers", func(ctx context.Context) error {
		reply, err := c.conn.Exchange(ctx, protocol.BuildTimerQuery(), desc.Generation, protocol.TimerResponseSize)
		if err != nil {
			return err
		}
		table, err := protocol.ParseTimerResponse(reply)
		if err != nil {
			return err
		}
		slots, err = timer.DecodeTable(table)
		return err
	})
	return slots, err
}

// SetTimers replaces all six timer slots
func (c *Client) SetTimers(ctx context.Context, slots [timer.NumSlots]timer.Slot) error {
	table, err := timer.EncodeTable(slots)
	if err != nil {
		return err
	}
	desc, err := c.descriptor(ctx)
	if err != nil {
		return err
	}
	f := protocol.BuildTimerSet(table)
	return c.withRetry(ctx, "set timers", func(ctx context.Context) error {
		_, err := c.conn.Exchange(ctx, f, desc.Generation, protocol.TimerAckSize)
		return err
	})
}

// GetClock reads the device clock, interpreted in the local time zone
func (c *Client) GetClock(ctx context.Context) (time.Time, error) {
	var t time.Time
	desc, err := c.descriptor(ctx)
	if err != nil {
		return t, err
	}
	loc := c.clock.Now().Location()
	err = c.withRetry(ctx, "get clock", func(ctx context.Context) error {
		reply, err := c.conn.Exchange(ctx, protocol.BuildClockQuery(), desc.Generation, protocol.ClockResponseSize)
		if err != nil {
			return err
		}
		t, err = protocol.ParseClockResponse(reply, loc)
		return err
	})
	return t, err
}

// SetClock sets the device clock from the client's clock
func (c *Client) SetClock(ctx context.Context) error {
	return c.SetClockTo(ctx, c.clock.Now())
}

// SetClockTo sets the device clock to t in t's location
func (c *Client) SetClockTo(ctx context.Context, t time.Time) error {
	if y := t.Year(); y < 2000 || y > 2255 {
		return protocol.Errorf(protocol.KindInvalidRange, "year %d outside 2000-2255", y)
	}
	desc, err := c.descriptor(ctx)
	if err != nil {
		return err
	}
	f := protocol.BuildClockSet(t)
	return c.withRetry(ctx, "set clock", func(ctx context.Context) error {
		return c.conn.Send(ctx, f, desc.Generation)
	})
}

// silentOrHungUp reports whether err means the device ignored or refused a
// frame, as opposed to answering it badly.
func silentOrHungUp(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNRESET)
}

func withDefaultPort(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(addr, strconv.Itoa(protocol.DefaultPort))
}

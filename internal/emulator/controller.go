package emulator

import (
	"fmt"
	"sync"
	"time"

	"github.com/muurk/fluxled/internal/models"
	"github.com/muurk/fluxled/internal/protocol"
)

// state payload offsets, mirroring what real firmware reports
const (
	offModel   = 0
	offPower   = 1
	offPattern = 2
	offDelay   = 4
	offRed     = 5
	offGreen   = 6
	offBlue    = 7
	offWarm    = 8
	offCool    = 10
)

// initialState is a captured RGBW state: on, solid red, firmware 4
var initialState = [protocol.StatePayloadSize]byte{0x44, 0x23, 0x61, 0x21, 0x10, 0xff, 0x00, 0x00, 0x00, 0x04, 0x00, 0x0f}

// ControllerOption configures a Controller
type ControllerOption func(*Controller)

// WithID sets the hardware id reported in discovery replies
func WithID(id string) ControllerOption {
	return func(c *Controller) { c.id = id }
}

// WithNow replaces the wall clock the device clock is derived from
func WithNow(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

// WithState sets the initial 12 byte state payload. The model byte is
// always taken from the descriptor.
func WithState(payload [protocol.StatePayloadSize]byte) ControllerOption {
	return func(c *Controller) { c.state = payload }
}

// Controller is the in-memory model of one LED controller. It applies
// commands the way firmware does and produces the replies firmware sends.
type Controller struct {
	desc models.Descriptor
	id   string
	now  func() time.Time

	mu          sync.Mutex
	state       [protocol.StatePayloadSize]byte
	timers      [protocol.TimerTableSize]byte
	clockOffset time.Duration
	received    []protocol.Frame
	dropNext    int
	corruptNext int
}

// NewController creates a controller behaving like desc
func NewController(desc models.Descriptor, opts ...ControllerOption) *Controller {
	c := &Controller{
		desc:  desc,
		id:    fmt.Sprintf("ACCF23%06X", int(desc.ModelNum)),
		now:   time.Now,
		state: initialState,
	}
	for i := 0; i < len(c.timers); i += 14 {
		c.timers[i] = 0x0f
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state[offModel] = desc.ModelNum
	return c
}

// Descriptor returns the model profile the controller emulates
func (c *Controller) Descriptor() models.Descriptor {
	return c.desc
}

// ID returns the hardware id
func (c *Controller) ID() string {
	return c.id
}

// State returns the current state payload
func (c *Controller) State() [protocol.StatePayloadSize]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetState replaces the state payload, keeping the model byte
func (c *Controller) SetState(payload [protocol.StatePayloadSize]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload[offModel] = c.desc.ModelNum
	c.state = payload
}

// Timers returns the stored timer table
func (c *Controller) Timers() [protocol.TimerTableSize]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timers
}

// Clock returns the device's notion of the current time
func (c *Controller) Clock() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now().Add(c.clockOffset)
}

// Received returns every command frame handled so far
func (c *Controller) Received() []protocol.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]protocol.Frame, len(c.received))
	copy(out, c.received)
	return out
}

// DropNext makes the controller hang up instead of handling the next n
// requests.
func (c *Controller) DropNext(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropNext = n
}

// CorruptNext makes the next n replies carry a bad checksum
func (c *Controller) CorruptNext(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.corruptNext = n
}

// DiscoveryReply returns the reply to a discovery broadcast for ip
func (c *Controller) DiscoveryReply(ip string) string {
	model := "AK001-ZJ2145"
	if len(c.desc.Advertised) > 0 {
		model = c.desc.Advertised[0]
	}
	return fmt.Sprintf("%s,%s,%s", ip, c.id, model)
}

// CommandSize returns the full size of a legacy command with the given
// opcode, checksum included.
func (c *Controller) CommandSize(opcode byte) (int, bool) {
	switch opcode {
	case protocol.OpQueryState, protocol.OpPower:
		return 4, true
	case protocol.OpQueryTimers, protocol.OpQueryClock, protocol.OpPreset:
		return 5, true
	case protocol.OpLevels, protocol.OpLevelsTemp:
		if c.desc.NineByteLevels {
			return 9, true
		}
		return 8, true
	case protocol.OpCustom:
		return 70, true
	case protocol.OpSetTimers:
		return 1 + protocol.TimerTableSize + 2 + 1, true
	case protocol.OpSetClock:
		return 12, true
	}
	return 0, false
}

// result of handling one request
type outcome int

const (
	outcomeReply outcome = iota
	outcomeSilent
	outcomeDrop
)

// handle applies f and returns the reply, if any. corrupt reports that the
// reply must be sent with a bad checksum.
func (c *Controller) handle(f *protocol.Frame) (reply *protocol.Frame, corrupt bool, o outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dropNext > 0 {
		c.dropNext--
		return nil, false, outcomeDrop
	}
	c.received = append(c.received, *f)

	reply = c.applyLocked(f)
	if reply == nil {
		return nil, false, outcomeSilent
	}
	if c.corruptNext > 0 {
		c.corruptNext--
		corrupt = true
	}
	return reply, corrupt, outcomeReply
}

func (c *Controller) applyLocked(f *protocol.Frame) *protocol.Frame {
	p := f.Payload
	switch f.Opcode {
	case protocol.OpQueryState:
		payload := make([]byte, len(c.state))
		copy(payload, c.state[:])
		return &protocol.Frame{Opcode: protocol.OpQueryState, Payload: payload}

	case protocol.OpPower:
		if len(p) > 0 && (p[0] == protocol.PowerOn || p[0] == protocol.PowerOff) {
			c.state[offPower] = p[0]
		}
		return &protocol.Frame{Opcode: protocol.Terminator, Payload: []byte{protocol.OpPower, c.state[offPower]}}

	case protocol.OpLevels, protocol.OpLevelsTemp:
		c.applyLevelsLocked(p)

	case protocol.OpPreset:
		if len(p) >= 2 {
			c.state[offPattern] = p[0]
			c.state[offDelay] = p[1]
		}

	case protocol.OpPresetV2:
		if len(p) >= 2 {
			c.state[offPattern] = p[0]
			c.state[offDelay] = p[1]
		}

	case protocol.OpCustom:
		if len(p) >= 67 {
			c.state[offPattern] = 0x60
			c.state[offDelay] = p[len(p)-4]
		}

	case protocol.OpQueryTimers:
		payload := make([]byte, 0, protocol.TimerTableSize+2)
		payload = append(payload, protocol.OpQueryTimers)
		payload = append(payload, c.timers[:]...)
		payload = append(payload, 0x00)
		return &protocol.Frame{Opcode: protocol.Terminator, Payload: payload}

	case protocol.OpSetTimers:
		if len(p) >= protocol.TimerTableSize {
			copy(c.timers[:], p[:protocol.TimerTableSize])
		}
		return &protocol.Frame{Opcode: protocol.Terminator, Payload: []byte{protocol.OpSetTimers, 0x00}}

	case protocol.OpQueryClock:
		t := c.now().Add(c.clockOffset)
		wd := byte(t.Weekday())
		if wd == 0 {
			wd = 7
		}
		return &protocol.Frame{Opcode: protocol.Terminator, Payload: []byte{
			protocol.OpQueryClock, 0x14,
			byte(t.Year() - 2000), byte(t.Month()), byte(t.Day()),
			byte(t.Hour()), byte(t.Minute()), byte(t.Second()),
			wd, 0x00,
		}}

	case protocol.OpSetClock:
		if len(p) >= 7 {
			now := c.now()
			set := time.Date(int(p[1])+2000, time.Month(p[2]), int(p[3]), int(p[4]), int(p[5]), int(p[6]), 0, now.Location())
			c.clockOffset = set.Sub(now)
		}
	}
	return nil
}

func (c *Controller) applyLevelsLocked(p []byte) {
	if c.desc.Generation == protocol.V2 {
		if len(p) >= 4 {
			c.state[offRed], c.state[offGreen], c.state[offBlue] = p[1], p[2], p[3]
			c.state[offPattern] = 0x61
		}
		return
	}

	var r, g, b, ww, cw, mode byte
	switch {
	case c.desc.NineByteLevels && len(p) >= 7:
		r, g, b, ww, cw, mode = p[0], p[1], p[2], p[3], p[4], p[5]
	case len(p) >= 6:
		r, g, b, ww, mode = p[0], p[1], p[2], p[3], p[4]
		cw = c.state[offCool]
	default:
		return
	}

	if protocol.WriteMode(mode) != protocol.WriteWhites {
		c.state[offRed], c.state[offGreen], c.state[offBlue] = r, g, b
	}
	if protocol.WriteMode(mode) != protocol.WriteColors {
		c.state[offWarm], c.state[offCool] = ww, cw
	}
	c.state[offPattern] = 0x61
}

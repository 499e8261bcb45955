package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/fluxled/internal/logging"
	"github.com/muurk/fluxled/internal/protocol"
)

// DefaultTimeout bounds each dial and each request
const DefaultTimeout = 5 * time.Second

// maxSeq is the highest V2 sequence number before wrapping to zero
const maxSeq = 0xfe

// Dialer opens network connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Option configures a Conn
type Option func(*Conn)

// WithLogger sets the logger used for connection and frame events
func WithLogger(l *zap.Logger) Option {
	return func(c *Conn) { c.log = l }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Conn) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithDialer replaces the network dialer
func WithDialer(d Dialer) Option {
	return func(c *Conn) { c.dialer = d }
}

// Conn is a serialized request/response channel to one controller.
// It is safe for concurrent use; requests are processed one at a time.
type Conn struct {
	addr    string
	timeout time.Duration
	dialer  Dialer
	log     *zap.Logger

	mu   sync.Mutex
	conn net.Conn
	seq  byte
}

// New returns an unconnected Conn for addr ("host:port"). The first request
// dials.
func New(addr string, opts ...Option) *Conn {
	c := &Conn{
		addr:    addr,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dialer == nil {
		c.dialer = &net.Dialer{}
	}
	c.log = logging.Or(c.log).With(zap.String("addr", addr))
	return c
}

// Dial returns a connected Conn for addr
func Dial(ctx context.Context, addr string, opts ...Option) (*Conn, error) {
	c := New(addr, opts...)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Addr returns the remote address
func (c *Conn) Addr() string {
	return c.addr
}

// Timeout returns the per-request timeout
func (c *Conn) Timeout() time.Duration {
	return c.timeout
}

// Exchange writes f and reads one reply. For legacy frames expected is the
// full reply size in bytes, checksum included; V2 replies size themselves
// and ignore it.
func (c *Conn) Exchange(ctx context.Context, f protocol.Frame, gen protocol.Generation, expected int) (*protocol.Frame, error) {
	if gen == protocol.Legacy && expected < protocol.LegacyMinFrameSize {
		return nil, protocol.Errorf(protocol.KindInvalidRange, "expected reply size %d is below the minimum frame", expected)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	conn, done, err := c.beginLocked(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	if err := c.writeLocked(ctx, conn, f, gen); err != nil {
		return nil, err
	}

	raw, err := c.readLocked(conn, gen, expected)
	if err != nil {
		return nil, c.failLocked(ctx, "read", err)
	}
	logging.LogFrame(c.log, c.addr, "rx", raw)

	reply, err := protocol.DecodeResponse(raw, gen)
	if err != nil {
		// The stream is out of step with the protocol; start over.
		c.dropLocked()
		return nil, err
	}
	return reply, nil
}

// Send writes f without waiting for a reply
func (c *Conn) Send(ctx context.Context, f protocol.Frame, gen protocol.Generation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, done, err := c.beginLocked(ctx)
	if err != nil {
		return err
	}
	defer done()

	return c.writeLocked(ctx, conn, f, gen)
}

// Reconnect closes any open socket and dials again
func (c *Conn) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLocked()
	return c.connectLocked(ctx)
}

// Close closes the socket. A later request dials again.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	logging.LogConnection(c.log, c.addr, "closed")
	return err
}

// beginLocked ensures a socket, applies the request deadline and arranges
// for context cancellation to interrupt blocked I/O. The returned func must
// be called when the request ends.
func (c *Conn) beginLocked(ctx context.Context) (net.Conn, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if c.conn == nil {
		if err := c.connectLocked(ctx); err != nil {
			return nil, nil, err
		}
	}
	conn := c.conn

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		c.dropLocked()
		return nil, nil, fmt.Errorf("failed to set deadline: %w", err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	return conn, func() { stop() }, nil
}

func (c *Conn) connectLocked(ctx context.Context) error {
	dctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(dctx, "tcp", c.addr)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("failed to connect to %s: %w", c.addr, err)
	}
	c.conn = conn
	logging.LogConnection(c.log, c.addr, "connected")
	return nil
}

func (c *Conn) writeLocked(ctx context.Context, conn net.Conn, f protocol.Frame, gen protocol.Generation) error {
	if gen == protocol.V2 {
		f.Seq = c.nextSeqLocked()
	}
	data := protocol.EncodeFrame(f, gen)
	logging.LogFrame(c.log, c.addr, "tx", data)

	if _, err := conn.Write(data); err != nil {
		return c.failLocked(ctx, "write", err)
	}
	return nil
}

func (c *Conn) readLocked(conn net.Conn, gen protocol.Generation, expected int) ([]byte, error) {
	if gen != protocol.V2 {
		buf := make([]byte, expected)
		if _, err := io.ReadFull(conn, buf); err != nil {
			return nil, err
		}
		return buf, nil
	}

	header := make([]byte, protocol.V2HeaderSize)
	if _, err := io.ReadFull(conn, header); err != nil {
		return nil, err
	}
	n, err := protocol.V2BodyLength(header)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, protocol.V2HeaderSize+n)
	copy(buf, header)
	if _, err := io.ReadFull(conn, buf[protocol.V2HeaderSize:]); err != nil {
		return nil, err
	}
	return buf, nil
}

// failLocked drops the socket after an I/O error and reports the context
// error instead when the context ended the request.
func (c *Conn) failLocked(ctx context.Context, op string, err error) error {
	c.dropLocked()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	c.log.Debug("I/O failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s %s: %w", op, c.addr, err)
}

func (c *Conn) dropLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (c *Conn) nextSeqLocked() byte {
	s := c.seq
	if c.seq >= maxSeq {
		c.seq = 0
	} else {
		c.seq++
	}
	return s
}

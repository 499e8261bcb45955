package emulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/fluxled/internal/discovery"
	"github.com/muurk/fluxled/internal/logging"
	"github.com/muurk/fluxled/internal/protocol"
)

// idleTimeout closes connections that send nothing for this long
const idleTimeout = 2 * time.Minute

// Server exposes a Controller on TCP and, optionally, answers discovery
// broadcasts on UDP.
type Server struct {
	controller *Controller
	log        *zap.Logger

	listener net.Listener
	udp      *net.UDPConn

	wg          sync.WaitGroup
	mu          sync.Mutex
	activeConns map[string]net.Conn
	closed      bool
}

// New creates a server for controller. A nil logger uses the global logger.
func New(controller *Controller, log *zap.Logger) *Server {
	return &Server{
		controller:  controller,
		log:         logging.Or(log),
		activeConns: make(map[string]net.Conn),
	}
}

// Controller returns the emulated controller
func (s *Server) Controller() *Controller {
	return s.controller
}

// Listen binds the TCP command listener and starts accepting in the
// background.
func (s *Server) Listen(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	s.log.Info("Emulator listening for connections",
		zap.String("addr", listener.Addr().String()),
		zap.String("model", s.controller.Descriptor().String()),
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptConnections()
	}()
	return nil
}

// ListenDiscovery binds a UDP socket that answers discovery broadcasts
// with replies naming advertiseIP.
func (s *Server) ListenDiscovery(addr, advertiseIP string) error {
	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return fmt.Errorf("failed to resolve discovery address: %w", err)
	}
	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return fmt.Errorf("failed to create discovery socket: %w", err)
	}
	s.udp = conn

	s.log.Info("Emulator answering discovery", zap.String("addr", conn.LocalAddr().String()))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.answerDiscovery(conn, advertiseIP)
	}()
	return nil
}

// Addr returns the TCP listen address
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// DiscoveryAddr returns the UDP discovery address
func (s *Server) DiscoveryAddr() string {
	if s.udp == nil {
		return ""
	}
	return s.udp.LocalAddr().String()
}

// acceptConnections accepts and handles incoming connections
func (s *Server) acceptConnections() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Error("Failed to accept connection", zap.Error(err))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection serves requests on one connection until it closes
func (s *Server) handleConnection(conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.activeConns[remoteAddr] = conn
	s.mu.Unlock()

	defer func() {
		_ = conn.Close()
		s.mu.Lock()
		delete(s.activeConns, remoteAddr)
		s.mu.Unlock()
		logging.LogConnection(s.log, remoteAddr, "connection_closed")
	}()

	logging.LogConnection(s.log, remoteAddr, "connection_accepted")

	for {
		if err := conn.SetReadDeadline(time.Now().Add(idleTimeout)); err != nil {
			return
		}

		raw, gen, err := s.readRequest(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.log.Debug("Read failed", zap.String("remote_addr", remoteAddr), zap.Error(err))
			}
			return
		}
		logging.LogFrame(s.log, remoteAddr, "rx", raw)

		req, err := protocol.DecodeResponse(raw, gen)
		if err != nil {
			s.log.Warn("Rejected request", zap.String("remote_addr", remoteAddr), zap.Error(err))
			return
		}

		reply, corrupt, o := s.controller.handle(req)
		switch o {
		case outcomeDrop:
			return
		case outcomeSilent:
			continue
		}

		reply.Seq = req.Seq
		reply.Remote = req.Remote
		data := protocol.EncodeFrame(*reply, gen)
		if corrupt {
			data[len(data)-1]++
		}
		logging.LogFrame(s.log, remoteAddr, "tx", data)

		if _, err := conn.Write(data); err != nil {
			s.log.Debug("Write failed", zap.String("remote_addr", remoteAddr), zap.Error(err))
			return
		}
	}
}

// readRequest reads one command frame, detecting the V2 envelope by its
// first byte.
func (s *Server) readRequest(conn net.Conn) ([]byte, protocol.Generation, error) {
	first := make([]byte, 1)
	if _, err := io.ReadFull(conn, first); err != nil {
		return nil, protocol.Legacy, err
	}

	if first[0] == protocol.V2Magic[0] {
		header := make([]byte, protocol.V2HeaderSize)
		header[0] = first[0]
		if _, err := io.ReadFull(conn, header[1:]); err != nil {
			return nil, protocol.V2, err
		}
		n, err := protocol.V2BodyLength(header)
		if err != nil {
			return nil, protocol.V2, err
		}
		buf := make([]byte, protocol.V2HeaderSize+n)
		copy(buf, header)
		if _, err := io.ReadFull(conn, buf[protocol.V2HeaderSize:]); err != nil {
			return nil, protocol.V2, err
		}
		return buf, protocol.V2, nil
	}

	size, ok := s.controller.CommandSize(first[0])
	if !ok {
		return nil, protocol.Legacy, fmt.Errorf("unknown opcode 0x%02x", first[0])
	}
	buf := make([]byte, size)
	buf[0] = first[0]
	if _, err := io.ReadFull(conn, buf[1:]); err != nil {
		return nil, protocol.Legacy, err
	}
	return buf, protocol.Legacy, nil
}

func (s *Server) answerDiscovery(conn *net.UDPConn, advertiseIP string) {
	buf := make([]byte, 64)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.log.Debug("Discovery read failed", zap.Error(err))
			}
			return
		}
		logging.LogDatagram(s.log, from.String(), buf[:n])
		if string(buf[:n]) != discovery.DiscoveryMessage {
			continue
		}
		ip := advertiseIP
		if ip == "" {
			ip = from.IP.String()
		}
		reply := s.controller.DiscoveryReply(ip)
		if _, err := conn.WriteToUDP([]byte(reply), from); err != nil {
			s.log.Debug("Discovery reply failed", zap.Error(err))
		}
	}
}

// ShutdownTimeout bounds how long Run waits for connections to close
const ShutdownTimeout = 5 * time.Second

// Run blocks until ctx is done and then shuts the server down
func (s *Server) Run(ctx context.Context) error {
	<-ctx.Done()
	s.log.Info("Shutdown signal received, stopping emulator...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown closes the listeners and all active connections and waits for
// their goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down emulator...")

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.log.Error("Error closing listener", zap.Error(err))
		}
	}
	if s.udp != nil {
		_ = s.udp.Close()
	}

	s.mu.Lock()
	for addr, conn := range s.activeConns {
		s.log.Debug("Closing active connection", zap.String("remote_addr", addr))
		_ = conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("All connections closed gracefully")
		return nil
	case <-ctx.Done():
		s.log.Warn("Shutdown timeout, forcing close")
		return ctx.Err()
	}
}

// ActiveConnections returns the number of open client connections
func (s *Server) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}

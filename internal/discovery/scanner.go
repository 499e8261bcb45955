package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/fluxled/internal/logging"
	"github.com/muurk/fluxled/internal/models"
	"github.com/muurk/fluxled/internal/protocol"
)

const (
	// DiscoveryPort is the UDP port controllers listen on for discovery
	DiscoveryPort = 48899

	// DiscoveryMessage is the broadcast payload controllers answer
	DiscoveryMessage = "HF-A11ASSISTHREAD"

	// DefaultScanTimeout is the default timeout for device discovery
	DefaultScanTimeout = 10 * time.Second

	// DefaultBroadcastAddress is the limited broadcast address
	DefaultBroadcastAddress = "255.255.255.255"

	// rebroadcastDivisor splits the timeout into re-send intervals
	rebroadcastDivisor = 3

	maxDatagramSize = 512
)

// Scanner handles UDP broadcast discovery
type Scanner struct {
	// Timeout is the maximum time to wait for replies
	Timeout time.Duration

	// BroadcastAddress is where the discovery payload is sent. A unicast
	// address turns the scan into a targeted probe that ends on its reply.
	BroadcastAddress string

	// Port is the destination UDP port
	Port int

	// ListenAddress is the local UDP address to bind; empty picks any port
	ListenAddress string

	// Registry names advertised models
	Registry *models.Registry

	// Logger receives datagram and scan events; nil uses the global logger
	Logger *zap.Logger
}

// NewScanner creates a scanner with default settings
func NewScanner(registry *models.Registry) *Scanner {
	if registry == nil {
		registry = models.NewRegistry()
	}
	return &Scanner{
		Timeout:          DefaultScanTimeout,
		BroadcastAddress: DefaultBroadcastAddress,
		Port:             DiscoveryPort,
		Registry:         registry,
	}
}

// ScanForDevices discovers controllers using the scanner's settings
func (s *Scanner) ScanForDevices() ([]ScanResult, error) {
	return s.ScanForDevicesWithContext(context.Background())
}

// ScanForDevicesWithContext discovers controllers and collects every result
// until the scan ends.
func (s *Scanner) ScanForDevicesWithContext(ctx context.Context) ([]ScanResult, error) {
	ch, err := s.Scan(ctx, s.Timeout, s.BroadcastAddress)
	if err != nil {
		return nil, err
	}
	results := make([]ScanResult, 0)
	for r := range ch {
		results = append(results, r)
	}
	return results, nil
}

// Probe sends the discovery payload to a single address and returns its
// reply, or false when it does not answer within the timeout.
func (s *Scanner) Probe(ctx context.Context, address string) (ScanResult, bool, error) {
	ch, err := s.Scan(ctx, s.Timeout, address)
	if err != nil {
		return ScanResult{}, false, err
	}
	var (
		found ScanResult
		ok    bool
	)
	for r := range ch {
		if r.Address == address {
			found, ok = r, true
		}
	}
	return found, ok, nil
}

// Scan broadcasts the discovery payload and streams replies on the returned
// channel, which is closed when the timeout elapses, the context is done or
// a targeted address answers. An error is returned only when the socket
// cannot be set up.
func (s *Scanner) Scan(ctx context.Context, timeout time.Duration, broadcastAddr string) (<-chan ScanResult, error) {
	if timeout <= 0 {
		timeout = DefaultScanTimeout
	}
	if broadcastAddr == "" {
		broadcastAddr = DefaultBroadcastAddress
	}
	port := s.Port
	if port == 0 {
		port = DiscoveryPort
	}

	dst, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(broadcastAddr, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve broadcast address %q: %w", broadcastAddr, err)
	}

	var laddr *net.UDPAddr
	if s.ListenAddress != "" {
		laddr, err = net.ResolveUDPAddr("udp4", s.ListenAddress)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve listen address %q: %w", s.ListenAddress, err)
		}
	}

	// Go enables SO_BROADCAST on datagram sockets.
	conn, err := net.ListenUDP("udp4", laddr)
	if err != nil {
		return nil, fmt.Errorf("failed to open discovery socket: %w", err)
	}

	out := make(chan ScanResult)
	go s.run(ctx, conn, dst, timeout, out)
	return out, nil
}

func (s *Scanner) run(ctx context.Context, conn *net.UDPConn, dst *net.UDPAddr, timeout time.Duration, out chan<- ScanResult) {
	defer close(out)
	defer conn.Close()

	log := logging.Or(s.Logger).With(zap.String("target", dst.String()))
	registry := s.Registry
	if registry == nil {
		registry = models.NewRegistry()
	}

	deadline := time.Now().Add(timeout)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	// Unblock a pending read as soon as the scan is over.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	interval := timeout / rebroadcastDivisor
	send := func() {
		if _, err := conn.WriteToUDP([]byte(DiscoveryMessage), dst); err != nil {
			log.Warn("Failed to send discovery broadcast", zap.Error(err))
		}
	}

	send()
	nextSend := time.Now().Add(interval)
	seen := make(map[string]struct{})
	target := dst.IP.String()
	buf := make([]byte, maxDatagramSize)

	for {
		if ctx.Err() != nil {
			return
		}

		readDeadline := nextSend
		if deadline.Before(readDeadline) {
			readDeadline = deadline
		}
		if err := conn.SetReadDeadline(readDeadline); err != nil {
			log.Warn("Failed to set read deadline", zap.Error(err))
			return
		}

		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				if ctx.Err() != nil {
					return
				}
				if !time.Now().Before(nextSend) {
					send()
					nextSend = time.Now().Add(interval)
				}
				continue
			}
			if ctx.Err() == nil {
				log.Warn("Discovery read failed", zap.Error(err))
			}
			return
		}

		data := buf[:n]
		logging.LogDatagram(log, from.String(), data)

		if string(data) == DiscoveryMessage {
			continue
		}

		addr, id, model, ok := parseReply(data)
		if !ok {
			log.Debug("Ignoring malformed discovery reply", zap.String("from", from.String()))
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}

		result := ScanResult{
			Address:      addr,
			Port:         protocol.DefaultPort,
			ID:           id,
			Model:        model,
			ModelName:    registry.NameForAdvertised(model),
			DiscoveredAt: time.Now(),
		}
		log.Debug("Discovered device",
			zap.String("address", result.Address),
			zap.String("id", result.ID),
			zap.String("model", result.Model),
		)

		select {
		case out <- result:
		case <-ctx.Done():
			return
		}

		if addr == target {
			return
		}
	}
}

package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// ScanResult describes one controller that answered a discovery broadcast
type ScanResult struct {
	// Address is the IPv4 address the controller reported (e.g., "192.168.1.20")
	Address string

	// Port is the TCP command port (always 5577 on known firmware)
	Port int

	// ID is the hardware identifier, usually the MAC without separators
	ID string

	// Model is the advertised module string (e.g., "AK001-ZJ2145")
	Model string

	// ModelName is the registry's product name for Model
	ModelName string

	// DiscoveredAt is when the reply was received
	DiscoveredAt time.Time
}

// String returns a human-readable representation of the result
func (r ScanResult) String() string {
	return fmt.Sprintf("%s (%s) id=%s model=%s", r.Address, r.ModelName, r.ID, r.Model)
}

// HostPort returns the TCP address used to command the controller
func (r ScanResult) HostPort() string {
	return net.JoinHostPort(r.Address, strconv.Itoa(r.Port))
}

// parseReply splits a discovery reply into address, id and model.
// Trailing fields are ignored.
func parseReply(data []byte) (addr, id, model string, ok bool) {
	text := strings.TrimRight(string(data), "\x00\r\n ")
	fields := strings.Split(text, ",")
	if len(fields) < 3 {
		return "", "", "", false
	}
	addr = strings.TrimSpace(fields[0])
	ip := net.ParseIP(addr)
	if ip == nil || ip.To4() == nil {
		return "", "", "", false
	}
	id = strings.TrimSpace(fields[1])
	if id == "" {
		return "", "", "", false
	}
	return ip.String(), id, strings.TrimSpace(fields[2]), true
}

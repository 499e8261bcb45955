package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/muurk/fluxled/internal/models"
)

// fakeResponder answers every discovery payload with the configured replies
type fakeResponder struct {
	conn    *net.UDPConn
	replies []string
	got     chan string
}

func newFakeResponder(t *testing.T, replies ...string) *fakeResponder {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	r := &fakeResponder{conn: conn, replies: replies, got: make(chan string, 16)}
	t.Cleanup(func() { conn.Close() })
	go r.serve()
	return r
}

func (r *fakeResponder) serve() {
	buf := make([]byte, 256)
	for {
		n, from, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		select {
		case r.got <- string(buf[:n]):
		default:
		}
		if string(buf[:n]) != DiscoveryMessage {
			continue
		}
		for _, reply := range r.replies {
			_, _ = r.conn.WriteToUDP([]byte(reply), from)
		}
	}
}

func (r *fakeResponder) port() int {
	return r.conn.LocalAddr().(*net.UDPAddr).Port
}

func newTestScanner(port int, timeout time.Duration) *Scanner {
	s := NewScanner(models.NewRegistry())
	s.Port = port
	s.Timeout = timeout
	s.BroadcastAddress = "127.0.0.1"
	return s
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantOK    bool
		wantAddr  string
		wantID    string
		wantModel string
	}{
		{"valid", "192.168.1.20,ACCF23AABBCC,AK001-ZJ2145", true, "192.168.1.20", "ACCF23AABBCC", "AK001-ZJ2145"},
		{"extra fields", "10.0.0.3,ID,AK001-ZJ2147,extra", true, "10.0.0.3", "ID", "AK001-ZJ2147"},
		{"empty model", "10.0.0.3,ID,", true, "10.0.0.3", "ID", ""},
		{"trailing newline", "10.0.0.3,ID,M\r\n", true, "10.0.0.3", "ID", "M"},
		{"two fields", "10.0.0.3,ID", false, "", "", ""},
		{"bad ip", "not-an-ip,ID,M", false, "", "", ""},
		{"ipv6", "fe80::1,ID,M", false, "", "", ""},
		{"empty id", "10.0.0.3,,M", false, "", "", ""},
		{"echo", DiscoveryMessage, false, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, id, model, ok := parseReply([]byte(tt.data))
			if ok != tt.wantOK {
				t.Fatalf("parseReply(%q) ok = %v, want %v", tt.data, ok, tt.wantOK)
			}
			if addr != tt.wantAddr || id != tt.wantID || model != tt.wantModel {
				t.Errorf("parseReply(%q) = (%q, %q, %q), want (%q, %q, %q)",
					tt.data, addr, id, model, tt.wantAddr, tt.wantID, tt.wantModel)
			}
		})
	}
}

func TestScan_DeliversEachAddressOnce(t *testing.T) {
	responder := newFakeResponder(t,
		"garbage",
		"10.0.0.7,ACCF23000007,AK001-ZJ2147",
		"10.0.0.7,ACCF23000007,AK001-ZJ2147",
		"10.0.0.8,ACCF23000008,AK001-ZJ2134",
		"127.0.0.1,ACCF23000001,UNKNOWN-MODEL",
	)
	s := newTestScanner(responder.port(), 5*time.Second)

	start := time.Now()
	results, err := s.ScanForDevicesWithContext(context.Background())
	if err != nil {
		t.Fatalf("ScanForDevicesWithContext() error = %v", err)
	}

	// The targeted address answers last, which ends the scan early.
	if elapsed := time.Since(start); elapsed >= 5*time.Second {
		t.Errorf("scan ran %v, expected early stop on targeted reply", elapsed)
	}

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3: %v", len(results), results)
	}

	want := []struct{ addr, id, name string }{
		{"10.0.0.7", "ACCF23000007", "Magic Home Branded RGBW Controller"},
		{"10.0.0.8", "ACCF23000008", "Smart Switch"},
		{"127.0.0.1", "ACCF23000001", models.UnknownModelName},
	}
	for i, w := range want {
		r := results[i]
		if r.Address != w.addr || r.ID != w.id || r.ModelName != w.name {
			t.Errorf("result[%d] = %+v, want addr=%s id=%s name=%s", i, r, w.addr, w.id, w.name)
		}
		if r.Port != 5577 {
			t.Errorf("result[%d].Port = %d, want 5577", i, r.Port)
		}
		if r.DiscoveredAt.IsZero() {
			t.Errorf("result[%d].DiscoveredAt not set", i)
		}
	}

	select {
	case msg := <-responder.got:
		if msg != DiscoveryMessage {
			t.Errorf("responder received %q, want %q", msg, DiscoveryMessage)
		}
	default:
		t.Error("responder never received the discovery payload")
	}
}

func TestScan_NoRepliesReturnsEmpty(t *testing.T) {
	silent := newFakeResponder(t)
	s := newTestScanner(silent.port(), 2*time.Second)

	start := time.Now()
	results, err := s.ScanForDevicesWithContext(context.Background())
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("ScanForDevicesWithContext() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
	if elapsed < 2*time.Second || elapsed > 4*time.Second {
		t.Errorf("scan took %v, want about 2s", elapsed)
	}
}

func TestScan_RebroadcastsWhileSilent(t *testing.T) {
	silent := newFakeResponder(t)
	s := newTestScanner(silent.port(), 900*time.Millisecond)

	if _, err := s.ScanForDevicesWithContext(context.Background()); err != nil {
		t.Fatalf("ScanForDevicesWithContext() error = %v", err)
	}

	if n := len(silent.got); n < 2 {
		t.Errorf("payload sent %d times, want at least 2", n)
	}
}

func TestScan_ContextCancel(t *testing.T) {
	silent := newFakeResponder(t)
	s := newTestScanner(silent.port(), 10*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := s.Scan(ctx, s.Timeout, s.BroadcastAddress)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	time.AfterFunc(100*time.Millisecond, cancel)

	select {
	case _, open := <-ch:
		if open {
			t.Error("expected channel to close without results")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("scan did not stop after cancel")
	}
}

func TestScan_SetupError(t *testing.T) {
	s := NewScanner(nil)
	if _, err := s.Scan(context.Background(), time.Second, "::1"); err == nil {
		t.Error("expected error for IPv6 broadcast address")
	}

	s.ListenAddress = "127.0.0.1:notaport"
	if _, err := s.Scan(context.Background(), time.Second, "127.0.0.1"); err == nil {
		t.Error("expected error for invalid listen address")
	}
}

func TestProbe(t *testing.T) {
	responder := newFakeResponder(t, "127.0.0.1,ACCF23AABBCC,AK001-ZJ2146")
	s := newTestScanner(responder.port(), 3*time.Second)

	r, ok, err := s.Probe(context.Background(), "127.0.0.1")
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if !ok {
		t.Fatal("Probe() found nothing")
	}
	if r.ModelName != "Magic Home Branded RGB Controller" {
		t.Errorf("ModelName = %q", r.ModelName)
	}
	if r.HostPort() != "127.0.0.1:5577" {
		t.Errorf("HostPort() = %q", r.HostPort())
	}
}

package probe

import (
	"errors"
	"net"
	"net/netip"
	"os"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"getmac/internal/checksum"
	macerrors "getmac/internal/errors"
	"getmac/internal/testutils"
)

func TestNewEchoRequest(t *testing.T) {
	req := NewEchoRequest(0xbeef, Sequence)
	if len(req) != HeaderLen {
		t.Fatalf("len = %d, want %d", len(req), HeaderLen)
	}
	if !checksum.Verify(req) {
		t.Errorf("checksum does not verify: % x", req)
	}

	msg, err := icmp.ParseMessage(1, req)
	if err != nil {
		t.Fatalf("icmp.ParseMessage: %v", err)
	}
	if msg.Type != ipv4.ICMPTypeEcho || msg.Code != 0 {
		t.Errorf("type/code = %v/%d, want echo/0", msg.Type, msg.Code)
	}
	echo, ok := msg.Body.(*icmp.Echo)
	if !ok {
		t.Fatalf("body is %T, want *icmp.Echo", msg.Body)
	}
	if echo.ID != 0xbeef || echo.Seq != 1 {
		t.Errorf("id/seq = %#x/%d, want 0xbeef/1", echo.ID, echo.Seq)
	}
}

func TestNewEchoRequestMatchesMarshal(t *testing.T) {
	for _, id := range []uint16{0, 1, 0x1234, 0xffff} {
		want, err := (&icmp.Message{
			Type: ipv4.ICMPTypeEcho,
			Body: &icmp.Echo{ID: int(id), Seq: 1},
		}).Marshal(nil)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if got := NewEchoRequest(id, 1); string(got) != string(want) {
			t.Errorf("NewEchoRequest(%#x) = % x, want % x", id, got, want)
		}
	}
}

type mockTransmitter struct {
	written  []byte
	dst      net.Addr
	deadline time.Time
	writeFn  func(b []byte) (int, error)
	closed   int
}

func (m *mockTransmitter) WriteTo(b []byte, dst net.Addr) (int, error) {
	m.written = append([]byte(nil), b...)
	m.dst = dst
	if m.writeFn != nil {
		return m.writeFn(b)
	}
	return len(b), nil
}

func (m *mockTransmitter) SetWriteDeadline(t time.Time) error {
	m.deadline = t
	return nil
}

func (m *mockTransmitter) Close() error {
	m.closed++
	return nil
}

func TestSend(t *testing.T) {
	logger, logBuf := testutils.SetupTestLogger()
	target := netip.MustParseAddr("192.0.2.10")

	tests := []struct {
		name       string
		writeFn    func(b []byte) (int, error)
		wantKind   macerrors.Kind
		wantReason string
		wantLog    string
	}{
		{name: "success"},
		{
			name:       "send timeout",
			writeFn:    func(b []byte) (int, error) { return 0, &net.OpError{Op: "write", Err: os.ErrDeadlineExceeded} },
			wantKind:   macerrors.KindTransmit,
			wantReason: "send timed out",
			wantLog:    "timed out",
		},
		{
			name:       "send error",
			writeFn:    func(b []byte) (int, error) { return 0, os.NewSyscallError("sendto", unix.ENETUNREACH) },
			wantKind:   macerrors.KindTransmit,
			wantReason: "send failed",
			wantLog:    "Send failed",
		},
		{
			name:       "short write",
			writeFn:    func(b []byte) (int, error) { return 4, nil },
			wantKind:   macerrors.KindTransmit,
			wantReason: "short write",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logBuf.Reset()
			tx := &mockTransmitter{writeFn: tt.writeFn}
			err := Send(tx, target, 0x4242, Sequence, 2*time.Second, logger)

			if tt.wantKind == macerrors.KindUnknown {
				if err != nil {
					t.Fatalf("Send() error = %v", err)
				}
				if tx.deadline.IsZero() {
					t.Error("send deadline not installed")
				}
				ipAddr, ok := tx.dst.(*net.IPAddr)
				if !ok || !ipAddr.IP.Equal(net.ParseIP("192.0.2.10")) {
					t.Errorf("dst = %v, want 192.0.2.10", tx.dst)
				}
				if len(tx.written) != HeaderLen {
					t.Errorf("wrote %d bytes, want %d", len(tx.written), HeaderLen)
				}
				return
			}

			if got := macerrors.KindOf(err); got != tt.wantKind {
				t.Fatalf("KindOf(Send()) = %v, want %v (err %v)", got, tt.wantKind, err)
			}
			if !strings.Contains(err.Error(), tt.wantReason) {
				t.Errorf("error %q does not contain %q", err, tt.wantReason)
			}
			if tt.wantLog != "" && !strings.Contains(logBuf.String(), tt.wantLog) {
				t.Errorf("log %q does not contain %q", logBuf.String(), tt.wantLog)
			}
		})
	}
}

func TestSendZeroTimeoutSkipsDeadline(t *testing.T) {
	logger, _ := testutils.SetupTestLogger()
	tx := &mockTransmitter{}
	if err := Send(tx, netip.MustParseAddr("10.0.0.1"), 1, Sequence, 0, logger); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if !tx.deadline.IsZero() {
		t.Errorf("deadline = %v, want zero", tx.deadline)
	}
}

func TestListenPermissionError(t *testing.T) {
	original := icmpListenPacket
	defer func() { icmpListenPacket = original }()

	icmpListenPacket = func(network, address string) (Transmitter, error) {
		if network != "ip4:icmp" {
			t.Errorf("network = %q, want ip4:icmp", network)
		}
		return nil, &net.OpError{Op: "listen", Net: network, Err: os.NewSyscallError("socket", unix.EPERM)}
	}

	tx, err := Listen()
	if tx != nil {
		t.Errorf("Listen() returned non-nil transmitter on error")
	}
	if !macerrors.Is(err, macerrors.KindResource) {
		t.Fatalf("Listen() error kind = %v, want resource", macerrors.KindOf(err))
	}
	if !errors.Is(err, unix.EPERM) {
		t.Errorf("Listen() error does not wrap EPERM: %v", err)
	}
}

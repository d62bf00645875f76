package probe

import (
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"time"

	"golang.org/x/net/icmp"

	macerrors "getmac/internal/errors"
)

// Transmitter sends raw ICMP datagrams. *icmp.PacketConn satisfies it.
type Transmitter interface {
	WriteTo(b []byte, dst net.Addr) (int, error)
	SetWriteDeadline(t time.Time) error
	Close() error
}

// icmpListenPacket is a package-level variable so tests can avoid raw sockets.
var icmpListenPacket = func(network, address string) (Transmitter, error) {
	c, err := icmp.ListenPacket(network, address)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Listen opens the raw ip4:icmp socket used for the Echo Request.
func Listen() (Transmitter, error) {
	conn, err := icmpListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		return nil, macerrors.Resource("open ICMP socket", err)
	}
	return conn, nil
}

// Send writes one Echo Request to target. A zero timeout leaves the socket
// without a send deadline.
func Send(tx Transmitter, target netip.Addr, id, seq uint16, timeout time.Duration, logger *slog.Logger) error {
	if timeout > 0 {
		if err := tx.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return macerrors.Resource("set send timeout", err)
		}
	}

	req := NewEchoRequest(id, seq)
	dst := &net.IPAddr{IP: net.IP(target.AsSlice())}

	n, err := tx.WriteTo(req, dst)
	if err != nil {
		timedOut := macerrors.IsTimeout(err)
		if timedOut {
			logger.Warn("Send operation timed out.", "target", target, "timeout", timeout)
		} else {
			logger.Warn("Send failed.", "target", target, "error", err)
		}
		return macerrors.Transmit(target.String(), timedOut, err)
	}
	if n != len(req) {
		return macerrors.Transmit(target.String(), false, fmt.Errorf("short write: %d of %d bytes", n, len(req)))
	}

	logger.Debug("Echo request sent.", "target", target, "id", id, "seq", seq)
	return nil
}

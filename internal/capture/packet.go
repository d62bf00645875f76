package capture

import (
	"net"
	"time"

	"github.com/mdlayher/packet"
	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"

	macerrors "getmac/internal/errors"
)

var (
	netInterfaceByName = net.InterfaceByName
	packetListen       = func(ifi *net.Interface, filter []bpf.RawInstruction) (packetConn, error) {
		c, err := packet.Listen(ifi, packet.Raw, unix.ETH_P_ALL, &packet.Config{Filter: filter})
		if err != nil {
			return nil, err
		}
		return c, nil
	}
)

// packetConn is the subset of *packet.Conn used here.
type packetConn interface {
	ReadFrom(b []byte) (int, net.Addr, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// PacketReader reads every frame seen on one interface through an
// AF_PACKET/SOCK_RAW socket.
type PacketReader struct {
	conn packetConn
}

// ListenPacket opens a raw link-layer socket for all EtherTypes, bound to the
// named interface. A nil filter admits every frame.
func ListenPacket(iface string, filter []bpf.RawInstruction) (*PacketReader, error) {
	ifi, err := netInterfaceByName(iface)
	if err != nil {
		return nil, macerrors.Resource("look up capture interface "+iface, err)
	}
	conn, err := packetListen(ifi, filter)
	if err != nil {
		return nil, macerrors.Resource("open capture socket on "+iface, err)
	}
	return &PacketReader{conn: conn}, nil
}

func (r *PacketReader) ReadFrame(b []byte) (int, error) {
	n, _, err := r.conn.ReadFrom(b)
	return n, err
}

func (r *PacketReader) SetReadDeadline(t time.Time) error {
	return r.conn.SetReadDeadline(t)
}

func (r *PacketReader) Close() error {
	return r.conn.Close()
}

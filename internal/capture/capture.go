// Package capture provides link-layer frame sources bound to one interface.
package capture

import (
	"fmt"
	"net"
	"time"
)

// MaxFrameSize is the read buffer size for one frame.
const MaxFrameSize = 65536

// FrameReader yields raw link-layer frames.
type FrameReader interface {
	// ReadFrame blocks until one frame is copied into b or the read deadline
	// passes, in which case the error satisfies errors.IsTimeout.
	ReadFrame(b []byte) (int, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Backend names a capture implementation.
type Backend string

const (
	BackendPacket Backend = "packet"
	BackendPcap   Backend = "pcap"
)

// Options configures Open.
type Options struct {
	Backend Backend
	// Filter, when set, restricts delivery in the kernel to IPv4 ICMP frames
	// whose source is Filter.
	Filter net.IP
}

// Open returns a FrameReader for iface using the configured backend.
func Open(iface string, opts Options) (FrameReader, error) {
	switch opts.Backend {
	case BackendPacket, "":
		filter, err := ICMPSourceFilter(opts.Filter)
		if err != nil {
			return nil, err
		}
		r, err := ListenPacket(iface, filter)
		if err != nil {
			return nil, err
		}
		return r, nil
	case BackendPcap:
		r, err := OpenPcap(iface, PcapFilterExpr(opts.Filter))
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown capture backend %q", opts.Backend)
	}
}

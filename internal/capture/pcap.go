package capture

import (
	"errors"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"

	macerrors "getmac/internal/errors"
)

// pcapPollInterval bounds how long one libpcap read blocks before the
// deadline is rechecked.
const pcapPollInterval = 100 * time.Millisecond

type packetDataSource interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	SetBPFFilter(expr string) error
	Close()
}

var pcapOpenLive = func(device string, snaplen int32, promisc bool, timeout time.Duration) (packetDataSource, error) {
	h, err := pcap.OpenLive(device, snaplen, promisc, timeout)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// PcapReader reads frames through libpcap. libpcap has no socket deadline, so
// the deadline is enforced between buffer timeouts.
type PcapReader struct {
	src packetDataSource
	// deadline is in Unix nanoseconds; zero means none. SetReadDeadline may
	// be called while a read is pending.
	deadline atomic.Int64
}

// OpenPcap opens a live capture on iface. A non-empty filter expression is
// compiled and attached before any frame is read.
func OpenPcap(iface, filter string) (*PcapReader, error) {
	src, err := pcapOpenLive(iface, MaxFrameSize, false, pcapPollInterval)
	if err != nil {
		return nil, macerrors.Resource("open pcap capture on "+iface, err)
	}
	if filter != "" {
		if err := src.SetBPFFilter(filter); err != nil {
			src.Close()
			return nil, macerrors.Resource("set pcap filter", err)
		}
	}
	return &PcapReader{src: src}, nil
}

func (r *PcapReader) ReadFrame(b []byte) (int, error) {
	for {
		if r.expired() {
			return 0, os.ErrDeadlineExceeded
		}
		data, _, err := r.src.ReadPacketData()
		if errors.Is(err, pcap.NextErrorTimeoutExpired) {
			continue
		}
		if err != nil {
			return 0, err
		}
		// A busy link never hits the buffer timeout.
		if r.expired() {
			return 0, os.ErrDeadlineExceeded
		}
		return copy(b, data), nil
	}
}

func (r *PcapReader) expired() bool {
	d := r.deadline.Load()
	return d != 0 && time.Now().UnixNano() >= d
}

func (r *PcapReader) SetReadDeadline(t time.Time) error {
	if t.IsZero() {
		r.deadline.Store(0)
	} else {
		r.deadline.Store(t.UnixNano())
	}
	return nil
}

func (r *PcapReader) Close() error {
	r.src.Close()
	return nil
}

// Package matcher decides, frame by frame, whether captured traffic is the
// awaited Echo Reply, an authoritative failure, or noise.
package matcher

import (
	"net"
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// MinFrameLen is the smallest frame that can hold Ethernet, IPv4 and ICMP headers.
const MinFrameLen = 14 + 20 + 8

// Verdict is the outcome of inspecting one frame.
type Verdict int

const (
	Discard Verdict = iota
	Match
	Unreachable
	TimeExceeded
)

func (v Verdict) String() string {
	switch v {
	case Match:
		return "match"
	case Unreachable:
		return "destination-unreachable"
	case TimeExceeded:
		return "time-exceeded"
	default:
		return "discard"
	}
}

// Terminal reports whether the verdict ends the attempt.
func (v Verdict) Terminal() bool {
	return v != Discard
}

// Decision is the verdict for one frame. HardwareAddr is set only for Match.
type Decision struct {
	Verdict      Verdict
	HardwareAddr net.HardwareAddr
	Reason       string
}

// Matcher holds the correlation state of one attempt. It is not safe for
// concurrent use; decoding buffers are reused between frames.
type Matcher struct {
	target [4]byte
	id     uint16
	seq    uint16

	eth     layers.Ethernet
	ip4     layers.IPv4
	icmp    layers.ICMPv4
	payload gopacket.Payload
	parser  *gopacket.DecodingLayerParser
	decoded []gopacket.LayerType
}

// New returns a Matcher for replies from target carrying id and seq.
func New(target netip.Addr, id, seq uint16) *Matcher {
	m := &Matcher{
		target:  target.As4(),
		id:      id,
		seq:     seq,
		decoded: make([]gopacket.LayerType, 0, 4),
	}
	m.parser = gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, &m.eth, &m.ip4, &m.icmp, &m.payload)
	m.parser.IgnoreUnsupported = true
	return m
}

// Decide inspects one link-layer frame.
func (m *Matcher) Decide(frame []byte) Decision {
	if len(frame) < MinFrameLen {
		return Decision{Verdict: Discard, Reason: "short frame"}
	}

	// Decode errors past the IPv4 layer still leave earlier layers usable.
	_ = m.parser.DecodeLayers(frame, &m.decoded)

	var haveIP, haveICMP bool
	for _, lt := range m.decoded {
		switch lt {
		case layers.LayerTypeIPv4:
			haveIP = true
		case layers.LayerTypeICMPv4:
			haveICMP = true
		}
	}

	if !haveIP {
		return Decision{Verdict: Discard, Reason: "not ipv4"}
	}
	src := m.ip4.SrcIP.To4()
	if src == nil || [4]byte(src) != m.target {
		return Decision{Verdict: Discard, Reason: "source mismatch"}
	}
	if m.ip4.Protocol != layers.IPProtocolICMPv4 || !haveICMP {
		return Decision{Verdict: Discard, Reason: "not icmp"}
	}

	switch m.icmp.TypeCode.Type() {
	case layers.ICMPv4TypeDestinationUnreachable:
		return Decision{Verdict: Unreachable, Reason: m.icmp.TypeCode.String()}
	case layers.ICMPv4TypeTimeExceeded:
		return Decision{Verdict: TimeExceeded, Reason: m.icmp.TypeCode.String()}
	}

	if m.icmp.TypeCode != layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoReply, 0) {
		return Decision{Verdict: Discard, Reason: "not echo reply"}
	}
	if m.icmp.Id != m.id || m.icmp.Seq != m.seq {
		return Decision{Verdict: Discard, Reason: "id/seq mismatch"}
	}

	hw := make(net.HardwareAddr, len(m.eth.SrcMAC))
	copy(hw, m.eth.SrcMAC)
	return Decision{Verdict: Match, HardwareAddr: hw, Reason: "echo reply"}
}

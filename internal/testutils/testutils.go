package testutils

import (
	"bytes"
	"io"
	"log/slog"
	"net"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// SetupTestLogger creates a new slog.Logger that writes to a bytes.Buffer and stdout,
// configured for DEBUG level. Returns the logger and the buffer.
func SetupTestLogger() (*slog.Logger, *bytes.Buffer) {
	var logBuf bytes.Buffer
	// Write to both buffer and stdout for easier debugging during test development
	handler := slog.NewTextHandler(io.MultiWriter(&logBuf, os.Stdout), &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(handler)
	return logger, &logBuf
}

// FrameSpec describes a synthetic Ethernet/IPv4/ICMPv4 frame.
type FrameSpec struct {
	SrcMAC   net.HardwareAddr
	DstMAC   net.HardwareAddr
	SrcIP    string
	DstIP    string
	Type     uint8
	Code     uint8
	ID       uint16
	Seq      uint16
	Payload  []byte
	Protocol layers.IPProtocol // zero means ICMPv4
	Options  []layers.IPv4Option
}

// Common MACs used by tests.
var (
	TargetMAC = net.HardwareAddr{0x02, 0x42, 0xac, 0x11, 0x00, 0x02}
	LocalMAC  = net.HardwareAddr{0x02, 0x42, 0xac, 0x11, 0x00, 0x01}
	OtherMAC  = net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}
)

// BuildFrame serializes fs into raw frame bytes with correct lengths and checksums.
func BuildFrame(fs FrameSpec) []byte {
	if fs.SrcMAC == nil {
		fs.SrcMAC = TargetMAC
	}
	if fs.DstMAC == nil {
		fs.DstMAC = LocalMAC
	}
	proto := fs.Protocol
	if proto == 0 {
		proto = layers.IPProtocolICMPv4
	}

	eth := &layers.Ethernet{
		SrcMAC:       fs.SrcMAC,
		DstMAC:       fs.DstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: proto,
		SrcIP:    net.ParseIP(fs.SrcIP).To4(),
		DstIP:    net.ParseIP(fs.DstIP).To4(),
		Options:  fs.Options,
	}
	icmp := &layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(fs.Type, fs.Code),
		Id:       fs.ID,
		Seq:      fs.Seq,
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, icmp, gopacket.Payload(fs.Payload)); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// BuildARP serializes a broadcast ARP request, a typical piece of unrelated traffic.
func BuildARP(srcMAC net.HardwareAddr, srcIP, dstIP string) []byte {
	eth := &layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: layers.EthernetTypeARP,
	}
	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   []byte(srcMAC),
		SourceProtAddress: net.ParseIP(srcIP).To4(),
		DstHwAddress:      []byte{0, 0, 0, 0, 0, 0},
		DstProtAddress:    net.ParseIP(dstIP).To4(),
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, arp); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

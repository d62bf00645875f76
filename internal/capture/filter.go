package capture

import (
	"encoding/binary"
	"fmt"
	"net"

	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"
)

const (
	ethHeaderLen  = 14
	ipProtoOffset = ethHeaderLen + 9
	ipSrcOffset   = ethHeaderLen + 12
)

// ICMPSourceFilter assembles a classic BPF program that accepts only IPv4
// ICMP frames sourced from src. A nil src yields a nil program.
func ICMPSourceFilter(src net.IP) ([]bpf.RawInstruction, error) {
	if src == nil {
		return nil, nil
	}
	src4 := src.To4()
	if src4 == nil {
		return nil, fmt.Errorf("filter source %s is not IPv4", src)
	}

	prog := []bpf.Instruction{
		// EtherType must be IPv4
		bpf.LoadAbsolute{Off: 12, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: unix.ETH_P_IP, SkipFalse: 5},
		// L4 protocol must be ICMP
		bpf.LoadAbsolute{Off: ipProtoOffset, Size: 1},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: unix.IPPROTO_ICMP, SkipFalse: 3},
		// source address must be the target
		bpf.LoadAbsolute{Off: ipSrcOffset, Size: 4},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: binary.BigEndian.Uint32(src4), SkipFalse: 1},
		bpf.RetConstant{Val: MaxFrameSize},
		bpf.RetConstant{Val: 0},
	}
	raw, err := bpf.Assemble(prog)
	if err != nil {
		return nil, fmt.Errorf("assemble capture filter: %w", err)
	}
	return raw, nil
}

// PcapFilterExpr is the libpcap expression equivalent of ICMPSourceFilter.
func PcapFilterExpr(src net.IP) string {
	if src == nil {
		return ""
	}
	return "icmp and src host " + src.String()
}

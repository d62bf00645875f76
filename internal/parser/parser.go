package parser

import (
	"fmt"
	"net/netip"
	"strings"
)

// ParseTarget parses a dotted-decimal IPv4 address. Hostnames, CIDR blocks,
// IPv6 and IPv4-mapped IPv6 forms are rejected.
func ParseTarget(input string) (netip.Addr, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return netip.Addr{}, fmt.Errorf("empty target")
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("parse %q: %w", s, err)
	}
	if !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("%s is not an IPv4 address", s)
	}
	if addr.IsUnspecified() || addr == netip.AddrFrom4([4]byte{255, 255, 255, 255}) {
		return netip.Addr{}, fmt.Errorf("%s is not a unicast host address", s)
	}
	return addr, nil
}

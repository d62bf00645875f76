// Package netifaces enumerates local IPv4 interfaces and picks the one whose
// subnet covers a target address.
package netifaces

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math/bits"
	"net"
	"net/netip"
)

// DefaultFallback is returned by Select when no interface covers the target.
const DefaultFallback = "eth0"

// InterfaceInfo holds one IPv4 address assignment of a local interface.
type InterfaceInfo struct {
	Name    string
	IP      net.IP
	Netmask net.IPMask
}

// PrefixLen returns the number of set bits in the netmask.
func (i InterfaceInfo) PrefixLen() int {
	return bits.OnesCount32(maskUint32(i.Netmask))
}

// listInterfaces is swapped in tests.
var listInterfaces = net.Interfaces

// Interfaces returns every IPv4 address assignment on the host, in the order
// the OS reports interfaces and their addresses.
func Interfaces() ([]InterfaceInfo, error) {
	ifaces, err := listInterfaces()
	if err != nil {
		return nil, fmt.Errorf("listing interfaces: %w", err)
	}

	var result []InterfaceInfo
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipnet.IP.To4()
			if ip4 == nil {
				continue
			}
			result = append(result, InterfaceInfo{
				Name:    iface.Name,
				IP:      ip4,
				Netmask: ipnet.Mask,
			})
		}
	}
	return result, nil
}

// enumerate is the enumeration used by Select; swapped in tests.
var enumerate = Interfaces

// Select returns the name of the interface whose subnet contains target with
// the longest prefix, or fallback when enumeration fails or nothing matches.
func Select(target netip.Addr, fallback string, logger *slog.Logger) string {
	if fallback == "" {
		fallback = DefaultFallback
	}
	log := logger.With(slog.String("component", "netifaces"))

	ifaces, err := enumerate()
	if err != nil {
		log.Warn("Interface enumeration failed, using fallback.", "fallback", fallback, "error", err)
		return fallback
	}

	name, ok := SelectFrom(target, ifaces)
	if !ok {
		log.Warn("No interface subnet covers target, using fallback.", "target", target, "fallback", fallback)
		return fallback
	}
	log.Debug("Interface selected.", "target", target, "iface", name)
	return name
}

// SelectFrom applies the longest-prefix match to an explicit interface list.
// An interface matches when (local & mask) == (target & mask); among equal
// prefix lengths the first match wins. A zero-length mask never matches.
func SelectFrom(target netip.Addr, ifaces []InterfaceInfo) (string, bool) {
	if !target.Is4() {
		return "", false
	}
	t4 := target.As4()
	t := binary.BigEndian.Uint32(t4[:])

	best := ""
	bestLen := 0
	for _, info := range ifaces {
		ip4 := info.IP.To4()
		if ip4 == nil {
			continue
		}
		local := binary.BigEndian.Uint32(ip4)
		mask := maskUint32(info.Netmask)
		if local&mask != t&mask {
			continue
		}
		if l := bits.OnesCount32(mask); l > bestLen {
			best, bestLen = info.Name, l
		}
	}
	return best, bestLen > 0
}

func maskUint32(mask net.IPMask) uint32 {
	// Ensure mask is 4 bytes
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	if len(mask) != net.IPv4len {
		return 0
	}
	return binary.BigEndian.Uint32(mask)
}

// Package privacy reduces client addresses to network prefixes before they
// are stored alongside audit records.
package privacy

import "net/netip"

const (
	ipv4Bits = 24
	ipv6Bits = 48
)

// ClientNetwork returns the /24 (IPv4) or /48 (IPv6) network containing ip
// in CIDR form, e.g. "192.168.1.0/24". IPv4-mapped IPv6 addresses are
// treated as IPv4. Empty or unparsable input yields "".
func ClientNetwork(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ""
	}
	addr = addr.Unmap()
	bits := ipv6Bits
	if addr.Is4() {
		bits = ipv4Bits
	}
	prefix, err := addr.WithZone("").Prefix(bits)
	if err != nil {
		return ""
	}
	return prefix.String()
}

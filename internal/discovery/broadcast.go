package discovery

import (
	"net/netip"
	"slices"
	"strings"

	"codeberg.org/mutker/perfscope/internal/errors"
	psnet "github.com/shirou/gopsutil/v3/net"
)

var privatePrefixes = []string{"192.168.", "172.", "10."}

// BroadcastAddresses returns the subnet broadcast address of every
// non-loopback private IPv4 interface address, deduplicated.
func BroadcastAddresses() ([]string, error) {
	ifaces, err := psnet.Interfaces()
	if err != nil {
		return nil, errors.New().Wrap(ErrListInterfaces, err)
	}

	var out []string
	for _, iface := range ifaces {
		if slices.Contains(iface.Flags, "loopback") {
			continue
		}
		for _, a := range iface.Addrs {
			if b, ok := BroadcastFor(a.Addr); ok && !slices.Contains(out, b) {
				out = append(out, b)
			}
		}
	}

	return out, nil
}

// BroadcastFor computes the broadcast address of an interface address in
// CIDR form, e.g. "192.168.1.20/24" gives "192.168.1.255". Only private
// IPv4 ranges qualify.
func BroadcastFor(cidr string) (string, bool) {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil || !prefix.Addr().Is4() {
		return "", false
	}

	ip := prefix.Addr().String()
	private := false
	for _, p := range privatePrefixes {
		if strings.HasPrefix(ip, p) {
			private = true
			break
		}
	}
	if !private {
		return "", false
	}

	b := prefix.Addr().As4()
	bits := prefix.Bits()
	for i := range b {
		hostBits := max(0, min(8, (i+1)*8-bits))
		b[i] |= byte(uint(1)<<hostBits - 1)
	}

	return netip.AddrFrom4(b).String(), true
}

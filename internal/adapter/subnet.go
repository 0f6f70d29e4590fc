package adapter

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	psnet "github.com/shirou/gopsutil/v3/net"

	"devicectl/internal/domain"
)

// InterfaceLister enumerates local network interfaces
type InterfaceLister func(ctx context.Context) (psnet.InterfaceStatList, error)

// SubnetResolver determines the local IPv4 subnet to scan
type SubnetResolver struct {
	iface  string
	list   InterfaceLister
	logger zerolog.Logger
}

// NewSubnetResolver creates a resolver. A non-empty iface restricts the
// search to that interface.
func NewSubnetResolver(iface string, logger zerolog.Logger) *SubnetResolver {
	return &SubnetResolver{
		iface:  iface,
		list:   psnet.InterfacesWithContext,
		logger: logger,
	}
}

// WithLister replaces the interface source
func (r *SubnetResolver) WithLister(list InterfaceLister) *SubnetResolver {
	r.list = list
	return r
}

// Resolve returns the network of the first non-loopback IPv4 address in
// interface order, or domain.ErrNoSubnetFound
func (r *SubnetResolver) Resolve(ctx context.Context) (netip.Prefix, error) {
	ifaces, err := r.list(ctx)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("%w: list interfaces: %v", domain.ErrNoSubnetFound, err)
	}

	for _, iface := range ifaces {
		if r.iface != "" && iface.Name != r.iface {
			continue
		}
		if slices.Contains(iface.Flags, "loopback") {
			continue
		}

		for _, a := range iface.Addrs {
			prefix, ok := parseInterfaceAddr(a.Addr)
			if !ok || !prefix.Addr().Is4() || prefix.Addr().IsLoopback() {
				continue
			}

			r.logger.Debug().
				Str("interface", iface.Name).
				Str("addr", a.Addr).
				Str("subnet", prefix.Masked().String()).
				Msg("subnet resolved")
			return prefix.Masked(), nil
		}
	}

	return netip.Prefix{}, domain.ErrNoSubnetFound
}

// parseInterfaceAddr accepts "a.b.c.d/nn" or "a.b.c.d/255.255.255.0".
// A bare address without mask does not qualify.
func parseInterfaceAddr(s string) (netip.Prefix, bool) {
	if prefix, err := netip.ParsePrefix(s); err == nil {
		return netip.PrefixFrom(prefix.Addr().Unmap(), prefix.Bits()), true
	}

	ipStr, maskStr, found := strings.Cut(s, "/")
	if !found {
		return netip.Prefix{}, false
	}
	addr, err := netip.ParseAddr(ipStr)
	if err != nil || !addr.Is4() {
		return netip.Prefix{}, false
	}
	maskIP := net.ParseIP(maskStr).To4()
	if maskIP == nil {
		return netip.Prefix{}, false
	}
	ones, bits := net.IPMask(maskIP).Size()
	if bits == 0 {
		return netip.Prefix{}, false
	}
	return netip.PrefixFrom(addr, ones), true
}

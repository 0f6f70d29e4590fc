package adapter

import (
	"context"
	"net/netip"

	"github.com/rs/zerolog"

	"devicectl/internal/domain"
)

// MACResolver maps an IP to a hardware address via the neighbour cache
type MACResolver interface {
	Lookup(ctx context.Context, ip netip.Addr) (string, error)
}

// VendorLookup maps a hardware address to a vendor name
type VendorLookup interface {
	Lookup(mac string) string
}

// IdentityResolver turns a live address into a classified host. Resolution
// failures degrade to the Unknown sentinels rather than dropping the host.
type IdentityResolver struct {
	arp    MACResolver
	oui    VendorLookup
	logger zerolog.Logger
}

func NewIdentityResolver(arp MACResolver, oui VendorLookup, logger zerolog.Logger) *IdentityResolver {
	return &IdentityResolver{arp: arp, oui: oui, logger: logger}
}

// Resolve looks up MAC and vendor for ip and classifies it
func (r *IdentityResolver) Resolve(ctx context.Context, ip netip.Addr) domain.DiscoveredHost {
	host := domain.DiscoveredHost{
		IP:     ip.String(),
		MAC:    domain.UnknownMAC,
		Vendor: domain.UnknownVendor,
	}

	mac, err := r.arp.Lookup(ctx, ip)
	switch {
	case err != nil:
		r.logger.Debug().Err(err).Str("ip", host.IP).Msg("arp lookup failed")
	case mac != "":
		host.MAC = mac
	}

	if host.MAC != domain.UnknownMAC {
		if vendor := r.oui.Lookup(host.MAC); vendor != "" {
			host.Vendor = vendor
		}
	}

	host.Type = Classify(host.Vendor)
	return host
}

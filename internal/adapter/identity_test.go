package adapter

import (
	"context"
	"errors"
	"net/netip"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"devicectl/internal/domain"
)

type staticARP map[string]string

func (s staticARP) Lookup(ctx context.Context, ip netip.Addr) (string, error) {
	mac, ok := s[ip.String()]
	if !ok {
		return "", nil
	}
	if mac == "error" {
		return "", errors.New("arp: permission denied")
	}
	return mac, nil
}

type staticOUI map[string]string

func (s staticOUI) Lookup(mac string) string {
	return s[mac]
}

func TestIdentityResolverResolve(t *testing.T) {
	arp := staticARP{
		"192.168.1.1":  "00:1B:54:AA:BB:CC",
		"192.168.1.10": "02:00:00:00:00:01",
		"192.168.1.20": "error",
	}
	oui := staticOUI{"00:1B:54:AA:BB:CC": "Cisco Systems, Inc"}

	r := NewIdentityResolver(arp, oui, zerolog.Nop())

	tests := []struct {
		ip   string
		want domain.DiscoveredHost
	}{
		{"192.168.1.1", domain.DiscoveredHost{
			IP: "192.168.1.1", MAC: "00:1B:54:AA:BB:CC", Vendor: "Cisco Systems, Inc", Type: domain.DeviceTypeSwitch,
		}},
		{"192.168.1.10", domain.DiscoveredHost{
			IP: "192.168.1.10", MAC: "02:00:00:00:00:01", Vendor: domain.UnknownVendor, Type: domain.DeviceTypeOther,
		}},
		{"192.168.1.20", domain.DiscoveredHost{
			IP: "192.168.1.20", MAC: domain.UnknownMAC, Vendor: domain.UnknownVendor, Type: domain.DeviceTypeOther,
		}},
		{"192.168.1.30", domain.DiscoveredHost{
			IP: "192.168.1.30", MAC: domain.UnknownMAC, Vendor: domain.UnknownVendor, Type: domain.DeviceTypeOther,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(context.Background(), netip.MustParseAddr(tt.ip)))
		})
	}
}

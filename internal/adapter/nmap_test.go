package adapter

import (
	"context"
	"errors"
	"net/netip"
	"testing"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nmapHost(state string, addrs ...nmap.Address) nmap.Host {
	return nmap.Host{
		Addresses: addrs,
		Status:    nmap.Status{State: state},
	}
}

func TestLiveHostsFromRun(t *testing.T) {
	result := &nmap.Run{
		Hosts: []nmap.Host{
			nmapHost("up",
				nmap.Address{Addr: "192.168.1.20", AddrType: "ipv4"},
				nmap.Address{Addr: "AA:BB:CC:DD:EE:FF", AddrType: "mac", Vendor: "Cisco Systems"},
			),
			nmapHost("down", nmap.Address{Addr: "192.168.1.30", AddrType: "ipv4"}),
			nmapHost("up", nmap.Address{Addr: "192.168.1.1", AddrType: "ipv4"}),
			nmapHost("up", nmap.Address{Addr: "192.168.1.255", AddrType: "ipv4"}), // broadcast
			nmapHost("up", nmap.Address{Addr: "10.9.9.9", AddrType: "ipv4"}),      // outside prefix
			nmapHost("up", nmap.Address{Addr: "AA:BB:CC:00:11:22", AddrType: "mac"}),
		},
	}

	first, last, err := HostRange(netip.MustParsePrefix("192.168.1.0/24"))
	require.NoError(t, err)

	live := liveHostsFromRun(result, first, last)
	assert.Equal(t, []netip.Addr{
		netip.MustParseAddr("192.168.1.1"),
		netip.MustParseAddr("192.168.1.20"),
	}, live)

	assert.Nil(t, liveHostsFromRun(nil, first, last))
}

// sweepArgs runs one sweep and returns the nmap command line it would use
func sweepArgs(t *testing.T, prober *NmapProber, prefix string) []string {
	t.Helper()
	var args []string
	prober.run = func(ctx context.Context, opts ...nmap.Option) (*nmap.Run, []string, error) {
		scanner, err := nmap.NewScanner(ctx, opts...)
		require.NoError(t, err)
		args = scanner.Args()
		return &nmap.Run{}, nil, nil
	}
	_, err := prober.Sweep(context.Background(), netip.MustParsePrefix(prefix))
	require.NoError(t, err)
	return args
}

// flagValue returns the argument following name, or "" if absent
func flagValue(args []string, name string) string {
	for i, a := range args {
		if a == name && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func TestNmapProberSweep(t *testing.T) {
	prober := NewNmapProber(WithBinaryPath("/usr/local/bin/nmap"))
	prober.run = func(ctx context.Context, opts ...nmap.Option) (*nmap.Run, []string, error) {
		return &nmap.Run{Hosts: []nmap.Host{
			nmapHost("up", nmap.Address{Addr: "10.0.0.2", AddrType: "ipv4"}),
		}}, []string{"some warning"}, nil
	}

	live, err := prober.Sweep(context.Background(), netip.MustParsePrefix("10.0.0.0/24"))
	require.NoError(t, err)
	assert.Equal(t, []netip.Addr{netip.MustParseAddr("10.0.0.2")}, live)
	assert.Equal(t, "nmap", prober.Name())
}

func TestNmapProberSingleProbePerHost(t *testing.T) {
	args := sweepArgs(t, NewNmapProber(WithBinaryPath("/usr/local/bin/nmap")), "192.168.1.77/24")

	assert.Contains(t, args, "192.168.1.0/24")
	assert.Contains(t, args, "-sn")
	assert.Contains(t, args, "-PE", "ICMP echo only")
	assert.Contains(t, args, "--disable-arp-ping")
	assert.Contains(t, args, "-n")
	assert.Equal(t, "0", flagValue(args, "--max-retries"))
	assert.Equal(t, "1000ms", flagValue(args, "--max-rtt-timeout"))
	assert.Equal(t, "1000ms", flagValue(args, "--host-timeout"))
}

func TestNmapProberSweepTimeout(t *testing.T) {
	prober := NewNmapProber(WithBinaryPath("/usr/local/bin/nmap"), WithTimeout(50*time.Millisecond))

	var deadline time.Time
	var ok bool
	prober.run = func(ctx context.Context, opts ...nmap.Option) (*nmap.Run, []string, error) {
		deadline, ok = ctx.Deadline()
		return &nmap.Run{}, nil, nil
	}

	start := time.Now()
	_, err := prober.Sweep(context.Background(), netip.MustParsePrefix("10.0.0.0/24"))
	require.NoError(t, err)
	require.True(t, ok, "sweep context carries the configured bound")
	assert.WithinDuration(t, start.Add(50*time.Millisecond), deadline, 40*time.Millisecond)

	prober = NewNmapProber(WithTimeout(0))
	prober.run = func(ctx context.Context, opts ...nmap.Option) (*nmap.Run, []string, error) {
		_, ok = ctx.Deadline()
		return &nmap.Run{}, nil, nil
	}
	_, err = prober.Sweep(context.Background(), netip.MustParsePrefix("10.0.0.0/24"))
	require.NoError(t, err)
	assert.False(t, ok, "zero timeout leaves the sweep unbounded")
}

func TestNmapProberSweepError(t *testing.T) {
	prober := NewNmapProber()
	prober.run = func(ctx context.Context, opts ...nmap.Option) (*nmap.Run, []string, error) {
		return nil, nil, errors.New("nmap binary not found")
	}

	_, err := prober.Sweep(context.Background(), netip.MustParsePrefix("10.0.0.0/24"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nmap binary not found")
}

package adapter

import (
	"context"
	"fmt"
	"net/netip"
	"slices"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/rs/zerolog"
)

// NmapProber runs a single nmap ping sweep (-sn) over the whole subnet
// instead of probing addresses one at a time. Each host gets one ICMP echo
// with the same ProbeTimeout budget and no retransmission, matching the
// pooled back-ends.
type NmapProber struct {
	timeout    time.Duration
	binaryPath string
	logger     zerolog.Logger
	run        func(ctx context.Context, opts ...nmap.Option) (*nmap.Run, []string, error)
}

// NewNmapProber creates an nmap-based prober
func NewNmapProber(opts ...NmapOption) *NmapProber {
	n := &NmapProber{
		timeout: 5 * time.Minute,
		logger:  zerolog.Nop(),
		run:     runNmap,
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

func (n *NmapProber) Name() string {
	return "nmap"
}

// Sweep runs nmap host discovery over prefix
func (n *NmapProber) Sweep(ctx context.Context, prefix netip.Prefix) ([]netip.Addr, error) {
	first, last, err := HostRange(prefix)
	if err != nil {
		return nil, err
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	opts := []nmap.Option{
		nmap.WithTargets(prefix.Masked().String()),
		nmap.WithPingScan(),
		nmap.WithICMPEchoDiscovery(),
		// no typed option; ARP discovery would otherwise replace -PE on-link
		nmap.WithCustomArguments("--disable-arp-ping"), //nolint:staticcheck
		nmap.WithDisabledDNSResolution(),
		nmap.WithMaxRetries(0),
		nmap.WithMaxRTTTimeout(ProbeTimeout),
		nmap.WithHostTimeout(ProbeTimeout),
	}
	if n.binaryPath != "" {
		opts = append(opts, nmap.WithBinaryPath(n.binaryPath))
	}

	n.logger.Debug().Str("prefix", prefix.String()).Msg("nmap ping sweep started")

	result, warnings, err := n.run(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("nmap sweep failed: %w", err)
	}
	if len(warnings) > 0 {
		n.logger.Warn().Strs("warnings", warnings).Msg("nmap reported warnings")
	}

	return liveHostsFromRun(result, first, last), nil
}

func runNmap(ctx context.Context, opts ...nmap.Option) (*nmap.Run, []string, error) {
	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	result, warnings, err := scanner.Run()
	var w []string
	if warnings != nil {
		w = *warnings
	}
	return result, w, err
}

// liveHostsFromRun extracts hosts reported up whose IPv4 address lies in
// the usable range [first, last]
func liveHostsFromRun(result *nmap.Run, first, last netip.Addr) []netip.Addr {
	if result == nil {
		return nil
	}

	var live []netip.Addr
	for _, host := range result.Hosts {
		if host.Status.State != "up" {
			continue
		}

		for _, addr := range host.Addresses {
			if addr.AddrType != "ipv4" {
				continue
			}
			ip, err := netip.ParseAddr(addr.Addr)
			if err != nil || ip.Less(first) || last.Less(ip) {
				break
			}
			live = append(live, ip)
			break
		}
	}

	slices.SortFunc(live, func(a, b netip.Addr) int { return a.Compare(b) })
	return slices.Compact(live)
}

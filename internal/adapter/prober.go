package adapter

import (
	"context"
	"fmt"
	"net/netip"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// PoolProber sweeps a subnet by fanning single-address pings out over a
// fixed pool of workers. Addresses are fed to the pool lazily so memory does
// not grow with the prefix size.
type PoolProber struct {
	pinger    Pinger
	name      string
	workers   int
	timeout   time.Duration
	publisher EventPublisher
	logger    zerolog.Logger
}

// NewPoolProber creates a prober running at most workers pings at once
func NewPoolProber(name string, pinger Pinger, workers int, logger zerolog.Logger) *PoolProber {
	if workers < 1 {
		workers = 1
	}
	return &PoolProber{
		pinger:  pinger,
		name:    name,
		workers: workers,
		timeout: ProbeTimeout,
		logger:  logger,
	}
}

// SetEventPublisher sets the event publisher for progress updates
func (p *PoolProber) SetEventPublisher(pub EventPublisher) {
	p.publisher = pub
}

func (p *PoolProber) Name() string {
	return p.name
}

// Sweep probes every usable host in prefix. Cancelling ctx stops feeding
// new work; the responders found so far are returned with ctx.Err().
func (p *PoolProber) Sweep(ctx context.Context, prefix netip.Prefix) ([]netip.Addr, error) {
	total, err := HostCount(prefix)
	if err != nil {
		return nil, err
	}

	workers := p.workers
	if uint64(workers) > total {
		workers = int(total)
	}

	p.logger.Debug().
		Str("prefix", prefix.String()).
		Uint64("hosts", total).
		Int("workers", workers).
		Msg("probe sweep started")

	var (
		mu   sync.Mutex
		live []netip.Addr
		wg   sync.WaitGroup
	)

	jobs := make(chan netip.Addr, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for addr := range jobs {
				if !p.probe(ctx, addr) {
					continue
				}
				mu.Lock()
				live = append(live, addr)
				mu.Unlock()

				if p.publisher != nil {
					p.publisher.PublishDiscoveryEvent(EventHostAlive, map[string]interface{}{
						"ip":     addr.String(),
						"prober": p.name,
					})
				}
			}
		}()
	}

feed:
	for addr := range Hosts(prefix) {
		select {
		case jobs <- addr:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)

	wg.Wait()

	slices.SortFunc(live, func(a, b netip.Addr) int { return a.Compare(b) })

	if err := ctx.Err(); err != nil {
		return live, fmt.Errorf("sweep %s interrupted: %w", prefix, err)
	}
	return live, nil
}

// probe runs one ping under the fixed probe timeout. Errors count as down.
func (p *PoolProber) probe(ctx context.Context, addr netip.Addr) bool {
	if ctx.Err() != nil {
		return false
	}

	pctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	alive, err := p.pinger.Ping(pctx, addr, p.timeout)
	if err != nil {
		p.logger.Debug().Err(err).Str("ip", addr.String()).Msg("probe failed")
		return false
	}
	return alive
}

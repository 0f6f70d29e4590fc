package service

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"devicectl/internal/adapter"
	"devicectl/internal/domain"
	"devicectl/internal/metrics"
)

// SubnetSource resolves the subnet to scan
type SubnetSource interface {
	Resolve(ctx context.Context) (netip.Prefix, error)
}

// HostIdentifier resolves MAC, vendor and type for a live address
type HostIdentifier interface {
	Resolve(ctx context.Context, ip netip.Addr) domain.DiscoveredHost
}

// DiscoveryService runs network scans: resolve the subnet, sweep it, identify
// the responders and record the new ones
type DiscoveryService struct {
	subnets    SubnetSource
	prober     adapter.Prober
	identity   HostIdentifier
	reconciler *Reconciler
	notifier   Notifier
	logger     zerolog.Logger

	mu       sync.Mutex
	scanning bool
}

// NewDiscoveryService creates a discovery service
func NewDiscoveryService(
	subnets SubnetSource,
	prober adapter.Prober,
	identity HostIdentifier,
	reconciler *Reconciler,
	notifier Notifier,
	logger zerolog.Logger,
) *DiscoveryService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &DiscoveryService{
		subnets:    subnets,
		prober:     prober,
		identity:   identity,
		reconciler: reconciler,
		notifier:   notifier,
		logger:     logger,
	}
}

// Scanning reports whether a scan is running
func (s *DiscoveryService) Scanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanning
}

// Scan discovers live hosts on the local subnet and returns the devices it
// added to the inventory. Only one scan runs at a time; a concurrent call
// fails with domain.ErrScanInProgress.
func (s *DiscoveryService) Scan(ctx context.Context) ([]*domain.Device, error) {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		return nil, domain.ErrScanInProgress
	}
	s.scanning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.scanning = false
		s.mu.Unlock()
	}()

	start := time.Now()

	subnet, err := s.subnets.Resolve(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("scan aborted")
		s.fail("no_subnet", err)
		if !errors.Is(err, domain.ErrNoSubnetFound) {
			err = fmt.Errorf("%w: %v", domain.ErrNoSubnetFound, err)
		}
		return nil, err
	}

	total, _ := adapter.HostCount(subnet)
	s.logger.Info().
		Str("subnet", subnet.String()).
		Uint64("hosts", total).
		Str("prober", s.prober.Name()).
		Msg("scan started")
	s.notifier.Publish(Event{Type: EventScanStarted, Payload: map[string]interface{}{
		"subnet": subnet.String(),
		"hosts":  total,
	}})

	live, err := s.prober.Sweep(ctx, subnet)
	if err != nil {
		s.logger.Error().Err(err).Str("subnet", subnet.String()).Msg("sweep failed")
		s.fail("sweep_error", err)
		return nil, fmt.Errorf("sweep %s: %w", subnet, err)
	}

	hosts := make([]domain.DiscoveredHost, 0, len(live))
	for _, ip := range live {
		hosts = append(hosts, s.identity.Resolve(ctx, ip))
	}

	created, err := s.reconciler.Reconcile(ctx, hosts)
	if err != nil {
		s.fail("cancelled", err)
		return created, fmt.Errorf("reconcile: %w", err)
	}

	elapsed := time.Since(start)
	metrics.ScanCompleted(elapsed, len(live), len(created))

	s.logger.Info().
		Str("subnet", subnet.String()).
		Int("alive", len(live)).
		Int("created", len(created)).
		Dur("elapsed", elapsed).
		Msg("scan completed")
	s.notifier.Publish(Event{Type: EventScanCompleted, Payload: map[string]interface{}{
		"subnet":  subnet.String(),
		"alive":   len(live),
		"created": len(created),
	}})

	return created, nil
}

func (s *DiscoveryService) fail(reason string, err error) {
	metrics.ScanFailed(reason)
	s.notifier.Publish(Event{Type: EventScanFailed, Payload: map[string]string{
		"reason": reason,
		"error":  err.Error(),
	}})
}

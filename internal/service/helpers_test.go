package service

import (
	"context"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"devicectl/internal/domain"
	"devicectl/internal/repository/sqlite"
)

func newStore(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

type staticSubnet struct {
	prefix string
	err    error
}

func (s staticSubnet) Resolve(ctx context.Context) (netip.Prefix, error) {
	if s.err != nil {
		return netip.Prefix{}, s.err
	}
	return netip.MustParsePrefix(s.prefix), nil
}

type staticProber struct {
	live    []string
	err     error
	started chan struct{}
	release chan struct{}
}

func (p *staticProber) Name() string { return "static" }

func (p *staticProber) Sweep(ctx context.Context, prefix netip.Prefix) ([]netip.Addr, error) {
	if p.started != nil {
		close(p.started)
		<-p.release
	}
	if p.err != nil {
		return nil, p.err
	}
	out := make([]netip.Addr, 0, len(p.live))
	for _, ip := range p.live {
		out = append(out, netip.MustParseAddr(ip))
	}
	return out, nil
}

type staticIdentity map[string]domain.DiscoveredHost

func (s staticIdentity) Resolve(ctx context.Context, ip netip.Addr) domain.DiscoveredHost {
	if h, ok := s[ip.String()]; ok {
		h.IP = ip.String()
		return h
	}
	return domain.DiscoveredHost{
		IP:     ip.String(),
		MAC:    domain.UnknownMAC,
		Vendor: domain.UnknownVendor,
		Type:   domain.DeviceTypeOther,
	}
}

// eventRecorder collects everything published on an EventBus
type eventRecorder struct {
	ch     chan Event
	mu     sync.Mutex
	events []Event
	done   chan struct{}
}

func recordEvents(t *testing.T, bus *EventBus) *eventRecorder {
	r := &eventRecorder{ch: make(chan Event, 64), done: make(chan struct{})}
	bus.Subscribe(r.ch)
	go func() {
		defer close(r.done)
		for e := range r.ch {
			r.mu.Lock()
			r.events = append(r.events, e)
			r.mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		bus.Unsubscribe(r.ch)
		close(r.ch)
		<-r.done
	})
	return r
}

func (r *eventRecorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *eventRecorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *eventRecorder) waitFor(t *testing.T, n int) []EventType {
	t.Helper()
	require.Eventually(t, func() bool { return len(r.types()) >= n }, time.Second, 5*time.Millisecond)
	return r.types()
}

func strPtr(s string) *string { return &s }

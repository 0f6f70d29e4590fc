package adapter

import (
	"context"
	"net/netip"
	"time"
)

// ProbeTimeout bounds a single reachability probe. Probes are not retried.
const ProbeTimeout = 1 * time.Second

// Prober finds the addresses in a subnet that answer a reachability probe
type Prober interface {
	// Name identifies the back-end in logs and metrics
	Name() string

	// Sweep probes every usable host address in prefix and returns the
	// responders in ascending order. A host that errors is reported as down.
	Sweep(ctx context.Context, prefix netip.Prefix) ([]netip.Addr, error)
}

// Pinger performs one reachability probe against one address
type Pinger interface {
	// Ping reports whether addr answered within timeout. A false result with
	// nil error means no reply.
	Ping(ctx context.Context, addr netip.Addr, timeout time.Duration) (bool, error)
}

// EventPublisher allows adapters to publish progress events
type EventPublisher interface {
	PublishDiscoveryEvent(eventType string, payload interface{})
}

// Discovery progress event types
const (
	EventHostAlive = "host_alive"
)

package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"devicectl/internal/domain"
)

// ReconcileStore is the subset of the device store the reconciler needs
type ReconcileStore interface {
	FindByMAC(ctx context.Context, mac string) (*domain.Device, error)
	FindByIP(ctx context.Context, ip string) (*domain.Device, error)
	Create(ctx context.Context, device *domain.Device) error
}

// DefaultCredentials are stamped on auto-discovered devices until an
// operator replaces them
type DefaultCredentials struct {
	Username string
	Password string
}

// Reconciler merges discovered hosts into the inventory. It only ever
// inserts: a device already on record is left untouched.
type Reconciler struct {
	store    ReconcileStore
	creds    DefaultCredentials
	notifier Notifier
	logger   zerolog.Logger
}

// NewReconciler creates a reconciler
func NewReconciler(store ReconcileStore, creds DefaultCredentials, notifier Notifier, logger zerolog.Logger) *Reconciler {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Reconciler{
		store:    store,
		creds:    creds,
		notifier: notifier,
		logger:   logger,
	}
}

// Reconcile creates a record for every host not yet on record and returns
// the records created. Hosts are matched by MAC, or by IP when the MAC is
// unresolved. Per-host store failures are logged and skipped.
func (r *Reconciler) Reconcile(ctx context.Context, hosts []domain.DiscoveredHost) ([]*domain.Device, error) {
	created := make([]*domain.Device, 0)

	for _, host := range hosts {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		known, err := r.lookup(ctx, host)
		if err != nil {
			r.logger.Warn().Err(err).Str("ip", host.IP).Str("mac", host.MAC).Msg("inventory lookup failed, skipping host")
			continue
		}
		if known {
			continue
		}

		device := newDiscoveredDevice(host, r.creds)
		if err := r.store.Create(ctx, device); err != nil {
			if errors.Is(err, domain.ErrDuplicateMAC) {
				r.logger.Debug().Str("mac", host.MAC).Msg("device recorded concurrently")
			} else {
				r.logger.Error().Err(err).Str("ip", host.IP).Msg("failed to record discovered device")
			}
			continue
		}

		r.logger.Info().
			Str("id", device.ID).
			Str("ip", device.IP).
			Str("mac", device.MAC).
			Str("type", string(device.Type)).
			Msg("device discovered")

		r.notifier.Publish(Event{Type: EventDeviceCreated, Payload: device.Redacted()})
		created = append(created, device)
	}

	return created, nil
}

// lookup reports whether host already has a record
func (r *Reconciler) lookup(ctx context.Context, host domain.DiscoveredHost) (bool, error) {
	if host.MAC == domain.UnknownMAC {
		existing, err := r.store.FindByIP(ctx, host.IP)
		if err != nil {
			return false, err
		}
		return existing != nil, nil
	}

	existing, err := r.store.FindByMAC(ctx, host.MAC)
	if err != nil {
		return false, err
	}
	if existing != nil && existing.IP != host.IP {
		r.logger.Debug().
			Str("mac", host.MAC).
			Str("recorded_ip", existing.IP).
			Str("seen_ip", host.IP).
			Msg("known device seen at a different address")
	}
	return existing != nil, nil
}

func newDiscoveredDevice(host domain.DiscoveredHost, creds DefaultCredentials) *domain.Device {
	name := host.Vendor
	if name == "" || name == domain.UnknownVendor {
		name = domain.DefaultDiscoveredName
	}

	return &domain.Device{
		Name:        name,
		Type:        host.Type,
		IP:          host.IP,
		MAC:         host.MAC,
		Location:    domain.DefaultDiscoveredLocation,
		Description: domain.DefaultDiscoveredDescription,
		SSHUsername: creds.Username,
		SSHPassword: creds.Password,
	}
}

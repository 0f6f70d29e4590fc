package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"devicectl/internal/domain"
	"devicectl/internal/repository"
)

// DeviceService implements inventory CRUD for operators
type DeviceService struct {
	store    repository.DeviceStore
	notifier Notifier
	logger   zerolog.Logger
}

// NewDeviceService creates a device service
func NewDeviceService(store repository.DeviceStore, notifier Notifier, logger zerolog.Logger) *DeviceService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &DeviceService{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// List returns all devices
func (s *DeviceService) List(ctx context.Context) ([]*domain.Device, error) {
	return s.store.List(ctx)
}

// Get returns one device or domain.ErrDeviceNotFound
func (s *DeviceService) Get(ctx context.Context, id string) (*domain.Device, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	device, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, domain.ErrDeviceNotFound
	}
	return device, nil
}

// Add creates an operator-entered device. IP addresses must be unique
// among stored devices.
func (s *DeviceService) Add(ctx context.Context, device *domain.Device) error {
	if err := device.Validate(); err != nil {
		return err
	}
	device.ApplyDefaults()
	device.CredentialsVerified = true

	existing, err := s.store.FindByIP(ctx, device.IP)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateIP, device.IP)
	}

	if err := s.store.Create(ctx, device); err != nil {
		return err
	}

	s.logger.Info().Str("id", device.ID).Str("ip", device.IP).Msg("device added")
	s.notifier.Publish(Event{Type: EventDeviceCreated, Payload: device.Redacted()})
	return nil
}

// Update applies a partial update
func (s *DeviceService) Update(ctx context.Context, id string, update domain.DeviceUpdate) (*domain.Device, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if err := update.Validate(); err != nil {
		return nil, err
	}

	if update.IP != nil {
		existing, err := s.store.FindByIP(ctx, *update.IP)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateIP, *update.IP)
		}
	}

	device, err := s.store.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, domain.ErrDeviceNotFound
	}

	s.notifier.Publish(Event{Type: EventDeviceUpdated, Payload: device.Redacted()})
	return device, nil
}

// Delete removes a device and returns the removed record
func (s *DeviceService) Delete(ctx context.Context, id string) (*domain.Device, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	device, err := s.store.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, domain.ErrDeviceNotFound
	}

	s.logger.Info().Str("id", id).Msg("device deleted")
	s.notifier.Publish(Event{Type: EventDeviceDeleted, Payload: map[string]string{"id": id}})
	return device, nil
}

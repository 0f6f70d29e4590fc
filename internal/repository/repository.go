package repository

import (
	"context"

	"devicectl/internal/domain"
)

// DeviceStore persists inventory records. Lookups that match nothing return
// (nil, nil) rather than an error.
type DeviceStore interface {
	FindByID(ctx context.Context, id string) (*domain.Device, error)
	FindByIP(ctx context.Context, ip string) (*domain.Device, error)
	FindByMAC(ctx context.Context, mac string) (*domain.Device, error)
	List(ctx context.Context) ([]*domain.Device, error)
	CountByType(ctx context.Context) (map[domain.DeviceType]int, error)

	// Create assigns ID and timestamps. A second record with the same
	// resolved MAC fails with domain.ErrDuplicateMAC.
	Create(ctx context.Context, device *domain.Device) error
	// Update applies a partial update and returns the new record
	Update(ctx context.Context, id string, update domain.DeviceUpdate) (*domain.Device, error)
	// Delete removes the record and returns what was removed
	Delete(ctx context.Context, id string) (*domain.Device, error)

	Ping(ctx context.Context) error
	Close() error
}

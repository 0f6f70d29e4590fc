package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"devicectl/internal/domain"
)

// Repository implements repository.DeviceStore using SQLite
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// New opens the SQLite database at path, enables WAL mode, and runs migrations
func New(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer; also keeps ":memory:" databases on a single connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	repo := &Repository{db: db, now: time.Now}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS devices (
		id                   TEXT PRIMARY KEY,
		name                 TEXT NOT NULL,
		type                 TEXT NOT NULL,
		ip                   TEXT NOT NULL,
		mac                  TEXT NOT NULL DEFAULT 'Unknown',
		location             TEXT NOT NULL DEFAULT '',
		description          TEXT NOT NULL DEFAULT '',
		ssh_username         TEXT NOT NULL DEFAULT '',
		ssh_password         TEXT NOT NULL DEFAULT '',
		credentials_verified INTEGER NOT NULL DEFAULT 0,
		status               TEXT,
		response_time        REAL,
		last_checked         TEXT,
		created_at           TEXT NOT NULL,
		updated_at           TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_devices_mac ON devices(mac) WHERE mac != 'Unknown';
	CREATE INDEX IF NOT EXISTS idx_devices_ip ON devices(ip);
	CREATE INDEX IF NOT EXISTS idx_devices_type ON devices(type);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Close releases the database
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping verifies the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const deviceColumns = `id, name, type, ip, mac, location, description,
	ssh_username, ssh_password, credentials_verified,
	status, response_time, last_checked, created_at, updated_at`

// FindByID returns the device with id, or nil if none
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Device, error) {
	return r.findOne(ctx, "id", id)
}

// FindByIP returns the first device with ip, or nil if none
func (r *Repository) FindByIP(ctx context.Context, ip string) (*domain.Device, error) {
	return r.findOne(ctx, "ip", ip)
}

// FindByMAC returns the device with mac, or nil if none
func (r *Repository) FindByMAC(ctx context.Context, mac string) (*domain.Device, error) {
	return r.findOne(ctx, "mac", mac)
}

func (r *Repository) findOne(ctx context.Context, column, value string) (*domain.Device, error) {
	// column is always one of the literals above
	row := r.db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE `+column+` = ? ORDER BY created_at, id LIMIT 1`, value)

	device, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device by %s: %w", column, err)
	}
	return device, nil
}

// List returns every device in creation order
func (r *Repository) List(ctx context.Context) ([]*domain.Device, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+deviceColumns+` FROM devices ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	devices := []*domain.Device{}
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, device)
	}
	return devices, rows.Err()
}

// CountByType returns the number of devices per type
func (r *Repository) CountByType(ctx context.Context) (map[domain.DeviceType]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM devices GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count devices: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.DeviceType]int)
	for rows.Next() {
		var (
			t string
			n int
		)
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[domain.DeviceType(t)] = n
	}
	return counts, rows.Err()
}

// Create inserts device, assigning its ID and timestamps
func (r *Repository) Create(ctx context.Context, device *domain.Device) error {
	now := r.now().UTC()
	if device.ID == "" {
		device.ID = uuid.NewString()
	}
	if device.MAC == "" {
		device.MAC = domain.UnknownMAC
	}
	device.CreatedAt = now
	device.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO devices (`+deviceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		device.ID, device.Name, string(device.Type), device.IP, device.MAC,
		device.Location, device.Description,
		device.SSHUsername, device.SSHPassword, boolToInt(device.CredentialsVerified),
		sql.NullString{String: string(device.Status), Valid: device.Status != ""},
		floatPtrToNull(device.ResponseTime),
		timePtrToNull(device.LastChecked),
		formatTime(now), formatTime(now),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateMAC, device.MAC)
	}
	if err != nil {
		return fmt.Errorf("failed to insert device: %w", err)
	}
	return nil
}

// Update applies update to the device with id inside a transaction. It
// returns nil if no such device exists.
func (r *Repository) Update(ctx context.Context, id string, update domain.DeviceUpdate) (*domain.Device, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	device, err := scanDevice(tx.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load device: %w", err)
	}

	update.Apply(device)
	device.UpdatedAt = r.now().UTC()

	_, err = tx.ExecContext(ctx, `
		UPDATE devices
		SET name=?, type=?, ip=?, mac=?, location=?, description=?,
			ssh_username=?, ssh_password=?, credentials_verified=?, updated_at=?
		WHERE id=?`,
		device.Name, string(device.Type), device.IP, device.MAC, device.Location, device.Description,
		device.SSHUsername, device.SSHPassword, boolToInt(device.CredentialsVerified),
		formatTime(device.UpdatedAt),
		id,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateMAC, device.MAC)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update device: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return device, nil
}

// Delete removes the device with id and returns it, or nil if none
func (r *Repository) Delete(ctx context.Context, id string) (*domain.Device, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	device, err := scanDevice(tx.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load device: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to delete device: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return device, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(s scanner) (*domain.Device, error) {
	var (
		d                    domain.Device
		deviceType           string
		verified             int
		status, lastChecked  sql.NullString
		responseTime         sql.NullFloat64
		createdAt, updatedAt string
	)

	if err := s.Scan(
		&d.ID, &d.Name, &deviceType, &d.IP, &d.MAC, &d.Location, &d.Description,
		&d.SSHUsername, &d.SSHPassword, &verified,
		&status, &responseTime, &lastChecked, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	d.Type = domain.DeviceType(deviceType)
	d.CredentialsVerified = verified != 0
	d.Status = domain.DeviceStatus(nullToString(status))
	d.ResponseTime = nullToFloatPtr(responseTime)

	var err error
	if d.LastChecked, err = nullToTimePtr(lastChecked); err != nil {
		return nil, err
	}
	if d.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	if d.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at %q: %w", updatedAt, err)
	}

	return &d, nil
}

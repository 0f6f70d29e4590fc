package domain

import (
	"fmt"
	"net/netip"
	"strings"
	"time"
)

// DeviceType is the coarse category assigned to a device
type DeviceType string

const (
	DeviceTypeSwitch      DeviceType = "Switch"
	DeviceTypeAccessPoint DeviceType = "Access Point"
	DeviceTypeDomain      DeviceType = "Domain"
	DeviceTypeOther       DeviceType = "Other"
)

// Valid reports whether t is one of the known device types
func (t DeviceType) Valid() bool {
	switch t {
	case DeviceTypeSwitch, DeviceTypeAccessPoint, DeviceTypeDomain, DeviceTypeOther:
		return true
	}
	return false
}

// DeviceStatus is written by the health-check collaborator, never by discovery
type DeviceStatus string

const (
	DeviceStatusUp      DeviceStatus = "up"
	DeviceStatusDown    DeviceStatus = "down"
	DeviceStatusUnknown DeviceStatus = "unknown"
)

const (
	// UnknownMAC marks a device whose hardware address could not be resolved
	UnknownMAC = "Unknown"
	// UnknownVendor is used when no OUI entry matches
	UnknownVendor = "Unknown"

	DefaultDiscoveredName        = "Unknown Device"
	DefaultDiscoveredLocation    = "Unknown"
	DefaultDiscoveredDescription = "Auto-discovered device"
)

// Device is a single inventory record
type Device struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        DeviceType `json:"type"`
	IP          string     `json:"ip"`
	MAC         string     `json:"mac,omitempty"`
	Location    string     `json:"location"`
	Description string     `json:"description,omitempty"`

	SSHUsername string `json:"sshUsername"`
	SSHPassword string `json:"sshPassword"`
	// CredentialsVerified is false for placeholder credentials assigned by discovery
	CredentialsVerified bool `json:"credentialsVerified"`

	Status       DeviceStatus `json:"status,omitempty"`
	ResponseTime *float64     `json:"responseTime,omitempty"`
	LastChecked  *time.Time   `json:"lastChecked,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasKnownMAC reports whether the device carries a resolved hardware address
func (d *Device) HasKnownMAC() bool {
	return d.MAC != "" && d.MAC != UnknownMAC
}

// Address returns host:port for remote sessions
func (d *Device) Address(port int) string {
	return fmt.Sprintf("%s:%d", d.IP, port)
}

// ApplyDefaults fills fields a manual add may omit
func (d *Device) ApplyDefaults() {
	if d.Description == "" {
		d.Description = fmt.Sprintf("%s at %s", d.Name, d.Location)
	}
	if d.MAC == "" {
		d.MAC = UnknownMAC
	}
}

// Validate checks the mandatory fields of a manually created device
func (d *Device) Validate() error {
	var missing []string
	if d.Name == "" {
		missing = append(missing, "name")
	}
	if d.IP == "" {
		missing = append(missing, "ip")
	}
	if d.Type == "" {
		missing = append(missing, "type")
	}
	if d.Location == "" {
		missing = append(missing, "location")
	}
	if d.SSHUsername == "" {
		missing = append(missing, "sshUsername")
	}
	if d.SSHPassword == "" {
		missing = append(missing, "sshPassword")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %w: %s", ErrInvalidDevice, ErrMissingFields, strings.Join(missing, ", "))
	}

	if !d.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidDevice, d.Type)
	}
	if addr, err := netip.ParseAddr(d.IP); err != nil || !addr.Is4() {
		return fmt.Errorf("%w: ip %q is not an IPv4 address", ErrInvalidDevice, d.IP)
	}
	return nil
}

// DeviceUpdate carries a partial update; nil fields are left unchanged
type DeviceUpdate struct {
	Name        *string     `json:"name,omitempty"`
	Type        *DeviceType `json:"type,omitempty"`
	IP          *string     `json:"ip,omitempty"`
	MAC         *string     `json:"mac,omitempty"`
	Location    *string     `json:"location,omitempty"`
	Description *string     `json:"description,omitempty"`
	SSHUsername *string     `json:"sshUsername,omitempty"`
	SSHPassword *string     `json:"sshPassword,omitempty"`
}

// Empty reports whether the update changes nothing
func (u DeviceUpdate) Empty() bool {
	return u.Name == nil && u.Type == nil && u.IP == nil && u.MAC == nil &&
		u.Location == nil && u.Description == nil && u.SSHUsername == nil && u.SSHPassword == nil
}

// Validate checks the fields that are present
func (u DeviceUpdate) Validate() error {
	if u.Type != nil && !u.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidDevice, *u.Type)
	}
	if u.IP != nil {
		if addr, err := netip.ParseAddr(*u.IP); err != nil || !addr.Is4() {
			return fmt.Errorf("%w: ip %q is not an IPv4 address", ErrInvalidDevice, *u.IP)
		}
	}
	if u.Name != nil && *u.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidDevice)
	}
	return nil
}

// Apply copies the present fields onto d. Supplying either credential marks
// the pair as operator-provided.
func (u DeviceUpdate) Apply(d *Device) {
	if u.Name != nil {
		d.Name = *u.Name
	}
	if u.Type != nil {
		d.Type = *u.Type
	}
	if u.IP != nil {
		d.IP = *u.IP
	}
	if u.MAC != nil {
		d.MAC = *u.MAC
	}
	if u.Location != nil {
		d.Location = *u.Location
	}
	if u.Description != nil {
		d.Description = *u.Description
	}
	if u.SSHUsername != nil {
		d.SSHUsername = *u.SSHUsername
		d.CredentialsVerified = true
	}
	if u.SSHPassword != nil {
		d.SSHPassword = *u.SSHPassword
		d.CredentialsVerified = true
	}
}

// DiscoveredHost is a live host after identity resolution and classification
type DiscoveredHost struct {
	IP     string     `json:"ip"`
	MAC    string     `json:"mac"`
	Vendor string     `json:"vendor"`
	Type   DeviceType `json:"type"`
}

// ExecResult is the outcome of one remote command
type ExecResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"code"`
}

// Redacted returns a copy without the SSH password, for broadcast payloads
func (d *Device) Redacted() Device {
	c := *d
	c.SSHPassword = ""
	return c
}

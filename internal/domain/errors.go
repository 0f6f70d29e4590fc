package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSubnetFound means no non-loopback IPv4 interface was available
	ErrNoSubnetFound = errors.New("could not determine subnet")
	// ErrScanInProgress is returned when a scan is requested while one is running
	ErrScanInProgress = errors.New("scan already in progress")
	// ErrDeviceNotFound is returned for an id with no record
	ErrDeviceNotFound = errors.New("device not found")
	// ErrInvalidID is returned for ids that are not store identifiers
	ErrInvalidID = errors.New("invalid device id")
	// ErrInvalidCommand is returned for a blank configure command
	ErrInvalidCommand = errors.New("command is required")
	// ErrInvalidDevice wraps field validation failures
	ErrInvalidDevice = errors.New("invalid device data")
	// ErrMissingFields marks a create request without every mandatory field
	ErrMissingFields = errors.New("missing mandatory fields")
	// ErrDuplicateIP is returned when a manual add reuses an existing IP
	ErrDuplicateIP = errors.New("device with this IP already exists")
	// ErrDuplicateMAC is returned by the store when a known MAC is inserted twice
	ErrDuplicateMAC = errors.New("device with this MAC already exists")
)

// SessionError reports a failed connect, authentication or command execution
// during remote control. The underlying message is preserved verbatim.
type SessionError struct {
	Host string
	Err  error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("SSH command failed: %v", e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

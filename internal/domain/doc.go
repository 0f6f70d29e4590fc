// Package domain defines the core types of the device inventory.
//
// # Devices
//
// Device is a single inventory record. Records are created either manually
// (all mandatory fields supplied) or by network discovery, in which case the
// name, location, description and credentials carry placeholder defaults and
// CredentialsVerified is false.
//
// The MAC field is the deduplication key for discovery. The UnknownMAC
// sentinel means the hardware address was not resolved; such records are
// never deduplicated against each other.
//
// # Errors
//
// Sentinel errors (ErrNoSubnetFound, ErrDeviceNotFound, ErrInvalidCommand, ...)
// are compared with errors.Is. SessionError wraps remote-control failures and
// keeps the underlying message intact so operators can diagnose credential and
// network problems.
package domain

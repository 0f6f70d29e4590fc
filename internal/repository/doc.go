// Package repository defines the data access interface for the device
// inventory.
//
// The sqlite subpackage implements DeviceStore on modernc.org/sqlite with
// WAL mode. It enforces one record per resolved MAC address with a partial
// unique index; rows carrying the "Unknown" sentinel are exempt.
package repository

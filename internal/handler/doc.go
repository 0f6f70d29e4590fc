// Package handler implements the HTTP API for devicectl.
//
// # Routes
//
//	GET    /api/devices                 list the inventory
//	POST   /api/devices                 add a device
//	GET    /api/devices/{id}            fetch one device
//	PUT    /api/devices/{id}            partial update
//	DELETE /api/devices/{id}            remove a device
//	GET    /api/devices/export          inventory as ?format=json|yaml|ansible
//	POST   /api/devices/scan            discover devices on the local subnet
//	POST   /api/devices/{id}/restart    reboot over SSH
//	POST   /api/devices/{id}/shutdown   power off over SSH
//	POST   /api/devices/{id}/configure  run {"command": "..."} over SSH
//
// Failures are reported as {"message": "...", "error": "..."} with the
// error field present only when there is an underlying cause to show.
// Remote-control failures carry the session error message verbatim.
package handler

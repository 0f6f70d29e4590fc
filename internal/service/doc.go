// Package service implements the device inventory use cases.
//
// DiscoveryService runs a network scan end to end and hands the classified
// hosts to Reconciler, which records hosts whose MAC address is not yet in
// the inventory. ControlService restarts, shuts down or configures a device
// over a fresh SSH session per request. DeviceService covers operator CRUD.
//
// All services publish events through a Notifier; EventBus fans them out to
// subscribers such as the websocket hub without blocking the caller.
package service

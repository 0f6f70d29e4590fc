package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"devicectl/internal/codec"
	"devicectl/internal/domain"
)

const maxBodyBytes = 64 * 1024

// DeviceManager is the inventory CRUD surface
type DeviceManager interface {
	List(ctx context.Context) ([]*domain.Device, error)
	Get(ctx context.Context, id string) (*domain.Device, error)
	Add(ctx context.Context, device *domain.Device) error
	Update(ctx context.Context, id string, update domain.DeviceUpdate) (*domain.Device, error)
	Delete(ctx context.Context, id string) (*domain.Device, error)
}

// Scanner runs a network scan
type Scanner interface {
	Scan(ctx context.Context) ([]*domain.Device, error)
}

// Controller issues remote commands
type Controller interface {
	Restart(ctx context.Context, id string) (domain.ExecResult, error)
	Shutdown(ctx context.Context, id string) (domain.ExecResult, error)
	Configure(ctx context.Context, id, command string) (domain.ExecResult, error)
}

// DeviceHandler handles the /api/devices routes
type DeviceHandler struct {
	devices DeviceManager
	scanner Scanner
	control Controller
	logger  zerolog.Logger
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(devices DeviceManager, scanner Scanner, control Controller, logger zerolog.Logger) *DeviceHandler {
	return &DeviceHandler{
		devices: devices,
		scanner: scanner,
		control: control,
		logger:  logger,
	}
}

// Register mounts the device routes on mux. wrap decorates each route's
// handler and receives its pattern.
func (h *DeviceHandler) Register(mux *http.ServeMux, wrap func(pattern string, next http.Handler) http.Handler) {
	if wrap == nil {
		wrap = func(_ string, next http.Handler) http.Handler { return next }
	}

	routes := []struct {
		pattern string
		fn      http.HandlerFunc
	}{
		{"GET /api/devices", h.ListDevices},
		{"POST /api/devices", h.AddDevice},
		{"POST /api/devices/scan", h.ScanNetwork},
		{"GET /api/devices/export", h.ExportDevices},
		{"GET /api/devices/{id}", h.GetDevice},
		{"PUT /api/devices/{id}", h.UpdateDevice},
		{"DELETE /api/devices/{id}", h.DeleteDevice},
		{"POST /api/devices/{id}/restart", h.RestartDevice},
		{"POST /api/devices/{id}/shutdown", h.ShutdownDevice},
		{"POST /api/devices/{id}/configure", h.ConfigureDevice},
	}
	for _, rt := range routes {
		mux.Handle(rt.pattern, wrap(rt.pattern, rt.fn))
	}
}

// createDeviceRequest is the body accepted by AddDevice
type createDeviceRequest struct {
	Name        string            `json:"name"`
	Type        domain.DeviceType `json:"type"`
	IP          string            `json:"ip"`
	Location    string            `json:"location"`
	Description string            `json:"description"`
	SSHUsername string            `json:"sshUsername"`
	SSHPassword string            `json:"sshPassword"`
}

type configureRequest struct {
	Command string `json:"command"`
}

// ListDevices returns every device
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.devices.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list devices")
		writeError(w, "Could not fetch devices!", err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, devices, http.StatusOK)
}

// GetDevice returns a single device
func (h *DeviceHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	device, err := h.devices.Get(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, "Invalid device id!", "", http.StatusBadRequest)
	case errors.Is(err, domain.ErrDeviceNotFound):
		writeError(w, "Could not fetch the device!", "", http.StatusBadRequest)
	case err != nil:
		h.logger.Error().Err(err).Msg("failed to get device")
		writeError(w, "Could not fetch the device!", err.Error(), http.StatusInternalServerError)
	default:
		writeJSON(w, device, http.StatusOK)
	}
}

// AddDevice creates a device from operator input
func (h *DeviceHandler) AddDevice(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	if !h.decode(w, r, &req, false) {
		return
	}

	device := &domain.Device{
		Name:        req.Name,
		Type:        req.Type,
		IP:          req.IP,
		Location:    req.Location,
		Description: req.Description,
		SSHUsername: req.SSHUsername,
		SSHPassword: req.SSHPassword,
	}

	err := h.devices.Add(r.Context(), device)
	switch {
	case errors.Is(err, domain.ErrMissingFields):
		writeError(w, "Please fill out all mandatory fields!", "", http.StatusBadRequest)
	case errors.Is(err, domain.ErrDuplicateIP):
		writeError(w, "Device with this IP already exists!", "", http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidDevice):
		writeError(w, "Invalid device data!", err.Error(), http.StatusBadRequest)
	case err != nil:
		h.logger.Error().Err(err).Msg("failed to add device")
		writeError(w, "Invalid device data!", err.Error(), http.StatusInternalServerError)
	default:
		writeJSON(w, device, http.StatusCreated)
	}
}

// UpdateDevice applies a partial update
func (h *DeviceHandler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	var update domain.DeviceUpdate
	if !h.decode(w, r, &update, false) {
		return
	}

	device, err := h.devices.Update(r.Context(), r.PathValue("id"), update)
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, "Invalid device id!", "", http.StatusBadRequest)
	case errors.Is(err, domain.ErrDuplicateIP):
		writeError(w, "Device with this IP already exists!", "", http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidDevice):
		writeError(w, "Invalid device data!", err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrDeviceNotFound):
		writeError(w, "Could not update the device!", "", http.StatusBadRequest)
	case err != nil:
		h.logger.Error().Err(err).Msg("failed to update device")
		writeError(w, "Could not update the device!", err.Error(), http.StatusInternalServerError)
	default:
		writeJSON(w, device, http.StatusOK)
	}
}

// DeleteDevice removes a device and returns it
func (h *DeviceHandler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	device, err := h.devices.Delete(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, "Invalid device id!", "", http.StatusBadRequest)
	case errors.Is(err, domain.ErrDeviceNotFound):
		writeError(w, "Could not delete the device!", "", http.StatusBadRequest)
	case err != nil:
		h.logger.Error().Err(err).Msg("failed to delete device")
		writeError(w, "Could not delete the device!", err.Error(), http.StatusInternalServerError)
	default:
		writeJSON(w, device, http.StatusOK)
	}
}

// ExportDevices writes the inventory as ?format=json|yaml|ansible, json by
// default
func (h *DeviceHandler) ExportDevices(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	exporter, ok := codec.ForFormat(format)
	if !ok {
		writeError(w, "Unsupported export format!", "supported: "+strings.Join(codec.Formats(), ", "), http.StatusBadRequest)
		return
	}

	devices, err := h.devices.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list devices for export")
		writeError(w, "Could not fetch devices!", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="devices-%s.%s"`, exporter.Format(), extension(exporter)))
	if err := exporter.Export(devices, w); err != nil {
		h.logger.Error().Err(err).Str("format", exporter.Format()).Msg("export failed")
	}
}

func extension(e codec.Exporter) string {
	if e.ContentType() == "application/json" {
		return "json"
	}
	return "yaml"
}

// ScanNetwork discovers devices on the local subnet. The scan outlives a
// disconnecting client so its results still reach the inventory.
func (h *DeviceHandler) ScanNetwork(w http.ResponseWriter, r *http.Request) {
	created, err := h.scanner.Scan(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, domain.ErrNoSubnetFound):
		writeError(w, "Could not determine subnet!", "", http.StatusBadRequest)
	case errors.Is(err, domain.ErrScanInProgress):
		writeError(w, "Scan already in progress!", "", http.StatusConflict)
	case err != nil:
		writeError(w, "Network scan failed", err.Error(), http.StatusInternalServerError)
	default:
		writeJSON(w, ScanResponse{Message: "Network scan completed.", Count: len(created), Devices: created}, http.StatusOK)
	}
}

// RestartDevice reboots a device
func (h *DeviceHandler) RestartDevice(w http.ResponseWriter, r *http.Request) {
	result, err := h.control.Restart(r.Context(), r.PathValue("id"))
	h.writeCommand(w, result, err, "Device restarted successfully.", "Failed to restart device.")
}

// ShutdownDevice powers a device off
func (h *DeviceHandler) ShutdownDevice(w http.ResponseWriter, r *http.Request) {
	result, err := h.control.Shutdown(r.Context(), r.PathValue("id"))
	h.writeCommand(w, result, err, "Device shutdown successfully.", "Failed to shutdown device.")
}

// ConfigureDevice runs an operator-supplied command
func (h *DeviceHandler) ConfigureDevice(w http.ResponseWriter, r *http.Request) {
	var req configureRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	result, err := h.control.Configure(r.Context(), r.PathValue("id"), req.Command)
	h.writeCommand(w, result, err, "Command executed successfully.", "Failed to execute command.")
}

func (h *DeviceHandler) writeCommand(w http.ResponseWriter, result domain.ExecResult, err error, success, failure string) {
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, "Invalid device id!", "", http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidCommand):
		writeError(w, "Command is required!", "", http.StatusBadRequest)
	case errors.Is(err, domain.ErrDeviceNotFound):
		writeError(w, "Device not found!", "", http.StatusNotFound)
	case err != nil:
		writeError(w, failure, err.Error(), http.StatusInternalServerError)
	default:
		writeJSON(w, CommandResponse{Message: success, Result: result}, http.StatusOK)
	}
}

// decode reads a JSON body into dst. With allowEmpty an absent body leaves
// dst zeroed. Reports false after writing an error response.
func (h *DeviceHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, "Request body too large", "", http.StatusRequestEntityTooLarge)
		return false
	}
	writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
	return false
}

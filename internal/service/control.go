package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"devicectl/internal/domain"
	"devicectl/internal/metrics"
)

const (
	CommandRestart  = "sudo reboot"
	CommandShutdown = "sudo shutdown -h now"
)

// DeviceFinder loads a device by id
type DeviceFinder interface {
	FindByID(ctx context.Context, id string) (*domain.Device, error)
}

// RemoteExecutor runs one command on a device
type RemoteExecutor interface {
	Execute(ctx context.Context, device *domain.Device, command string) (domain.ExecResult, error)
}

// ControlService issues remote commands to inventory devices
type ControlService struct {
	store    DeviceFinder
	executor RemoteExecutor
	notifier Notifier
	logger   zerolog.Logger
}

// NewControlService creates a control service
func NewControlService(store DeviceFinder, executor RemoteExecutor, notifier Notifier, logger zerolog.Logger) *ControlService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &ControlService{
		store:    store,
		executor: executor,
		notifier: notifier,
		logger:   logger,
	}
}

// Restart reboots the device
func (s *ControlService) Restart(ctx context.Context, id string) (domain.ExecResult, error) {
	return s.run(ctx, "restart", id, CommandRestart)
}

// Shutdown powers the device off
func (s *ControlService) Shutdown(ctx context.Context, id string) (domain.ExecResult, error) {
	return s.run(ctx, "shutdown", id, CommandShutdown)
}

// Configure runs an operator-supplied command verbatim. A blank command is
// rejected before the device is looked up.
func (s *ControlService) Configure(ctx context.Context, id, command string) (domain.ExecResult, error) {
	if err := validateID(id); err != nil {
		return domain.ExecResult{}, err
	}
	if strings.TrimSpace(command) == "" {
		return domain.ExecResult{}, domain.ErrInvalidCommand
	}
	return s.run(ctx, "configure", id, command)
}

func (s *ControlService) run(ctx context.Context, action, id, command string) (domain.ExecResult, error) {
	if err := validateID(id); err != nil {
		return domain.ExecResult{}, err
	}

	device, err := s.store.FindByID(ctx, id)
	if err != nil {
		return domain.ExecResult{}, err
	}
	if device == nil {
		return domain.ExecResult{}, domain.ErrDeviceNotFound
	}

	log := s.logger.With().Str("action", action).Str("device_id", id).Str("ip", device.IP).Logger()
	log.Info().Msg("remote command requested")

	result, err := s.executor.Execute(ctx, device, command)
	metrics.RemoteCommand(action, err)

	payload := map[string]interface{}{
		"deviceId": id,
		"action":   action,
		"success":  err == nil,
	}
	if err != nil {
		log.Warn().Err(err).Msg("remote command failed")
		payload["error"] = err.Error()
	} else {
		payload["code"] = result.ExitCode
	}
	s.notifier.Publish(Event{Type: EventCommandExecuted, Payload: payload})

	return result, err
}

// validateID rejects ids that cannot name a stored device
func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrInvalidID
	}
	return nil
}

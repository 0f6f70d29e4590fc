package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"

	"devicectl/internal/domain"
)

// ExitCodeUnknown is reported when the session closed without an exit status
const ExitCodeUnknown = -1

// Credentials authenticate a remote session
type Credentials struct {
	Username string
	Password string
}

// Session is an authenticated connection able to run commands
type Session interface {
	// Run executes cmd and waits for it. A non-zero exit status is reported
	// in the result, not as an error.
	Run(cmd string) (domain.ExecResult, error)
	Close() error
}

// Dialer opens remote sessions
type Dialer interface {
	Dial(ctx context.Context, addr string, creds Credentials) (Session, error)
}

// SSHDialer opens password-authenticated SSH connections
type SSHDialer struct {
	timeout time.Duration
}

// NewSSHDialer creates a dialer. A zero timeout leaves connect unbounded
// except by ctx.
func NewSSHDialer(timeout time.Duration) *SSHDialer {
	return &SSHDialer{timeout: timeout}
}

// Dial establishes an SSH connection to addr (host:port)
func (d *SSHDialer) Dial(ctx context.Context, addr string, creds Credentials) (Session, error) {
	config := &ssh.ClientConfig{
		User: creds.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(creds.Password),
		},
		// Devices are addressed by IP from a LAN scan with no known_hosts
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         d.timeout,
	}

	dialer := &net.Dialer{Timeout: d.timeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}

	// ssh.NewClientConn takes no context; bound the handshake by ctx
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to establish SSH connection: %w", err)
	}
	_ = conn.SetDeadline(time.Time{})

	return &sshSession{client: ssh.NewClient(sshConn, chans, reqs)}, nil
}

type sshSession struct {
	client *ssh.Client
}

func (s *sshSession) Run(cmd string) (domain.ExecResult, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return domain.ExecResult{}, fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	err = session.Run(cmd)
	result := domain.ExecResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			// Command ran but exited non-zero
			result.ExitCode = exitErr.ExitStatus()
			return result, nil
		}
		var missingErr *ssh.ExitMissingError
		if errors.As(err, &missingErr) {
			// reboot and shutdown drop the connection before reporting
			result.ExitCode = ExitCodeUnknown
			return result, nil
		}
		return result, fmt.Errorf("command failed: %w", err)
	}

	return result, nil
}

func (s *sshSession) Close() error {
	return s.client.Close()
}

// Executor runs exactly one command per call on a fresh session
type Executor struct {
	dialer Dialer
	port   int
	logger zerolog.Logger
}

func NewExecutor(dialer Dialer, port int, logger zerolog.Logger) *Executor {
	return &Executor{dialer: dialer, port: port, logger: logger}
}

// Execute connects to device with its stored credentials, runs command and
// tears the session down on every path. Connect, auth and transport
// failures are returned as *domain.SessionError.
func (e *Executor) Execute(ctx context.Context, device *domain.Device, command string) (domain.ExecResult, error) {
	addr := device.Address(e.port)

	sess, err := e.dialer.Dial(ctx, addr, Credentials{
		Username: device.SSHUsername,
		Password: device.SSHPassword,
	})
	if err != nil {
		return domain.ExecResult{}, &domain.SessionError{Host: addr, Err: err}
	}
	defer func() {
		if err := sess.Close(); err != nil {
			e.logger.Debug().Err(err).Str("host", addr).Msg("session close failed")
		}
	}()

	start := time.Now()
	result, err := sess.Run(command)
	if err != nil {
		return domain.ExecResult{}, &domain.SessionError{Host: addr, Err: err}
	}

	e.logger.Info().
		Str("host", addr).
		Str("device_id", device.ID).
		Int("exit_code", result.ExitCode).
		Dur("elapsed", time.Since(start)).
		Msg("remote command finished")

	return result, nil
}

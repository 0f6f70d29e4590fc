package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"os/exec"
	"strconv"
	"time"
)

// ExecPinger shells out to the system ping binary
type ExecPinger struct {
	path string
}

// NewExecPinger uses the ping found on PATH, or path when non-empty
func NewExecPinger(path string) *ExecPinger {
	if path == "" {
		path = "ping"
	}
	return &ExecPinger{path: path}
}

func (p *ExecPinger) Ping(ctx context.Context, addr netip.Addr, timeout time.Duration) (bool, error) {
	// Linux ping: -c count, -W timeout in seconds
	timeoutSec := int(timeout.Seconds())
	if timeoutSec < 1 {
		timeoutSec = 1
	}

	ctx, cancel := context.WithTimeout(ctx, timeout+time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.path, "-c", "1", "-W", strconv.Itoa(timeoutSec), addr.String())
	err := cmd.Run()
	if err == nil {
		return true, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	if ctx.Err() != nil {
		return false, nil
	}
	return false, fmt.Errorf("run %s: %w", p.path, err)
}

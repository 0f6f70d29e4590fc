package adapter

import (
	"time"

	"github.com/rs/zerolog"
)

// NmapOption is a functional option for configuring NmapProber
type NmapOption func(*NmapProber)

// WithTimeout sets the timeout for the entire nmap sweep
func WithTimeout(d time.Duration) NmapOption {
	return func(n *NmapProber) {
		n.timeout = d
	}
}

// WithBinaryPath points at a specific nmap executable
func WithBinaryPath(path string) NmapOption {
	return func(n *NmapProber) {
		n.binaryPath = path
	}
}

// WithNmapLogger sets the component logger
func WithNmapLogger(logger zerolog.Logger) NmapOption {
	return func(n *NmapProber) {
		n.logger = logger
	}
}

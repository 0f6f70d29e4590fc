package adapter

import (
	"context"
	"os/exec"
	"time"
)

// Capabilities records which liveness back-ends this host can run
type Capabilities struct {
	ICMPSocket bool   // unprivileged or raw ICMP socket can be opened
	PingPath   string // ping binary, empty when absent
	NmapPath   string // nmap binary, empty when absent
}

// DetectCapabilities probes the local host for usable probe back-ends
func DetectCapabilities(ctx context.Context) Capabilities {
	var caps Capabilities

	if conn, _, err := listenICMP(); err == nil {
		conn.Close()
		caps.ICMPSocket = true
	}

	if path, err := exec.LookPath("ping"); err == nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if exec.CommandContext(ctx, path, "-c", "1", "-W", "1", "127.0.0.1").Run() == nil {
			caps.PingPath = path
		}
	}

	if path, err := exec.LookPath("nmap"); err == nil {
		caps.NmapPath = path
	}

	return caps
}

// PreferredMethod picks the cheapest back-end available: icmp, exec, nmap.
// It returns "" when none is usable.
func (c Capabilities) PreferredMethod() string {
	switch {
	case c.ICMPSocket:
		return "icmp"
	case c.PingPath != "":
		return "exec"
	case c.NmapPath != "":
		return "nmap"
	}
	return ""
}


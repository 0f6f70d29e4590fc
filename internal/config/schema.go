package config

import (
	"time"

	"devicectl/internal/logging"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  logging.Config `yaml:"logging"`
	API      APIConfig      `yaml:"api"`
	Scan     ScanConfig     `yaml:"scan"`
	SSH      SSHConfig      `yaml:"ssh"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// APIConfig holds API access settings. A token is required unless
// Insecure is set explicitly.
type APIConfig struct {
	Token    string `yaml:"token,omitempty"`
	Insecure bool   `yaml:"insecure,omitempty"` // permit an empty token, serving /api without auth
}

// ScanConfig holds discovery settings
type ScanConfig struct {
	Interface     string      `yaml:"interface,omitempty"`    // restrict subnet resolution to one NIC
	ProbeMethod   ProbeMethod `yaml:"probe_method"`
	MaxConcurrent int         `yaml:"max_concurrent"`
	ARPTable      string      `yaml:"arp_table"`
	OUIFile       string      `yaml:"oui_file,omitempty"`     // optional vendor table override
	OUIRegistry   string      `yaml:"oui_registry,omitempty"` // IEEE/nmap/wireshark registry; empty searches system paths
	NmapTimeout   Duration    `yaml:"nmap_timeout,omitempty"` // whole-sweep bound for probe_method nmap

	// Credentials stamped on auto-discovered devices
	DefaultUsername string `yaml:"default_username"`
	DefaultPassword string `yaml:"default_password"`
}

// SSHConfig holds remote session settings
type SSHConfig struct {
	Port           int      `yaml:"port"`
	ConnectTimeout Duration `yaml:"connect_timeout,omitempty"` // 0 = no limit
}

// ProbeMethod selects the liveness back-end
type ProbeMethod string

const (
	ProbeAuto ProbeMethod = "auto"
	ProbeICMP ProbeMethod = "icmp"
	ProbeExec ProbeMethod = "exec"
	ProbeNmap ProbeMethod = "nmap"
)

func (m ProbeMethod) Valid() bool {
	switch m {
	case ProbeAuto, ProbeICMP, ProbeExec, ProbeNmap:
		return true
	}
	return false
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

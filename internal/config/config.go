// Package config provides configuration management for devicectl.
//
// Config file locations (priority order):
//  1. $DEVICECTL_CONFIG
//  2. ./devicectl.yaml
//  3. $XDG_CONFIG_HOME/devicectl/config.yaml
//  4. ~/.config/devicectl/config.yaml
//  5. /etc/devicectl/config.yaml
//
// Command-line flags override whatever the file provides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr          = ":3000"
	DefaultDatabasePath  = "./devicectl.db"
	DefaultMaxConcurrent = 254
	DefaultSSHPort       = 22
	DefaultCredential    = "admin"
	DefaultARPTable      = "/proc/net/arp"
	DefaultNmapTimeout   = 5 * time.Minute

	// EnvAPIToken supplies api.token when the file leaves it empty
	EnvAPIToken = "DEVICECTL_API_TOKEN"
)

// ErrNoAPIToken is returned by Validate when neither a token nor the
// explicit insecure opt-out is configured
var ErrNoAPIToken = errors.New("api.token is required (or set api.insecure: true)")

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		cfg := DefaultConfig()
		if err := cfg.Validate(); err != nil {
			return nil, "", err
		}
		return cfg, "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{Version: 1}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Scan.ProbeMethod == "" {
		c.Scan.ProbeMethod = ProbeAuto
	}
	if c.Scan.MaxConcurrent <= 0 {
		c.Scan.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.Scan.ARPTable == "" {
		c.Scan.ARPTable = DefaultARPTable
	}
	if c.Scan.DefaultUsername == "" {
		c.Scan.DefaultUsername = DefaultCredential
	}
	if c.Scan.DefaultPassword == "" {
		c.Scan.DefaultPassword = DefaultCredential
	}
	if c.Scan.NmapTimeout == 0 {
		c.Scan.NmapTimeout = Duration(DefaultNmapTimeout)
	}
	if c.SSH.Port == 0 {
		c.SSH.Port = DefaultSSHPort
	}
	if c.API.Token == "" {
		c.API.Token = os.Getenv(EnvAPIToken)
	}
}

// Validate rejects settings that cannot be defaulted away
func (c *Config) Validate() error {
	if c.API.Token == "" && !c.API.Insecure {
		return ErrNoAPIToken
	}
	if !c.Scan.ProbeMethod.Valid() {
		return fmt.Errorf("invalid scan.probe_method %q", c.Scan.ProbeMethod)
	}
	if c.SSH.Port < 1 || c.SSH.Port > 65535 {
		return fmt.Errorf("invalid ssh.port %d", c.SSH.Port)
	}
	if c.Scan.NmapTimeout < 0 {
		return fmt.Errorf("invalid scan.nmap_timeout %s", c.Scan.NmapTimeout.Duration())
	}
	if c.SSH.ConnectTimeout < 0 {
		return fmt.Errorf("invalid ssh.connect_timeout %s", c.SSH.ConnectTimeout.Duration())
	}
	return nil
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	auth := "bearer"
	if c.API.Token == "" {
		auth = "disabled"
	}

	summary := fmt.Sprintf("Listen: %s, Database: %s, Auth: %s\n", c.Server.Addr, c.Database.Path, auth)
	summary += fmt.Sprintf("Probe: %s, Concurrency: %d", c.Scan.ProbeMethod, c.Scan.MaxConcurrent)
	if c.Scan.Interface != "" {
		summary += fmt.Sprintf(", Interface: %s", c.Scan.Interface)
	}
	return summary
}

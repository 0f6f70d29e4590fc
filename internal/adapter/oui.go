package adapter

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed oui.yaml
var builtinOUI []byte

type ouiFile struct {
	Vendors map[string]string `yaml:"vendors"`
}

// OUIDatabase maps the 24-bit organizationally unique identifier of a MAC
// address to its registered vendor. Entries are layered: a full registry
// file when one is available, then the built-in table, then the operator
// override.
type OUIDatabase struct {
	overridePath string
	registryPath string
	searchPaths  []string

	mu       sync.RWMutex
	vendors  map[string]string
	registry string
}

// OUIOption configures where LoadOUIDatabase finds a full registry
type OUIOption func(*OUIDatabase)

// WithRegistryFile loads the registry from path; a missing or unreadable
// file is an error
func WithRegistryFile(path string) OUIOption {
	return func(db *OUIDatabase) {
		db.registryPath = path
	}
}

// WithRegistrySearch replaces DefaultRegistryPaths. The first existing
// path is used; none existing leaves only the built-in table.
func WithRegistrySearch(paths ...string) OUIOption {
	return func(db *OUIDatabase) {
		db.searchPaths = paths
	}
}

// LoadOUIDatabase loads the registry and built-in table, then overlays
// overridePath when it is non-empty
func LoadOUIDatabase(overridePath string, opts ...OUIOption) (*OUIDatabase, error) {
	db := &OUIDatabase{overridePath: overridePath, searchPaths: DefaultRegistryPaths}
	for _, opt := range opts {
		opt(db)
	}
	if err := db.Reload(); err != nil {
		return nil, err
	}
	return db, nil
}

// Reload rebuilds the table from its sources. On error the current table
// is kept.
func (db *OUIDatabase) Reload() error {
	vendors := make(map[string]string)

	registry, err := db.loadRegistry(vendors)
	if err != nil {
		return err
	}

	if err := merge(vendors, builtinOUI); err != nil {
		return fmt.Errorf("builtin oui table: %w", err)
	}

	if db.overridePath != "" {
		data, err := os.ReadFile(db.overridePath)
		if err != nil {
			return fmt.Errorf("read oui file: %w", err)
		}
		if err := merge(vendors, data); err != nil {
			return fmt.Errorf("parse oui file %s: %w", db.overridePath, err)
		}
	}

	db.mu.Lock()
	db.vendors = vendors
	db.registry = registry
	db.mu.Unlock()
	return nil
}

// loadRegistry fills vendors from the configured or first found registry
// and returns its path, or "" when none was used
func (db *OUIDatabase) loadRegistry(vendors map[string]string) (string, error) {
	if db.registryPath != "" {
		data, err := os.ReadFile(db.registryPath)
		if err != nil {
			return "", fmt.Errorf("read oui registry: %w", err)
		}
		if _, err := parseRegistry(data, vendors); err != nil {
			return "", fmt.Errorf("parse oui registry %s: %w", db.registryPath, err)
		}
		return db.registryPath, nil
	}

	for _, path := range db.searchPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if _, err := parseRegistry(data, vendors); err != nil {
			// a damaged system file should not block startup
			clear(vendors)
			continue
		}
		return path, nil
	}
	return "", nil
}

// Registry returns the registry file in use, or "" for the built-in table
// only
func (db *OUIDatabase) Registry() string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.registry
}

func merge(vendors map[string]string, data []byte) error {
	var f ouiFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}
	for prefix, vendor := range f.Vendors {
		key := ouiKey(prefix)
		if len(key) != 6 {
			return fmt.Errorf("invalid oui prefix %q", prefix)
		}
		vendors[key] = vendor
	}
	return nil
}

// Lookup returns the vendor for mac, or "" when the prefix is not listed
func (db *OUIDatabase) Lookup(mac string) string {
	key := ouiKey(mac)
	if len(key) < 6 {
		return ""
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.vendors[key[:6]]
}

func (db *OUIDatabase) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.vendors)
}

// ouiKey strips separators and upper-cases the hex digits
func ouiKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		switch {
		case r >= '0' && r <= '9', r >= 'A' && r <= 'F':
			b.WriteRune(r)
		case r == ':' || r == '-' || r == '.':
		default:
			return ""
		}
	}
	return b.String()
}

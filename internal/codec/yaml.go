package codec

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"devicectl/internal/domain"
)

// YAMLCodec exports the inventory as a YAML document
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

func (c *YAMLCodec) ContentType() string {
	return "application/yaml"
}

type yamlInventory struct {
	Devices []yamlDevice `yaml:"devices"`
}

type yamlDevice struct {
	ID                  string     `yaml:"id"`
	Name                string     `yaml:"name"`
	Type                string     `yaml:"type"`
	IP                  string     `yaml:"ip"`
	MAC                 string     `yaml:"mac,omitempty"`
	Location            string     `yaml:"location"`
	Description         string     `yaml:"description,omitempty"`
	SSHUsername         string     `yaml:"ssh_username"`
	CredentialsVerified bool       `yaml:"credentials_verified"`
	Status              string     `yaml:"status,omitempty"`
	LastChecked         *time.Time `yaml:"last_checked,omitempty"`
	CreatedAt           time.Time  `yaml:"created_at"`
}

// Export writes devices under a top-level devices key
func (c *YAMLCodec) Export(devices []*domain.Device, w io.Writer) error {
	inv := yamlInventory{Devices: make([]yamlDevice, 0, len(devices))}
	for _, d := range devices {
		inv.Devices = append(inv.Devices, yamlDevice{
			ID:                  d.ID,
			Name:                d.Name,
			Type:                string(d.Type),
			IP:                  d.IP,
			MAC:                 d.MAC,
			Location:            d.Location,
			Description:         d.Description,
			SSHUsername:         d.SSHUsername,
			CredentialsVerified: d.CredentialsVerified,
			Status:              string(d.Status),
			LastChecked:         d.LastChecked,
			CreatedAt:           d.CreatedAt,
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&inv); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}

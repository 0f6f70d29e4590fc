package codec

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"devicectl/internal/domain"
)

// AnsibleCodec exports the inventory as an Ansible YAML inventory with one
// group per device type
type AnsibleCodec struct{}

// NewAnsibleCodec creates a new Ansible codec
func NewAnsibleCodec() *AnsibleCodec {
	return &AnsibleCodec{}
}

// Format returns the codec format identifier
func (c *AnsibleCodec) Format() string {
	return "ansible"
}

func (c *AnsibleCodec) ContentType() string {
	return "application/yaml"
}

// ansibleInventory represents the Ansible inventory structure
type ansibleInventory struct {
	All ansibleGroup `yaml:"all"`
}

type ansibleGroup struct {
	Children map[string]ansibleGroupDef `yaml:"children,omitempty"`
}

type ansibleGroupDef struct {
	Hosts map[string]ansibleHost `yaml:"hosts"`
}

type ansibleHost struct {
	AnsibleHost string `yaml:"ansible_host"`
	AnsibleUser string `yaml:"ansible_user,omitempty"`
	DeviceID    string `yaml:"device_id"`
	MAC         string `yaml:"mac,omitempty"`
	Location    string `yaml:"location,omitempty"`
}

// Export writes devices grouped by type
func (c *AnsibleCodec) Export(devices []*domain.Device, w io.Writer) error {
	inv := ansibleInventory{
		All: ansibleGroup{
			Children: make(map[string]ansibleGroupDef),
		},
	}

	for _, d := range devices {
		group := groupName(d.Type)
		if _, ok := inv.All.Children[group]; !ok {
			inv.All.Children[group] = ansibleGroupDef{Hosts: make(map[string]ansibleHost)}
		}

		mac := d.MAC
		if mac == domain.UnknownMAC {
			mac = ""
		}
		inv.All.Children[group].Hosts[hostName(d)] = ansibleHost{
			AnsibleHost: d.IP,
			AnsibleUser: d.SSHUsername,
			DeviceID:    d.ID,
			MAC:         mac,
			Location:    d.Location,
		}
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&inv); err != nil {
		return fmt.Errorf("failed to encode Ansible inventory: %w", err)
	}

	return nil
}

// groupName turns "Access Point" into "access_point"
func groupName(t domain.DeviceType) string {
	if t == "" {
		t = domain.DeviceTypeOther
	}
	return strings.ReplaceAll(strings.ToLower(string(t)), " ", "_")
}

// hostName builds a unique inventory hostname from the device name and IP,
// e.g. "cisco-192-168-1-10"
func hostName(d *domain.Device) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(d.Name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
		} else if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	name := strings.TrimSuffix(b.String(), "-")
	ip := strings.ReplaceAll(d.IP, ".", "-")
	if name == "" {
		return ip
	}
	return name + "-" + ip
}

package adapter

import (
	"strings"

	"devicectl/internal/domain"
)

// classificationRules are evaluated in order; the first rule with a
// matching keyword wins
var classificationRules = []struct {
	deviceType domain.DeviceType
	keywords   []string
}{
	{domain.DeviceTypeSwitch, []string{"cisco"}},
	{domain.DeviceTypeAccessPoint, []string{"aruba", "ubiquiti", "tp-link", "d-link", "tplink", "dlink"}},
	{domain.DeviceTypeDomain, []string{"domain", "dns"}},
}

// Classify assigns a device type from a vendor name by case-insensitive
// substring match
func Classify(vendor string) domain.DeviceType {
	v := strings.ToLower(vendor)
	for _, rule := range classificationRules {
		for _, kw := range rule.keywords {
			if strings.Contains(v, kw) {
				return rule.deviceType
			}
		}
	}
	return domain.DeviceTypeOther
}

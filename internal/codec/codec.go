// Package codec serializes the device inventory for export.
package codec

import (
	"io"
	"sort"
	"strings"

	"devicectl/internal/domain"
)

// Exporter writes an inventory snapshot in one format. Exports never
// include SSH passwords.
type Exporter interface {
	Export(devices []*domain.Device, w io.Writer) error
	Format() string
	ContentType() string
}

var exporters = map[string]Exporter{
	"json":    NewJSONCodec(),
	"yaml":    NewYAMLCodec(),
	"ansible": NewAnsibleCodec(),
}

// ForFormat returns the exporter registered under name
func ForFormat(name string) (Exporter, bool) {
	e, ok := exporters[strings.ToLower(name)]
	return e, ok
}

// Formats lists the supported export formats
func Formats() []string {
	names := make([]string, 0, len(exporters))
	for name := range exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func redact(devices []*domain.Device) []domain.Device {
	out := make([]domain.Device, 0, len(devices))
	for _, d := range devices {
		out = append(out, d.Redacted())
	}
	return out
}

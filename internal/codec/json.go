package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"devicectl/internal/domain"
)

// JSONCodec exports the inventory as a JSON array
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

func (c *JSONCodec) ContentType() string {
	return "application/json"
}

// Export writes devices as indented JSON
func (c *JSONCodec) Export(devices []*domain.Device, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(redact(devices)); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

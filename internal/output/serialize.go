package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	"umlc/internal/engine/ir"

	"gopkg.in/yaml.v3"
)

type JSONGenerator struct{}

func (JSONGenerator) Generate(d ir.Diagram) (string, error) {
	data, err := json.MarshalIndent(normalize(d), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal diagram: %w", err)
	}
	return string(data) + "\n", nil
}

type YAMLGenerator struct{}

func (YAMLGenerator) Generate(d ir.Diagram) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(normalize(d)); err != nil {
		return "", fmt.Errorf("marshal diagram: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("flush yaml: %w", err)
	}
	return buf.String(), nil
}

// normalize turns nil slices into empty ones so both encoders emit [] rather
// than null.
func normalize(d ir.Diagram) ir.Diagram {
	if d.Entities == nil {
		d.Entities = []ir.Entity{}
	}
	if d.Relationships == nil {
		d.Relationships = []ir.Relationship{}
	}
	return d
}

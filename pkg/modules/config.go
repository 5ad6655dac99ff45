// Package modules provides the builtin modules shipped with the orchestra
// binary and a helper to register them all at once.
package modules

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/opsforge/orchestra/pkg/orchestration"
)

// decodeConfig maps a raw module configuration onto a typed config struct.
// Round-tripping through YAML keeps the field names consistent with the
// operation files the config came from.
func decodeConfig(cfg orchestration.ModuleConfig, out any) error {
	if len(cfg) == 0 {
		return nil
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding module config: %w", err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding module config: %w", err)
	}
	return nil
}

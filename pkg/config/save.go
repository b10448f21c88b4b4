package config

import (
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mosaichq/rulegen/pkg/safeio"
)

// Save writes cfg as YAML to .rulegen.yaml under dir. The config is
// validated first so a bad write never lands on disk.
func Save(dir string, cfg *Config) (string, error) {
	if err := Validate(cfg); err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}

	path := filepath.Join(dir, DefaultFileName)
	if err := safeio.WriteFilePreservePerms(path, data); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

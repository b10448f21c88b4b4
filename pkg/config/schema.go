package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/rulegen-config-v1.json
var configSchema string

// Validate checks cfg against the embedded JSON schema plus the range
// constraints the schema cannot express.
func Validate(cfg *Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(configSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("invalid configuration:\n%s", strings.Join(msgs, "\n"))
	}

	if t := cfg.Generate.AutoMergeThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("generate.auto_merge_threshold must be in (0, 1], got %g", t)
	}
	return nil
}

// Package config loads rulegen settings from .rulegen.yaml, the
// environment, and built-in defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DefaultFileName is the project configuration file rulegen looks for.
const DefaultFileName = ".rulegen.yaml"

// Config holds all configuration for rulegen.
type Config struct {
	Generate  GenerateConfig  `mapstructure:"generate" json:"generate" yaml:"generate"`
	Detect    DetectConfig    `mapstructure:"detect" json:"detect" yaml:"detect"`
	Templates TemplatesConfig `mapstructure:"templates" json:"templates" yaml:"templates"`
}

// GenerateConfig holds merge and write behavior for the generate command.
type GenerateConfig struct {
	// AutoMergeThreshold is the similarity score at or above which an
	// existing file is replaced without a conflict prompt. Must be in (0, 1].
	AutoMergeThreshold float64 `mapstructure:"auto_merge_threshold" json:"auto_merge_threshold" yaml:"auto_merge_threshold"`
	Backup             bool    `mapstructure:"backup" json:"backup" yaml:"backup"`
	DryRun             bool    `mapstructure:"dry_run" json:"dry_run" yaml:"dry_run"`
	MergeMode          bool    `mapstructure:"merge_mode" json:"merge_mode" yaml:"merge_mode"`
	Force              bool    `mapstructure:"force" json:"force" yaml:"force"`
}

// DetectConfig holds stack detection options.
type DetectConfig struct {
	IgnoreGlobs []string `mapstructure:"ignore_globs" json:"ignore_globs" yaml:"ignore_globs,omitempty"`
}

// TemplatesConfig narrows the template catalog. Empty Enabled means all
// templates; Disabled always wins.
type TemplatesConfig struct {
	Enabled  []string `mapstructure:"enabled" json:"enabled" yaml:"enabled,omitempty"`
	Disabled []string `mapstructure:"disabled" json:"disabled" yaml:"disabled,omitempty"`
}

var defaultConfig = Config{
	Generate: GenerateConfig{
		AutoMergeThreshold: 0.95,
		Backup:             true,
		DryRun:             false,
		MergeMode:          true,
		Force:              false,
	},
	Detect: DetectConfig{
		IgnoreGlobs: []string{},
	},
	Templates: TemplatesConfig{
		Enabled:  []string{},
		Disabled: []string{},
	},
}

// Default returns a copy of the built-in defaults.
func Default() Config {
	return defaultConfig
}

// Load reads configuration for the project rooted at dir. A missing config
// file is not an error; defaults and RULEGEN_* environment variables apply
// either way.
func Load(dir string) (*Config, error) {
	v := viper.New()

	v.SetDefault("generate.auto_merge_threshold", defaultConfig.Generate.AutoMergeThreshold)
	v.SetDefault("generate.backup", defaultConfig.Generate.Backup)
	v.SetDefault("generate.dry_run", defaultConfig.Generate.DryRun)
	v.SetDefault("generate.merge_mode", defaultConfig.Generate.MergeMode)
	v.SetDefault("generate.force", defaultConfig.Generate.Force)
	v.SetDefault("detect.ignore_globs", defaultConfig.Detect.IgnoreGlobs)
	v.SetDefault("templates.enabled", defaultConfig.Templates.Enabled)
	v.SetDefault("templates.disabled", defaultConfig.Templates.Disabled)

	v.SetConfigName(".rulegen")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("RULEGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

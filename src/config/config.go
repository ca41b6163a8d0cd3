package config

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".dockhand.yml"

// Config is the top-level Dockhand configuration. It is constructed once
// at run start and passed by reference into the pipeline — never consulted
// as ambient global state — so runs are testable with injected fakes.
type Config struct {
	Image      string           `yaml:"image"`
	Build      BuildConfig      `yaml:"build"`
	Registries []RegistryConfig `yaml:"registries"`
	Guard      GuardConfig      `yaml:"guard"`
}

// Load reads configuration from a YAML file.
// If path is empty, it tries the default file.
// Returns sensible defaults if the file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaults(), nil
		}
		return nil, err
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Build: DefaultBuildConfig(),
		Guard: DefaultGuardConfig(),
	}
}

// GuardConfig controls the pre-push secret scan.
type GuardConfig struct {
	Secrets *bool `yaml:"secrets"` // nil = enabled
}

// SecretsEnabled reports whether the secret guard runs before push.
func (g GuardConfig) SecretsEnabled() bool {
	return g.Secrets == nil || *g.Secrets
}

// DefaultGuardConfig returns guard defaults (secret scan on).
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{}
}

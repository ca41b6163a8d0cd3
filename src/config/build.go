package config

// BuildConfig holds the container build configuration.
type BuildConfig struct {
	Context    string            `yaml:"context"`
	Dockerfile string            `yaml:"dockerfile"`
	Target     string            `yaml:"target"`
	Platforms  []string          `yaml:"platforms"`
	BuildArgs  map[string]string `yaml:"build_args"`
}

// DefaultBuildConfig returns sensible defaults for container builds.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		Context:   ".",
		Platforms: []string{},
		BuildArgs: map[string]string{},
	}
}

package config

// RegistryConfig defines one registry push target. The pipeline pushes the
// built image, under every resolved tag, to every configured target — either
// all targets receive the push or the run fails.
type RegistryConfig struct {
	// URL is the registry host (e.g., "registry.prplanit.com").
	// Empty means the default public registry (docker.io).
	URL string `yaml:"url"`

	// Path is the namespace/repository within the registry.
	Path string `yaml:"path"`

	// Tags optionally overrides the ref-derived tag set with templates
	// ({version}, {major}.{minor}, {branch}, {sha}). Empty = derive tags
	// from the triggering ref.
	Tags []string `yaml:"tags"`

	// Credentials is the env var prefix for auth:
	// "DOCKERHUB" → DOCKERHUB_USER / DOCKERHUB_PASS.
	// The secret values are never logged or written to disk.
	Credentials string `yaml:"credentials"`

	// Branches controls which branches push to this registry.
	// Regex patterns with ! negation. Empty = always push. Examples:
	//   ["^main$"]                — only main
	//   ["!^develop$"]            — everything except develop
	Branches []string `yaml:"branches"`

	// GitTags controls which git tags trigger a push to this registry.
	// Same pattern syntax. Empty = all tags. Example:
	//   ["^v\\d+\\.\\d+\\.\\d+$"] — stable semver only
	GitTags []string `yaml:"git_tags"`
}

// Host returns the registry host, defaulting to docker.io.
func (r RegistryConfig) Host() string {
	if r.URL == "" {
		return "docker.io"
	}
	return r.URL
}

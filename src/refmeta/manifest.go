package refmeta

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ProjectVersion reads the packaged application's declared version from its
// manifest. The build pipeline treats the application as opaque, but its
// manifest version is useful for the OCI version label on non-release builds.
//
// Checked in order: Cargo.toml, pyproject.toml, package.json.
// Returns "" when no manifest declares a version.
func ProjectVersion(rootDir string) string {
	if v := cargoVersion(filepath.Join(rootDir, "Cargo.toml")); v != "" {
		return v
	}
	if v := pyprojectVersion(filepath.Join(rootDir, "pyproject.toml")); v != "" {
		return v
	}
	if v := packageJSONVersion(filepath.Join(rootDir, "package.json")); v != "" {
		return v
	}
	return ""
}

func cargoVersion(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	var manifest struct {
		Package struct {
			Version string `toml:"version"`
		} `toml:"package"`
	}
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return ""
	}
	return manifest.Package.Version
}

func pyprojectVersion(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	var manifest struct {
		Project struct {
			Version string `toml:"version"`
		} `toml:"project"`
	}
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return ""
	}
	return manifest.Project.Version
}

func packageJSONVersion(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	var manifest struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return ""
	}
	return manifest.Version
}

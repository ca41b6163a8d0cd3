package build

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindDockerfiles locates candidate Dockerfiles in the build context root.
// Variants are supported: `Dockerfile`, `Dockerfile.<variant>` and
// `<variant>.Dockerfile` all qualify; the plain `Dockerfile` sorts first so
// it stays the default when the config names no variant.
func FindDockerfiles(rootDir string) ([]string, error) {
	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return nil, fmt.Errorf("reading build context %s: %w", rootDir, err)
	}

	var found []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name == "Dockerfile" ||
			strings.HasPrefix(name, "Dockerfile.") ||
			strings.HasSuffix(name, ".Dockerfile") {
			found = append(found, filepath.Join(rootDir, name))
		}
	}

	sort.Slice(found, func(i, j int) bool {
		a, b := filepath.Base(found[i]), filepath.Base(found[j])
		if (a == "Dockerfile") != (b == "Dockerfile") {
			return a == "Dockerfile"
		}
		return a < b
	})

	return found, nil
}

// SelectDockerfile resolves the Dockerfile for a build: an explicit config
// path wins, otherwise the first detected candidate. The chosen file is
// parsed and its assembly contract checked before any build runs.
func SelectDockerfile(rootDir, configured string) (*DockerfileInfo, error) {
	path := configured
	if path == "" {
		candidates, err := FindDockerfiles(rootDir)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 0 {
			return nil, fmt.Errorf("no Dockerfile found in %s", rootDir)
		}
		path = candidates[0]
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(rootDir, path)
	}

	info, err := ParseDockerfile(path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := info.CheckAssembly(); err != nil {
		return nil, err
	}
	return info, nil
}

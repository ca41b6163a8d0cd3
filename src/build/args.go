package build

import "time"

// InjectStandardArgs adds VERSION, COMMIT, and BUILD_DATE build args when the
// Dockerfile declares matching ARGs and no explicit override is set.
func InjectStandardArgs(existing map[string]string, info *DockerfileInfo, version, commit string) map[string]string {
	if existing == nil {
		existing = map[string]string{}
	}
	if info == nil || len(info.Args) == 0 {
		return existing
	}

	argSet := make(map[string]bool, len(info.Args))
	for _, a := range info.Args {
		argSet[a] = true
	}

	if argSet["VERSION"] && version != "" {
		if _, ok := existing["VERSION"]; !ok {
			existing["VERSION"] = version
		}
	}
	if argSet["COMMIT"] && commit != "" {
		if _, ok := existing["COMMIT"]; !ok {
			existing["COMMIT"] = commit
		}
	}
	if argSet["BUILD_DATE"] {
		if _, ok := existing["BUILD_DATE"]; !ok {
			existing["BUILD_DATE"] = time.Now().UTC().Format(time.RFC3339)
		}
	}

	return existing
}

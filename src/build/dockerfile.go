package build

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	// FROM [--platform=...] <image> [AS <name>]
	fromRe = regexp.MustCompile(`(?i)^FROM\s+(?:--platform=\S+\s+)?(\S+)(?:\s+AS\s+(\S+))?`)
	// ARG <name>[=<default>]
	argRe = regexp.MustCompile(`(?i)^ARG\s+(\S+?)(?:=.*)?$`)
	// COPY [--chown=...] --from=<stage> <src>... <dst>
	copyFromRe = regexp.MustCompile(`(?i)^COPY\s+(?:--\S+\s+)*--from=(\S+)\s+(.+)`)
	// ENTRYPOINT ["..."] or ENTRYPOINT cmd ...
	entrypointRe = regexp.MustCompile(`(?i)^ENTRYPOINT\s+(.+)`)
)

// Stage is one FROM stage in a Dockerfile.
type Stage struct {
	BaseImage string
	Name      string // AS name, if any
	Line      int
}

// CopyFrom is a COPY --from instruction in the final stage.
type CopyFrom struct {
	Stage string // source stage name or index
	Args  string // raw src/dst arguments
	Line  int
}

// DockerfileInfo is the parsed shape of a Dockerfile relevant to planning.
type DockerfileInfo struct {
	Path       string
	Stages     []Stage
	Args       []string
	CopyFroms  []CopyFrom // COPY --from in the final stage only
	Entrypoint string     // raw ENTRYPOINT arguments of the final stage
}

// ParseDockerfile extracts stage, arg, copy and entrypoint info from a
// Dockerfile. This is a regex-based parser — not a full AST. Sufficient for
// planning and for checking the assembly contract.
func ParseDockerfile(path string) (*DockerfileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info := &DockerfileInfo{Path: path}
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if m := fromRe.FindStringSubmatch(line); m != nil {
			stage := Stage{
				BaseImage: m[1],
				Line:      lineNum,
			}
			if len(m) > 2 {
				stage.Name = m[2]
			}
			info.Stages = append(info.Stages, stage)
			// A new stage resets final-stage state.
			info.CopyFroms = nil
			info.Entrypoint = ""
			continue
		}

		if m := argRe.FindStringSubmatch(line); m != nil {
			info.Args = append(info.Args, m[1])
			continue
		}

		if m := copyFromRe.FindStringSubmatch(line); m != nil {
			info.CopyFroms = append(info.CopyFroms, CopyFrom{
				Stage: m[1],
				Args:  m[2],
				Line:  lineNum,
			})
			continue
		}

		if m := entrypointRe.FindStringSubmatch(line); m != nil {
			info.Entrypoint = strings.TrimSpace(m[1])
			continue
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return info, nil
}

// ExecEntrypoint reports whether the final stage declares an exec-form
// ENTRYPOINT (JSON array — no shell indirection).
func (info *DockerfileInfo) ExecEntrypoint() bool {
	return strings.HasPrefix(info.Entrypoint, "[")
}

// CheckAssembly verifies the image-assembly contract of a Dockerfile:
// the runtime stage must contain only the built artifact (multi-stage build
// whose final stage copies from a build stage) and must start the artifact
// directly via an exec-form ENTRYPOINT. Violations are fatal — the pipeline
// refuses to build an image that would retain its build environment or wrap
// the executable in a shell.
func (info *DockerfileInfo) CheckAssembly() error {
	if len(info.Stages) < 2 {
		return fmt.Errorf("%s: single-stage build retains the build environment in the runtime layer (expected multi-stage with COPY --from)", info.Path)
	}
	if len(info.CopyFroms) == 0 {
		return fmt.Errorf("%s: final stage does not copy an artifact from a build stage", info.Path)
	}
	if info.Entrypoint == "" {
		return fmt.Errorf("%s: final stage has no ENTRYPOINT", info.Path)
	}
	if !info.ExecEntrypoint() {
		return fmt.Errorf("%s: ENTRYPOINT %s uses shell form (expected exec form, e.g. ENTRYPOINT [\"/app\"])", info.Path, info.Entrypoint)
	}
	return nil
}

package build

// Step is a single buildx invocation, fully resolved: one source context,
// one set of platforms, every fully-qualified image ref the build produces.
type Step struct {
	Name       string
	Dockerfile string
	Context    string
	Target     string
	Platforms  []string
	BuildArgs  map[string]string
	Labels     map[string]string
	Tags       []string // fully qualified refs: host/path:tag
	Load       bool     // --load into daemon
	Push       bool     // --push to registries
}

// MultiPlatform reports whether the step builds for more than one platform.
// Multi-platform images cannot be loaded into the local daemon; they must be
// pushed at build time.
func (s Step) MultiPlatform() bool {
	return len(s.Platforms) > 1
}

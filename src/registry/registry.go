// Package registry models push destinations: resolving configured registry
// entries into concrete targets for one run, authenticating against them,
// and verifying pushed digests. Targets are constructed once per run from
// the immutable config and discarded at run end — sessions are never cached
// across runs.
package registry

import (
	"fmt"
	"os"
	"strings"

	"github.com/sofmeright/dockhand/src/config"
	"github.com/sofmeright/dockhand/src/refmeta"
)

// Target is one resolved push destination for the current run.
type Target struct {
	Host string   // registry host; docker.io for the default public registry
	Path string   // namespace/repository
	Tags []string // resolved tag strings for this run

	// credPrefix is the env var prefix holding the secret. The secret value
	// itself is resolved on demand and never stored on the struct.
	credPrefix string
}

// Refs returns the fully qualified image refs for this target:
// host/path:tag for every tag.
func (t Target) Refs() []string {
	refs := make([]string, 0, len(t.Tags))
	for _, tag := range t.Tags {
		refs = append(refs, fmt.Sprintf("%s/%s:%s", t.Host, t.Path, tag))
	}
	return refs
}

// String identifies the target without exposing credentials.
func (t Target) String() string {
	return t.Host + "/" + t.Path
}

// Credentials resolves the username and secret from the environment:
// <PREFIX>_USER / <PREFIX>_PASS. A missing secret is a configuration error —
// the run must fail before any build or push side effect.
func (t Target) Credentials() (user, pass string, err error) {
	p := strings.ToUpper(t.credPrefix)
	user = os.Getenv(p + "_USER")
	pass = os.Getenv(p + "_PASS")
	if user == "" || pass == "" {
		return "", "", fmt.Errorf("registry %s: credentials %s_USER/%s_PASS not set", t, p, p)
	}
	return user, pass, nil
}

// ResolveTargets expands registry configs into concrete targets for the
// given ref. Entries whose branch/tag filters reject the ref are skipped.
// Every remaining entry must resolve at least one tag and carry a credential
// reference; violations are configuration errors.
func ResolveTargets(configs []config.RegistryConfig, meta *refmeta.Meta) ([]Target, error) {
	var targets []Target

	for _, rc := range configs {
		if !allowed(rc, meta.Ref) {
			continue
		}

		tags := meta.Tags()
		if len(rc.Tags) > 0 {
			tags = meta.ExpandTags(rc.Tags)
		}
		if len(tags) == 0 {
			return nil, fmt.Errorf("registry %s/%s: ref %q (%s) resolves to no tags — refusing to push an untagged image",
				rc.Host(), rc.Path, meta.Ref.Name, meta.Ref.Kind)
		}

		t := Target{
			Host:       rc.Host(),
			Path:       rc.Path,
			Tags:       tags,
			credPrefix: rc.Credentials,
		}

		if errs := ValidateTarget(t); len(errs) > 0 {
			return nil, fmt.Errorf("registry %s: %w", t, errs[0])
		}
		if rc.Credentials == "" {
			return nil, fmt.Errorf("registry %s: no credentials configured", t)
		}

		targets = append(targets, t)
	}

	return targets, nil
}

// allowed checks the registry's branch and git-tag filters against the ref.
func allowed(rc config.RegistryConfig, ref refmeta.Ref) bool {
	switch ref.Kind {
	case refmeta.KindBranch:
		return config.MatchPatterns(rc.Branches, ref.Name)
	case refmeta.KindTag:
		return config.MatchPatterns(rc.GitTags, ref.Name)
	}
	return false
}

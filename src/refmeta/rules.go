package refmeta

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// stableTagRe gates which git tags count as release versions.
// Prereleases and build metadata do not produce image tags.
var stableTagRe = regexp.MustCompile(`^v\d+\.\d+\.\d+$`)

// TagRule derives zero or one image tag from a ref. Rules are independent:
// a ref may satisfy several and contribute several tags. New tagging schemes
// are added by appending a rule, not by touching existing ones.
type TagRule struct {
	Name  string
	Apply func(Ref) (string, bool)
}

// Rules returns the tag derivation rules in priority order:
//
//	branch        → branch name verbatim ("main" → "main")
//	semver        → full version ("v1.4.2" → "1.4.2")
//	semver-minor  → major.minor   ("v1.4.2" → "1.4")
func Rules() []TagRule {
	return []TagRule{
		{
			Name: "branch",
			Apply: func(r Ref) (string, bool) {
				if r.Kind != KindBranch || r.Name == "" {
					return "", false
				}
				return sanitizeTag(r.Name), true
			},
		},
		{
			Name: "semver",
			Apply: func(r Ref) (string, bool) {
				v, ok := stableVersion(r)
				if !ok {
					return "", false
				}
				return v.String(), true
			},
		},
		{
			Name: "semver-minor",
			Apply: func(r Ref) (string, bool) {
				v, ok := stableVersion(r)
				if !ok {
					return "", false
				}
				return fmt.Sprintf("%d.%d", v.Major(), v.Minor()), true
			},
		},
	}
}

// ResolveTags evaluates every rule against the ref and accumulates the
// results. Tags are not deduplicated — downstream registries treat identical
// strings as overwrites. An empty result means the ref matched no rule and
// the run must abort before any build or push.
func ResolveTags(ref Ref) []string {
	var tags []string
	for _, rule := range Rules() {
		if tag, ok := rule.Apply(ref); ok {
			tags = append(tags, tag)
		}
	}
	return tags
}

// stableVersion parses a tag ref as a stable semantic version.
func stableVersion(r Ref) (*semver.Version, bool) {
	if r.Kind != KindTag || !stableTagRe.MatchString(r.Name) {
		return nil, false
	}
	v, err := semver.StrictNewVersion(strings.TrimPrefix(r.Name, "v"))
	if err != nil {
		return nil, false
	}
	return v, true
}

// Version returns the parsed semantic version for a tag ref, or nil for
// branch refs and non-semver tags.
func (m *Meta) Version() *semver.Version {
	v, ok := stableVersion(m.Ref)
	if !ok {
		return nil
	}
	return v
}

// Tags returns the rule-derived tag set for this ref.
func (m *Meta) Tags() []string {
	return ResolveTags(m.Ref)
}

// ExpandTags resolves tag templates against this ref's metadata.
//
// Supported templates:
//
//	{version}        → "1.4.2"
//	{major}          → "1"
//	{minor}          → "4"
//	{patch}          → "2"
//	{major}.{minor}  → "1.4"
//	{branch}         → "main"
//	{sha}            → "abc1234"  (short)
//	latest           → "latest"   (literal passthrough)
//
// Version templates resolve only for semver tag refs; a template whose
// placeholders cannot all be resolved is dropped.
func (m *Meta) ExpandTags(templates []string) []string {
	v := m.Version()

	tags := make([]string, 0, len(templates))
	for _, tmpl := range templates {
		tag := tmpl
		if v != nil {
			tag = strings.ReplaceAll(tag, "{version}", v.String())
			tag = strings.ReplaceAll(tag, "{major}", strconv.FormatUint(v.Major(), 10))
			tag = strings.ReplaceAll(tag, "{minor}", strconv.FormatUint(v.Minor(), 10))
			tag = strings.ReplaceAll(tag, "{patch}", strconv.FormatUint(v.Patch(), 10))
		}
		tag = strings.ReplaceAll(tag, "{branch}", sanitizeTag(m.Ref.Name))
		tag = strings.ReplaceAll(tag, "{sha}", m.SHA)

		if strings.ContainsAny(tag, "{}") {
			continue // unresolved placeholder
		}
		tags = append(tags, tag)
	}
	return tags
}

// sanitizeTag replaces characters not allowed in image tags.
func sanitizeTag(s string) string {
	r := strings.NewReplacer(
		"/", "-",
		" ", "-",
	)
	return r.Replace(s)
}

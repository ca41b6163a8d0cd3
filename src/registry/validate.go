package registry

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/sofmeright/dockhand/src/config"
)

// Validation regexes based on the OCI Distribution Spec.
var (
	// OCI repository path: lowercase, digits, separators (-, _, ., /), max 256 chars.
	ociPathRe = regexp.MustCompile(`^[a-z0-9]+(?:[._-][a-z0-9]+)*(?:/[a-z0-9]+(?:[._-][a-z0-9]+)*)*$`)

	// OCI tag: alphanumeric, -, _, ., max 128 chars. Must start with alphanumeric.
	ociTagRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

	// Env var prefix: uppercase letters, digits, underscore. Must start with letter.
	envPrefixRe = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

// ValidateHost checks that a registry host is well-formed.
// Rejects strings with schemes, spaces, or control characters.
func ValidateHost(host string) error {
	if host == "" {
		return fmt.Errorf("registry host is empty")
	}
	if containsControlChars(host) {
		return fmt.Errorf("registry host %q contains control characters", host)
	}
	if strings.Contains(host, "://") {
		return fmt.Errorf("registry host %q must not include a scheme", host)
	}
	if strings.ContainsAny(host, " \t\n\r{}[]<>\"'`") {
		return fmt.Errorf("registry host %q has invalid characters", host)
	}
	return nil
}

// ValidateImagePath checks that a repository/image path conforms to OCI spec.
func ValidateImagePath(path string) error {
	if path == "" {
		return fmt.Errorf("image path is empty")
	}
	if containsControlChars(path) {
		return fmt.Errorf("image path %q contains control characters", path)
	}
	if len(path) > 256 {
		return fmt.Errorf("image path %q exceeds 256 characters", path)
	}
	if !ociPathRe.MatchString(path) {
		return fmt.Errorf("image path %q contains invalid characters (OCI spec: lowercase, digits, -, _, ., /)", path)
	}
	return nil
}

// ValidateTag checks that a resolved tag conforms to OCI spec.
func ValidateTag(tag string) error {
	if tag == "" {
		return fmt.Errorf("tag is empty")
	}
	if containsControlChars(tag) {
		return fmt.Errorf("tag %q contains control characters", tag)
	}
	if len(tag) > 128 {
		return fmt.Errorf("tag %q exceeds 128 characters", tag)
	}
	if !ociTagRe.MatchString(tag) {
		return fmt.Errorf("tag %q contains invalid characters (OCI spec: alphanumeric, -, _, .)", tag)
	}
	return nil
}

// ValidateTagTemplate checks that an unresolved tag template is structurally
// valid. Allows {var} syntax. Rejects unclosed braces, spaces, control chars.
func ValidateTagTemplate(tmpl string) error {
	if tmpl == "" {
		return fmt.Errorf("tag template is empty")
	}
	if containsControlChars(tmpl) {
		return fmt.Errorf("tag template %q contains control characters", tmpl)
	}
	if strings.ContainsAny(tmpl, " \t\n\r") {
		return fmt.Errorf("tag template %q contains whitespace", tmpl)
	}

	depth := 0
	for i, c := range tmpl {
		switch c {
		case '{':
			depth++
			if depth > 1 {
				return fmt.Errorf("tag template %q has nested braces at position %d", tmpl, i)
			}
		case '}':
			depth--
			if depth < 0 {
				return fmt.Errorf("tag template %q has unmatched closing brace at position %d", tmpl, i)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("tag template %q has unclosed brace", tmpl)
	}

	return nil
}

// ValidateCredentials checks that a credential prefix is a valid env var name.
func ValidateCredentials(prefix string) error {
	if prefix == "" {
		return nil // absence is checked at target resolution
	}
	upper := strings.ToUpper(prefix)
	if !envPrefixRe.MatchString(upper) {
		return fmt.Errorf("credentials prefix %q is not a valid env var name (expected: [A-Z][A-Z0-9_]*)", prefix)
	}
	return nil
}

// ValidatePattern checks that a branch/tag filter pattern compiles as regex.
func ValidatePattern(pattern string) error {
	p := pattern
	if strings.HasPrefix(p, "!") {
		p = p[1:]
	}
	if p == "" {
		return nil
	}
	if _, err := regexp.Compile(p); err != nil {
		return fmt.Errorf("pattern %q is not valid regex: %w", pattern, err)
	}
	return nil
}

// ValidateTarget runs validation checks against a resolved target.
func ValidateTarget(t Target) []error {
	var errs []error
	if err := ValidateHost(t.Host); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateImagePath(t.Path); err != nil {
		errs = append(errs, err)
	}
	for _, tag := range t.Tags {
		if err := ValidateTag(tag); err != nil {
			errs = append(errs, err)
		}
	}
	if err := ValidateCredentials(t.credPrefix); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// ValidateConfig runs all validation checks against a registry config entry.
// Returns all errors found (not just the first).
func ValidateConfig(rc config.RegistryConfig) []error {
	var errs []error

	if err := ValidateHost(rc.Host()); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateImagePath(rc.Path); err != nil {
		errs = append(errs, err)
	}
	for _, t := range rc.Tags {
		if err := ValidateTagTemplate(t); err != nil {
			errs = append(errs, err)
		}
	}
	if err := ValidateCredentials(rc.Credentials); err != nil {
		errs = append(errs, err)
	}
	for _, p := range rc.Branches {
		if err := ValidatePattern(p); err != nil {
			errs = append(errs, fmt.Errorf("branches: %w", err))
		}
	}
	for _, p := range rc.GitTags {
		if err := ValidatePattern(p); err != nil {
			errs = append(errs, fmt.Errorf("git_tags: %w", err))
		}
	}

	return errs
}

// containsControlChars returns true if the string has any ASCII control characters.
func containsControlChars(s string) bool {
	for _, r := range s {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return true
		}
		if r == unicode.ReplacementChar {
			return true
		}
	}
	return false
}

package registry

import (
	"strings"
	"testing"

	"github.com/sofmeright/dockhand/src/config"
	"github.com/sofmeright/dockhand/src/refmeta"
)

func tagMeta(name string) *refmeta.Meta {
	return &refmeta.Meta{
		Ref: refmeta.Ref{Kind: refmeta.KindTag, Name: name},
		SHA: "abc1234",
	}
}

func branchMeta(name string) *refmeta.Meta {
	return &refmeta.Meta{
		Ref: refmeta.Ref{Kind: refmeta.KindBranch, Name: name},
		SHA: "abc1234",
	}
}

func TestResolveTargets(t *testing.T) {
	configs := []config.RegistryConfig{
		{URL: "registry.example.com", Path: "org/app", Credentials: "INTERNAL"},
		{Path: "org/app", Credentials: "DOCKERHUB"},
	}

	targets, err := ResolveTargets(configs, tagMeta("v1.4.2"))
	if err != nil {
		t.Fatalf("ResolveTargets: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("targets: got %d, want 2", len(targets))
	}

	if targets[0].Host != "registry.example.com" {
		t.Errorf("first host: got %q", targets[0].Host)
	}
	if targets[1].Host != "docker.io" {
		t.Errorf("second host: got %q", targets[1].Host)
	}

	refs := targets[0].Refs()
	want := map[string]bool{
		"registry.example.com/org/app:1.4.2": true,
		"registry.example.com/org/app:1.4":   true,
	}
	if len(refs) != 2 {
		t.Fatalf("refs: got %v", refs)
	}
	for _, r := range refs {
		if !want[r] {
			t.Errorf("unexpected ref %q", r)
		}
	}
}

func TestResolveTargets_BranchFilter(t *testing.T) {
	configs := []config.RegistryConfig{
		{URL: "a.example.com", Path: "org/app", Credentials: "A", Branches: []string{"^main$"}},
		{URL: "b.example.com", Path: "org/app", Credentials: "B", Branches: []string{"!^main$"}},
	}

	targets, err := ResolveTargets(configs, branchMeta("main"))
	if err != nil {
		t.Fatalf("ResolveTargets: %v", err)
	}
	if len(targets) != 1 || targets[0].Host != "a.example.com" {
		t.Fatalf("targets: got %+v, want only a.example.com", targets)
	}
}

func TestResolveTargets_GitTagFilter(t *testing.T) {
	configs := []config.RegistryConfig{
		{URL: "a.example.com", Path: "org/app", Credentials: "A", GitTags: []string{`^v\d+\.\d+\.\d+$`}},
	}

	targets, err := ResolveTargets(configs, tagMeta("v1.4.2-rc.1"))
	if err != nil {
		t.Fatalf("ResolveTargets: %v", err)
	}
	if len(targets) != 0 {
		t.Fatalf("rc tag should be filtered out, got %+v", targets)
	}
}

func TestResolveTargets_EmptyTagSetFatal(t *testing.T) {
	configs := []config.RegistryConfig{
		{URL: "a.example.com", Path: "org/app", Credentials: "A"},
	}

	// A non-semver tag ref derives no tags; pushing untagged is refused.
	_, err := ResolveTargets(configs, tagMeta("nightly"))
	if err == nil || !strings.Contains(err.Error(), "untagged") {
		t.Fatalf("expected untagged-image error, got %v", err)
	}
}

func TestResolveTargets_TagTemplates(t *testing.T) {
	configs := []config.RegistryConfig{
		{URL: "a.example.com", Path: "org/app", Credentials: "A", Tags: []string{"{version}", "latest"}},
	}

	targets, err := ResolveTargets(configs, tagMeta("v2.0.0"))
	if err != nil {
		t.Fatalf("ResolveTargets: %v", err)
	}
	if len(targets) != 1 {
		t.Fatalf("targets: got %d, want 1", len(targets))
	}
	refs := targets[0].Refs()
	if len(refs) != 2 || refs[0] != "a.example.com/org/app:2.0.0" || refs[1] != "a.example.com/org/app:latest" {
		t.Fatalf("refs: got %v", refs)
	}
}

func TestResolveTargets_MissingCredentials(t *testing.T) {
	configs := []config.RegistryConfig{
		{URL: "a.example.com", Path: "org/app"},
	}

	_, err := ResolveTargets(configs, branchMeta("main"))
	if err == nil || !strings.Contains(err.Error(), "credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestTargetCredentials(t *testing.T) {
	t.Setenv("ACME_USER", "ci-bot")
	t.Setenv("ACME_PASS", "hunter2")

	target := Target{Host: "a.example.com", Path: "org/app", credPrefix: "acme"}
	user, pass, err := target.Credentials()
	if err != nil {
		t.Fatalf("Credentials: %v", err)
	}
	if user != "ci-bot" || pass != "hunter2" {
		t.Fatalf("credentials: got %q/%q", user, pass)
	}
}

func TestTargetCredentials_Missing(t *testing.T) {
	t.Setenv("NOPE_USER", "")
	t.Setenv("NOPE_PASS", "")

	target := Target{Host: "a.example.com", Path: "org/app", credPrefix: "NOPE"}
	if _, _, err := target.Credentials(); err == nil {
		t.Fatal("expected error for unset credentials")
	}
}

func TestTargetString_NoSecrets(t *testing.T) {
	target := Target{Host: "a.example.com", Path: "org/app", credPrefix: "SECRET"}
	if s := target.String(); strings.Contains(s, "SECRET") {
		t.Fatalf("String leaks the credential reference: %q", s)
	}
}

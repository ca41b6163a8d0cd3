package refmeta

import (
	"reflect"
	"testing"
	"time"
)

func TestResolveTags_BranchRef(t *testing.T) {
	tags := ResolveTags(Ref{Kind: KindBranch, Name: "main"})
	if !reflect.DeepEqual(tags, []string{"main"}) {
		t.Fatalf("branch ref: got %v, want [main]", tags)
	}
}

func TestResolveTags_BranchNameSanitized(t *testing.T) {
	tags := ResolveTags(Ref{Kind: KindBranch, Name: "release/2.0"})
	if !reflect.DeepEqual(tags, []string{"release-2.0"}) {
		t.Fatalf("branch ref with slash: got %v, want [release-2.0]", tags)
	}
}

func TestResolveTags_SemverTag(t *testing.T) {
	tags := ResolveTags(Ref{Kind: KindTag, Name: "v1.4.2"})

	want := map[string]bool{"1.4.2": true, "1.4": true}
	if len(tags) != 2 {
		t.Fatalf("semver tag: got %v, want 2 tags", tags)
	}
	for _, tag := range tags {
		if !want[tag] {
			t.Fatalf("semver tag: unexpected tag %q in %v", tag, tags)
		}
	}
}

func TestResolveTags_NonSemverTagYieldsNothing(t *testing.T) {
	for _, name := range []string{"feature/x", "1.4.2", "v1.4", "v1.4.2-rc.1", "v1.4.2+build"} {
		if tags := ResolveTags(Ref{Kind: KindTag, Name: name}); len(tags) != 0 {
			t.Fatalf("tag %q: got %v, want empty", name, tags)
		}
	}
}

func TestResolveTags_BranchNamedLikeVersion(t *testing.T) {
	// A branch whose name looks like a semver tag is still just a branch:
	// the semver rules apply only to tag refs.
	tags := ResolveTags(Ref{Kind: KindBranch, Name: "v1.4.2"})
	if !reflect.DeepEqual(tags, []string{"v1.4.2"}) {
		t.Fatalf("version-named branch: got %v, want [v1.4.2]", tags)
	}
}

func TestResolveTags_NoDeduplication(t *testing.T) {
	// Rules accumulate independently; identical outputs are not collapsed
	// by the resolver. v1.4.2 produces distinct strings here, so just assert
	// the rule count matches the emitted count.
	rules := Rules()
	ref := Ref{Kind: KindTag, Name: "v1.4.2"}

	var fired int
	for _, r := range rules {
		if _, ok := r.Apply(ref); ok {
			fired++
		}
	}
	if got := len(ResolveTags(ref)); got != fired {
		t.Fatalf("resolver emitted %d tags but %d rules fired", got, fired)
	}
}

func TestExpandTags(t *testing.T) {
	m := &Meta{
		Ref: Ref{Kind: KindTag, Name: "v2.10.3"},
		SHA: "abc1234",
	}

	got := m.ExpandTags([]string{"{version}", "{major}.{minor}", "{sha}", "latest"})
	want := []string{"2.10.3", "2.10", "abc1234", "latest"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExpandTags: got %v, want %v", got, want)
	}
}

func TestExpandTags_UnresolvedTemplateDropped(t *testing.T) {
	m := &Meta{
		Ref: Ref{Kind: KindBranch, Name: "main"},
		SHA: "abc1234",
	}

	// {version} cannot resolve on a branch ref; the template is dropped
	// rather than pushed with a literal placeholder.
	got := m.ExpandTags([]string{"{version}", "{branch}-{sha}"})
	want := []string{"main-abc1234"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExpandTags: got %v, want %v", got, want)
	}
}

func TestMetaVersion(t *testing.T) {
	m := &Meta{Ref: Ref{Kind: KindTag, Name: "v1.4.2"}}
	v := m.Version()
	if v == nil || v.String() != "1.4.2" {
		t.Fatalf("Version: got %v, want 1.4.2", v)
	}

	m = &Meta{Ref: Ref{Kind: KindBranch, Name: "main"}}
	if v := m.Version(); v != nil {
		t.Fatalf("Version on branch ref: got %v, want nil", v)
	}
}

func TestLabels(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	m := &Meta{
		Ref:        Ref{Kind: KindTag, Name: "v1.4.2"},
		SHA:        "abc1234",
		FullSHA:    "abc1234def5678900000000000000000000000000",
		CommitTime: created,
	}

	labels := m.Labels("https://example.com/org/app", "0.9.0")

	if got := labels[LabelRevision]; got != m.FullSHA {
		t.Errorf("revision label: got %q", got)
	}
	if got := labels[LabelCreated]; got != "2025-03-14T09:26:53Z" {
		t.Errorf("created label: got %q", got)
	}
	if got := labels[LabelSource]; got != "https://example.com/org/app" {
		t.Errorf("source label: got %q", got)
	}
	// Release ref wins over the manifest version.
	if got := labels[LabelVersion]; got != "1.4.2" {
		t.Errorf("version label: got %q, want 1.4.2", got)
	}
	if got := labels[LabelRefName]; got != "v1.4.2" {
		t.Errorf("ref.name label: got %q", got)
	}
}

func TestLabels_ManifestVersionOnBranch(t *testing.T) {
	m := &Meta{
		Ref:        Ref{Kind: KindBranch, Name: "main"},
		FullSHA:    "abc",
		CommitTime: time.Now(),
	}

	labels := m.Labels("", "0.9.0")
	if got := labels[LabelVersion]; got != "0.9.0" {
		t.Errorf("version label on branch: got %q, want 0.9.0", got)
	}
	if _, ok := labels[LabelSource]; ok {
		t.Errorf("source label should be omitted when URL is unknown")
	}
}

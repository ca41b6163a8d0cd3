// Package refmeta resolves image metadata — tags and OCI labels — from the
// source-control ref that triggered the run. Resolution is a pure function of
// the ref; it has no ordering dependency on authentication or the build and
// may run concurrently with either.
package refmeta

import (
	"fmt"
	"os"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// RefKind distinguishes branch events from tag events.
type RefKind string

const (
	KindBranch RefKind = "branch"
	KindTag    RefKind = "tag"
)

// Ref is the repository reference that triggered the pipeline.
// Immutable once detected.
type Ref struct {
	Kind RefKind
	Name string // raw ref name: "main", "v1.4.2"
}

// Meta holds the resolved ref plus the commit metadata needed for labels.
type Meta struct {
	Ref        Ref
	SHA        string    // short commit SHA (7 chars)
	FullSHA    string    // full commit SHA
	CommitTime time.Time // committer timestamp of HEAD
}

// Detect resolves the triggering ref from CI environment variables first
// (detached HEAD makes git detection unreliable in CI), then from the
// repository itself via go-git.
func Detect(rootDir string) (*Meta, error) {
	repo, err := git.PlainOpenWithOptions(rootDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}

	m := &Meta{FullSHA: head.Hash().String()}
	if len(m.FullSHA) >= 7 {
		m.SHA = m.FullSHA[:7]
	} else {
		m.SHA = m.FullSHA
	}

	if commit, err := repo.CommitObject(head.Hash()); err == nil {
		m.CommitTime = commit.Committer.When.UTC()
	} else {
		m.CommitTime = time.Now().UTC()
	}

	if ref, ok := refFromCI(); ok {
		m.Ref = ref
		return m, nil
	}

	// Tag event: HEAD is exactly at a tag.
	if tag, ok := exactTag(repo, head.Hash()); ok {
		m.Ref = Ref{Kind: KindTag, Name: tag}
		return m, nil
	}

	// Branch event.
	if head.Name().IsBranch() {
		m.Ref = Ref{Kind: KindBranch, Name: head.Name().Short()}
		return m, nil
	}

	return nil, fmt.Errorf("detached HEAD at %s: cannot determine triggering ref (set CI_COMMIT_BRANCH or CI_COMMIT_TAG)", m.SHA)
}

// refFromCI reads the triggering ref from CI environment variables.
// Supports GitLab CI and GitHub Actions conventions.
func refFromCI() (Ref, bool) {
	if tag := os.Getenv("CI_COMMIT_TAG"); tag != "" {
		return Ref{Kind: KindTag, Name: tag}, true
	}
	if branch := os.Getenv("CI_COMMIT_BRANCH"); branch != "" {
		return Ref{Kind: KindBranch, Name: branch}, true
	}
	if name := os.Getenv("GITHUB_REF_NAME"); name != "" {
		if os.Getenv("GITHUB_REF_TYPE") == "tag" {
			return Ref{Kind: KindTag, Name: name}, true
		}
		return Ref{Kind: KindBranch, Name: name}, true
	}
	return Ref{}, false
}

// exactTag returns the name of a tag pointing at the given commit, if any.
// Both lightweight and annotated tags are considered.
func exactTag(repo *git.Repository, hash plumbing.Hash) (string, bool) {
	tags, err := repo.Tags()
	if err != nil {
		return "", false
	}
	defer tags.Close()

	var found string
	_ = tags.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		// Annotated tags point at a tag object, not the commit.
		if obj, err := repo.TagObject(ref.Hash()); err == nil {
			target = obj.Target
		}
		if target == hash {
			found = ref.Name().Short()
			return storer.ErrStop
		}
		return nil
	})

	return found, found != ""
}

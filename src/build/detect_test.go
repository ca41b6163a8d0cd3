package build

import (
	"path/filepath"
	"testing"
)

func TestFindDockerfiles(t *testing.T) {
	dir := t.TempDir()
	writeDockerfile(t, dir, "debug.Dockerfile", multiStageDockerfile)
	writeDockerfile(t, dir, "Dockerfile", multiStageDockerfile)
	writeDockerfile(t, dir, "Dockerfile.alpine", multiStageDockerfile)

	found, err := FindDockerfiles(dir)
	if err != nil {
		t.Fatalf("FindDockerfiles: %v", err)
	}
	if len(found) != 3 {
		t.Fatalf("found: got %v, want 3 files", found)
	}
	if filepath.Base(found[0]) != "Dockerfile" {
		t.Errorf("plain Dockerfile should sort first, got %v", found)
	}
}

func TestFindDockerfiles_None(t *testing.T) {
	found, err := FindDockerfiles(t.TempDir())
	if err != nil {
		t.Fatalf("FindDockerfiles: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("found: got %v, want none", found)
	}
}

func TestSelectDockerfile_Default(t *testing.T) {
	dir := t.TempDir()
	writeDockerfile(t, dir, "Dockerfile", multiStageDockerfile)

	info, err := SelectDockerfile(dir, "")
	if err != nil {
		t.Fatalf("SelectDockerfile: %v", err)
	}
	if filepath.Base(info.Path) != "Dockerfile" {
		t.Errorf("path: got %q", info.Path)
	}
}

func TestSelectDockerfile_ExplicitWins(t *testing.T) {
	dir := t.TempDir()
	writeDockerfile(t, dir, "Dockerfile", "FROM alpine\n") // would fail assembly
	writeDockerfile(t, dir, "release.Dockerfile", multiStageDockerfile)

	info, err := SelectDockerfile(dir, "release.Dockerfile")
	if err != nil {
		t.Fatalf("SelectDockerfile: %v", err)
	}
	if filepath.Base(info.Path) != "release.Dockerfile" {
		t.Errorf("path: got %q", info.Path)
	}
}

func TestSelectDockerfile_AssemblyViolation(t *testing.T) {
	dir := t.TempDir()
	writeDockerfile(t, dir, "Dockerfile", "FROM alpine\nENTRYPOINT [\"/app\"]\n")

	if _, err := SelectDockerfile(dir, ""); err == nil {
		t.Fatal("expected assembly error for single-stage Dockerfile")
	}
}

func TestSelectDockerfile_Missing(t *testing.T) {
	if _, err := SelectDockerfile(t.TempDir(), ""); err == nil {
		t.Fatal("expected error when no Dockerfile exists")
	}
}

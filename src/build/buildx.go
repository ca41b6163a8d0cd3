package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"
)

// Buildx wraps docker buildx commands. Cross-platform builds rely on the
// builder instance's emulation support; the wrapper only parameterizes the
// target platforms.
type Buildx struct {
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewBuildx creates a Buildx runner with default output writers.
func NewBuildx(verbose bool) *Buildx {
	return &Buildx{
		Verbose: verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Build executes a single build step via docker buildx.
func (bx *Buildx) Build(ctx context.Context, step Step) (*StepResult, error) {
	start := time.Now()
	result := &StepResult{
		Name: step.Name,
	}

	args := bx.buildArgs(step)

	if bx.Verbose {
		fmt.Fprintf(bx.Stderr, "exec: docker %s\n", strings.Join(args, " "))
	}

	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdout = bx.Stdout
	cmd.Stderr = bx.Stderr

	if err := cmd.Run(); err != nil {
		result.Status = "failed"
		result.Duration = time.Since(start)
		result.Error = fmt.Errorf("docker buildx build failed: %w", err)
		return result, result.Error
	}

	result.Status = "success"
	result.Duration = time.Since(start)
	result.Images = step.Tags

	return result, nil
}

// buildArgs constructs the docker buildx build argument list.
func (bx *Buildx) buildArgs(step Step) []string {
	args := []string{"buildx", "build"}

	// Dockerfile
	if step.Dockerfile != "" {
		args = append(args, "--file", step.Dockerfile)
	}

	// Target stage
	if step.Target != "" {
		args = append(args, "--target", step.Target)
	}

	// Platforms
	if len(step.Platforms) > 0 {
		args = append(args, "--platform", strings.Join(step.Platforms, ","))
	}

	// Build args — sorted for a stable command line
	for _, k := range sortedKeys(step.BuildArgs) {
		args = append(args, "--build-arg", fmt.Sprintf("%s=%s", k, step.BuildArgs[k]))
	}

	// OCI labels
	for _, k := range sortedKeys(step.Labels) {
		args = append(args, "--label", fmt.Sprintf("%s=%s", k, step.Labels[k]))
	}

	// Tags
	for _, tag := range step.Tags {
		args = append(args, "--tag", tag)
	}

	// Output mode
	switch {
	case step.Push:
		args = append(args, "--push")
	case step.Load:
		args = append(args, "--load")
	}

	// Build context
	buildContext := step.Context
	if buildContext == "" {
		buildContext = "."
	}
	args = append(args, buildContext)

	return args
}

// EnsureBuilder checks that a buildx builder is available and creates one if
// needed. The created builder handles foreign platforms via emulation.
func (bx *Buildx) EnsureBuilder(ctx context.Context) error {
	// Check if default builder exists
	cmd := exec.CommandContext(ctx, "docker", "buildx", "inspect")
	if err := cmd.Run(); err != nil {
		// Create a builder
		create := exec.CommandContext(ctx, "docker", "buildx", "create", "--use", "--name", "dockhand")
		create.Stdout = bx.Stderr
		create.Stderr = bx.Stderr
		if createErr := create.Run(); createErr != nil {
			return fmt.Errorf("creating buildx builder: %w", createErr)
		}
	}
	return nil
}

// Login authenticates the docker daemon against a registry host. The
// password travels via stdin only — never the argument list, never the logs.
func (bx *Buildx) Login(ctx context.Context, host, user, pass string) error {
	cmd := exec.CommandContext(ctx, "docker", "login", host, "--username", user, "--password-stdin")
	cmd.Stdin = strings.NewReader(pass)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker login %s failed: %w", host, err)
	}
	return nil
}

// PushTag pushes a single already-built image ref to its registry.
func (bx *Buildx) PushTag(ctx context.Context, ref string) error {
	if bx.Verbose {
		fmt.Fprintf(bx.Stderr, "exec: docker push %s\n", ref)
	}

	cmd := exec.CommandContext(ctx, "docker", "push", ref)
	cmd.Stdout = bx.Stdout
	cmd.Stderr = bx.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker push %s failed: %w", ref, err)
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

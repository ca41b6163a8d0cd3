// Package pipeline orchestrates a release run: resolve metadata from the
// triggering ref, authenticate every registry target in parallel with the
// image build, push every resolved tag to every target, and verify that all
// pushed refs agree on one image digest.
//
// The run has no partial-success mode: either every declared target receives
// every resolved tag, or the run fails. Pushes already completed to one
// target are not rolled back when another target fails — recovery is a
// re-trigger.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/sofmeright/dockhand/src/build"
	"github.com/sofmeright/dockhand/src/config"
	"github.com/sofmeright/dockhand/src/guard"
	"github.com/sofmeright/dockhand/src/refmeta"
	"github.com/sofmeright/dockhand/src/registry"
)

// Runner abstracts the buildx driver so the pipeline is testable without a
// docker daemon. *build.Buildx is the production implementation.
type Runner interface {
	EnsureBuilder(ctx context.Context) error
	Build(ctx context.Context, step build.Step) (*build.StepResult, error)
	PushTag(ctx context.Context, ref string) error
	Login(ctx context.Context, host, user, pass string) error
}

// Pipeline wires one run's collaborators. Construct once per run from the
// immutable config; never reused across runs.
type Pipeline struct {
	Config  *config.Config
	RootDir string
	Runner  Runner

	// Authenticate establishes a session for one target. Defaults to the
	// registry Authenticator backed by Runner.Login.
	Authenticate func(ctx context.Context, t registry.Target) error

	// DigestOf resolves remote digests during verification.
	// Defaults to the registry API.
	DigestOf registry.DigestFunc
}

// New creates a pipeline with production collaborators.
func New(cfg *config.Config, rootDir string, runner Runner) *Pipeline {
	auth := registry.NewAuthenticator(runner.Login)
	return &Pipeline{
		Config:       cfg,
		RootDir:      rootDir,
		Runner:       runner,
		Authenticate: auth.Authenticate,
	}
}

// Strategy names how the image reaches the registries.
const (
	StrategyLoadPush = "load + push" // single platform: build --load, then push per target
	StrategyPush     = "push"        // multi-platform: --push at build time
)

// Plan is the resolved execution plan for one run. Everything fatal about
// the configuration is caught while planning — before any side effect.
type Plan struct {
	Meta       *refmeta.Meta
	Tags       []string // ref-derived tag set (pre target expansion)
	Labels     map[string]string
	Targets    []registry.Target
	Dockerfile *build.DockerfileInfo
	Step       build.Step
	Strategy   string
}

// Plan resolves the ref, tag set, labels, targets, and build step.
// An empty tag set or an unresolvable target aborts here, before any build
// or authentication is attempted.
func (p *Pipeline) Plan(ctx context.Context) (*Plan, error) {
	meta, err := refmeta.Detect(p.RootDir)
	if err != nil {
		return nil, fmt.Errorf("resolving ref: %w", err)
	}

	tags := meta.Tags()
	if len(tags) == 0 {
		return nil, fmt.Errorf("ref %q (%s) matches no tag rule — refusing to build an image that cannot be tagged", meta.Ref.Name, meta.Ref.Kind)
	}

	targets, err := registry.ResolveTargets(p.Config.Registries, meta)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no registry target accepts ref %q — check branches/git_tags filters", meta.Ref.Name)
	}

	buildCfg := p.Config.Build
	contextDir := buildCfg.Context
	if contextDir == "" {
		contextDir = "."
	}
	if !filepath.IsAbs(contextDir) {
		contextDir = filepath.Join(p.RootDir, contextDir)
	}

	df, err := build.SelectDockerfile(contextDir, buildCfg.Dockerfile)
	if err != nil {
		return nil, err
	}

	projectVersion := refmeta.ProjectVersion(contextDir)
	labels := meta.Labels(refmeta.SourceURL(p.RootDir), projectVersion)

	version := projectVersion
	if v := meta.Version(); v != nil {
		version = v.String()
	}
	args := build.InjectStandardArgs(cloneArgs(buildCfg.BuildArgs), df, version, meta.SHA)

	var refs []string
	for _, t := range targets {
		refs = append(refs, t.Refs()...)
	}

	step := build.Step{
		Name:       p.Config.Image,
		Dockerfile: df.Path,
		Context:    contextDir,
		Target:     buildCfg.Target,
		Platforms:  buildCfg.Platforms,
		BuildArgs:  args,
		Labels:     labels,
		Tags:       refs,
	}

	// Multi-platform images cannot be loaded into the daemon; they are
	// pushed at build time. Single-platform builds load locally first and
	// push per target afterwards.
	strategy := StrategyLoadPush
	if step.MultiPlatform() {
		step.Push = true
		strategy = StrategyPush
	} else {
		step.Load = true
	}

	return &Plan{
		Meta:       meta,
		Tags:       tags,
		Labels:     labels,
		Targets:    targets,
		Dockerfile: df,
		Step:       step,
		Strategy:   strategy,
	}, nil
}

// Guard scans everything about to be baked into the image — the Dockerfile,
// resolved build args, and label values — for secrets. Any finding is fatal.
func (p *Pipeline) Guard(plan *Plan) ([]guard.Finding, error) {
	if !p.Config.Guard.SecretsEnabled() {
		return nil, nil
	}

	scanner, err := guard.NewScanner()
	if err != nil {
		return nil, err
	}

	findings, err := scanner.ScanFile(plan.Step.Dockerfile)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", plan.Step.Dockerfile, err)
	}
	findings = append(findings, scanner.ScanValues("build-arg", plan.Step.BuildArgs)...)
	findings = append(findings, scanner.ScanValues("label", plan.Step.Labels)...)

	if len(findings) > 0 {
		return findings, fmt.Errorf("secret guard: %d finding(s) would be baked into the image", len(findings))
	}
	return nil, nil
}

// PushResult is the per-target outcome of the push fan-out.
type PushResult struct {
	Target registry.Target
	Refs   []string
	Err    error
}

// Result captures a completed (or failed) run.
type Result struct {
	Build  *build.StepResult
	Pushes []PushResult
	Digest string // common digest across all (tag, target) pairs
}

// Execute runs the planned release.
//
// Single-platform (load + push): authentication and the build run
// concurrently — both must succeed before the push phase starts. Push then
// fans out per target; each target succeeds or fails independently, and the
// run's status is the AND of all.
//
// Multi-platform (push): all targets authenticate first, then buildx builds
// and pushes in one operation (the daemon cannot load multi-platform
// images), which is itself the single logical publish.
func (p *Pipeline) Execute(ctx context.Context, plan *Plan) (*Result, error) {
	result := &Result{}

	if plan.Step.Push {
		// Auth is a hard barrier before the fused build+push.
		if err := p.authenticateAll(ctx, plan.Targets); err != nil {
			return result, err
		}
		if err := p.Runner.EnsureBuilder(ctx); err != nil {
			return result, err
		}
		sr, err := p.Runner.Build(ctx, plan.Step)
		result.Build = sr
		if err != nil {
			return result, fmt.Errorf("build: %w", err)
		}
		for _, t := range plan.Targets {
			result.Pushes = append(result.Pushes, PushResult{Target: t, Refs: t.Refs()})
		}
		return p.verify(ctx, plan, result)
	}

	// Load + push: auth and build join before the push phase. If auth fails
	// while the build is still running, the group context cancels the build;
	// if the build finishes first its artifact is simply discarded.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return p.authenticateAll(gctx, plan.Targets)
	})

	var buildResult *build.StepResult
	g.Go(func() error {
		if err := p.Runner.EnsureBuilder(gctx); err != nil {
			return err
		}
		sr, err := p.Runner.Build(gctx, plan.Step)
		buildResult = sr
		if err != nil {
			return fmt.Errorf("build: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		result.Build = buildResult
		return result, err
	}
	result.Build = buildResult

	// Push fan-out: one task per target, joined at the end. A failed target
	// fails the run but does not undo pushes already completed elsewhere.
	pushes := make([]PushResult, len(plan.Targets))
	var pg errgroup.Group
	for i, t := range plan.Targets {
		pg.Go(func() error {
			pr := PushResult{Target: t, Refs: t.Refs()}
			for _, ref := range pr.Refs {
				// No mid-push cancellation: a started push runs to
				// completion or hard-fails on its own.
				if err := p.Runner.PushTag(context.WithoutCancel(ctx), ref); err != nil {
					pr.Err = err
					break
				}
			}
			pushes[i] = pr
			return pr.Err
		})
	}
	pushErr := pg.Wait()
	result.Pushes = pushes
	if pushErr != nil {
		return result, fmt.Errorf("push: %w", pushErr)
	}

	return p.verify(ctx, plan, result)
}

// Run plans, guards, and executes in one call.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	plan, err := p.Plan(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := p.Guard(plan); err != nil {
		return nil, err
	}
	return p.Execute(ctx, plan)
}

// authenticateAll authenticates every target, each independently, and fails
// on the first error. Targets are probed in parallel.
func (p *Pipeline) authenticateAll(ctx context.Context, targets []registry.Target) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		g.Go(func() error {
			if err := p.Authenticate(gctx, t); err != nil {
				return fmt.Errorf("auth: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// verify confirms cross-target digest consistency after a successful push.
func (p *Pipeline) verify(ctx context.Context, plan *Plan, result *Result) (*Result, error) {
	digest, err := registry.VerifyDigests(ctx, plan.Targets, p.DigestOf)
	if err != nil {
		return result, fmt.Errorf("verify: %w", err)
	}
	result.Digest = digest
	return result, nil
}

func cloneArgs(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sofmeright/dockhand/src/build"
	"github.com/sofmeright/dockhand/src/output"
	"github.com/sofmeright/dockhand/src/pipeline"
)

var (
	relPlatforms []string
	relDryRun    bool
	relSkipGuard bool
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Build and publish the image to all configured registries",
	Long: `Build the container image with docker buildx and push it, under every
ref-derived tag, to every configured registry.

Tags are computed from the triggering ref: a branch push tags the image with
the branch name; a vX.Y.Z tag produces X.Y.Z and X.Y. All targets must
authenticate before any push happens; the run succeeds only when every
target received every tag pointing at one image digest.`,
	RunE: runRelease,
}

func init() {
	releaseCmd.Flags().StringSliceVar(&relPlatforms, "platform", nil, "override platforms (comma-separated)")
	releaseCmd.Flags().BoolVar(&relDryRun, "dry-run", false, "show the plan without executing")
	releaseCmd.Flags().BoolVar(&relSkipGuard, "skip-guard", false, "skip the pre-push secret scan")

	rootCmd.AddCommand(releaseCmd)
}

func runRelease(cmd *cobra.Command, args []string) error {
	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	if len(args) > 0 {
		rootDir = args[0]
	}

	ctx := context.Background()
	color := output.UseColor()
	w := os.Stdout
	runStart := time.Now()

	if len(relPlatforms) > 0 {
		cfg.Build.Platforms = relPlatforms
	}
	if relSkipGuard {
		off := false
		cfg.Guard.Secrets = &off
	}

	bx := build.NewBuildx(verbose)
	if !verbose {
		bx.Stdout = io.Discard
	}
	p := pipeline.New(cfg, rootDir, bx)

	// --- Plan ---
	output.SectionStartCollapsed(w, "dh_plan", "Plan")
	planStart := time.Now()
	plan, err := p.Plan(ctx)
	planElapsed := time.Since(planStart)
	if err != nil {
		output.SectionEnd(w, "dh_plan")
		return fmt.Errorf("planning: %w", err)
	}

	planSec := output.NewSection(w, "Plan", planElapsed, color)
	planSec.Row("%-16s%s (%s)", "ref", plan.Meta.Ref.Name, plan.Meta.Ref.Kind)
	planSec.Row("%-16s%s", "commit", plan.Meta.SHA)
	planSec.Row("%-16s%s", "tags", strings.Join(plan.Tags, ", "))
	planSec.Row("%-16s%s", "dockerfile", plan.Step.Dockerfile)
	planSec.Row("%-16s%s", "platforms", formatPlatforms(plan.Step.Platforms))
	planSec.Row("%-16s%s", "strategy", plan.Strategy)
	for _, t := range plan.Targets {
		planSec.Row("%-16s%s (%d tags)", "registry", t.String(), len(t.Tags))
	}
	planSec.Close()
	output.SectionEnd(w, "dh_plan")

	planSummary := fmt.Sprintf("%d tag(s) → %d registry(ies), %s", len(plan.Tags), len(plan.Targets), plan.Strategy)

	// --- Dry run ---
	if relDryRun {
		fmt.Fprintf(w, "\n    step: %s\n", plan.Step.Name)
		fmt.Fprintf(w, "      dockerfile: %s\n", plan.Step.Dockerfile)
		fmt.Fprintf(w, "      context:    %s\n", plan.Step.Context)
		fmt.Fprintf(w, "      platforms:  %v\n", plan.Step.Platforms)
		for _, ref := range plan.Step.Tags {
			fmt.Fprintf(w, "      tag:        %s\n", ref)
		}
		for k, v := range plan.Labels {
			fmt.Fprintf(w, "      label:      %s=%s\n", k, v)
		}
		return nil
	}

	// --- Guard ---
	guardSummary := "--skip-guard"
	if cfg.Guard.SecretsEnabled() {
		output.SectionStartCollapsed(w, "dh_guard", "Guard")
		guardStart := time.Now()
		findings, guardErr := p.Guard(plan)
		guardElapsed := time.Since(guardStart)

		guardSec := output.NewSection(w, "Guard", guardElapsed, color)
		if len(findings) == 0 {
			guardSec.Row("%-16s%s", "secrets", "no findings")
		}
		for _, f := range findings {
			loc := f.Subject
			if f.Line > 0 {
				loc = fmt.Sprintf("%s:%d", f.Subject, f.Line)
			}
			guardSec.Row("%-24s%-20s %s", loc, f.RuleID, f.Message)
		}
		guardSec.Close()
		output.SectionEnd(w, "dh_guard")

		if guardErr != nil {
			return guardErr
		}
		guardSummary = "no findings"
	}

	// --- Build & Push ---
	output.SectionStart(w, "dh_publish", "Publish")
	execStart := time.Now()
	result, execErr := p.Execute(ctx, plan)
	execElapsed := time.Since(execStart)

	pubSec := output.NewSection(w, "Publish", execElapsed, color)
	if result != nil && result.Build != nil {
		output.RowStatus(pubSec, "build", formatPlatforms(plan.Step.Platforms), result.Build.Status, color)
	}
	if result != nil {
		for _, pr := range result.Pushes {
			status := "success"
			if pr.Err != nil {
				status = "failed"
			}
			for _, ref := range pr.Refs {
				pubSec.Row("%-56s %s", ref, output.StatusIcon(status, color))
			}
		}
		if result.Digest != "" {
			pubSec.Separator()
			pubSec.Row("%-16s%s", "digest", result.Digest)
		}
	}
	pubSec.Close()
	output.SectionEnd(w, "dh_publish")

	// --- Summary ---
	totalElapsed := time.Since(runStart)
	overall := "success"
	if execErr != nil {
		overall = "failed"
	}

	sumSec := output.NewSection(w, "Summary", 0, color)
	output.SummaryRow(w, "plan", "success", planSummary, color)
	guardStatus := "success"
	if guardSummary == "--skip-guard" {
		guardStatus = "skipped"
	}
	output.SummaryRow(w, "guard", guardStatus, guardSummary, color)
	if result != nil && result.Build != nil {
		output.SummaryRow(w, "build", result.Build.Status, fmt.Sprintf("%d image ref(s)", len(plan.Step.Tags)), color)
	}
	pushStatus, pushDetail := pushSummary(result)
	output.SummaryRow(w, "push", pushStatus, pushDetail, color)
	if result != nil && result.Digest != "" {
		output.SummaryRow(w, "verify", "success", result.Digest, color)
	}
	sumSec.Separator()
	output.SummaryTotal(w, totalElapsed, overall, color)
	sumSec.Close()

	if execErr != nil {
		return execErr
	}

	// --- Image References ---
	fmt.Fprintf(w, "\n    Image References\n")
	for _, ref := range plan.Step.Tags {
		fmt.Fprintf(w, "    → %s\n", ref)
	}
	fmt.Fprintln(w)

	return nil
}

func pushSummary(result *pipeline.Result) (status, detail string) {
	if result == nil || len(result.Pushes) == 0 {
		return "skipped", "no pushes attempted"
	}
	var ok, failed int
	for _, pr := range result.Pushes {
		if pr.Err != nil {
			failed++
		} else {
			ok++
		}
	}
	if failed > 0 {
		return "failed", fmt.Sprintf("%d target(s) ok, %d failed", ok, failed)
	}
	return "success", fmt.Sprintf("%d target(s)", ok)
}

func formatPlatforms(platforms []string) string {
	if len(platforms) == 0 {
		return runtime.GOOS + "/" + runtime.GOARCH
	}
	return strings.Join(platforms, ",")
}

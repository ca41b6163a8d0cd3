package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sofmeright/dockhand/src/refmeta"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Print the tags and labels resolved for the current ref",
	Long: `Resolve the image tag set and OCI labels from the current repository
state, exactly as the release command would, and print them without building
or pushing anything.`,
	RunE: runTags,
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}

func runTags(cmd *cobra.Command, args []string) error {
	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	if len(args) > 0 {
		rootDir = args[0]
	}

	meta, err := refmeta.Detect(rootDir)
	if err != nil {
		return err
	}

	fmt.Printf("ref:    %s (%s)\n", meta.Ref.Name, meta.Ref.Kind)
	fmt.Printf("commit: %s\n", meta.SHA)

	tags := meta.Tags()
	if len(tags) == 0 {
		return fmt.Errorf("ref %q (%s) matches no tag rule", meta.Ref.Name, meta.Ref.Kind)
	}
	for _, t := range tags {
		fmt.Printf("tag:    %s\n", t)
	}

	labels := meta.Labels(refmeta.SourceURL(rootDir), refmeta.ProjectVersion(rootDir))
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("label:  %s=%s\n", k, labels[k])
	}

	return nil
}

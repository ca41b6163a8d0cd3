package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sofmeright/dockhand/src/registry"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	RunE:  runConfigValidate,
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	var total int

	if cfg.Image == "" {
		fmt.Fprintln(os.Stderr, "image: name is empty")
		total++
	}
	if len(cfg.Registries) == 0 {
		fmt.Fprintln(os.Stderr, "registries: none configured")
		total++
	}

	for i, rc := range cfg.Registries {
		for _, err := range registry.ValidateConfig(rc) {
			fmt.Fprintf(os.Stderr, "registries[%d] (%s): %v\n", i, rc.Host(), err)
			total++
		}
		if rc.Credentials == "" {
			fmt.Fprintf(os.Stderr, "registries[%d] (%s): no credentials configured\n", i, rc.Host())
			total++
		}
	}

	if total > 0 {
		return fmt.Errorf("config validation failed: %d error(s)", total)
	}

	fmt.Printf("config ok: %d registry target(s)\n", len(cfg.Registries))
	return nil
}

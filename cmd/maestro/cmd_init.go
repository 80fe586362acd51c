package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"maestro/internal/config"
	"maestro/internal/pricing"
)

// initCmd writes a starter workspace
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .maestro/ with a config file and an editable pricing table",
	Long: `Writes .maestro/config.yaml and .maestro/pricing.yaml into the workspace.
Existing files are left untouched. The new config points pricing_path at the
written table so edits to it take effect on the next run.`,
	Args: cobra.NoArgs,
	// The pricing table may not exist yet, so only the workspace is resolved.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if workspace == "" {
			root, err := os.Getwd()
			if err != nil {
				return err
			}
			workspace = root
		}
		return nil
	},
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	tablePath := filepath.Join(config.DirName, "pricing.yaml")

	wrote, err := pricing.WriteDefault(filepath.Join(workspace, tablePath))
	if err != nil {
		return fmt.Errorf("failed to write pricing table: %w", err)
	}
	if wrote {
		fmt.Fprintf(out, "Wrote %s\n", tablePath)
	} else {
		fmt.Fprintf(out, "Kept existing %s\n", tablePath)
	}

	cfgPath := config.Path(workspace)
	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Fprintf(out, "Kept existing %s\n", filepath.Join(config.DirName, "config.yaml"))
		return nil
	}
	c := config.DefaultConfig()
	c.PricingPath = tablePath
	if err := c.Save(cfgPath); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", filepath.Join(config.DirName, "config.yaml"))
	return nil
}

// Command maestro is an interactive cost/quality/time advisor for automation
// tasks. It proposes priced options, negotiates constraints with the user,
// simulates the chosen run and learns from past choices.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"maestro/internal/config"
	"maestro/internal/logging"
	"maestro/internal/pricing"
)

var (
	// Global flags
	verbose     bool
	workspace   string
	configPath  string
	pricingPath string

	// Root flags
	demoMode bool

	// Resolved at startup
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "maestro",
	Short: "Maestro - cost/quality/time advisor for automation tasks",
	Long: `Maestro turns a plain-language automation request (web scraping, data
analysis or API integration) into priced options, lets you negotiate budget,
quality, time and scope, then simulates the chosen run.

Every choice is remembered; after a few tasks Maestro recommends the option
you usually pick.

Run without arguments to start the interactive session.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return bootstrap()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
		logging.CloseAll()
	},
	RunE: runInteractive,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging to .maestro/logs")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: nearest .maestro or go.mod)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: <workspace>/.maestro/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&pricingPath, "pricing", "", "Pricing table YAML (overrides config)")

	rootCmd.Flags().BoolVar(&demoMode, "demo", false, "Play the guided demo scenarios")

	estimateCmd.Flags().Float64Var(&estimateBudget, "budget", 0, "Maximum cost in USD")
	estimateCmd.Flags().Float64Var(&estimateQuality, "quality", 0, "Minimum quality, as a fraction (0.9) or percent (90)")
	estimateCmd.Flags().DurationVar(&estimateTime, "time", 0, "Maximum duration (e.g. 2m)")
	estimateCmd.Flags().IntVar(&estimateCount, "count", 0, "Override the number of units parsed from the request")

	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// bootstrap resolves the workspace, loads .env and the config, and starts
// logging. It runs before every command.
func bootstrap() error {
	ws := workspace
	if ws == "" {
		root, err := config.FindWorkspaceRoot()
		if err != nil {
			return fmt.Errorf("failed to find workspace: %w", err)
		}
		ws = root
	}
	workspace = ws

	if err := config.LoadDotEnv(ws); err != nil {
		return err
	}

	path := configPath
	if path == "" {
		path = config.Path(ws)
	}
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if pricingPath != "" {
		loaded.PricingPath = pricingPath
	}
	if verbose {
		loaded.Logging.DebugMode = true
		loaded.Logging.Level = "debug"
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	if err := logging.Initialize(config.LogsDir(ws), cfg.Logging.Options()); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logging.Boot("workspace: %s, config: %s", ws, path)
	return nil
}

// loadTable loads the configured pricing table, or the embedded one when no
// path is configured. A configured path that is missing or malformed is an
// error.
func loadTable() (*pricing.Table, error) {
	if cfg.PricingPath == "" {
		return pricing.Builtin()
	}
	return pricing.Load(config.Resolve(workspace, cfg.PricingPath))
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"maestro/internal/advisor"
	"maestro/internal/config"
	"maestro/internal/console"
	"maestro/internal/executor"
	"maestro/internal/generator"
	"maestro/internal/logging"
	"maestro/internal/perception"
	"maestro/internal/preferences"
	"maestro/internal/pricing"
	"maestro/internal/render"
)

// runInteractive starts the conversational session, or the demo with --demo.
func runInteractive(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := loadTable()
	if err != nil {
		return err
	}
	gen, err := generator.New(table)
	if err != nil {
		return err
	}

	llm := perception.NewLLMClassifier(llmConfig())
	learner := newLearner()
	exec := executor.New(executorConfig(table), executor.WithWriter(os.Stdout))

	con := console.New(os.Stdin, os.Stdout)
	defer con.Close()

	a := advisor.New(advisor.Deps{
		Classifier:   perception.Default(llm),
		Generator:    gen,
		Executor:     exec,
		Learner:      learner,
		Console:      con,
		Renderer:     render.New(os.Stdout),
		LLMAvailable: llm.Available(),
	})

	logging.Boot("session %s started (pricing: %s, llm: %t)", learner.SessionID(), table.Source, llm.Available())
	if demoMode {
		return a.RunDemo(ctx)
	}
	return a.Run(ctx)
}

func llmConfig() perception.LLMConfig {
	return perception.LLMConfig{
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Model:      cfg.LLM.Model,
		Timeout:    cfg.GetLLMTimeout(),
		RetryCount: cfg.LLM.RetryCount,
	}
}

func newLearner() *preferences.Learner {
	store := preferences.NewFileStore(config.Resolve(workspace, cfg.PreferencesPath))
	return preferences.NewLearner(store, cfg.Learning.MinChoices)
}

// executorConfig paces the executor from config and splits hybrid crawls the
// way the pricing table does.
func executorConfig(table *pricing.Table) executor.Config {
	return executor.Config{
		OutputDir:     config.Resolve(workspace, cfg.OutputDir),
		MinDelay:      cfg.GetMinDelay(),
		MaxDelay:      cfg.GetMaxDelay(),
		SlowChance:    cfg.Execution.SlowChance,
		SlowFactor:    cfg.Execution.SlowFactor,
		FallbackShare: executor.FallbackShareFrom(table),
	}
}

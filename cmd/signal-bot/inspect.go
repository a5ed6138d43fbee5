package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"trade-signal-bot/internal/signalbot/config"
	"trade-signal-bot/internal/signalbot/render"
	"trade-signal-bot/internal/signalbot/repository"
	"trade-signal-bot/pkg/logger"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every stored signal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepository(func(repo repository.SignalRepository) error {
			signals, err := repo.GetAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(render.List(signals))
			return nil
		})
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the summary of active signals",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepository(func(repo repository.SignalRepository) error {
			signals, err := repo.GetAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(render.Summary(signals))
			return nil
		})
	},
}

// withRepository opens the configured store without touching any chat platform.
func withRepository(fn func(repository.SignalRepository) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateStorage(); err != nil {
		return err
	}

	appLogger, err := logger.New("warn", "console")
	if err != nil {
		return err
	}
	defer func() { _ = appLogger.Sync() }()

	repo, cleanup, err := openRepository(cfg, appLogger)
	if err != nil {
		return err
	}
	defer cleanup()

	return fn(repo)
}

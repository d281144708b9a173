package main

import (
	"fmt"
	"os"
	"time"

	"taskList/internal/app"
	"taskList/internal/config"
	"taskList/internal/models/task"
	"taskList/internal/seed"

	"github.com/spf13/cobra"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load sample tasks into the configured repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Repository.Type == config.RepositoryInMemory {
			return fmt.Errorf("seed needs a durable repository, set repository.type to %s or %s",
				config.RepositorySQLite, config.RepositoryPostgres)
		}

		entries, err := loadEntries(seedFile)
		if err != nil {
			return err
		}

		application := app.New(cfg)
		defer application.Close()
		if err := application.InitStorage(cmd.Context()); err != nil {
			return err
		}

		summary, err := seed.Run(cmd.Context(), application.Service(), entries, task.DateOf(time.Now()))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Created %d tasks (%d stored in total)\n", summary.Created, summary.Total)
		for _, s := range task.Statuses() {
			fmt.Fprintf(out, "  %s: %d\n", s, summary.ByStatus[s])
		}
		for _, p := range task.Priorities() {
			fmt.Fprintf(out, "  %s priority: %d\n", p.Label(), summary.ByPriority[p])
		}
		return nil
	},
}

func loadEntries(path string) ([]seed.Entry, error) {
	if path == "" {
		return seed.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return seed.Load(f)
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML fixture to load instead of the built-in sample tasks")
	rootCmd.AddCommand(seedCmd)
}

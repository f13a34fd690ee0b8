package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgeloop/forgeloop/config"
	"github.com/forgeloop/forgeloop/llm"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the effective configuration",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		model := cfg.Model
		if model == "" {
			if def := llm.DefaultModel(cfg.Provider); def != "" {
				model = def + " (default)"
			}
		}
		keyMark := "not set"
		if cfg.APIKey != "" {
			keyMark = "set"
		}

		fmt.Printf("Provider:   %s\n", cfg.Provider)
		fmt.Printf("Model:      %s\n", model)
		fmt.Printf("API key:    %s\n", keyMark)
		fmt.Printf("Project:    %s\n", cfg.ProjectDir)
		fmt.Printf("Start:      %s\n", cfg.StartCommand)
		fmt.Printf("Install:    %s\n", cfg.InstallCommand)
		fmt.Printf("Configured: %v\n", cfg.IsConfigured())
		return nil
	},
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/professai/aitril/internal/config"
	"github.com/professai/aitril/internal/provider"
)

var (
	initEnable []string
	initOllama string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the aitril configuration",
	Long: `Write a starter configuration to the user config path.

Providers whose API key environment variables are already set are enabled
automatically. Use --enable to enable providers explicitly, and --ollama
to register a local Ollama server.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringSliceVar(&initEnable, "enable", nil, "Providers to enable (openai, anthropic, gemini, ollama, llamacpp)")
	initCmd.Flags().StringVar(&initOllama, "ollama", "", "Base URL of a local Ollama server (e.g. http://localhost:11434)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := config.GetUserConfigPath()
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config already exists at %s; use --force to overwrite", path)
	}

	cfg := config.Default()

	// Enable hosted providers whose keys are already in the environment.
	for name, pc := range cfg.Providers {
		if pc.APIKeyEnv != "" && os.Getenv(pc.APIKeyEnv) != "" {
			pc.Enabled = true
			cfg.Providers[name] = pc
		}
	}

	if initOllama != "" {
		cfg.Providers[provider.NameOllama] = config.ProviderConfig{
			Name:    provider.DisplayName(provider.NameOllama),
			Enabled: true,
			BaseURL: initOllama,
		}
	}

	for _, raw := range initEnable {
		name := canonicalProvider(raw)
		pc, ok := cfg.Providers[name]
		if !ok {
			pc = config.ProviderConfig{Name: provider.DisplayName(name)}
		}
		pc.Enabled = true
		cfg.Providers[name] = pc
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	headerColor.Printf("Configuration written to %s\n\n", path)
	enabled := cfg.EnabledProviders()
	if len(enabled) == 0 {
		warnColor.Println("No providers enabled. Export OPENAI_API_KEY, ANTHROPIC_API_KEY or GOOGLE_API_KEY and re-run, or edit the config.")
		return nil
	}
	fmt.Println("Enabled providers:")
	for _, name := range enabled {
		agentColor.Printf("  %s\n", provider.DisplayName(name))
	}
	if len(enabled) < 2 {
		warnColor.Println("\nTri-lam and coordination need at least 2 providers.")
	}
	return nil
}

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/professai/aitril/internal/config"
	"github.com/professai/aitril/internal/provider"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration",
	Long: `Display the effective configuration after merging defaults, the
user config, any project .aitril.yaml, and environment variables.

Configuration is stored at ~/.config/aitril/config.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		displayConfig(cfg)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the user config file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.GetUserConfigPath())
	},
}

func init() {
	configCmd.AddCommand(configPathCmd)
}

func displayConfig(cfg *config.Config) {
	fmt.Println("Providers:")
	var names []string
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pc := cfg.Providers[name]
		state := "disabled"
		if pc.Enabled {
			state = "enabled"
		}
		model := pc.Model
		if model == "" {
			model = "(default)"
		}
		fmt.Printf("  %-24s %-9s model=%s", provider.DisplayName(name), state, model)
		if pc.EnableTools {
			fmt.Print(" tools=on")
		}
		fmt.Println()
	}

	fmt.Println("\nDeployment targets:")
	names = names[:0]
	for name := range cfg.Deployment {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		tc := cfg.Deployment[name]
		state := "disabled"
		if tc.Enabled {
			state = "enabled"
		}
		fmt.Printf("  %-12s %s\n", name, state)
	}

	fmt.Println("\nCoordination:")
	fmt.Printf("  debate_rounds:       %d\n", cfg.Coordination.DebateRounds)
	fmt.Printf("  max_tool_iterations: %d\n", cfg.Coordination.MaxToolIterations)
	fmt.Printf("  max_revise_cycles:   %d\n", cfg.Coordination.MaxReviseCycles)
	synth := cfg.Coordination.SynthesisProvider
	if synth == "" {
		synth = "(first enabled)"
	}
	fmt.Printf("  synthesis_provider:  %s\n", synth)

	fmt.Printf("\nServer addr: %s\n", cfg.Server.Addr)
	fmt.Printf("History enabled: %t\n", cfg.History.Enabled)
}

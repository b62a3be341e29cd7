package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/professai/aitril/internal/config"
	"github.com/professai/aitril/internal/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web observer",
	Long: `Serve the web interface: a page at / and a WebSocket feed at /ws
that accepts prompts and streams coordination events live.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, cancel := signalContext()
	defer cancel()

	headerColor.Printf("aitril web observer listening on %s\n", cfg.Server.Addr)
	return web.New(cfg).Run(ctx)
}

// Command agent-tuid is the daemon process: it owns PTY-backed
// sessions and serves requests over the local transport.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agent-tui/agent-tui/internal/config"
	"github.com/agent-tui/agent-tui/internal/daemon"
	"github.com/agent-tui/agent-tui/internal/logger"
)

func main() {
	var configPath string
	var logFile string

	root := &cobra.Command{
		Use:   "agent-tuid",
		Short: "agent-tui daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = config.DefaultConfigPath()
			}
			mgr, err := config.NewManager(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg := mgr.Get()

			if err := logger.Init(cfg.LogLevel, logFile); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer mgr.Close()

			return daemon.Run(cfg)
		},
	}
	root.Flags().StringVar(&configPath, "config", "", "path to config.yaml (default ~/.agent-tui/config.yaml)")
	root.Flags().StringVar(&logFile, "log-file", "", "additional log file path")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"MacroPulse/internal/di"
	"MacroPulse/pkg/config"

	"github.com/spf13/cobra"
)

var (
	configPath      string
	snapshotID      string
	snapshotTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "macropulse",
	Short: "Macro regime, credit alert and portfolio dashboard",
	Long: `MacroPulse pulls macro, funding and market series from FRED and
Blockchain.com, grades regime, credit alerts, funding stress, breadth and the
bitcoin trend, and maps the result onto configured portfolios.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, WebSocket feed and refresh loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithEnv(configPath)
		if err != nil {
			return fmt.Errorf("config load failed: %w", err)
		}
		log.Printf("env=%s port=%d refresh=%s", cfg.Environment, cfg.Server.Port, cfg.Refresh.Interval)

		app, err := di.InitializeApp(cfg)
		if err != nil {
			return fmt.Errorf("app initialization failed: %w", err)
		}
		return app.Run()
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Build one dashboard and print it as JSON",
	Long: `Build one dashboard for a portfolio and print it as JSON on stdout.
Logs go to stderr so the output can be piped.

Example usage:
  macropulse snapshot --config config/config.yaml
  macropulse snapshot --portfolio ira --timeout 5m`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithEnv(configPath)
		if err != nil {
			return fmt.Errorf("config load failed: %w", err)
		}
		cfg.Log.Output = "stderr"
		cfg.Log.Digest.Enabled = false
		cfg.Kafka.Consumer.Enabled = false

		app, err := di.InitializeApp(cfg)
		if err != nil {
			return fmt.Errorf("app initialization failed: %w", err)
		}
		defer app.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), snapshotTimeout)
		defer cancel()

		d, err := app.Snapshot(ctx, snapshotID)
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")

	snapshotCmd.Flags().StringVar(&snapshotID, "portfolio", "default", "portfolio id to report against")
	snapshotCmd.Flags().DurationVar(&snapshotTimeout, "timeout", 2*time.Minute, "pipeline timeout")

	rootCmd.AddCommand(serveCmd, snapshotCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Command collectorctl is the operator-facing companion to collectord:
// it validates and scaffolds configuration files and can launch the
// daemon itself, without requiring operators to remember collectord's
// own flag surface.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"telemetry-collector/internal/collectorapp"
	"telemetry-collector/internal/config"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "collectorctl",
		Short: "Operate the telemetry-collector daemon",
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newConfigCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the collector daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := collectorapp.New(version)
			if err != nil {
				return fmt.Errorf("failed to build application: %w", err)
			}

			if err := app.Bootstrap(); err != nil {
				return fmt.Errorf("failed to bootstrap application: %w", err)
			}

			if err := app.Start(); err != nil {
				return fmt.Errorf("collectord exited with error: %w", err)
			}

			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and scaffold collector.yml",
	}

	configCmd.AddCommand(newConfigValidateCmd())
	configCmd.AddCommand(newConfigExampleCmd())

	return configCmd
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load collector.yml/.toml and report whether it is valid",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config is invalid: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config ok: ingressPort=%d game=%s skipAuth=%v\n",
				cfg.IngressPort, cfg.Game, cfg.SkipAuth)
			return nil
		},
	}
}

func newConfigExampleCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "example",
		Short: "Write a starter collector.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.GenerateExample(output); err != nil {
				return fmt.Errorf("failed to write example config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "collector.yml", "path to write the example config to")

	return cmd
}

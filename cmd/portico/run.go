package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"portico-hq/portico/pkg/cli"
	"portico-hq/portico/pkg/config"
	"portico-hq/portico/pkg/server"
	"portico-hq/portico/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Portico proxy server",
	Long: `Start the Portico proxy server with the specified configuration.

The server listens on the configured address, accepts Anthropic Messages
API requests, and fulfills them against the configured backend using the
credential pool.

Examples:
  # Start with default config
  portico run

  # Start with custom config
  portico run --config /etc/portico/config.yaml

  # Override listen address
  portico run --listen 0.0.0.0:8080

  # Validate config without starting server
  portico run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.Setup(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	printBanner(cfg)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Start blocks until a signal, context cancellation, or listener
	// error; SetupSignalHandler adds SIGINT/SIGTERM on top of the
	// server's own signal handling so both paths shut down cleanly.
	if err := srv.Start(cli.SetupSignalHandler()); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Portico v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")
	fmt.Printf("✓ Credentials file: %s\n", cfg.Credentials.Path)
	fmt.Printf("✓ Backend region: %s\n", cfg.Backend.Region)
	if cfg.Usage.Enabled {
		fmt.Printf("✓ Usage accounting: %s\n", cfg.Usage.Path)
	}
	fmt.Println()
}

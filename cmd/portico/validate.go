package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"portico-hq/portico/pkg/config"
	"portico-hq/portico/pkg/credential"
)

var validateFlags struct {
	checkCredentials bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate the configuration file without starting the server.

Environment overrides (PORTICO_*) are applied before validation, so the
result reflects what "portico run" would actually load.

Examples:
  # Validate the default config
  portico validate

  # Validate a specific file and the credential pool it points at
  portico validate --config /etc/portico/config.yaml --credentials`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateFlags.checkCredentials, "credentials", false, "also load and check the credentials file")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Configuration valid: %s\n", cfgFile)

	if validateFlags.checkCredentials {
		creds, err := credential.LoadFile(cfg.Credentials.Path)
		if err != nil {
			return fmt.Errorf("credentials file %s: %w", cfg.Credentials.Path, err)
		}
		fmt.Printf("✓ Credentials valid: %s (%d credentials)\n", cfg.Credentials.Path, len(creds))
		if verbose {
			for _, c := range creds {
				fmt.Printf("  - %s (priority %d)\n", c.ID, c.Priority)
			}
		}
	}

	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"portico-hq/portico/pkg/cli"
	"portico-hq/portico/pkg/credential"
)

var fingerprintFlags struct {
	output string
}

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint <credential-id>",
	Short: "Show the device profile derived for a credential",
	Long: `Show the deterministic device profile the proxy presents to the
backend for a given credential ID. The profile is derived from the ID
alone, so this prints exactly what a running server would send.

Examples:
  # Human-readable summary
  portico fingerprint cred-1

  # Full profile as JSON
  portico fingerprint cred-1 --output json`,
	Args: cobra.ExactArgs(1),
	RunE: showFingerprint,
}

func init() {
	rootCmd.AddCommand(fingerprintCmd)

	fingerprintCmd.Flags().StringVarP(&fingerprintFlags.output, "output", "o", "text", "output format (text, json)")
}

func showFingerprint(cmd *cobra.Command, args []string) error {
	id := args[0]
	fp := credential.NewFingerprint(id)

	switch cli.OutputFormat(fingerprintFlags.output) {
	case cli.FormatJSON:
		formatter := &cli.JSONFormatter{}
		return formatter.FormatTo(os.Stdout, fp)
	case cli.FormatText, "":
		fmt.Printf("Credential:       %s\n", id)
		fmt.Printf("OS:               %s %s\n", fp.OSType, fp.OSVersion)
		fmt.Printf("SDK Version:      %s\n", fp.SDKVersion)
		fmt.Printf("IDE Version:      %s\n", fp.IDEVersion)
		fmt.Printf("Machine ID:       %s\n", fp.MachineID)
		fmt.Printf("User-Agent:       %s\n", fp.UserAgent())
		fmt.Printf("x-amz-user-agent: %s\n", fp.AmzUserAgent())
		return nil
	default:
		return cli.NewCommandError("fingerprint", fmt.Errorf("unknown output format: %s", fingerprintFlags.output))
	}
}

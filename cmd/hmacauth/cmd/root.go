package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/golden-vcr/hmac-auth/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "hmacauth",
	Short: "HMAC API-key authentication for HTTP services",
	Long: `hmacauth verifies HMAC-signed HTTP requests against a store of API keys and an
optional authorization policy. It can run as an authenticating reverse proxy, sign
requests for testing, manage keys stored in Postgres, and tail the audit feed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", os.Getenv("HMACAUTH_CONFIG"), "Path to YAML config file (env: HMACAUTH_CONFIG)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(auditCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

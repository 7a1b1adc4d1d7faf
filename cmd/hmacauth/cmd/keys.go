package cmd

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/golden-vcr/hmac-auth/config"
	"github.com/golden-vcr/hmac-auth/db"
	"github.com/golden-vcr/hmac-auth/keystore"
)

// secretLength is the number of random bytes in a generated secret
const secretLength = 32

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys stored in Postgres",
	Long:  `Commands for creating the key table and issuing or revoking keys. Requires keystore.provider to be 'postgres'.`,
}

var keysMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the API key table if it doesn't exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd.Context(), func(conn *sql.DB) error {
			if err := db.Migrate(cmd.Context(), conn); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		})
	},
}

var keysAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Issue a new API key",
	Long: `Issues a new API key. If --api-key or --secret are omitted, random values are
generated. The secret is printed once and cannot be recovered later.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		apiKey, _ := cmd.Flags().GetString("api-key")
		secret, _ := cmd.Flags().GetString("secret")
		principal, _ := cmd.Flags().GetString("principal")
		if apiKey == "" {
			apiKey = uuid.NewString()
		}
		if secret == "" {
			var err error
			if secret, err = generateSecret(); err != nil {
				return err
			}
		}

		return withDatabase(cmd.Context(), func(conn *sql.DB) error {
			k := keystore.Key{ApiKey: apiKey, Secret: secret, Principal: principal}
			if err := keystore.NewPostgresStore(conn).Insert(cmd.Context(), k); err != nil {
				if errors.Is(err, keystore.ErrKeyExists) {
					return fmt.Errorf("API key '%s' already exists", apiKey)
				}
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "api_key: %s\n", apiKey)
			fmt.Fprintf(out, "secret: %s\n", secret)
			if principal != "" {
				fmt.Fprintf(out, "principal: %s\n", principal)
			}
			return nil
		})
	},
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke API_KEY",
	Short: "Revoke an API key",
	Long: `Marks an API key as revoked. A running server with keystore.cache enabled may
keep accepting the key until its cached entry expires (keystore.cache.ttl).`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd.Context(), func(conn *sql.DB) error {
			if err := keystore.NewPostgresStore(conn).Revoke(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, keystore.ErrKeyNotFound) {
					return fmt.Errorf("no active API key '%s'", args[0])
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked %s\n", args[0])
			return nil
		})
	},
}

func init() {
	keysAddCmd.Flags().String("api-key", "", "API key to issue (default: a random UUID)")
	keysAddCmd.Flags().String("secret", "", "Secret for the key (default: 32 random bytes, hex-encoded)")
	keysAddCmd.Flags().String("principal", "", "Principal the key authenticates as (default: the API key)")

	keysCmd.AddCommand(keysMigrateCmd)
	keysCmd.AddCommand(keysAddCmd)
	keysCmd.AddCommand(keysRevokeCmd)
}

func withDatabase(ctx context.Context, fn func(conn *sql.DB) error) error {
	if cfg.KeyStore.Provider != config.KeyStorePostgres {
		return fmt.Errorf("keystore.provider is '%s'; keys commands require '%s'", cfg.KeyStore.Provider, config.KeyStorePostgres)
	}
	conn, err := db.Open(ctx, cfg.KeyStore.Postgres.URI())
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(conn)
}

func generateSecret() (string, error) {
	buf := make([]byte, secretLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

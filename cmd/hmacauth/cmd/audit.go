package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/golden-vcr/hmac-auth/audit"
	"github.com/golden-vcr/hmac-auth/rmq"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the authentication audit feed",
}

var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print audit events from RabbitMQ as they're published",
	Long: `Consumes the audit queue named in the config file and prints each event as a
line of JSON until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outcome, _ := cmd.Flags().GetString("outcome")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		conn, err := rmq.Dial(cfg.Audit.AMQP.URI())
		if err != nil {
			return err
		}
		defer conn.Close()
		consumer, err := cfg.Audit.Queue.NewConsumer(conn)
		if err != nil {
			return fmt.Errorf("failed to initialize audit consumer: %w", err)
		}
		defer consumer.Close()

		encoder := json.NewEncoder(cmd.OutOrStdout())
		return audit.Tail(ctx, consumer, func(ev audit.Event) error {
			if outcome != "" && ev.Outcome != outcome {
				return nil
			}
			return encoder.Encode(ev)
		})
	},
}

func init() {
	auditTailCmd.Flags().String("outcome", "", "Only print events with this outcome (e.g. allow, unauthorized, forbidden)")

	auditCmd.AddCommand(auditTailCmd)
}

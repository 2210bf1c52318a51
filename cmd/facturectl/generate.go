package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/hypernova-labs/facture-service/internal/config"
	"github.com/hypernova-labs/facture-service/internal/models"
	"github.com/hypernova-labs/facture-service/internal/poller"
	"github.com/spf13/cobra"
)

func generateCmd() *cobra.Command {
	var (
		settled      bool
		sendEmail    bool
		paymentDate  string
		paymentRef   string
		wait         bool
		pollInterval time.Duration
		pollTimeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "generate [record-id]",
		Short: "Request the facture of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			req := &models.GenerateRequest{
				Mode:      models.GenerationModeIssued,
				SendEmail: sendEmail,
			}
			if settled {
				req.Mode = models.GenerationModeSettled
				req.PaymentDate = &paymentDate
				if paymentRef != "" {
					req.PaymentReference = &paymentRef
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			resp, err := c.Generate(ctx, args[0], req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generation accepted (correlation %s)\n", resp.CorrelationID)
			if resp.DocumentNumber != nil {
				fmt.Fprintf(out, "Document number: %s\n", *resp.DocumentNumber)
			}
			if !wait {
				return nil
			}

			fmt.Fprintln(out, "Waiting for the document...")
			status, err := poller.New(c, pollInterval, pollTimeout, newLogger()).PollUntilTerminal(ctx, args[0])
			if err != nil {
				if status != nil && status.Error != nil {
					return fmt.Errorf("generation failed: %s (%s)", status.Error.Message, status.Error.Code)
				}
				return err
			}
			printStatus(cmd, status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&settled, "settled", false, "Generate a settled (paid) facture")
	cmd.Flags().BoolVar(&sendEmail, "send-email", false, "Ask the engine to email the facture")
	cmd.Flags().StringVar(&paymentDate, "payment-date", "", "Payment date (YYYY-MM-DD), required with --settled")
	cmd.Flags().StringVar(&paymentRef, "payment-ref", "", "Payment reference")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Poll until the document is ready or failed")
	// Los valores por defecto salen de FACTURE_POLL_INTERVAL y FACTURE_POLL_TIMEOUT
	pollCfg := config.LoadPoller()
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", pollCfg.Interval, "Delay between status reads (FACTURE_POLL_INTERVAL)")
	cmd.Flags().DurationVar(&pollTimeout, "poll-timeout", pollCfg.Timeout, "Maximum time to wait (FACTURE_POLL_TIMEOUT)")

	return cmd
}

func sendCmd() *cobra.Command {
	var (
		number string
		url    string
	)

	cmd := &cobra.Command{
		Use:   "send [record-id]",
		Short: "Ask the engine to deliver a generated facture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			if err := c.Send(context.Background(), args[0], &models.SendRequest{
				DocumentNumber: number,
				ArtifactURL:    url,
			}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Delivery requested")
			return nil
		},
	}

	cmd.Flags().StringVar(&number, "number", "", "Document number")
	cmd.Flags().StringVar(&url, "url", "", "Artifact URL")
	_ = cmd.MarkFlagRequired("number")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

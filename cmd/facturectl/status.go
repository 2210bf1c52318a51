package main

import (
	"fmt"
	"time"

	"github.com/hypernova-labs/facture-service/internal/models"
	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [record-id]",
		Short: "Show the generation status of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			status, err := c.ReadStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printStatus(cmd, status)
			return nil
		},
	}
}

func printStatus(cmd *cobra.Command, status *models.JobStatusResponse) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Status:    %s\n", status.Status)
	fmt.Fprintf(out, "Number:    %s\n", valueOr(status.DocumentNumber, "-"))
	fmt.Fprintf(out, "URL:       %s\n", valueOr(status.ArtifactURL, "-"))
	if status.GeneratedAt != nil {
		fmt.Fprintf(out, "Generated: %s\n", status.GeneratedAt.Format(time.RFC3339))
	}
	if status.PaymentDate != nil {
		fmt.Fprintf(out, "Paid on:   %s (%s)\n", *status.PaymentDate, valueOr(status.PaymentReference, "no reference"))
	}
	if status.Error != nil {
		fmt.Fprintf(out, "Error:     %s: %s\n", status.Error.Code, status.Error.Message)
	}
}

func valueOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/hypernova-labs/facture-service/internal/models"
	"github.com/hypernova-labs/facture-service/internal/pricing"
	"github.com/spf13/cobra"
)

func quoteCmd() *cobra.Command {
	var (
		months       int
		discount     float64
		flat         bool
		installments int
		start        string
		catalogFile  string
		remote       bool
	)

	cmd := &cobra.Command{
		Use:   "quote [format]",
		Short: "Compute a price and installment schedule",
		Long:  "Compute a price and installment schedule locally, or on the server with --remote.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &models.QuoteRequest{
				Format:             strings.ToUpper(args[0]),
				MonthCount:         months,
				DiscountPercentage: discount,
				FlatOverride:       flat,
				Installments:       installments,
				StartDate:          start,
			}

			var (
				resp *models.QuoteResponse
				err  error
			)
			if remote {
				resp, err = remoteQuote(cmd, req)
			} else {
				resp, err = localQuote(req, catalogFile)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Format: %s\n", resp.Format)
			fmt.Fprintf(out, "Total:  %d\n", resp.Total)
			if len(resp.Schedule) > 0 {
				fmt.Fprintln(out, "\nSchedule:")
				for i, inst := range resp.Schedule {
					fmt.Fprintf(out, "  %d. %s  %d\n", i+1, inst.Date, inst.Amount)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&months, "months", "m", 1, "Number of publication months")
	cmd.Flags().Float64VarP(&discount, "discount", "d", 0, "Discount percentage (0-100)")
	cmd.Flags().BoolVar(&flat, "flat-override", false, "Apply the fixed 70% rate")
	cmd.Flags().IntVarP(&installments, "installments", "n", 0, "Installment count (2, 3, 4 or 6)")
	cmd.Flags().StringVar(&start, "start", "", "First installment date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&catalogFile, "catalog", "", "YAML catalog file (local quotes only)")
	cmd.Flags().BoolVar(&remote, "remote", false, "Ask the service instead of computing locally")

	return cmd
}

func localQuote(req *models.QuoteRequest, catalogFile string) (*models.QuoteResponse, error) {
	catalog := pricing.DefaultCatalog()
	if catalogFile != "" {
		loaded, err := pricing.LoadCatalog(catalogFile)
		if err != nil {
			return nil, err
		}
		catalog = loaded
	}

	startDate := time.Now().UTC()
	if req.StartDate != "" {
		parsed, err := time.Parse(models.DateLayout, req.StartDate)
		if err != nil {
			return nil, fmt.Errorf("invalid --start: %w", err)
		}
		startDate = parsed
	}

	quote, err := pricing.BuildQuote(pricing.Selection{
		Format:             pricing.Format(req.Format),
		MonthCount:         req.MonthCount,
		DiscountPercentage: req.DiscountPercentage,
		FlatOverride:       req.FlatOverride,
	}, req.Installments, startDate, catalog)
	if err != nil {
		return nil, err
	}

	resp := quote.ToResponse()
	return &resp, nil
}

func remoteQuote(cmd *cobra.Command, req *models.QuoteRequest) (*models.QuoteResponse, error) {
	c, err := newClient()
	if err != nil {
		return nil, err
	}
	return c.Quote(cmd.Context(), req)
}

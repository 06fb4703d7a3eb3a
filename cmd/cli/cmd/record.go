// Package cmd - record command
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"kitchen-cost/adapters/storage"
	"kitchen-cost/core/pricing"
	"kitchen-cost/internal/errors"
)

var (
	recordCents  int64
	recordDate   string
	recordSource string
	recordRef    string
)

// recordCmd appends a price observation and persists it
var recordCmd = &cobra.Command{
	Use:   "record <sku>",
	Short: "Record a price observation for a distributor SKU",
	Long: `Append one price observation to a SKU variant's history. Observations
are append-only and persist in the configured store, replayed on top of the
catalog's declared prices on every run.

Examples:
  kitchen-cost record 1023 --cents 14256 --date 2026-08-15 --source invoice --ref INV-1001
  kitchen-cost record 88812 --cents 9900 --date 2026-08-20`,
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().Int64Var(&recordCents, "cents", 0, "pack price in cents")
	recordCmd.Flags().StringVar(&recordDate, "date", "", "effective date (YYYY-MM-DD, default today)")
	recordCmd.Flags().StringVar(&recordSource, "source", string(pricing.SourceManual), "observation source (invoice, catalog, manual, quote)")
	recordCmd.Flags().StringVar(&recordRef, "ref", "", "source reference, e.g. an invoice number")
	recordCmd.MarkFlagRequired("cents")
}

func runRecord(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	eng, store, err := loadEngine(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	v, ok := eng.FindVariantBySKU(args[0])
	if !ok {
		return errors.NotFound("variant", args[0])
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if recordDate != "" {
		date, err = time.Parse("2006-01-02", recordDate)
		if err != nil {
			return errors.Parsing("date "+recordDate, err)
		}
	}

	obs, err := eng.RecordObservation(pricing.Observation{
		VariantID:     v.ID,
		PriceCents:    recordCents,
		EffectiveDate: date,
		Source:        pricing.Source(recordSource),
		SourceRef:     recordRef,
	})
	if err != nil {
		return err
	}
	if err := persist(ctx, store, obs); err != nil {
		return err
	}

	fmt.Printf("Recorded %s @ %d¢ effective %s\n", v.SKU, obs.PriceCents, date.Format("2006-01-02"))
	return nil
}

func persist(ctx context.Context, store storage.Store, obs pricing.Observation) error {
	return store.AppendObservation(ctx, obs)
}

// Package cmd - shared engine setup
package cmd

import (
	"context"
	"os"

	"kitchen-cost/adapters/hclcatalog"
	"kitchen-cost/adapters/storage"
	"kitchen-cost/core/engine"
	"kitchen-cost/core/output"
	"kitchen-cost/core/pricing"
	"kitchen-cost/internal/config"
	"kitchen-cost/internal/errors"
	"kitchen-cost/internal/logging"

	"go.uber.org/zap"
)

// loadEngine builds an engine from the catalog path and replays any
// persisted price observations on top of the catalog's declared prices.
// The returned store is nil when persistence is disabled.
func loadEngine(ctx context.Context) (*engine.Engine, storage.Store, error) {
	cfg := config.Get()

	eng := engine.New(engine.Config{
		PricingMode: pricing.Mode(cfg.Pricing.Mode),
		AverageDays: cfg.Pricing.AverageDays,
	})

	info, err := os.Stat(catalogPath)
	if err != nil {
		return nil, nil, errors.NotFound("catalog path", catalogPath)
	}

	loader := hclcatalog.NewLoader()
	var doc *hclcatalog.Document
	if info.IsDir() {
		doc, err = loader.LoadDir(catalogPath)
	} else {
		doc, err = loader.LoadFile(catalogPath)
	}
	if err != nil {
		return nil, nil, err
	}
	if err := hclcatalog.Apply(doc, eng); err != nil {
		return nil, nil, err
	}

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	replayPersisted(ctx, store, eng)
	return eng, store, nil
}

// replayPersisted feeds stored observations through the engine. Rows for
// variants no longer in the catalog are skipped, not fatal.
func replayPersisted(ctx context.Context, store storage.Store, eng *engine.Engine) {
	log := logging.Named("cli")
	observations, err := store.LoadObservations(ctx)
	if err != nil {
		log.Warn("could not load persisted observations", zap.Error(err))
		return
	}
	skipped := 0
	for _, obs := range observations {
		if _, err := eng.RecordObservation(obs); err != nil {
			skipped++
		}
	}
	if skipped > 0 {
		log.Warn("skipped persisted observations for unknown variants",
			zap.Int("skipped", skipped))
	}
}

// renderFormat picks the format flag, falling back to the configured default
func renderFormat() (output.Format, error) {
	f := outputFormat
	if f == "" {
		f = config.Get().Output.DefaultFormat
	}
	if f == "" {
		f = string(output.FormatCLI)
	}
	return output.ParseFormat(f)
}

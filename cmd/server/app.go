package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"movietype-quiz/internal/narrative"
	"movietype-quiz/internal/seed"
	"movietype-quiz/internal/store"
)

// openStore connects to the configured backend, creates the schema and seeds
// the catalog on first run.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	catalog, err := seed.LoadFile(cfg.CatalogPath)
	if err != nil {
		st.Close()
		return nil, err
	}
	seeded, err := st.SeedCatalog(ctx, catalog, false)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	if seeded {
		logger.Info("seeded catalog", zap.Int("dimensions", len(catalog)))
	}
	return st, nil
}

func newGenerator(ctx context.Context) (narrative.Generator, error) {
	return narrative.New(ctx, narrative.Options{
		Provider: cfg.Narrative.Provider,
		APIKey:   cfg.Narrative.APIKey,
		Model:    cfg.Narrative.Model,
	}, logger.Named("narrative"))
}

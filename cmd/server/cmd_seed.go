package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"movietype-quiz/internal/seed"
	"movietype-quiz/internal/store"
)

var replaceCatalog bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the dimension and question catalog into the database",
	Long: `Loads the catalog from catalog_path (or the built-in catalog) into an
empty database. With --replace every dimension, question and response is
deleted first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		catalog, err := seed.LoadFile(cfg.CatalogPath)
		if err != nil {
			return err
		}
		st, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.EnsureSchema(ctx); err != nil {
			return err
		}
		seeded, err := st.SeedCatalog(ctx, catalog, replaceCatalog)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !seeded {
			fmt.Fprintln(out, "catalog already present; use --replace to overwrite")
			return nil
		}
		questions := 0
		for _, d := range catalog {
			questions += len(d.Questions)
		}
		fmt.Fprintf(out, "seeded %d dimensions, %d questions\n", len(catalog), questions)
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&replaceCatalog, "replace", false, "Delete existing catalog and responses before seeding")
}

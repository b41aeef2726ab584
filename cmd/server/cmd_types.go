package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"movietype-quiz/internal/narrative"
)

var refreshTypes bool

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "Print every movie type the current catalog can produce",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		dims, err := st.Dimensions(ctx)
		if err != nil {
			return err
		}
		gen, err := newGenerator(ctx)
		if err != nil {
			return err
		}
		types, err := narrative.NewTypeCatalog(gen, cfg.Narrative.Timeout, logger).List(ctx, dims, refreshTypes)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tPOLES\tTITLE")
		for _, t := range types {
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.Code, strings.Join(t.Poles, "/"), t.Title)
		}
		return w.Flush()
	},
}

func init() {
	typesCmd.Flags().BoolVar(&refreshTypes, "refresh", false, "Regenerate descriptions instead of using the cache")
}

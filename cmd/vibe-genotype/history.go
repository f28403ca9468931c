package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-genotype/internal/duckdb"
)

func (a *app) newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded extraction runs",
		Long: `List extraction runs recorded with --store, newest first. With a run id,
print the genotypes stored for that run. With --marker, print every stored
genotype of one marker across runs.`,
		Example: `  vibe-genotype history --store history.duckdb
  vibe-genotype history --store history.duckdb 3f0c9a1e-...
  vibe-genotype history --store history.duckdb --marker rs4680`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.v.GetString(keyStore)
			if path == "" {
				return usageError{errors.New("no history store configured (use --store or set store in the config)")}
			}
			store, err := duckdb.Open(path)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer store.Close()

			marker, _ := cmd.Flags().GetString("marker")
			switch {
			case marker != "":
				rows, err := store.GenotypesByMarker(cmd.Context(), marker)
				if err != nil {
					return err
				}
				return a.printGenotypes(rows)
			case len(args) == 1:
				run, err := store.LookupRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := a.printRuns([]duckdb.Run{*run}); err != nil {
					return err
				}
				rows, err := store.RunGenotypes(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout)
				return a.printGenotypes(rows)
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(a.stdout, "No runs recorded.")
				return nil
			}
			return a.printRuns(runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().String("marker", "", "Show stored genotypes of one marker id across runs")

	return cmd
}

func (a *app) printRuns(runs []duckdb.Run) error {
	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Run\tCreated\tSource\tFormat\tStatus\tVariants\tMatch")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d/%d\t%.1f%%\n",
			r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Source, r.Format, r.Status,
			r.TotalVariants, r.TotalTargets, r.MatchPct)
	}
	return w.Flush()
}

func (a *app) printGenotypes(rows []duckdb.StoredGenotype) error {
	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Run\tCategory\tRsid\tChromosome\tPosition\tAllele1\tAllele2")
	for _, g := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			g.RunID, g.Category, g.Record.ID, g.Record.Chrom, g.Record.PosString(),
			g.Record.Allele1, g.Record.Allele2)
	}
	return w.Flush()
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-genotype/internal/format"
	"github.com/inodb/vibe-genotype/internal/panel"
	"github.com/inodb/vibe-genotype/internal/pipeline"
	"github.com/inodb/vibe-genotype/internal/report"
)

func (a *app) newExtractCmd() *cobra.Command {
	var (
		outputFile  string
		inputFormat string
		quiet       bool
	)

	cmd := &cobra.Command{
		Use:   "extract [options] <input-file>",
		Short: "Extract panel markers from a genotype export",
		Long: `Normalize a raw genotype export and write the reference panel markers it
contains, grouped by category, to a tab-delimited file.

The input may be a VCF, PLINK .bim, Illumina final report, a consumer export
(23andMe, AncestryDNA, MyHeritage, FamilyTreeDNA, Living DNA, Nebula, Dante)
or any delimited table carrying rs identifiers. Gzip input is read directly.`,
		Example: `  vibe-genotype extract genome.txt
  vibe-genotype extract -o panel.tsv --format myheritage raw.csv
  vibe-genotype extract --panel my_panel.yaml --store ~/.vibe-genotype/history.duckdb genome.txt.gz`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{
				Input:     args[0],
				Output:    outputFile,
				OutputDir: a.v.GetString(keyOutputDir),
				Workers:   a.v.GetInt(keyWorkers),
				TopN:      a.v.GetInt(keyTop),
				StorePath: a.v.GetString(keyStore),
				Logger:    a.logger,
			}

			if inputFormat != "" {
				kind, err := format.ParseKind(inputFormat)
				if err != nil {
					return usageError{err}
				}
				opts.Format = kind
			}

			p, err := loadPanel(a.v.GetString(keyPanel))
			if err != nil {
				return err
			}
			opts.Panel = p

			out, err := pipeline.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}

			if !quiet {
				if err := report.Render(a.stdout, out.Summary, renderOptions(a, out.Source)); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "\nFormat: %s\nOutput: %s\n", out.Kind, out.OutputPath)
				if out.RunID != "" {
					fmt.Fprintf(a.stdout, "Run ID: %s\n", out.RunID)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: <output-dir>/<input>.panel.txt)")
	cmd.Flags().StringVar(&inputFormat, "format", "", "Input format (auto-detected if not specified)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the summary")
	cmd.Flags().String("output-dir", "", "Directory for the output file (default: next to the input)")
	cmd.Flags().Int(keyWorkers, 1, "Number of filter workers")
	cmd.Flags().Int("top", 5, "Number of top categories to report")

	a.v.BindPFlag(keyOutputDir, cmd.Flags().Lookup("output-dir")) //nolint:errcheck
	a.v.BindPFlag(keyWorkers, cmd.Flags().Lookup(keyWorkers))     //nolint:errcheck
	a.v.BindPFlag(keyTop, cmd.Flags().Lookup("top"))              //nolint:errcheck

	return cmd
}

// loadPanel loads the panel at path, or the built-in one when path is empty.
func loadPanel(path string) (*panel.Panel, error) {
	if path == "" {
		return panel.Default()
	}
	p, err := panel.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load panel: %w", err)
	}
	return p, nil
}

func renderOptions(a *app, title string) report.RenderOptions {
	opts := report.DetectRenderOptions(a.stdout)
	opts.Title = title
	return opts
}

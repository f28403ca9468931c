package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) newPanelCmd() *cobra.Command {
	var showMarkers bool

	cmd := &cobra.Command{
		Use:   "panel",
		Short: "List the reference panel categories",
		Long:  "List the categories of the configured panel (or the built-in one) with their marker counts.",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadPanel(a.v.GetString(keyPanel))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "Category\tName\tMarkers")
			for _, c := range p.Categories() {
				if showMarkers {
					fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name(), c.DisplayName(), strings.Join(c.Markers(), ","))
				} else {
					fmt.Fprintf(w, "%s\t%s\t%d\n", c.Name(), c.DisplayName(), c.Len())
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "\n%d categories, %d distinct markers\n", len(p.Categories()), p.TargetCount())
			return nil
		},
	}

	cmd.Flags().BoolVar(&showMarkers, "markers", false, "List marker ids instead of counts")

	return cmd
}

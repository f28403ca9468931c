package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-genotype/internal/format"
	"github.com/inodb/vibe-genotype/internal/input"
)

func (a *app) newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <input-file>",
		Short: "Print the detected format of a genotype export",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := input.NewSource(args[0])
			if err != nil {
				return err
			}
			rc, err := src.Open()
			if err != nil {
				return err
			}
			defer rc.Close()

			kind, err := format.DetectReader(rc)
			if err != nil {
				return fmt.Errorf("detect format: %w", err)
			}
			a.logger.Debug("detected",
				zap.String("input", src.Name()),
				zap.Bool("gzip", src.Compressed()),
				zap.Bool("confident", kind.IsConfident()),
				zap.String("layout", kind.Resolve().String()))

			fmt.Fprintln(a.stdout, kind)
			return nil
		},
	}
}

// Package pipeline runs a complete extraction: open the input, detect its
// format, normalize it, filter it against the panel, summarize the result
// and write the artifact.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/inodb/vibe-genotype/internal/adapter"
	"github.com/inodb/vibe-genotype/internal/duckdb"
	"github.com/inodb/vibe-genotype/internal/filter"
	"github.com/inodb/vibe-genotype/internal/format"
	"github.com/inodb/vibe-genotype/internal/genotype"
	"github.com/inodb/vibe-genotype/internal/input"
	"github.com/inodb/vibe-genotype/internal/output"
	"github.com/inodb/vibe-genotype/internal/panel"
	"github.com/inodb/vibe-genotype/internal/report"
)

// OutputSuffix is appended to the input stem to name the default artifact.
const OutputSuffix = ".panel.txt"

// Options configures a run.
type Options struct {
	Input     string       // input file path
	Output    string       // artifact path; derived from OutputDir when empty
	OutputDir string       // directory for the derived artifact path; defaults to the input's directory
	Format    format.Kind  // skips detection when set
	Panel     *panel.Panel // reference panel; the built-in default when nil
	Workers   int          // parallel filter workers; sequential when <= 1
	TopN      int          // length of Summary.TopCategories
	Store     *duckdb.Store // run history; takes precedence over StorePath
	StorePath string        // run history opened once the artifact is written
	Logger    *zap.Logger
}

// Outcome describes a finished run.
type Outcome struct {
	Source     string
	Kind       format.Kind
	Detected   bool // false when Options.Format was used
	Result     *filter.Result
	Summary    *report.Summary
	OutputPath string
	RunID      string // empty without a store
}

// Run executes the extraction. Nothing is written unless the input could be
// read, normalized and filtered.
func Run(ctx context.Context, opts Options) (*Outcome, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	src, err := input.NewSource(opts.Input)
	if err != nil {
		return nil, err
	}

	p := opts.Panel
	if p == nil {
		if p, err = panel.Default(); err != nil {
			return nil, fmt.Errorf("load default panel: %w", err)
		}
	}

	out := &Outcome{Source: src.Name(), Kind: opts.Format}
	if out.Kind == "" {
		if out.Kind, err = detect(src); err != nil {
			return nil, err
		}
		out.Detected = true
	}
	logger.Debug("format resolved",
		zap.String("input", src.Name()),
		zap.String("format", out.Kind.String()),
		zap.Bool("detected", out.Detected),
		zap.Bool("gzip", src.Compressed()))

	if out.Kind == format.Unknown {
		logger.Warn("format not recognized, trying fallback adapters",
			zap.String("input", src.Name()))
	}

	parser, err := adapter.Open(out.Kind, src)
	if err != nil {
		return nil, fmt.Errorf("open adapter: %w", err)
	}
	defer parser.Close()

	if opts.Workers > 1 {
		out.Result, err = filter.ParallelFilter(ctx, parser, p, opts.Workers)
	} else {
		out.Result, err = filter.Filter(ctx, parser, p)
	}
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", src.Name(), err)
	}
	logParserStats(logger, parser)

	out.Summary = report.Summarize(out.Result, p, opts.TopN)
	if out.Summary.Status == report.StatusFailed {
		logger.Warn("no panel markers found in input",
			zap.String("input", src.Name()),
			zap.Int("records", out.Result.TotalRecords))
	}

	out.OutputPath = opts.Output
	if out.OutputPath == "" {
		out.OutputPath = DefaultOutputPath(src, opts.OutputDir)
	}
	if err := writeArtifact(out.OutputPath, src.Name(), out.Kind, out.Result); err != nil {
		return nil, err
	}
	logger.Info("extraction written",
		zap.String("output", out.OutputPath),
		zap.String("status", string(out.Summary.Status)),
		zap.Int("variants", out.Summary.TotalVariants))

	store := opts.Store
	if store == nil && opts.StorePath != "" {
		if store, err = duckdb.Open(opts.StorePath); err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		defer store.Close()
	}
	if store != nil {
		run := NewRun(src, out)
		if err := store.RecordRun(ctx, run, out.Result); err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
		out.RunID = run.ID
		logger.Debug("run recorded", zap.String("run_id", run.ID), zap.String("store", store.Path()))
	}

	return out, nil
}

func detect(src input.Source) (format.Kind, error) {
	rc, err := src.Open()
	if err != nil {
		return format.Unknown, fmt.Errorf("open %s: %w", src.Name(), err)
	}
	defer rc.Close()

	kind, err := format.DetectReader(rc)
	if err != nil {
		return format.Unknown, fmt.Errorf("detect format of %s: %w", src.Name(), err)
	}
	return kind, nil
}

// logParserStats reports skipped rows and fallback contributions at debug
// level.
func logParserStats(logger *zap.Logger, parser genotype.RecordParser) {
	switch p := parser.(type) {
	case *adapter.Parser:
		logger.Debug("rows skipped", zap.Int("skipped", p.Skipped()), zap.Int("lines", p.LineNumber()))
	case *adapter.FallbackParser:
		logger.Debug("rows skipped", zap.Int("skipped", p.Skipped()), zap.Int("lines", p.LineNumber()))
		for _, c := range p.Contributions() {
			logger.Debug("fallback adapter contribution", zap.String("adapter", c.Adapter), zap.Int("records", c.Records))
		}
	}
}

// DefaultOutputPath derives <dir>/<stem>.panel.txt. An empty dir uses the
// input's own directory.
func DefaultOutputPath(src *input.FileSource, dir string) string {
	if dir == "" {
		dir = filepath.Dir(src.Path())
	}
	return filepath.Join(dir, src.Stem()+OutputSuffix)
}

// writeArtifact writes to a temporary file and renames it into place so a
// failed write never leaves a partial artifact.
func writeArtifact(path, source string, kind format.Kind, res *filter.Result) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".vibe-genotype-*")
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := output.WriteResult(tmp, source, kind, res); err != nil {
		tmp.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

// NewRun builds the history record of an outcome.
func NewRun(src *input.FileSource, out *Outcome) *duckdb.Run {
	run := &duckdb.Run{
		Source:     src.Name(),
		Format:     out.Kind.String(),
		OutputPath: out.OutputPath,
	}
	if fp, err := duckdb.StatFile(src.Path()); err == nil {
		run.Fingerprint = fp
	}
	if s := out.Summary; s != nil {
		run.Status = string(s.Status)
		run.TotalRecords = s.TotalRecords
		run.RawMatches = s.RawMatches
		run.TotalTargets = s.TotalTargets
		run.TotalVariants = s.TotalVariants
		run.VariantsWithAlleles = s.VariantsWithAlleles
		run.VariantsWithPosition = s.VariantsWithPosition
		run.MatchPct = s.MatchPct
	}
	return run
}

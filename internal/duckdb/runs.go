package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-genotype/internal/filter"
	"github.com/inodb/vibe-genotype/internal/genotype"
)

// ErrRunNotFound is returned by LookupRun for unknown run ids.
var ErrRunNotFound = errors.New("run not found")

// Run is one stored extraction.
type Run struct {
	ID          string
	CreatedAt   time.Time
	Source      string // input display name
	Fingerprint FileFingerprint
	Format      string
	Status      string
	OutputPath  string

	TotalRecords         int
	RawMatches           int
	TotalTargets         int
	TotalVariants        int
	VariantsWithAlleles  int
	VariantsWithPosition int
	MatchPct             float64
}

// StoredGenotype is a filtered genotype row of a stored run.
type StoredGenotype struct {
	RunID    string
	Seq      int64 // output order within the run
	Category string
	Record   genotype.Record
}

const runColumns = `run_id, created_at, source, source_path, source_size, source_mtime,
		format, status, total_records, raw_matches, total_targets, total_variants,
		variants_with_alleles, variants_with_position, match_pct, output_path`

// RecordRun stores run and the filtered rows of res. A fresh run id and
// creation time are assigned when unset.
func (s *Store) RecordRun(ctx context.Context, run *Run, res *filter.Result) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now().UTC()
	}

	var mtime any
	if !run.Fingerprint.ModTime.IsZero() {
		mtime = run.Fingerprint.ModTime
	}

	if _, err := s.db.ExecContext(ctx, `INSERT INTO extraction_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt, run.Source, run.Fingerprint.Path, run.Fingerprint.Size, mtime,
		run.Format, run.Status, run.TotalRecords, run.RawMatches, run.TotalTargets, run.TotalVariants,
		run.VariantsWithAlleles, run.VariantsWithPosition, run.MatchPct, run.OutputPath,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if err := s.appendGenotypes(ctx, run.ID, res); err != nil {
		if _, derr := s.db.ExecContext(ctx, "DELETE FROM extraction_runs WHERE run_id = ?", run.ID); derr != nil {
			return errors.Join(err, derr)
		}
		return err
	}
	return nil
}

// appendGenotypes bulk-inserts the filtered rows using the Appender API.
func (s *Store) appendGenotypes(ctx context.Context, runID string, res *filter.Result) error {
	if res == nil || res.Rows() == 0 {
		return nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "extracted_genotypes")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	var seq int64
	for _, b := range res.Blocks {
		for _, rec := range b.Records {
			var pos any
			if rec.HasPosition() {
				pos = rec.Pos
			}
			if err := appender.AppendRow(
				runID, seq, b.Category.Name(), rec.ID, rec.Chrom, pos, rec.Allele1, rec.Allele2,
			); err != nil {
				return fmt.Errorf("append genotype: %w", err)
			}
			seq++
		}
	}

	return appender.Flush()
}

// ListRuns returns the most recent runs first. A limit below 1 returns all
// runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM extraction_runs ORDER BY created_at DESC, run_id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LookupRun returns the run with the given id.
func (s *Store) LookupRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM extraction_runs WHERE run_id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

// scanRun scans a single extraction_runs row.
func scanRun(row interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		r     Run
		mtime sql.NullTime
	)
	if err := row.Scan(
		&r.ID, &r.CreatedAt, &r.Source, &r.Fingerprint.Path, &r.Fingerprint.Size, &mtime,
		&r.Format, &r.Status, &r.TotalRecords, &r.RawMatches, &r.TotalTargets, &r.TotalVariants,
		&r.VariantsWithAlleles, &r.VariantsWithPosition, &r.MatchPct, &r.OutputPath,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if mtime.Valid {
		r.Fingerprint.ModTime = mtime.Time
	}
	return &r, nil
}

// RunGenotypes returns the stored rows of a run in output order.
func (s *Store) RunGenotypes(ctx context.Context, runID string) ([]StoredGenotype, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, seq, category, rsid, chrom, pos, allele1, allele2
		FROM extracted_genotypes WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run genotypes: %w", err)
	}
	defer rows.Close()
	return scanGenotypes(rows)
}

// GenotypesByMarker returns every stored row for a marker id across runs,
// oldest run first.
func (s *Store) GenotypesByMarker(ctx context.Context, markerID string) ([]StoredGenotype, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT g.run_id, g.seq, g.category, g.rsid, g.chrom, g.pos, g.allele1, g.allele2
		FROM extracted_genotypes g
		JOIN extraction_runs r ON r.run_id = g.run_id
		WHERE g.rsid = ?
		ORDER BY r.created_at, g.run_id, g.seq`, markerID)
	if err != nil {
		return nil, fmt.Errorf("query by marker: %w", err)
	}
	defer rows.Close()
	return scanGenotypes(rows)
}

// scanGenotypes scans rows into StoredGenotype slices.
func scanGenotypes(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]StoredGenotype, error) {
	var out []StoredGenotype
	for rows.Next() {
		var (
			g   StoredGenotype
			pos sql.NullInt64
		)
		if err := rows.Scan(
			&g.RunID, &g.Seq, &g.Category, &g.Record.ID, &g.Record.Chrom, &pos,
			&g.Record.Allele1, &g.Record.Allele2,
		); err != nil {
			return nil, fmt.Errorf("scan genotype: %w", err)
		}
		g.Record.Pos = genotype.UnknownPos
		if pos.Valid {
			g.Record.Pos = pos.Int64
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate genotypes: %w", err)
	}
	return out, nil
}

// DeleteRun removes a run and its genotypes.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM extracted_genotypes WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("delete genotypes: %w", err)
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM extraction_runs WHERE run_id = ?", id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// Package duckdb keeps a queryable history of extraction runs.
// Each run stores its summary row and the filtered genotypes it produced.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for the run history.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path, now: time.Now}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS extraction_runs (
		run_id VARCHAR PRIMARY KEY,
		created_at TIMESTAMP,
		source VARCHAR,
		source_path VARCHAR,
		source_size BIGINT,
		source_mtime TIMESTAMP,
		format VARCHAR,
		status VARCHAR,
		total_records BIGINT,
		raw_matches BIGINT,
		total_targets BIGINT,
		total_variants BIGINT,
		variants_with_alleles BIGINT,
		variants_with_position BIGINT,
		match_pct DOUBLE,
		output_path VARCHAR
	)`); err != nil {
		return err
	}

	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS extracted_genotypes (
		run_id VARCHAR,
		seq BIGINT,
		category VARCHAR,
		rsid VARCHAR,
		chrom VARCHAR,
		pos BIGINT,
		allele1 VARCHAR,
		allele2 VARCHAR
	)`)
	return err
}

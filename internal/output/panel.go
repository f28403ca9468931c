// Package output writes extraction results as a tab-delimited artifact.
package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/inodb/vibe-genotype/internal/filter"
	"github.com/inodb/vibe-genotype/internal/format"
)

// Title is the first line of every artifact.
const Title = "# vibe-genotype panel extract"

// Columns are the canonical record fields in output order.
var Columns = []string{"rsid", "chromosome", "position", "allele1", "allele2"}

// PanelWriter writes filtered records grouped by category.
type PanelWriter struct {
	w *bufio.Writer
}

// NewPanelWriter creates a new artifact writer.
func NewPanelWriter(w io.Writer) *PanelWriter {
	return &PanelWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the preamble: title, source name, detected format and
// the column header. The preamble carries no timestamps so identical inputs
// produce identical bytes.
func (pw *PanelWriter) WriteHeader(source string, kind format.Kind) error {
	lines := []string{
		Title,
		"# source: " + source,
		"# format: " + kind.String(),
		"# " + strings.Join(Columns, "\t"),
	}
	for _, l := range lines {
		if _, err := pw.w.WriteString(l + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteBlock writes one category heading followed by its records.
func (pw *PanelWriter) WriteBlock(b filter.Block) error {
	if _, err := pw.w.WriteString("# " + b.Category.DisplayName() + "\n"); err != nil {
		return err
	}
	for _, rec := range b.Records {
		if _, err := pw.w.WriteString(strings.Join(rec.Fields(), "\t") + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data.
func (pw *PanelWriter) Flush() error {
	return pw.w.Flush()
}

// WriteResult writes a complete artifact for res.
func WriteResult(w io.Writer, source string, kind format.Kind, res *filter.Result) error {
	pw := NewPanelWriter(w)
	if err := pw.WriteHeader(source, kind); err != nil {
		return err
	}
	for _, b := range res.Blocks {
		if err := pw.WriteBlock(b); err != nil {
			return err
		}
	}
	return pw.Flush()
}

package adapter

import (
	"io"
	"strings"

	"github.com/inodb/vibe-genotype/internal/genotype"
)

// NewIlluminaParser creates an adapter for Illumina GenomeStudio final
// reports. Rows are read from the [Data] section; the first row after the
// section marker is the column header.
func NewIlluminaParser(r io.Reader) *Parser {
	var (
		inData  bool
		columns *columnMap
		sep     string
	)
	return newParser(r, func(line string) *genotype.Record {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			return nil
		}
		if !inData {
			inData = strings.EqualFold(strings.TrimRight(trimmed, ",\t "), "[Data]")
			return nil
		}
		if columns == nil {
			sep = ","
			if strings.Contains(line, "\t") {
				sep = "\t"
			}
			m := resolveColumns(strings.Split(line, sep), illuminaRules)
			columns = &m
			return nil
		}
		return columns.record(strings.Split(line, sep))
	})
}

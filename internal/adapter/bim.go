package adapter

import (
	"io"
	"strings"

	"github.com/inodb/vibe-genotype/internal/genotype"
)

// BIM columns
const (
	bimChromosome = iota
	bimVariantID
	bimMorgans
	bimCoordinate
	bimAllele1
	bimAllele2
)

// NewBIMParser creates an adapter for PLINK .bim files.
func NewBIMParser(r io.Reader) *Parser {
	return newParser(r, parseBIMLine)
}

func parseBIMLine(line string) *genotype.Record {
	fields := strings.Fields(line)
	if len(fields) < 6 || !genotype.IsMarkerID(fields[bimVariantID]) {
		return nil
	}
	return &genotype.Record{
		ID:      fields[bimVariantID],
		Chrom:   plinkChrom(fields[bimChromosome]),
		Pos:     genotype.ParsePos(fields[bimCoordinate]),
		Allele1: genotype.NormalizeAllele(fields[bimAllele1]),
		Allele2: genotype.NormalizeAllele(fields[bimAllele2]),
	}
}

// plinkChrom maps PLINK numeric codes for sex and mitochondrial
// chromosomes. 25 (pseudo-autosomal XY) is kept as is.
func plinkChrom(s string) string {
	switch s {
	case "23":
		return "X"
	case "24":
		return "Y"
	case "26":
		return "M"
	}
	return genotype.NormalizeChrom(s)
}

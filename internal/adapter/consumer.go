package adapter

import (
	"io"
	"strings"

	"github.com/inodb/vibe-genotype/internal/genotype"
)

// NewConsumerParser creates an adapter for consumer exports laid out as
// marker id, chromosome, position, allele1[, allele2]. With comma set, quoted
// comma-separated rows are converted to tab-separated ones first.
func NewConsumerParser(r io.Reader, comma bool) *Parser {
	return newParser(r, func(line string) *genotype.Record {
		return parseConsumerLine(line, comma)
	})
}

var unquote = strings.NewReplacer(`","`, "\t", `"`, "", ",", "\t")

func parseConsumerLine(line string, comma bool) *genotype.Record {
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	if comma {
		line = unquote.Replace(line)
	}

	fields := splitRow(line)
	if len(fields) < 4 {
		return nil
	}
	id := strings.TrimSpace(fields[0])
	if !genotype.IsMarkerID(id) {
		return nil
	}

	var allele2 string
	if len(fields) > 4 {
		allele2 = fields[4]
	}
	a1, a2 := combineAlleles(fields[3], allele2)

	return &genotype.Record{
		ID:      id,
		Chrom:   genotype.NormalizeChrom(fields[1]),
		Pos:     genotype.ParsePos(fields[2]),
		Allele1: a1,
		Allele2: a2,
	}
}

// splitRow splits on tabs when present, otherwise on runs of whitespace.
func splitRow(line string) []string {
	if strings.Contains(line, "\t") {
		return strings.Split(line, "\t")
	}
	return strings.Fields(line)
}

// combineAlleles applies the packed genotype rule: when allele2 is absent or
// repeats a two-character allele1, allele1 is split into two alleles.
func combineAlleles(a1, a2 string) (string, string) {
	a1, a2 = strings.TrimSpace(a1), strings.TrimSpace(a2)
	if a2 == "" || (len(a1) == 2 && a2 == a1) {
		return genotype.SplitGenotype(a1)
	}
	return genotype.NormalizeAllele(a1), genotype.NormalizeAllele(a2)
}

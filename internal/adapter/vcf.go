package adapter

import (
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-genotype/internal/genotype"
)

// NewVCFParser creates an adapter for VCF input. Only the first sample
// column is used.
func NewVCFParser(r io.Reader) *Parser {
	return newParser(r, parseVCFLine)
}

func parseVCFLine(line string) *genotype.Record {
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	fields := strings.Split(line, "\t")
	if len(fields) < 5 {
		fields = strings.Fields(line)
	}
	if len(fields) < 5 {
		return nil
	}

	id := firstMarkerID(fields[2])
	if id == "" {
		return nil
	}

	ref := strings.ToUpper(strings.TrimSpace(fields[3]))
	alt := strings.ToUpper(strings.TrimSpace(fields[4]))

	rec := &genotype.Record{
		ID:    id,
		Chrom: genotype.NormalizeChrom(fields[0]),
		Pos:   genotype.ParsePos(fields[1]),
	}

	if len(fields) < 10 {
		rec.Allele1 = genotype.NormalizeAllele(ref)
		if alt == "." || alt == "" {
			rec.Allele2 = rec.Allele1
		} else {
			rec.Allele2 = alt
		}
		return rec
	}

	alleles := strings.Split(alt, ",")
	calls := splitGT(sampleGT(fields[8], fields[9]))
	switch len(calls) {
	case 0:
		rec.Allele1, rec.Allele2 = genotype.Unknown, genotype.Unknown
	case 1:
		rec.Allele1 = resolveAllele(calls[0], ref, alleles)
		rec.Allele2 = rec.Allele1
	default:
		rec.Allele1 = resolveAllele(calls[0], ref, alleles)
		rec.Allele2 = resolveAllele(calls[1], ref, alleles)
	}
	return rec
}

// firstMarkerID returns the first rs id in a ';'-separated VCF ID field.
func firstMarkerID(field string) string {
	for _, id := range strings.Split(field, ";") {
		id = strings.TrimSpace(id)
		if genotype.IsMarkerID(id) {
			return id
		}
	}
	return ""
}

// sampleGT extracts the GT subfield of a sample column using FORMAT.
func sampleGT(formatField, sample string) string {
	gtIdx := 0
	for i, key := range strings.Split(formatField, ":") {
		if key == "GT" {
			gtIdx = i
			break
		}
	}
	parts := strings.Split(sample, ":")
	if gtIdx >= len(parts) {
		return ""
	}
	return strings.TrimSpace(parts[gtIdx])
}

// splitGT splits a genotype on '/' or '|'.
func splitGT(gt string) []string {
	if gt == "" {
		return nil
	}
	return strings.FieldsFunc(gt, func(r rune) bool {
		return r == '/' || r == '|'
	})
}

// resolveAllele maps an allele index to its nucleotide string: 0 is REF,
// n is the n-th ALT entry.
func resolveAllele(call, ref string, alts []string) string {
	idx, err := strconv.Atoi(call)
	if err != nil || idx < 0 {
		return genotype.Unknown
	}
	if idx == 0 {
		return genotype.NormalizeAllele(ref)
	}
	if idx > len(alts) {
		return genotype.Unknown
	}
	return genotype.NormalizeAllele(alts[idx-1])
}

package adapter

import (
	"regexp"
	"strings"

	"github.com/inodb/vibe-genotype/internal/format"
	"github.com/inodb/vibe-genotype/internal/genotype"
)

// field identifies a canonical record field a column can map to.
type field int

const (
	fieldID field = iota
	fieldChrom
	fieldPos
	fieldAllele1
	fieldAllele2
	fieldGenotype
	numFields
)

// columnRule maps normalized column names to a field. Rules are evaluated
// in order; for each rule the first unclaimed matching column wins.
type columnRule struct {
	pattern *regexp.Regexp
	field   field
}

// illuminaRules resolves GenomeStudio final report columns.
var illuminaRules = []columnRule{
	{regexp.MustCompile(`^(snpname|rsid|marker)`), fieldID},
	{regexp.MustCompile(`^(chr|chromosome)$`), fieldChrom},
	{regexp.MustCompile(`^(pos|position)$`), fieldPos},
	{regexp.MustCompile(`^allele1`), fieldAllele1},
	{regexp.MustCompile(`^allele2`), fieldAllele2},
}

// headerRules resolves generic headered tables.
var headerRules = []columnRule{
	{regexp.MustCompile(`^(rsid|snpname|markerid|variantid)$`), fieldID},
	{regexp.MustCompile(`^(chr|chromosome|chrom)$`), fieldChrom},
	{regexp.MustCompile(`^(pos|position|bp)$`), fieldPos},
	{regexp.MustCompile(`^(allele1|a1|ref)$`), fieldAllele1},
	{regexp.MustCompile(`^(allele2|a2|alt)$`), fieldAllele2},
	{regexp.MustCompile(`^(genotype|gt|call|result)$`), fieldGenotype},
}

// columnMap holds the resolved column index per field, -1 when absent.
type columnMap [numFields]int

// resolveColumns matches header columns against rules.
func resolveColumns(cols []string, rules []columnRule) columnMap {
	var m columnMap
	for i := range m {
		m[i] = -1
	}
	claimed := make(map[int]bool, len(cols))
	for _, rule := range rules {
		if m[rule.field] >= 0 {
			continue
		}
		for i, col := range cols {
			if claimed[i] {
				continue
			}
			if rule.pattern.MatchString(format.NormalizeColumn(col)) {
				m[rule.field] = i
				claimed[i] = true
				break
			}
		}
	}
	return m
}

func (m columnMap) has(f field) bool {
	return m[f] >= 0
}

// get returns the trimmed, unquoted value of f in row, or "".
func (m columnMap) get(row []string, f field) string {
	idx := m[f]
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.Trim(strings.TrimSpace(row[idx]), `"`)
}

var nonACGT = regexp.MustCompile(`[^ACGT]+`)

// record builds a canonical record from a row. Returns nil when the id
// column does not hold a marker id.
func (m columnMap) record(row []string) *genotype.Record {
	id := m.get(row, fieldID)
	if !genotype.IsMarkerID(id) {
		return nil
	}

	rec := &genotype.Record{
		ID:    id,
		Chrom: genotype.NormalizeChrom(m.get(row, fieldChrom)),
		Pos:   genotype.ParsePos(m.get(row, fieldPos)),
	}

	if !m.has(fieldAllele1) && !m.has(fieldAllele2) && m.has(fieldGenotype) {
		call := nonACGT.ReplaceAllString(strings.ToUpper(m.get(row, fieldGenotype)), "")
		rec.Allele1, rec.Allele2 = genotype.SplitGenotype(call)
		return rec
	}

	// Both allele columns are taken as they are; only a lone allele column
	// can hold a packed call.
	if m.has(fieldAllele2) {
		rec.Allele1 = genotype.NormalizeAllele(m.get(row, fieldAllele1))
		rec.Allele2 = genotype.NormalizeAllele(m.get(row, fieldAllele2))
		return rec
	}
	rec.Allele1, rec.Allele2 = combineAlleles(m.get(row, fieldAllele1), "")
	return rec
}

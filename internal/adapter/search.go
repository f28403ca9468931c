package adapter

import (
	"io"
	"regexp"
	"strings"

	"github.com/inodb/vibe-genotype/internal/genotype"
)

var (
	tokenSep   = regexp.MustCompile(`[\s,;"']+`)
	longNumber = regexp.MustCompile(`^[0-9]{5,}$`)
	shortChrom = regexp.MustCompile(`^(?i:chr)?(?:[0-9]{1,2}|[XYMxym])$`)
	packedCall = regexp.MustCompile(`^[ACGTacgt]{2}$`)
)

// NewSearchParser creates the generic search adapter. It finds the first
// marker id on each line and infers the remaining fields from token shape.
func NewSearchParser(r io.Reader) *Parser {
	return newParser(r, parseSearchLine)
}

func parseSearchLine(line string) *genotype.Record {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	tokens := tokenSep.Split(line, -1)
	idIdx := -1
	for i, tok := range tokens {
		if genotype.IsMarkerID(tok) {
			idIdx = i
			break
		}
	}
	if idIdx < 0 {
		return nil
	}

	rec := &genotype.Record{
		ID:      tokens[idIdx],
		Chrom:   genotype.Unknown,
		Pos:     genotype.UnknownPos,
		Allele1: genotype.Unknown,
		Allele2: genotype.Unknown,
	}

	var alleles []string
	var packed string
	for i, tok := range tokens {
		if i == idIdx || tok == "" {
			continue
		}
		switch {
		case rec.Pos < 0 && longNumber.MatchString(tok):
			rec.Pos = genotype.ParsePos(tok)
		case rec.Chrom == genotype.Unknown && shortChrom.MatchString(tok):
			rec.Chrom = genotype.NormalizeChrom(tok)
		case len(alleles) < 2 && isBase(tok):
			alleles = append(alleles, strings.ToUpper(tok))
		case packed == "" && packedCall.MatchString(tok):
			packed = tok
		}
	}

	switch {
	case len(alleles) == 2:
		rec.Allele1, rec.Allele2 = alleles[0], alleles[1]
	case len(alleles) == 1:
		rec.Allele1 = alleles[0]
	case packed != "":
		rec.Allele1, rec.Allele2 = genotype.SplitGenotype(packed)
	}
	return rec
}

func isBase(tok string) bool {
	if len(tok) != 1 {
		return false
	}
	switch tok[0] {
	case 'A', 'C', 'G', 'T', 'a', 'c', 'g', 't':
		return true
	}
	return false
}

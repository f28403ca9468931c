// Package genotype defines the canonical genotype record shared by all
// format adapters.
package genotype

import (
	"regexp"
	"strconv"
	"strings"
)

// Unknown is the sentinel used for fields that cannot be derived from the
// source format.
const Unknown = "unknown"

// UnknownPos marks a record whose position is not known.
const UnknownPos int64 = -1

var markerIDPattern = regexp.MustCompile(`^rs[0-9]+$`)

// Record is a single normalized genotype call.
type Record struct {
	ID      string // Marker identifier (e.g., "rs4680")
	Chrom   string // Chromosome ("1"-"22", "X", "Y", "M") or Unknown
	Pos     int64  // 1-based position, or UnknownPos
	Allele1 string // First allele or Unknown
	Allele2 string // Second allele or Unknown
}

// IsMarkerID reports whether s is an rs marker identifier.
func IsMarkerID(s string) bool {
	return markerIDPattern.MatchString(s)
}

// HasPosition returns true if the record carries a genomic coordinate.
func (r *Record) HasPosition() bool {
	return r.Pos >= 0
}

// HasAlleles returns true if both alleles are resolved.
func (r *Record) HasAlleles() bool {
	return isResolved(r.Allele1) && isResolved(r.Allele2)
}

// PosString formats the position, using Unknown when it is missing.
func (r *Record) PosString() string {
	if r.Pos < 0 {
		return Unknown
	}
	return strconv.FormatInt(r.Pos, 10)
}

// Fields returns the five canonical fields in output order.
func (r *Record) Fields() []string {
	return []string{r.ID, r.Chrom, r.PosString(), r.Allele1, r.Allele2}
}

func isResolved(a string) bool {
	return a != "" && a != Unknown
}

// ParsePos parses a position token. Anything that is not a non-negative
// integer yields UnknownPos.
func ParsePos(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return UnknownPos
	}
	pos, err := strconv.ParseInt(s, 10, 64)
	if err != nil || pos < 0 {
		return UnknownPos
	}
	return pos
}

// NormalizeChrom strips a "chr" prefix and maps mitochondrial aliases to "M".
// Empty input yields Unknown.
func NormalizeChrom(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == "." {
		return Unknown
	}
	if len(s) > 3 && strings.EqualFold(s[:3], "chr") {
		s = s[3:]
	}
	switch strings.ToUpper(s) {
	case "MT", "M":
		return "M"
	case "X":
		return "X"
	case "Y":
		return "Y"
	}
	return s
}

// NormalizeAllele uppercases an allele and maps missing-data conventions
// ("-", "--", "0", "00", ".", "") to Unknown.
func NormalizeAllele(s string) string {
	s = strings.TrimSpace(s)
	switch s {
	case "", "-", "--", "0", "00", ".", "?", "??":
		return Unknown
	case Unknown:
		return s
	}
	return strings.ToUpper(s)
}

// SplitGenotype splits a packed diploid call such as "TC" into two alleles.
// A single character is duplicated. Longer tokens are returned as allele1
// with an Unknown allele2.
func SplitGenotype(gt string) (string, string) {
	gt = strings.TrimSpace(gt)
	switch len(gt) {
	case 0:
		return Unknown, Unknown
	case 1:
		a := NormalizeAllele(gt)
		return a, a
	case 2:
		return NormalizeAllele(gt[:1]), NormalizeAllele(gt[1:])
	}
	return NormalizeAllele(gt), Unknown
}

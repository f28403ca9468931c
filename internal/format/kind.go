// Package format classifies raw genotype exports into format variants.
package format

import (
	"fmt"
	"strings"
)

// Kind identifies a raw input layout.
type Kind string

const (
	VCF            Kind = "vcf"
	PlinkBIM       Kind = "plink_bim"
	IlluminaReport Kind = "illumina_report"

	// Named consumer exports. Each resolves to a consumer layout.
	AncestryDNA Kind = "ancestrydna"
	TwentyThree Kind = "23andme"
	MyHeritage  Kind = "myheritage"
	FTDNA       Kind = "ftdna"
	LivingDNA   Kind = "livingdna"
	Nebula      Kind = "nebula"
	Dante       Kind = "dante"

	ConsumerTab   Kind = "consumer_tab"
	ConsumerComma Kind = "consumer_comma"

	RsidFirstTab   Kind = "rsid_first_tab"
	RsidFirstComma Kind = "rsid_first_comma"

	HeaderTab   Kind = "header_tab"
	HeaderComma Kind = "header_comma"

	GenericTab   Kind = "generic_tab"
	GenericComma Kind = "generic_comma"

	Unknown Kind = "unknown"
)

var allKinds = []Kind{
	VCF, PlinkBIM, IlluminaReport,
	AncestryDNA, TwentyThree, MyHeritage, FTDNA, LivingDNA, Nebula, Dante,
	ConsumerTab, ConsumerComma,
	RsidFirstTab, RsidFirstComma,
	HeaderTab, HeaderComma,
	GenericTab, GenericComma,
	Unknown,
}

// aliases maps named and rsid-first kinds onto the consumer layouts.
var aliases = map[Kind]Kind{
	AncestryDNA:    ConsumerTab,
	TwentyThree:    ConsumerTab,
	LivingDNA:      ConsumerTab,
	Nebula:         ConsumerTab,
	Dante:          ConsumerTab,
	MyHeritage:     ConsumerComma,
	FTDNA:          ConsumerComma,
	RsidFirstTab:   ConsumerTab,
	RsidFirstComma: ConsumerComma,
}

// Kinds returns all known kinds.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// Resolve returns the layout a kind is parsed with. Kinds without an alias
// resolve to themselves.
func (k Kind) Resolve() Kind {
	if r, ok := aliases[k]; ok {
		return r
	}
	return k
}

// IsConfident reports whether a single adapter handles the kind. Other kinds
// go through the multi-adapter fallback.
func (k Kind) IsConfident() bool {
	switch k.Resolve() {
	case GenericTab, GenericComma, Unknown:
		return false
	}
	return true
}

func (k Kind) String() string { return string(k) }

// ParseKind parses a kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range allKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return Unknown, fmt.Errorf("unknown format %q", s)
}

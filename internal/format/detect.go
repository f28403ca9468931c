package format

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/inodb/vibe-genotype/internal/genotype"
)

// SniffLines is the number of leading lines inspected by Detect.
const SniffLines = 50

// Sample holds the leading content of an input.
type Sample struct {
	Lines     []string // up to SniffLines lines, line endings stripped
	FirstData string   // first non-blank line not starting with '#'
}

// Sniff reads the leading lines of r.
func Sniff(r io.Reader) (Sample, error) {
	var s Sample
	reader := bufio.NewReader(r)
	for len(s.Lines) < SniffLines {
		line, err := reader.ReadString('\n')
		if line != "" {
			line = strings.TrimRight(line, "\r\n")
			s.Lines = append(s.Lines, line)
			if s.FirstData == "" && strings.TrimSpace(line) != "" && !strings.HasPrefix(line, "#") {
				s.FirstData = line
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return s, fmt.Errorf("read leading lines: %w", err)
		}
	}
	return s, nil
}

// serviceMarkers are matched case-insensitively against the leading content,
// in order.
var serviceMarkers = []struct {
	tokens []string
	kind   Kind
}{
	{[]string{"ancestrydna"}, AncestryDNA},
	{[]string{"23andme"}, TwentyThree},
	{[]string{"myheritage"}, MyHeritage},
	{[]string{"ftdna", "familytreedna"}, FTDNA},
	{[]string{"living dna", "livingdna"}, LivingDNA},
	{[]string{"nebula"}, Nebula},
	{[]string{"dante"}, Dante},
}

var illuminaMarkers = []string{"[header]", "gsgt version", "genomestudio"}

var headerTokens = []string{"rsid", "snpname", "variant", "marker"}

var (
	rsidFirstWS    = regexp.MustCompile(`^rs[0-9]+\s`)
	rsidFirstComma = regexp.MustCompile(`^"?rs[0-9]+"?,`)
	rsidEmbedded   = regexp.MustCompile(`(?:^|\s)rs[0-9]+(?:\s|$)`)
	shortChrom     = regexp.MustCompile(`^(?i:chr)?(?:[0-9]{1,2}|[XYM]|MT)$`)
	nonAlnum       = regexp.MustCompile(`[^a-z0-9]+`)
)

// Detect classifies a sample. The checks form a priority chain: the first
// match wins.
func Detect(s Sample) Kind {
	lead := strings.ToLower(strings.Join(s.Lines, "\n"))
	first := s.FirstData

	if len(s.Lines) > 0 && strings.HasPrefix(s.Lines[0], "##fileformat=VCF") {
		return VCF
	}

	if isBIMRow(first) {
		return PlinkBIM
	}

	for _, m := range illuminaMarkers {
		if strings.Contains(lead, m) {
			return IlluminaReport
		}
	}

	for _, m := range serviceMarkers {
		for _, tok := range m.tokens {
			if strings.Contains(lead, tok) {
				return m.kind
			}
		}
	}

	if rsidFirstWS.MatchString(first) {
		if strings.Contains(first, "\t") {
			return RsidFirstTab
		}
		return RsidFirstComma
	}
	if rsidFirstComma.MatchString(first) {
		return RsidFirstComma
	}

	if rsidEmbedded.MatchString(first) {
		return GenericTab
	}

	for _, line := range s.Lines {
		if k, ok := headerKind(line); ok {
			return k
		}
	}

	switch {
	case strings.Contains(first, "\t"):
		return GenericTab
	case strings.Contains(first, ","):
		return GenericComma
	}
	return Unknown
}

// DetectReader sniffs r and classifies it.
func DetectReader(r io.Reader) (Kind, error) {
	s, err := Sniff(r)
	if err != nil {
		return Unknown, err
	}
	return Detect(s), nil
}

func isBIMRow(line string) bool {
	fields := strings.Fields(line)
	return len(fields) == 6 && genotype.IsMarkerID(fields[1]) && shortChrom.MatchString(fields[0])
}

// headerKind reports whether line looks like a column header naming a
// marker column.
func headerKind(line string) (Kind, bool) {
	kind, sep := HeaderComma, ","
	if strings.Contains(line, "\t") {
		kind, sep = HeaderTab, "\t"
	}
	cols := strings.Split(line, sep)
	if len(cols) < 2 {
		return "", false
	}
	for _, col := range cols {
		norm := NormalizeColumn(col)
		for _, tok := range headerTokens {
			if strings.Contains(norm, tok) {
				return kind, true
			}
		}
	}
	return "", false
}

// NormalizeColumn lowercases a column name and strips non-alphanumerics.
func NormalizeColumn(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(s), "")
}

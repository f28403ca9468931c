package adapter

import (
	"github.com/inodb/vibe-genotype/internal/genotype"
	"github.com/inodb/vibe-genotype/internal/input"
)

// Member is one line parser raced by the fallback.
type Member struct {
	Name  string
	Parse func(line string) *genotype.Record
}

// FallbackMembers returns the ordered members of the fallback: consumer tab,
// consumer comma, then generic search.
func FallbackMembers() []Member {
	return []Member{
		{Name: "consumer_tab", Parse: func(line string) *genotype.Record { return parseConsumerLine(line, false) }},
		{Name: "consumer_comma", Parse: func(line string) *genotype.Record { return parseConsumerLine(line, true) }},
		{Name: "search", Parse: parseSearchLine},
	}
}

// Contribution counts the records one fallback member supplied.
type Contribution struct {
	Adapter string
	Records int
}

// FallbackParser reads the source once and offers every line to each member
// in order. The first record whose marker id has not been produced yet is
// kept, so the merged stream follows input line order and the first record
// seen for an id wins.
type FallbackParser struct {
	src     input.Source
	members []Member
	lines   *Parser
	seen    map[string]struct{}
	counts  []int
}

// NewFallbackParser creates a fallback parser. The source is opened on the
// first call to Next.
func NewFallbackParser(src input.Source, members []Member) *FallbackParser {
	return &FallbackParser{
		src:     src,
		members: members,
		seen:    make(map[string]struct{}),
		counts:  make([]int, len(members)),
	}
}

// Next returns the next record not produced before.
// Returns nil, nil at end of input.
func (f *FallbackParser) Next() (*genotype.Record, error) {
	if f.lines == nil {
		rc, err := f.src.Open()
		if err != nil {
			return nil, err
		}
		f.lines = newParser(rc, f.parseLine)
	}
	return f.lines.Next()
}

func (f *FallbackParser) parseLine(line string) *genotype.Record {
	for i, m := range f.members {
		rec := m.Parse(line)
		if rec == nil || !genotype.IsMarkerID(rec.ID) {
			continue
		}
		if _, dup := f.seen[rec.ID]; dup {
			continue
		}
		f.seen[rec.ID] = struct{}{}
		f.counts[i]++
		return rec
	}
	return nil
}

// Contributions returns how many records each member supplied, in member
// order.
func (f *FallbackParser) Contributions() []Contribution {
	out := make([]Contribution, len(f.members))
	for i, m := range f.members {
		out[i] = Contribution{Adapter: m.Name, Records: f.counts[i]}
	}
	return out
}

// LineNumber returns the current line number being processed.
func (f *FallbackParser) LineNumber() int {
	if f.lines == nil {
		return 0
	}
	return f.lines.LineNumber()
}

// Skipped returns the number of lines no member turned into a new record.
func (f *FallbackParser) Skipped() int {
	if f.lines == nil {
		return 0
	}
	return f.lines.Skipped()
}

// Close closes the source reader, if open.
func (f *FallbackParser) Close() error {
	if f.lines == nil {
		return nil
	}
	return f.lines.Close()
}

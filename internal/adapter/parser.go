// Package adapter converts raw genotype exports into canonical records.
//
// Every adapter is a Parser driven by a per-line parse function. Lines that do
// not yield a record with a valid marker id are skipped, never reported as
// errors; only I/O failures surface from Next.
package adapter

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/inodb/vibe-genotype/internal/format"
	"github.com/inodb/vibe-genotype/internal/genotype"
	"github.com/inodb/vibe-genotype/internal/input"
)

// lineFunc parses one line (line endings stripped). It returns nil for lines
// that do not carry a record.
type lineFunc func(line string) *genotype.Record

// Parser reads canonical records line by line.
type Parser struct {
	reader     *bufio.Reader
	closer     io.Closer
	lineNumber int
	skipped    int
	parse      lineFunc
}

func newParser(r io.Reader, parse lineFunc) *Parser {
	p := &Parser{
		reader: bufio.NewReader(r),
		parse:  parse,
	}
	if c, ok := r.(io.Closer); ok {
		p.closer = c
	}
	return p
}

// Next reads the next record.
// Returns nil, nil when there are no more records.
func (p *Parser) Next() (*genotype.Record, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read line %d: %w", p.lineNumber+1, err)
		}
		if line == "" && err == io.EOF {
			return nil, nil
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if rec := p.parse(line); rec != nil {
			if !genotype.IsMarkerID(rec.ID) {
				p.skipped++
				continue
			}
			return rec, nil
		}
		if strings.TrimSpace(line) != "" && !strings.HasPrefix(line, "#") {
			p.skipped++
		}
	}
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Skipped returns the number of non-blank, non-comment lines that did not
// produce a record.
func (p *Parser) Skipped() int {
	return p.skipped
}

// Close closes the underlying reader if it is closable.
func (p *Parser) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

// New creates the adapter for kind over r. Kinds without a confident layout
// get the generic search adapter; use Open to get the multi-adapter fallback
// for them.
func New(kind format.Kind, r io.Reader) (genotype.RecordParser, error) {
	switch kind.Resolve() {
	case format.VCF:
		return NewVCFParser(r), nil
	case format.PlinkBIM:
		return NewBIMParser(r), nil
	case format.IlluminaReport:
		return NewIlluminaParser(r), nil
	case format.ConsumerTab:
		return NewConsumerParser(r, false), nil
	case format.ConsumerComma:
		return NewConsumerParser(r, true), nil
	case format.HeaderTab:
		return NewHeaderParser(r, '\t')
	case format.HeaderComma:
		return NewHeaderParser(r, ',')
	case format.GenericTab, format.GenericComma, format.Unknown:
		return NewSearchParser(r), nil
	}
	return nil, fmt.Errorf("no adapter for format %q", kind)
}

// Open opens src and returns the adapter for kind. Kinds that are not
// confident are parsed with the fallback adapter.
func Open(kind format.Kind, src input.Source) (genotype.RecordParser, error) {
	if !kind.IsConfident() {
		return NewFallbackParser(src, FallbackMembers()), nil
	}

	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	p, err := New(kind, rc)
	if err != nil {
		rc.Close()
		return nil, err
	}
	return p, nil
}

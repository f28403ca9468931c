package adapter

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/inodb/vibe-genotype/internal/genotype"
)

// headerScanLines is how many leading lines are searched for a header row.
const headerScanLines = 5

// NewHeaderParser creates an adapter for delimited tables with a header row
// naming the columns. The header is searched for in the first 5 lines; rows
// before it are ignored. Without a header every line is parsed with the
// generic search heuristic.
func NewHeaderParser(r io.Reader, delim rune) (*Parser, error) {
	sep := string(delim)
	reader := bufio.NewReader(r)

	var (
		pending []string
		columns *columnMap
	)
	for len(pending) < headerScanLines {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read header: %w", err)
		}
		if line == "" && err == io.EOF {
			break
		}
		line = strings.TrimRight(line, "\r\n")
		pending = append(pending, line)

		if m := resolveColumns(strings.Split(line, sep), headerRules); m.has(fieldID) {
			columns = &m
			break
		}
		if err == io.EOF {
			break
		}
	}

	var p *Parser
	if columns != nil {
		p = newParser(reader, func(line string) *genotype.Record {
			if strings.TrimSpace(line) == "" {
				return nil
			}
			return columns.record(strings.Split(line, sep))
		})
		p.lineNumber = len(pending)
	} else {
		replay := strings.NewReader(strings.Join(pending, "\n") + "\n")
		p = newParser(io.MultiReader(replay, reader), parseSearchLine)
	}

	if c, ok := r.(io.Closer); ok {
		p.closer = c
	}
	return p, nil
}

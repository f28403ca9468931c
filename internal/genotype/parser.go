package genotype

import "fmt"

// RecordParser is the interface implemented by every format adapter.
type RecordParser interface {
	// Next reads the next record.
	// Returns nil, nil when there are no more records.
	Next() (*Record, error)

	// Close closes the parser and releases resources.
	Close() error

	// LineNumber returns the current line number being processed.
	LineNumber() int
}

// ParseError represents an error during parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Message)
}

// Collect drains a parser into a slice. Intended for tests and small inputs.
func Collect(p RecordParser) ([]*Record, error) {
	var out []*Record
	for {
		r, err := p.Next()
		if err != nil {
			return out, err
		}
		if r == nil {
			return out, nil
		}
		out = append(out, r)
	}
}

// Package filter selects the records of a genotype stream that belong to the
// categories of a reference panel.
package filter

import (
	"context"
	"fmt"

	"github.com/inodb/vibe-genotype/internal/genotype"
	"github.com/inodb/vibe-genotype/internal/panel"
)

// Block holds the records matched by one category, in input order.
type Block struct {
	Category *panel.Category
	Records  []*genotype.Record
}

// Result is the filtered view of an input.
type Result struct {
	Blocks       []Block // one per category, in declaration order
	TotalRecords int     // records read before filtering
	RawMatches   int     // input records whose id is in any category
}

// Rows returns the number of filtered rows across all blocks. A record that
// belongs to several categories is counted once per category.
func (r *Result) Rows() int {
	n := 0
	for _, b := range r.Blocks {
		n += len(b.Records)
	}
	return n
}

// Block returns the block of the named category, or nil.
func (r *Result) Block(name string) *Block {
	for i := range r.Blocks {
		if r.Blocks[i].Category.Name() == name {
			return &r.Blocks[i]
		}
	}
	return nil
}

func newResult(p *panel.Panel) *Result {
	cats := p.Categories()
	res := &Result{Blocks: make([]Block, len(cats))}
	for i, c := range cats {
		res.Blocks[i] = Block{Category: c}
	}
	return res
}

// add routes rec to every category that lists it.
func (r *Result) add(p *panel.Panel, rec *genotype.Record) {
	r.TotalRecords++
	idx := p.CategoriesOf(rec.ID)
	if len(idx) == 0 {
		return
	}
	r.RawMatches++
	for _, i := range idx {
		r.Blocks[i].Records = append(r.Blocks[i].Records, rec)
	}
}

// Filter reads parser to exhaustion and groups matching records by category.
// The parser is not closed.
func Filter(ctx context.Context, parser genotype.RecordParser, p *panel.Panel) (*Result, error) {
	res := newResult(p)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := parser.Next()
		if err != nil {
			return nil, fmt.Errorf("read record after line %d: %w", parser.LineNumber(), err)
		}
		if rec == nil {
			return res, nil
		}
		res.add(p, rec)
	}
}

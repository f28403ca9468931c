package filter

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-genotype/internal/genotype"
	"github.com/inodb/vibe-genotype/internal/panel"
)

// ChunkSize is the number of records handed to a worker at a time.
const ChunkSize = 1024

// WorkItem holds a chunk of parsed records ready for matching.
type WorkItem struct {
	Seq     int
	Records []*genotype.Record
}

// WorkResult holds the category matches for one chunk. Matches[i] lists the
// category indices of Records[i].
type WorkResult struct {
	Seq     int
	Records []*genotype.Record
	Matches [][]int
}

// MatchChunks matches work items against the panel using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence
// order). Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func MatchChunks(p *panel.Panel, items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for item := range items {
				matches := make([][]int, len(item.Records))
				for i, rec := range item.Records {
					matches[i] = p.CategoriesOf(rec.ID)
				}
				results <- WorkResult{
					Seq:     item.Seq,
					Records: item.Records,
					Matches: matches,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}

// ParallelFilter is Filter with matching spread over workers. The result is
// identical to the sequential one.
func ParallelFilter(ctx context.Context, parser genotype.RecordParser, p *panel.Panel, workers int) (*Result, error) {
	g, ctx := errgroup.WithContext(ctx)
	items := make(chan WorkItem, 2*max(workers, 1))

	g.Go(func() error {
		defer close(items)
		seq := 0
		chunk := make([]*genotype.Record, 0, ChunkSize)
		send := func() error {
			select {
			case items <- WorkItem{Seq: seq, Records: chunk}:
			case <-ctx.Done():
				return ctx.Err()
			}
			seq++
			chunk = make([]*genotype.Record, 0, ChunkSize)
			return nil
		}
		for {
			rec, err := parser.Next()
			if err != nil {
				return fmt.Errorf("read record after line %d: %w", parser.LineNumber(), err)
			}
			if rec == nil {
				break
			}
			chunk = append(chunk, rec)
			if len(chunk) == ChunkSize {
				if err := send(); err != nil {
					return err
				}
			}
		}
		if len(chunk) > 0 {
			return send()
		}
		return nil
	})

	res := newResult(p)
	results := MatchChunks(p, items, workers)
	g.Go(func() error {
		return OrderedCollect(results, func(r WorkResult) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i, rec := range r.Records {
				res.TotalRecords++
				if len(r.Matches[i]) == 0 {
					continue
				}
				res.RawMatches++
				for _, c := range r.Matches[i] {
					res.Blocks[c].Records = append(res.Blocks[c].Records, rec)
				}
			}
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// Package report summarizes a filtered extraction and classifies its quality.
package report

import (
	"math"
	"sort"

	"github.com/inodb/vibe-genotype/internal/filter"
	"github.com/inodb/vibe-genotype/internal/panel"
)

// Status classifies an extraction.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusPartial Status = "PARTIAL"
	StatusFailed  Status = "FAILED"
)

// MinSuccessVariants is the number of filtered rows below which an
// extraction is at best PARTIAL.
const MinSuccessVariants = 20

// DefaultTopCategories is the default length of Summary.TopCategories.
const DefaultTopCategories = 5

// CategoryCount is the number of filtered rows for one category.
type CategoryCount struct {
	Name        string
	DisplayName string
	Count       int
}

// Summary holds extraction statistics.
type Summary struct {
	TotalRecords         int // records read before filtering
	RawMatches           int // input records in any category
	TotalTargets         int // distinct marker ids in the panel
	TotalVariants        int // filtered rows, one per category match
	VariantsWithAlleles  int
	VariantsWithPosition int
	CategoriesWithHits   int
	TotalCategories      int
	MatchPct             float64 // TotalVariants / TotalTargets * 100, one decimal
	PerCategory          []CategoryCount
	TopCategories        []CategoryCount
	Status               Status
}

// Summarize computes statistics for res. topN bounds TopCategories; values
// below 1 use DefaultTopCategories.
func Summarize(res *filter.Result, p *panel.Panel, topN int) *Summary {
	if topN < 1 {
		topN = DefaultTopCategories
	}

	s := &Summary{
		TotalRecords:    res.TotalRecords,
		RawMatches:      res.RawMatches,
		TotalTargets:    p.TargetCount(),
		TotalCategories: len(res.Blocks),
		PerCategory:     make([]CategoryCount, 0, len(res.Blocks)),
	}

	for _, b := range res.Blocks {
		s.PerCategory = append(s.PerCategory, CategoryCount{
			Name:        b.Category.Name(),
			DisplayName: b.Category.DisplayName(),
			Count:       len(b.Records),
		})
		if len(b.Records) > 0 {
			s.CategoriesWithHits++
		}
		for _, rec := range b.Records {
			s.TotalVariants++
			if rec.HasAlleles() {
				s.VariantsWithAlleles++
			}
			if rec.HasPosition() {
				s.VariantsWithPosition++
			}
		}
	}

	if s.TotalTargets > 0 {
		pct := float64(s.TotalVariants) / float64(s.TotalTargets) * 100
		s.MatchPct = math.Round(pct*10) / 10
	}

	s.TopCategories = topCategories(s.PerCategory, topN)
	s.Status = Classify(s.TotalVariants, s.VariantsWithAlleles)
	return s
}

// topCategories returns up to n categories with at least one row, by count
// descending. The stable sort keeps declaration order for ties.
func topCategories(per []CategoryCount, n int) []CategoryCount {
	var hits []CategoryCount
	for _, c := range per {
		if c.Count > 0 {
			hits = append(hits, c)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Count > hits[j].Count
	})
	if len(hits) > n {
		hits = hits[:n]
	}
	return hits
}

// Classify derives the extraction status from the filtered row count and
// the number of those rows with both alleles resolved.
func Classify(variants, withAlleles int) Status {
	switch {
	case variants == 0:
		return StatusFailed
	case variants < MinSuccessVariants:
		return StatusPartial
	case withAlleles < variants/2:
		return StatusPartial
	}
	return StatusSuccess
}

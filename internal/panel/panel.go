// Package panel provides the reference panel of marker identifiers grouped
// into named categories.
package panel

import (
	"fmt"
	"strings"

	"github.com/inodb/vibe-genotype/internal/genotype"
)

// Category is a named, ordered, duplicate-free set of marker identifiers.
type Category struct {
	name    string
	markers []string
	members map[string]struct{}
}

// Name returns the category identifier as declared in the panel.
func (c *Category) Name() string { return c.name }

// DisplayName returns the name with separators replaced by spaces.
func (c *Category) DisplayName() string {
	return DisplayName(c.name)
}

// Markers returns a copy of the marker identifiers in declaration order.
func (c *Category) Markers() []string {
	out := make([]string, len(c.markers))
	copy(out, c.markers)
	return out
}

// Len returns the number of markers in the category.
func (c *Category) Len() int { return len(c.markers) }

// Contains reports whether id belongs to the category.
func (c *Category) Contains(id string) bool {
	_, ok := c.members[id]
	return ok
}

// DisplayName converts a category identifier to its display form.
func DisplayName(name string) string {
	return strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(name)
}

// Panel is an immutable, ordered collection of categories.
type Panel struct {
	categories []*Category
	index      map[string][]int // marker id → category indices, ascending
}

// Builder accumulates categories before freezing them into a Panel.
type Builder struct {
	names   []string
	markers map[string][]string
}

// NewBuilder creates an empty panel builder.
func NewBuilder() *Builder {
	return &Builder{markers: make(map[string][]string)}
}

// Add appends markers to the named category, creating it on first use.
// Category declaration order is the order of first Add.
func (b *Builder) Add(category string, markers ...string) *Builder {
	if _, ok := b.markers[category]; !ok {
		b.names = append(b.names, category)
		b.markers[category] = nil
	}
	b.markers[category] = append(b.markers[category], markers...)
	return b
}

// Build validates the accumulated categories and returns the Panel.
// Marker ids are trimmed; duplicates within a category are dropped.
func (b *Builder) Build() (*Panel, error) {
	p := &Panel{index: make(map[string][]int)}
	for _, name := range b.names {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("panel: empty category name")
		}
		c := &Category{name: name, members: make(map[string]struct{})}
		for _, raw := range b.markers[name] {
			id := strings.TrimSpace(raw)
			if !genotype.IsMarkerID(id) {
				return nil, fmt.Errorf("panel: category %q: invalid marker id %q", name, raw)
			}
			if _, dup := c.members[id]; dup {
				continue
			}
			c.members[id] = struct{}{}
			c.markers = append(c.markers, id)
			p.index[id] = append(p.index[id], len(p.categories))
		}
		p.categories = append(p.categories, c)
	}
	if len(p.categories) == 0 {
		return nil, fmt.Errorf("panel: no categories defined")
	}
	return p, nil
}

// Categories returns the categories in declaration order.
func (p *Panel) Categories() []*Category {
	return p.categories
}

// Category returns the category with the given name, or nil.
func (p *Panel) Category(name string) *Category {
	for _, c := range p.categories {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Contains reports whether id belongs to any category.
func (p *Panel) Contains(id string) bool {
	_, ok := p.index[id]
	return ok
}

// CategoriesOf returns the indices of all categories containing id,
// in declaration order.
func (p *Panel) CategoriesOf(id string) []int {
	return p.index[id]
}

// Targets returns the union of all marker ids, each once, in first
// declaration order.
func (p *Panel) Targets() []string {
	seen := make(map[string]struct{}, len(p.index))
	var out []string
	for _, c := range p.categories {
		for _, id := range c.markers {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// TargetCount returns the number of distinct marker ids across categories.
func (p *Panel) TargetCount() int {
	return len(p.index)
}

package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// RenderOptions controls terminal rendering.
type RenderOptions struct {
	Color bool   // style output with ANSI colors
	Title string // heading, usually the input name
}

// DetectRenderOptions enables color when w is a terminal.
func DetectRenderOptions(w io.Writer) RenderOptions {
	return RenderOptions{Color: isTTYWriter(w)}
}

// isTTYWriter reports whether w is a terminal.
func isTTYWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type styles struct {
	header  lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	color   bool
}

func newStyles(color bool) styles {
	return styles{
		header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		success: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		warning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		failure: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		color:   color,
	}
}

func (s styles) paint(st lipgloss.Style, text string) string {
	if !s.color {
		return text
	}
	return st.Render(text)
}

func (s styles) status(st Status) string {
	switch st {
	case StatusSuccess:
		return s.paint(s.success, string(st))
	case StatusPartial:
		return s.paint(s.warning, string(st))
	}
	return s.paint(s.failure, string(st))
}

// Render writes a human-readable summary to w.
func Render(w io.Writer, sum *Summary, opts RenderOptions) error {
	st := newStyles(opts.Color)
	var sb strings.Builder

	title := "Extraction summary"
	if opts.Title != "" {
		title += ": " + opts.Title
	}
	sb.WriteString(st.paint(st.header, title))
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "  Status:               %s\n", st.status(sum.Status))
	fmt.Fprintf(&sb, "  Records read:         %d\n", sum.TotalRecords)
	fmt.Fprintf(&sb, "  Panel markers found:  %d\n", sum.RawMatches)
	fmt.Fprintf(&sb, "  Variants extracted:   %d of %d targets (%.1f%%)\n",
		sum.TotalVariants, sum.TotalTargets, sum.MatchPct)
	fmt.Fprintf(&sb, "  With both alleles:    %d\n", sum.VariantsWithAlleles)
	fmt.Fprintf(&sb, "  With position:        %d\n", sum.VariantsWithPosition)
	fmt.Fprintf(&sb, "  Categories with hits: %d of %d\n", sum.CategoriesWithHits, sum.TotalCategories)

	if len(sum.TopCategories) > 0 {
		sb.WriteString("\n")
		sb.WriteString(st.paint(st.muted, "  Top categories"))
		sb.WriteString("\n")

		width := 0
		for _, c := range sum.TopCategories {
			width = max(width, lipgloss.Width(c.DisplayName))
		}
		for _, c := range sum.TopCategories {
			fmt.Fprintf(&sb, "    %-*s %4d\n", width, c.DisplayName, c.Count)
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

package panel

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/inodb/vibe-genotype/internal/genotype"
)

//go:embed default.yaml
var defaultPanel []byte

// Default returns the built-in reference panel.
func Default() (*Panel, error) {
	p, err := ParseYAML(defaultPanel)
	if err != nil {
		return nil, fmt.Errorf("default panel: %w", err)
	}
	return p, nil
}

// LoadFile loads a panel from a YAML (.yaml, .yml) or TSV file.
func LoadFile(path string) (*Panel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open panel: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("read panel: %w", err)
		}
		return ParseYAML(data)
	default:
		return ParseTSV(f)
	}
}

// yamlCategory is the list form of a category entry.
type yamlCategory struct {
	Name    string   `yaml:"name"`
	Markers []string `yaml:"markers"`
}

// ParseYAML parses a panel in either mapping form:
//
//	methylation: [rs1801133, rs1801131]
//
// or list form:
//
//	categories:
//	  - name: methylation
//	    markers: [rs1801133, rs1801131]
//
// Category order follows the document.
func ParseYAML(data []byte) (*Panel, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse panel yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("panel: empty document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("panel: expected a mapping at line %d", root.Line)
	}

	b := NewBuilder()

	if len(root.Content) == 2 && root.Content[0].Value == "categories" && root.Content[1].Kind == yaml.SequenceNode {
		var cats []yamlCategory
		if err := root.Content[1].Decode(&cats); err != nil {
			return nil, fmt.Errorf("decode categories: %w", err)
		}
		for _, c := range cats {
			b.Add(c.Name, c.Markers...)
		}
		return b.Build()
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		var markers []string
		if err := val.Decode(&markers); err != nil {
			return nil, fmt.Errorf("decode category %q (line %d): %w", key.Value, key.Line, err)
		}
		b.Add(key.Value, markers...)
	}
	return b.Build()
}

// ParseTSV parses a two-column "category<TAB>marker" panel. Blank lines and
// lines starting with '#' are ignored, as is a leading "category" header.
func ParseTSV(r io.Reader) (*Panel, error) {
	scanner := bufio.NewScanner(r)
	b := NewBuilder()
	lineNumber := 0
	first := true

	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, &genotype.ParseError{
				Line:    lineNumber,
				Message: fmt.Sprintf("expected 2 tab-separated columns, found %d", len(fields)),
			}
		}
		category := strings.TrimSpace(fields[0])
		if first {
			first = false
			if strings.EqualFold(category, "category") {
				continue
			}
		}
		b.Add(category, strings.TrimSpace(fields[1]))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading panel tsv: %w", err)
	}

	return b.Build()
}

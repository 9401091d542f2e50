package toc

import (
	"fmt"
	"strings"

	"github.com/aymerick/raymond"

	"github.com/geocine/geopub-toc/internal/slug"
)

// DefaultEntryTemplate renders one list line per heading:
// "<2*(level-1) spaces>* [<label>](#<slug>)\n"
const DefaultEntryTemplate = "{{{indent}}}* [{{{label}}}](#{{{slug}}})\n"

// Builder renders headings as nested markdown list source
type Builder struct {
	entry *raymond.Template
}

// NewBuilder creates a builder using the given handlebars entry template.
// An empty template selects DefaultEntryTemplate.
func NewBuilder(entryTemplate string) (*Builder, error) {
	if entryTemplate == "" {
		entryTemplate = DefaultEntryTemplate
	}
	tpl, err := raymond.Parse(entryTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid entry template: %w", err)
	}
	return &Builder{entry: tpl}, nil
}

// Build renders one line per heading, indenting level L by 2*(L-1) spaces
func (b *Builder) Build(headings []Heading) (string, error) {
	var sb strings.Builder
	for _, h := range headings {
		level := h.Level
		if level < 1 {
			level = 1
		}
		line, err := b.entry.Exec(map[string]interface{}{
			"indent": strings.Repeat(" ", 2*(level-1)),
			"label":  h.Label,
			"slug":   slug.Normalize(h.Label),
			"level":  level,
		})
		if err != nil {
			return "", fmt.Errorf("failed to render entry '%s': %w", h.Label, err)
		}
		sb.WriteString(line)
	}
	return sb.String(), nil
}

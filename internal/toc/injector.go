// Package toc injects a generated table of contents into markdown chapters
// in place of the <!-- toc --> marker.
package toc

import (
	"fmt"

	"github.com/geocine/geopub-toc/internal/markdown"
)

// Injector rewrites a markdown document, replacing every marker with a
// list of links to the level 1 and 2 headings that follow the first marker
type Injector struct {
	parser    *markdown.Parser
	builder   *Builder
	serialize func(markdown.Events) (string, error)
}

// NewInjector creates an injector rendering entries with builder
func NewInjector(builder *Builder) *Injector {
	return &Injector{
		parser:    markdown.NewParser(),
		builder:   builder,
		serialize: markdown.Serialize,
	}
}

// Inject returns content with its table of contents in place. Documents
// without a marker come back re-serialized in canonical form.
func (i *Injector) Inject(content string) (string, error) {
	events := i.parser.Parse(content)

	tocSource, err := i.builder.Build(Scan(events))
	if err != nil {
		return "", err
	}
	tocEvents := i.parser.Parse(tocSource)

	out, err := i.serialize(Splice(events, tocEvents))
	if err != nil {
		return "", fmt.Errorf("markdown serialization failed: %w", err)
	}
	return out, nil
}

// Splice returns a new stream with every marker replaced by replacement
func Splice(events, replacement markdown.Events) markdown.Events {
	out := make(markdown.Events, 0, len(events)+len(replacement))
	for _, ev := range events {
		if IsMarker(ev) {
			out = append(out, replacement...)
			continue
		}
		out = append(out, ev)
	}
	return out
}

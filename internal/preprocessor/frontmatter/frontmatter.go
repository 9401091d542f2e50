package frontmatter

import (
	"context"
	"strings"

	"cdr.dev/slog"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/geocine/geopub-toc/internal/models"
)

// Name is the preprocessor name, also its [preprocessor.<name>] table
const Name = "frontmatter"

// FrontmatterPreprocessor strips YAML/TOML frontmatter from chapters so the
// closing delimiter is not read as a setext heading. It only runs when the
// book enables it:
//
//	[preprocessor.frontmatter]
type FrontmatterPreprocessor struct {
	log slog.Logger
}

// NewFrontmatterPreprocessor creates a new frontmatter preprocessor
func NewFrontmatterPreprocessor(log slog.Logger) *FrontmatterPreprocessor {
	return &FrontmatterPreprocessor{log: log.Named(Name)}
}

// Name returns the preprocessor name
func (f *FrontmatterPreprocessor) Name() string {
	return Name
}

// Process strips frontmatter from all chapters
func (f *FrontmatterPreprocessor) Process(book *models.Book) error {
	ctx := context.Background()
	return book.ForEachChapter(func(ch *models.Chapter) error {
		meta, body, ok := Split(ch.Content)
		if !ok {
			return nil
		}
		f.log.Debug(ctx, "stripped frontmatter",
			slog.F("chapter", ch.Name),
			slog.F("keys", len(meta)),
		)
		ch.Content = body
		return nil
	})
}

type format struct {
	delim     string
	unmarshal func([]byte, interface{}) error
}

var formats = []format{
	{delim: "---", unmarshal: yaml.Unmarshal},
	{delim: "+++", unmarshal: toml.Unmarshal},
}

// Split separates a leading frontmatter block, YAML between "---" lines or
// TOML between "+++" lines, from the content. ok is false, and content is returned as is, when there is no block or
// the block does not decode as a table.
func Split(content string) (meta map[string]interface{}, body string, ok bool) {
	for _, f := range formats {
		block, rest, found := cut(content, f.delim)
		if !found {
			continue
		}
		meta = make(map[string]interface{})
		if err := f.unmarshal([]byte(block), &meta); err != nil {
			return nil, content, false
		}
		return meta, strings.TrimLeft(rest, "\r\n"), true
	}
	return nil, content, false
}

// cut returns the lines between an opening and a closing delimiter line
func cut(content, delim string) (block, rest string, found bool) {
	first, after, ok := strings.Cut(content, "\n")
	if !ok || strings.TrimRight(first, " \t\r") != delim {
		return "", content, false
	}

	offset := 0
	for offset <= len(after) {
		line, next, more := strings.Cut(after[offset:], "\n")
		if strings.TrimRight(line, " \t\r") == delim {
			return after[:offset], next, true
		}
		if !more {
			break
		}
		offset = len(after) - len(next)
	}
	return "", content, false
}

package frontmatter

import (
	"testing"

	"cdr.dev/slog/sloggers/slogtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocine/geopub-toc/internal/models"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		stripped bool
	}{
		{
			name:     "yaml block",
			input:    "---\ntitle: Installing\nweight: 2\ntags: [setup, cli]\n---\n\n# Installing\n\n<!-- toc -->\n",
			expected: "# Installing\n\n<!-- toc -->\n",
			stripped: true,
		},
		{
			name:     "toml block",
			input:    "+++\ntitle = \"Lookup\"\ndraft = false\n+++\n# Lookup",
			expected: "# Lookup",
			stripped: true,
		},
		{
			name:     "empty yaml block",
			input:    "---\n\n---\n\n\n## Only",
			expected: "## Only",
			stripped: true,
		},
		{
			name:     "block scalar",
			input:    "---\nsummary: |\n  first line\n  ---\n  indented, not a delimiter\n---\nbody",
			expected: "body",
			stripped: true,
		},
		{
			name:     "plain chapter",
			input:    "# Reference\n\n<!-- toc -->\n\n## Flags",
			expected: "# Reference\n\n<!-- toc -->\n\n## Flags",
		},
		{
			name:     "thematic break later in the chapter",
			input:    "# Notes\n\n---\n\nmore",
			expected: "# Notes\n\n---\n\nmore",
		},
		{
			name:     "setext heading is not yaml",
			input:    "---\nSee [the list\n---",
			expected: "---\nSee [the list\n---",
		},
		{
			name:     "invalid toml is kept",
			input:    "+++\n= nope\n+++\nbody",
			expected: "+++\n= nope\n+++\nbody",
		},
		{
			name:     "unclosed block is kept",
			input:    "---\ntitle: open\n\n# Heading\n",
			expected: "---\ntitle: open\n\n# Heading\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, body, ok := Split(tt.input)
			assert.Equal(t, tt.stripped, ok)
			assert.Equal(t, tt.expected, body)
		})
	}
}

func TestSplitReturnsMetadata(t *testing.T) {
	meta, _, ok := Split("+++\ntitle = \"T\"\nweight = 3\n+++\nbody")
	require.True(t, ok)
	assert.Equal(t, "T", meta["title"])
	assert.EqualValues(t, 3, meta["weight"])
}

func TestProcessStripsNestedChapters(t *testing.T) {
	guide := models.NewChapter("Guide", "---\nsection: guide\n---\n\n<!-- toc -->\n\n# Steps", "guide.md", []string{})
	step := models.NewChapter("Step", "+++\nsection = \"guide\"\n+++\n## Step", "guide/step.md", []string{"Guide"})
	guide.SubItems = append(guide.SubItems, step)
	plain := models.NewChapter("Plain", "# Plain\n\n<!-- toc -->", "plain.md", nil)

	book := models.NewBook()
	book.PushItem(guide)
	book.PushItem(plain)
	book.PushItem(models.NewDraftChapter("Draft", nil))

	fp := NewFrontmatterPreprocessor(slogtest.Make(t, nil))
	assert.Equal(t, "frontmatter", fp.Name())
	require.NoError(t, fp.Process(book))

	assert.Equal(t, "<!-- toc -->\n\n# Steps", guide.Content)
	assert.Equal(t, "## Step", step.Content)
	assert.Equal(t, "# Plain\n\n<!-- toc -->", plain.Content)
}

package toc

import (
	"errors"
	"strings"
	"testing"

	"cdr.dev/slog/sloggers/slogtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocine/geopub-toc/internal/markdown"
	"github.com/geocine/geopub-toc/internal/models"
)

const chapterFixture = `# Chapter

<!-- toc -->

# Header 1

## Header 1.1

# Header 2

## Header 2.1

## Header 2.2

### Header 2.2.1

`

const chapterExpected = `# Chapter

* [Header 1](#header-1)
  * [Header 1.1](#header-11)
* [Header 2](#header-2)
  * [Header 2.1](#header-21)
  * [Header 2.2](#header-22)

# Header 1

## Header 1.1

# Header 2

## Header 2.1

## Header 2.2

### Header 2.2.1`

func newTestInjector(t *testing.T) *Injector {
	t.Helper()
	builder, err := NewBuilder("")
	require.NoError(t, err)
	return NewInjector(builder)
}

func heading(level int, label string) markdown.Events {
	tag := markdown.Tag{Kind: markdown.TagHeading, Level: level}
	return markdown.Events{markdown.Start(tag), markdown.Text(label), markdown.End(tag)}
}

func concat(parts ...markdown.Events) markdown.Events {
	var out markdown.Events
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestScannerIgnoresHeadingsBeforeMarker(t *testing.T) {
	events := concat(
		heading(1, "Before"),
		markdown.Events{markdown.HTML(Marker)},
		heading(1, "After"),
	)

	assert.Equal(t, []Heading{{Level: 1, Label: "After"}}, Scan(events))
}

func TestScannerWithoutMarker(t *testing.T) {
	var s Scanner
	for _, ev := range concat(heading(1, "A"), heading(2, "B")) {
		s.Step(ev)
	}
	assert.False(t, s.Found())
	assert.Empty(t, s.Headings())
}

func TestScannerSkipsDeepHeadingsButKeepsCollecting(t *testing.T) {
	events := concat(
		markdown.Events{markdown.HTML(Marker)},
		heading(3, "Deep"),
		heading(4, "Deeper"),
		heading(2, "Shallow"),
		heading(6, "Deepest"),
		heading(1, "Top"),
	)

	assert.Equal(t, []Heading{
		{Level: 2, Label: "Shallow"},
		{Level: 1, Label: "Top"},
	}, Scan(events))
}

func TestScannerTakesFirstTextRunOnly(t *testing.T) {
	tag := markdown.Tag{Kind: markdown.TagHeading, Level: 2}
	em := markdown.Tag{Kind: markdown.TagEmphasis}
	events := markdown.Events{
		markdown.HTML(Marker),
		markdown.Start(tag),
		markdown.Text("Install "),
		markdown.Start(em),
		markdown.Text("fast"),
		markdown.End(em),
		markdown.End(tag),
	}

	assert.Equal(t, []Heading{{Level: 2, Label: "Install "}}, Scan(events))
}

func TestScannerCodeOnlyHeadingHasNoEntry(t *testing.T) {
	tag := markdown.Tag{Kind: markdown.TagHeading, Level: 1}
	events := concat(
		markdown.Events{
			markdown.HTML(Marker),
			markdown.Start(tag),
			{Kind: markdown.EventCode, Text: "geopub-toc"},
			markdown.End(tag),
		},
		heading(2, "Flags"),
	)

	assert.Equal(t, []Heading{{Level: 2, Label: "Flags"}}, Scan(events))
}

func TestScannerMarkerMustMatchExactly(t *testing.T) {
	events := concat(
		markdown.Events{markdown.HTML("<!-- toc -->")},
		markdown.Events{markdown.HTML("<!--toc-->\n")},
		heading(1, "A"),
	)
	assert.Empty(t, Scan(events))
}

func TestScannerIgnoresTextOutsideHeadings(t *testing.T) {
	para := markdown.Tag{Kind: markdown.TagParagraph}
	events := concat(
		markdown.Events{markdown.HTML(Marker)},
		markdown.Events{markdown.Start(para), markdown.Text("body"), markdown.End(para)},
		heading(2, "B"),
	)
	assert.Equal(t, []Heading{{Level: 2, Label: "B"}}, Scan(events))
}

func TestBuildIndentation(t *testing.T) {
	b, err := NewBuilder("")
	require.NoError(t, err)

	out, err := b.Build([]Heading{
		{Level: 1, Label: "Header 1"},
		{Level: 2, Label: "Header 1.1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "* [Header 1](#header-1)\n  * [Header 1.1](#header-11)\n", out)
}

func TestBuildEmpty(t *testing.T) {
	b, err := NewBuilder("")
	require.NoError(t, err)

	out, err := b.Build(nil)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestBuildKeepsLabelVerbatim(t *testing.T) {
	b, err := NewBuilder("")
	require.NoError(t, err)

	headings := Scan(markdown.Parse("<!-- toc -->\n\n# Tom & Jerry <3\n"))
	require.Equal(t, []Heading{{Level: 1, Label: "Tom & Jerry <3"}}, headings)

	out, err := b.Build(headings)
	require.NoError(t, err)
	assert.Equal(t, "* [Tom & Jerry <3](#tom-jerry-3)\n", out)
}

func TestBuildCustomTemplate(t *testing.T) {
	b, err := NewBuilder("{{{indent}}}- [{{{label}}}](#{{{slug}}}) (h{{level}})\n")
	require.NoError(t, err)

	out, err := b.Build([]Heading{{Level: 2, Label: "Setup"}})
	require.NoError(t, err)
	assert.Equal(t, "  - [Setup](#setup) (h2)\n", out)
}

func TestNewBuilderRejectsBrokenTemplate(t *testing.T) {
	_, err := NewBuilder("{{#if}}")
	assert.Error(t, err)
}

func TestInjectChapterFixture(t *testing.T) {
	out, err := newTestInjector(t).Inject(chapterFixture)
	require.NoError(t, err)
	assert.Equal(t, chapterExpected, out)
}

func TestInjectStabilisesAfterOnePass(t *testing.T) {
	inj := newTestInjector(t)

	once, err := inj.Inject(chapterFixture)
	require.NoError(t, err)
	assert.NotContains(t, once, "<!-- toc -->")

	twice, err := inj.Inject(once)
	require.NoError(t, err)
	thrice, err := inj.Inject(twice)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.Equal(t, twice, thrice)
}

func TestInjectWithoutMarkerIsIdempotent(t *testing.T) {
	inj := newTestInjector(t)
	docs := []string{
		"# Title\n\nBody text.\n\n## Section\n\n- a\n- b\n",
		"Intro\n=====\n\nSome `code` and a [link](http://example.com).\n",
		"> quote\n\n```sh\necho hi\n```\n",
		"",
	}

	for _, doc := range docs {
		once, err := inj.Inject(doc)
		require.NoError(t, err)
		twice, err := inj.Inject(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
		assert.NotContains(t, once, "](#")
	}
}

func TestInjectDepthFiltering(t *testing.T) {
	doc := "<!-- toc -->\n\n# Top\n\n### Three\n\n#### Four\n\n##### Five\n\n## Two\n"

	out, err := newTestInjector(t).Inject(doc)
	require.NoError(t, err)

	assert.Equal(t, "* [Top](#top)\n  * [Two](#two)\n\n# Top\n\n### Three\n\n#### Four\n\n##### Five\n\n## Two", out)
}

func TestInjectPlainHeadingTextIsOneLabel(t *testing.T) {
	tests := []struct {
		heading string
		entry   string
	}{
		{"snake_case name", "* [snake_case name](#snake_case-name)"},
		{"C++ [beta] notes", "* [C++ [beta] notes](#c-beta-notes)"},
		{"Tom & Jerry <3", "* [Tom & Jerry <3](#tom-jerry-3)"},
		{"a*b c", "* [a*b c](#ab-c)"},
		{"Use !important", "* [Use !important](#use-important)"},
	}

	inj := newTestInjector(t)
	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			out, err := inj.Inject("<!-- toc -->\n\n## " + tt.heading + "\n")
			require.NoError(t, err)
			assert.Equal(t, tt.entry+"\n\n## "+tt.heading, out)
		})
	}
}

func TestInjectDuplicateHeadingsShareSlug(t *testing.T) {
	doc := "<!-- toc -->\n\n# Setup\n\n# Setup\n"

	out, err := newTestInjector(t).Inject(doc)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, "* [Setup](#setup)"))
}

func TestInjectIndentationLaw(t *testing.T) {
	doc := "<!-- toc -->\n\n# A\n\n## B\n\n## C\n\n# D\n"

	out, err := newTestInjector(t).Inject(doc)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, "* [A](#a)", lines[0])
	assert.Equal(t, "  * [B](#b)", lines[1])
	assert.Equal(t, "  * [C](#c)", lines[2])
	assert.Equal(t, "* [D](#d)", lines[3])
}

func TestInjectReplacesEveryMarker(t *testing.T) {
	doc := "<!-- toc -->\n\n# A\n\n<!-- toc -->\n\n# B\n"

	out, err := newTestInjector(t).Inject(doc)
	require.NoError(t, err)

	assert.NotContains(t, out, "<!-- toc -->")
	assert.Equal(t, 2, strings.Count(out, "* [A](#a)\n* [B](#b)"))
}

func TestInjectMarkerWithNoHeadings(t *testing.T) {
	out, err := newTestInjector(t).Inject("Intro\n\n<!-- toc -->\n\nBody\n")
	require.NoError(t, err)
	assert.Equal(t, "Intro\n\nBody", out)
}

func TestInjectInlineMarkerIsNotAMarker(t *testing.T) {
	out, err := newTestInjector(t).Inject("text <!-- toc --> more\n\n# A\n")
	require.NoError(t, err)
	assert.Equal(t, "text <!-- toc --> more\n\n# A", out)
}

var errSink = errors.New("sink closed")

func TestInjectSerializationFailure(t *testing.T) {
	inj := newTestInjector(t)
	inj.serialize = func(markdown.Events) (string, error) {
		return "", errSink
	}

	out, err := inj.Inject(chapterFixture)
	require.Error(t, err)
	assert.Empty(t, out)
	assert.ErrorIs(t, err, errSink)
	assert.Contains(t, err.Error(), "markdown serialization failed")
}

func TestSpliceIsOneToMany(t *testing.T) {
	para := markdown.Tag{Kind: markdown.TagParagraph}
	events := markdown.Events{markdown.Start(para), markdown.Text("x"), markdown.End(para), markdown.HTML(Marker)}
	replacement := heading(1, "A")

	out := Splice(events, replacement)
	assert.Equal(t, concat(events[:3], replacement), out)
	assert.Equal(t, events[:3], Splice(events, nil))
}

func TestPreprocessorProcessesEveryChapter(t *testing.T) {
	intro := models.NewChapter("Intro", chapterFixture, "intro.md", nil)
	nested := models.NewChapter("Nested", "<!-- toc -->\n\n## Only\n", "intro/nested.md", []string{"Intro"})
	intro.SubItems = append(intro.SubItems, nested)
	plain := models.NewChapter("Plain", "Just text\n", "plain.md", nil)
	draft := models.NewDraftChapter("Draft", nil)

	book := models.NewBookWithItems([]models.BookItem{
		&models.PartTitle{Title: "Part"},
		intro,
		&models.Separator{},
		plain,
		draft,
	})

	p := NewPreprocessor(newTestInjector(t), slogtest.Make(t, nil))
	assert.Equal(t, "toc", p.Name())
	require.NoError(t, p.Process(book))

	assert.Equal(t, chapterExpected, intro.Content)
	assert.Equal(t, "* [Only](#only)\n\n## Only", nested.Content)
	assert.Equal(t, "Just text", plain.Content)
	assert.Equal(t, "", draft.Content)
}

func TestPreprocessorStopsOnFirstFailure(t *testing.T) {
	first := models.NewChapter("First", "# One\n", "one.md", nil)
	second := models.NewChapter("Second", "# Two\n", "two.md", nil)
	third := models.NewChapter("Third", "# Three\n", "three.md", nil)
	book := models.NewBookWithItems([]models.BookItem{first, second, third})

	inj := newTestInjector(t)
	calls := 0
	inj.serialize = func(events markdown.Events) (string, error) {
		calls++
		if calls == 2 {
			return "", errSink
		}
		return markdown.Serialize(events)
	}

	p := NewPreprocessor(inj, slogtest.Make(t, nil))
	err := p.Process(book)

	require.Error(t, err)
	assert.ErrorIs(t, err, errSink)
	assert.Contains(t, err.Error(), "chapter 'Second'")
	assert.Equal(t, 2, calls)
	assert.Equal(t, "# One", first.Content)
	assert.Equal(t, "# Two\n", second.Content)
	assert.Equal(t, "# Three\n", third.Content)
}

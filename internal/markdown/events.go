// Package markdown turns markdown source into a flat stream of structural
// events and writes such a stream back out as canonical markdown.
//
// Parsing is delegated to goldmark; the AST it produces is walked once and
// flattened into Start/End pairs with leaf events in between, so callers can
// fold over a document in order and splice events without touching a tree.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// EventKind identifies the kind of an Event
type EventKind uint8

const (
	EventStart EventKind = iota + 1
	EventEnd
	EventText
	EventCode
	EventHTML
	EventInlineHTML
	EventSoftBreak
	EventHardBreak
	EventRule
	EventTaskListMarker
)

var eventKindNames = map[EventKind]string{
	EventStart:          "start",
	EventEnd:            "end",
	EventText:           "text",
	EventCode:           "code",
	EventHTML:           "html",
	EventInlineHTML:     "inline-html",
	EventSoftBreak:      "soft-break",
	EventHardBreak:      "hard-break",
	EventRule:           "rule",
	EventTaskListMarker: "task-list-marker",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// TagKind identifies the container an EventStart/EventEnd pair delimits
type TagKind uint8

const (
	TagParagraph TagKind = iota + 1
	TagHeading
	TagBlockQuote
	TagCodeBlock
	TagList
	TagItem
	TagEmphasis
	TagStrong
	TagStrikethrough
	TagLink
	TagImage
	TagTable
	TagTableHead
	TagTableRow
	TagTableCell
)

var tagKindNames = map[TagKind]string{
	TagParagraph:     "paragraph",
	TagHeading:       "heading",
	TagBlockQuote:    "block-quote",
	TagCodeBlock:     "code-block",
	TagList:          "list",
	TagItem:          "item",
	TagEmphasis:      "emphasis",
	TagStrong:        "strong",
	TagStrikethrough: "strikethrough",
	TagLink:          "link",
	TagImage:         "image",
	TagTable:         "table",
	TagTableHead:     "table-head",
	TagTableRow:      "table-row",
	TagTableCell:     "table-cell",
}

func (k TagKind) String() string {
	if name, ok := tagKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsBlock reports whether the tag opens a block-level container
func (k TagKind) IsBlock() bool {
	switch k {
	case TagParagraph, TagHeading, TagBlockQuote, TagCodeBlock, TagList, TagTable:
		return true
	}
	return false
}

// Alignment is the alignment of a table column
type Alignment uint8

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Tag carries the attributes of a container. Only the fields relevant to
// Kind are set.
type Tag struct {
	Kind TagKind

	// Heading
	Level int

	// List
	Ordered bool
	Start   int
	Marker  byte
	Tight   bool

	// Code block
	Fenced bool
	Info   string

	// Link and image
	Destination string
	Title       string
	AutoLink    bool

	// Table
	Alignments []Alignment
}

// Event is one entry of a document's event stream
type Event struct {
	Kind    EventKind
	Tag     Tag
	Text    string
	Checked bool
}

// Events is the ordered event stream of a document
type Events []Event

// Start returns a start event for tag
func Start(tag Tag) Event { return Event{Kind: EventStart, Tag: tag} }

// End returns an end event for tag
func End(tag Tag) Event { return Event{Kind: EventEnd, Tag: tag} }

// Text returns a text event
func Text(s string) Event { return Event{Kind: EventText, Text: s} }

// HTML returns a raw HTML block event
func HTML(s string) Event { return Event{Kind: EventHTML, Text: s} }

// Parser converts markdown source into an event stream
type Parser struct {
	md goldmark.Markdown
}

// NewParser creates a parser understanding CommonMark plus strikethrough,
// tables and task lists
func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Strikethrough,
			extension.Table,
			extension.TaskList,
		),
	)
	return &Parser{md: md}
}

var defaultParser = NewParser()

// Parse parses source with the default parser
func Parse(source string) Events {
	return defaultParser.Parse(source)
}

// Parse parses source and returns its full event stream
func (p *Parser) Parse(source string) Events {
	src := []byte(source)
	doc := p.md.Parser().Parse(text.NewReader(src))
	w := &walker{source: src, textStop: -1}
	_ = ast.Walk(doc, w.visit)
	return w.events
}

type walker struct {
	source []byte
	events Events
	// end offset of the last event when it is a mergeable text run, or -1
	textStop int
}

func (w *walker) emit(ev Event) {
	w.events = append(w.events, ev)
	w.textStop = -1
}

func (w *walker) container(tag Tag, entering bool) {
	if entering {
		w.emit(Start(tag))
	} else {
		w.emit(End(tag))
	}
}

func (w *walker) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Document, *ast.TextBlock:
		// tight list items carry their inline content directly

	case *ast.Paragraph:
		w.container(Tag{Kind: TagParagraph}, entering)

	case *ast.Heading:
		w.container(Tag{Kind: TagHeading, Level: node.Level}, entering)

	case *ast.Blockquote:
		w.container(Tag{Kind: TagBlockQuote}, entering)

	case *ast.List:
		w.container(Tag{
			Kind:    TagList,
			Ordered: node.IsOrdered(),
			Start:   node.Start,
			Marker:  node.Marker,
			Tight:   node.IsTight,
		}, entering)

	case *ast.ListItem:
		w.container(Tag{Kind: TagItem}, entering)

	case *ast.ThematicBreak:
		if entering {
			w.emit(Event{Kind: EventRule})
		}

	case *ast.CodeBlock:
		if entering {
			w.codeBlock(Tag{Kind: TagCodeBlock}, node.Lines())
		}
		return ast.WalkSkipChildren, nil

	case *ast.FencedCodeBlock:
		if entering {
			tag := Tag{Kind: TagCodeBlock, Fenced: true}
			if node.Info != nil {
				tag.Info = string(node.Info.Segment.Value(w.source))
			}
			w.codeBlock(tag, node.Lines())
		}
		return ast.WalkSkipChildren, nil

	case *ast.HTMLBlock:
		if entering {
			var b strings.Builder
			b.WriteString(w.lines(node.Lines()))
			if node.HasClosure() {
				b.Write(node.ClosureLine.Value(w.source))
			}
			w.emit(HTML(b.String()))
		}
		return ast.WalkSkipChildren, nil

	case *ast.Text:
		if entering {
			w.text(node)
		}

	case *ast.String:
		if entering && len(node.Value) > 0 {
			w.emit(Text(string(node.Value)))
		}

	case *ast.CodeSpan:
		if entering {
			w.emit(Event{Kind: EventCode, Text: w.codeSpan(node)})
		}
		return ast.WalkSkipChildren, nil

	case *ast.Emphasis:
		kind := TagEmphasis
		if node.Level >= 2 {
			kind = TagStrong
		}
		w.container(Tag{Kind: kind}, entering)

	case *ast.Link:
		w.container(Tag{
			Kind:        TagLink,
			Destination: string(node.Destination),
			Title:       string(node.Title),
		}, entering)

	case *ast.Image:
		w.container(Tag{
			Kind:        TagImage,
			Destination: string(node.Destination),
			Title:       string(node.Title),
		}, entering)

	case *ast.AutoLink:
		if entering {
			label := string(node.Label(w.source))
			tag := Tag{Kind: TagLink, Destination: label, AutoLink: true}
			w.emit(Start(tag))
			w.emit(Text(label))
			w.emit(End(tag))
		}
		return ast.WalkSkipChildren, nil

	case *ast.RawHTML:
		if entering {
			var b strings.Builder
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				b.Write(seg.Value(w.source))
			}
			w.emit(Event{Kind: EventInlineHTML, Text: b.String()})
		}
		return ast.WalkSkipChildren, nil

	case *east.Strikethrough:
		w.container(Tag{Kind: TagStrikethrough}, entering)

	case *east.TaskCheckBox:
		if entering {
			w.emit(Event{Kind: EventTaskListMarker, Checked: node.IsChecked})
		}

	case *east.Table:
		tag := Tag{Kind: TagTable, Alignments: make([]Alignment, 0, len(node.Alignments))}
		for _, a := range node.Alignments {
			tag.Alignments = append(tag.Alignments, alignment(a))
		}
		w.container(tag, entering)

	case *east.TableHeader:
		w.container(Tag{Kind: TagTableHead}, entering)

	case *east.TableRow:
		w.container(Tag{Kind: TagTableRow}, entering)

	case *east.TableCell:
		w.container(Tag{Kind: TagTableCell}, entering)
	}

	return ast.WalkContinue, nil
}

// text emits a text run. goldmark splits plain text wherever an inline
// trigger such as '_' or '[' fails to open a construct; adjacent pieces are
// joined back into one run.
func (w *walker) text(node *ast.Text) {
	seg := node.Segment
	value := seg.Value(w.source)
	if len(value) > 0 {
		if last := len(w.events) - 1; last >= 0 && w.textStop == seg.Start && w.events[last].Kind == EventText {
			w.events[last].Text += string(value)
		} else {
			w.emit(Text(string(value)))
		}
		w.textStop = seg.Stop
	}
	switch {
	case node.HardLineBreak():
		w.emit(Event{Kind: EventHardBreak})
	case node.SoftLineBreak():
		w.emit(Event{Kind: EventSoftBreak})
	}
}

func (w *walker) codeBlock(tag Tag, lines *text.Segments) {
	w.emit(Start(tag))
	if body := w.lines(lines); body != "" {
		w.emit(Text(body))
	}
	w.emit(End(tag))
}

func (w *walker) lines(lines *text.Segments) string {
	var b strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(w.source))
	}
	return b.String()
}

func (w *walker) codeSpan(node *ast.CodeSpan) string {
	var b strings.Builder
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(w.source))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
	}
	return strings.ReplaceAll(b.String(), "\n", " ")
}

func alignment(a east.Alignment) Alignment {
	switch a {
	case east.AlignLeft:
		return AlignLeft
	case east.AlignCenter:
		return AlignCenter
	case east.AlignRight:
		return AlignRight
	}
	return AlignNone
}

package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformed is returned when an event stream cannot be written as
// markdown because its start and end events do not nest.
var ErrMalformed = errors.New("malformed event stream")

// Serialize writes events as canonical markdown and returns the text
func Serialize(events Events) (string, error) {
	var b strings.Builder
	if err := Write(&b, events); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Write writes events as canonical markdown to w. Output is produced only
// once the whole stream has been validated, so w never sees partial text.
//
// Blocks are separated by a blank line (a single newline between the
// blocks of a tight list item), headings are ATX, code blocks are fenced,
// and there is no trailing newline.
func Write(w io.Writer, events Events) error {
	s := &serializer{}
	for i, ev := range events {
		if err := s.event(ev); err != nil {
			return fmt.Errorf("event %d (%s): %w", i, ev.Kind, err)
		}
	}
	if len(s.stack) > 0 {
		return fmt.Errorf("%w: unclosed %s", ErrMalformed, s.stack[len(s.stack)-1].tag.Kind)
	}
	if _, err := io.WriteString(w, s.buf.String()); err != nil {
		return fmt.Errorf("failed to write markdown: %w", err)
	}
	return nil
}

type frame struct {
	tag   Tag
	items int    // list: items started so far
	cells int    // table head: number of columns
	code  string // code block: buffered body
	mark  int    // item: output length right after the marker
}

type serializer struct {
	buf     bytes.Buffer
	stack   []frame
	padding []string
	needSep bool // a block just ended at the current level
	inline  bool // inline content was written since the last block boundary
}

func (s *serializer) top() *frame {
	if len(s.stack) == 0 {
		return nil
	}
	return &s.stack[len(s.stack)-1]
}

func (s *serializer) push(tag Tag) {
	s.stack = append(s.stack, frame{tag: tag})
}

func (s *serializer) pop(kind TagKind) (frame, error) {
	f := s.top()
	if f == nil {
		return frame{}, fmt.Errorf("%w: end of %s without start", ErrMalformed, kind)
	}
	if f.tag.Kind != kind {
		return frame{}, fmt.Errorf("%w: end of %s while %s is open", ErrMalformed, kind, f.tag.Kind)
	}
	popped := *f
	s.stack = s.stack[:len(s.stack)-1]
	return popped, nil
}

func (s *serializer) within(kind TagKind) bool {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if s.stack[i].tag.Kind == kind {
			return true
		}
	}
	return false
}

func (s *serializer) prefix() string {
	return strings.Join(s.padding, "")
}

func (s *serializer) newline() {
	s.buf.WriteByte('\n')
	s.buf.WriteString(s.prefix())
}

func (s *serializer) blankLine() {
	p := s.prefix()
	s.buf.WriteByte('\n')
	s.buf.WriteString(strings.TrimRight(p, " "))
	s.buf.WriteByte('\n')
	s.buf.WriteString(p)
}

// writeLines writes text, repeating the container prefix after every newline
func (s *serializer) writeLines(text string) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			if line == "" {
				s.buf.WriteByte('\n')
				s.buf.WriteString(strings.TrimRight(s.prefix(), " "))
				continue
			}
			s.newline()
		}
		s.buf.WriteString(line)
	}
}

// separate ends the previous block before a new one starts
func (s *serializer) separate() {
	if s.buf.Len() > 0 && (s.needSep || s.inline) {
		if f := s.top(); f != nil && f.tag.Kind == TagItem && f.tag.Tight {
			s.newline()
		} else {
			s.blankLine()
		}
	}
	s.needSep = false
	s.inline = false
}

func (s *serializer) event(ev Event) error {
	switch ev.Kind {
	case EventStart:
		return s.start(ev.Tag)
	case EventEnd:
		return s.end(ev.Tag)
	case EventText:
		s.text(ev.Text)
	case EventCode:
		s.buf.WriteString(codeSpan(ev.Text))
		s.inline = true
	case EventHTML:
		s.separate()
		s.writeLines(strings.TrimSuffix(ev.Text, "\n"))
		s.needSep = true
	case EventInlineHTML:
		s.writeLines(ev.Text)
		s.inline = true
	case EventSoftBreak:
		if s.within(TagHeading) || s.within(TagTableCell) {
			s.buf.WriteByte(' ')
		} else {
			s.newline()
		}
		s.inline = true
	case EventHardBreak:
		if s.within(TagHeading) || s.within(TagTableCell) {
			s.buf.WriteByte(' ')
		} else {
			s.buf.WriteByte('\\')
			s.newline()
		}
		s.inline = true
	case EventRule:
		s.separate()
		s.buf.WriteString("***")
		s.needSep = true
	case EventTaskListMarker:
		if ev.Checked {
			s.buf.WriteString("[x] ")
		} else {
			s.buf.WriteString("[ ] ")
		}
		s.inline = true
	default:
		return fmt.Errorf("%w: unknown event kind %d", ErrMalformed, ev.Kind)
	}
	return nil
}

func (s *serializer) text(text string) {
	if f := s.top(); f != nil && f.tag.Kind == TagCodeBlock {
		f.code += text
		return
	}
	if s.within(TagHeading) {
		text = strings.ReplaceAll(text, "\n", " ")
	}
	s.writeLines(text)
	s.inline = true
}

func (s *serializer) start(tag Tag) error {
	if tag.Kind.IsBlock() {
		if f := s.top(); f != nil && f.tag.Kind != TagBlockQuote && f.tag.Kind != TagItem {
			return fmt.Errorf("%w: %s inside %s", ErrMalformed, tag.Kind, f.tag.Kind)
		}
		s.separate()
	}

	switch tag.Kind {
	case TagParagraph, TagList, TagTable:
	case TagHeading:
		level := tag.Level
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		s.buf.WriteString(strings.Repeat("#", level))
		s.buf.WriteByte(' ')
	case TagBlockQuote:
		s.buf.WriteString("> ")
		s.padding = append(s.padding, "> ")
	case TagCodeBlock:
		// body is buffered until the end tag so the fence can outgrow it
	case TagItem:
		return s.startItem(tag)
	case TagEmphasis:
		s.buf.WriteByte('*')
		s.inline = true
	case TagStrong:
		s.buf.WriteString("**")
		s.inline = true
	case TagStrikethrough:
		s.buf.WriteString("~~")
		s.inline = true
	case TagLink:
		if tag.AutoLink {
			s.buf.WriteByte('<')
		} else {
			s.buf.WriteByte('[')
		}
		s.inline = true
	case TagImage:
		s.buf.WriteString("![")
		s.inline = true
	case TagTableHead, TagTableRow:
		f := s.top()
		if f == nil || f.tag.Kind != TagTable {
			return fmt.Errorf("%w: %s outside table", ErrMalformed, tag.Kind)
		}
		if tag.Kind == TagTableRow {
			s.newline()
		}
		s.buf.WriteByte('|')
	case TagTableCell:
		f := s.top()
		if f == nil || (f.tag.Kind != TagTableHead && f.tag.Kind != TagTableRow) {
			return fmt.Errorf("%w: table cell outside row", ErrMalformed)
		}
		if f.tag.Kind == TagTableHead {
			f.cells++
		}
		s.buf.WriteByte(' ')
	default:
		return fmt.Errorf("%w: unknown tag kind %d", ErrMalformed, tag.Kind)
	}

	s.push(tag)
	return nil
}

func (s *serializer) startItem(tag Tag) error {
	list := s.top()
	if list == nil || list.tag.Kind != TagList {
		return fmt.Errorf("%w: item outside list", ErrMalformed)
	}
	if list.items > 0 {
		if list.tag.Tight {
			s.newline()
		} else {
			s.blankLine()
		}
	}

	var marker string
	if list.tag.Ordered {
		delim := list.tag.Marker
		if delim != '.' && delim != ')' {
			delim = '.'
		}
		marker = strconv.Itoa(list.tag.Start+list.items) + string(delim) + " "
	} else {
		bullet := list.tag.Marker
		if bullet != '*' && bullet != '-' && bullet != '+' {
			bullet = '*'
		}
		marker = string(bullet) + " "
	}
	list.items++

	s.buf.WriteString(marker)
	s.padding = append(s.padding, strings.Repeat(" ", len(marker)))
	s.needSep = false
	s.inline = false

	tag.Tight = list.tag.Tight
	s.push(tag)
	s.top().mark = s.buf.Len()
	return nil
}

func (s *serializer) end(tag Tag) error {
	f, err := s.pop(tag.Kind)
	if err != nil {
		return err
	}

	switch f.tag.Kind {
	case TagParagraph, TagHeading, TagList, TagTable:
		s.needSep = true
		s.inline = false
	case TagBlockQuote:
		s.padding = s.padding[:len(s.padding)-1]
		s.needSep = true
		s.inline = false
	case TagCodeBlock:
		s.codeBlock(f.tag, f.code)
		s.needSep = true
		s.inline = false
	case TagItem:
		if s.buf.Len() == f.mark {
			// empty item: drop the space after the marker
			s.buf.Truncate(f.mark - 1)
		}
		s.padding = s.padding[:len(s.padding)-1]
		s.needSep = false
		s.inline = false
	case TagEmphasis:
		s.buf.WriteByte('*')
	case TagStrong:
		s.buf.WriteString("**")
	case TagStrikethrough:
		s.buf.WriteString("~~")
	case TagLink, TagImage:
		if f.tag.AutoLink {
			s.buf.WriteByte('>')
		} else {
			s.buf.WriteString("](")
			s.buf.WriteString(destination(f.tag.Destination))
			if f.tag.Title != "" {
				s.buf.WriteString(` "`)
				s.buf.WriteString(escapeTitle(f.tag.Title))
				s.buf.WriteByte('"')
			}
			s.buf.WriteByte(')')
		}
	case TagTableHead:
		table := s.top()
		s.newline()
		s.buf.WriteByte('|')
		for i := 0; i < f.cells; i++ {
			align := AlignNone
			if table != nil && i < len(table.tag.Alignments) {
				align = table.tag.Alignments[i]
			}
			s.buf.WriteString(delimiterCell(align))
		}
	case TagTableCell:
		s.buf.WriteString(" |")
	}
	return nil
}

func (s *serializer) codeBlock(tag Tag, body string) {
	fence := strings.Repeat("`", max(3, longestRun(body, '`')+1))
	s.buf.WriteString(fence)
	s.buf.WriteString(tag.Info)
	s.newline()
	if body != "" {
		s.writeLines(strings.TrimSuffix(body, "\n"))
		s.newline()
	}
	s.buf.WriteString(fence)
}

func codeSpan(code string) string {
	fence := strings.Repeat("`", longestRun(code, '`')+1)
	pad := strings.HasPrefix(code, "`") || strings.HasSuffix(code, "`") ||
		(len(code) > 1 && code[0] == ' ' && code[len(code)-1] == ' ' && strings.Trim(code, " ") != "")
	if pad {
		return fence + " " + code + " " + fence
	}
	return fence + code + fence
}

func longestRun(s string, c byte) int {
	longest, run := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	return longest
}

func destination(dest string) string {
	if strings.ContainsAny(dest, " \t") {
		return "<" + dest + ">"
	}
	return dest
}

func escapeTitle(title string) string {
	var b strings.Builder
	for i := 0; i < len(title); i++ {
		if title[i] == '"' && (i == 0 || title[i-1] != '\\') {
			b.WriteByte('\\')
		}
		b.WriteByte(title[i])
	}
	return b.String()
}

func delimiterCell(align Alignment) string {
	switch align {
	case AlignLeft:
		return " :-- |"
	case AlignCenter:
		return " :-: |"
	case AlignRight:
		return " --: |"
	}
	return " --- |"
}

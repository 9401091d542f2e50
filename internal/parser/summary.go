package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/geocine/geopub-toc/internal/markdown"
)

// Summary item types
const (
	ItemLink      = "link"
	ItemSeparator = "separator"
	ItemPartTitle = "part-title"
)

// ErrSuffixBeforeNumbered is returned when a list follows the suffix chapters
var ErrSuffixBeforeNumbered = errors.New("numbered chapters cannot follow suffix chapters")

// SummaryItem represents an item in SUMMARY.md
type SummaryItem struct {
	Type        string // "link", "separator", "part-title"
	Title       string
	Location    *string // Relative path to markdown file, nil for drafts
	NestedItems []*SummaryItem
	Number      *SectionNumber
}

// SectionNumber represents section numbering
type SectionNumber struct {
	Parts []int
}

// Summary represents parsed SUMMARY.md
type Summary struct {
	Title            string
	PrefixChapters   []*SummaryItem
	NumberedChapters []*SummaryItem
	SuffixChapters   []*SummaryItem
}

type section uint8

const (
	prefixSection section = iota
	numberedSection
	suffixSection
)

type summaryParser struct {
	events  markdown.Events
	pos     int
	section section
	summary *Summary
}

// ParseSummary parses SUMMARY.md content and returns a Summary.
//
// The optional leading level 1 heading is the book title. Bare links before
// the first list are prefix chapters, list items are numbered chapters and
// bare links after the lists are suffix chapters. Other headings become part
// titles and thematic breaks become separators.
func ParseSummary(content string) (*Summary, error) {
	p := &summaryParser{
		events: markdown.Parse(content),
		summary: &Summary{
			PrefixChapters:   make([]*SummaryItem, 0),
			NumberedChapters: make([]*SummaryItem, 0),
			SuffixChapters:   make([]*SummaryItem, 0),
		},
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.summary, nil
}

func (p *summaryParser) parse() error {
	for p.pos < len(p.events) {
		ev := p.events[p.pos]
		switch {
		case ev.Kind == markdown.EventStart && ev.Tag.Kind == markdown.TagHeading:
			level := ev.Tag.Level
			title := strings.TrimSpace(p.collectText())
			if level == 1 && p.summary.Title == "" && p.empty() {
				p.summary.Title = title
				continue
			}
			if p.section == suffixSection {
				return fmt.Errorf("part title '%s': %w", title, ErrSuffixBeforeNumbered)
			}
			p.section = numberedSection
			p.summary.NumberedChapters = append(p.summary.NumberedChapters, &SummaryItem{
				Type:        ItemPartTitle,
				Title:       title,
				NestedItems: make([]*SummaryItem, 0),
			})

		case ev.Kind == markdown.EventStart && ev.Tag.Kind == markdown.TagParagraph:
			item := p.bareLink()
			if item == nil {
				continue
			}
			if p.section == numberedSection {
				p.section = suffixSection
			}
			p.push(item)

		case ev.Kind == markdown.EventStart && ev.Tag.Kind == markdown.TagList:
			if p.section == suffixSection {
				return ErrSuffixBeforeNumbered
			}
			p.section = numberedSection
			items, err := p.list(nil)
			if err != nil {
				return err
			}
			p.summary.NumberedChapters = append(p.summary.NumberedChapters, items...)

		case ev.Kind == markdown.EventRule:
			p.push(&SummaryItem{Type: ItemSeparator, NestedItems: make([]*SummaryItem, 0)})
			p.pos++

		default:
			p.skip()
		}
	}
	return nil
}

func (p *summaryParser) empty() bool {
	s := p.summary
	return len(s.PrefixChapters)+len(s.NumberedChapters)+len(s.SuffixChapters) == 0
}

func (p *summaryParser) push(item *SummaryItem) {
	switch p.section {
	case prefixSection:
		p.summary.PrefixChapters = append(p.summary.PrefixChapters, item)
	case numberedSection:
		p.summary.NumberedChapters = append(p.summary.NumberedChapters, item)
	default:
		p.summary.SuffixChapters = append(p.summary.SuffixChapters, item)
	}
}

// skip advances past the event at pos and, for a start tag, its whole subtree
func (p *summaryParser) skip() {
	end := p.matchingEnd(p.pos)
	p.pos = end + 1
}

// matchingEnd returns the index of the end event closing the start at i
func (p *summaryParser) matchingEnd(i int) int {
	if p.events[i].Kind != markdown.EventStart {
		return i
	}
	depth := 0
	for j := i; j < len(p.events); j++ {
		switch p.events[j].Kind {
		case markdown.EventStart:
			depth++
		case markdown.EventEnd:
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return len(p.events) - 1
}

// collectText concatenates the text of the subtree at pos and moves past it
func (p *summaryParser) collectText() string {
	end := p.matchingEnd(p.pos)
	var sb strings.Builder
	for _, ev := range p.events[p.pos : end+1] {
		if ev.Kind == markdown.EventText || ev.Kind == markdown.EventCode {
			sb.WriteString(ev.Text)
		}
	}
	p.pos = end + 1
	return sb.String()
}

// link reads the first link in events[from:to] as a summary item
func (p *summaryParser) link(from, to int) *SummaryItem {
	for i := from; i < to; i++ {
		ev := p.events[i]
		if ev.Kind != markdown.EventStart || ev.Tag.Kind != markdown.TagLink || ev.Tag.AutoLink {
			continue
		}
		saved := p.pos
		p.pos = i
		title := strings.TrimSpace(p.collectText())
		p.pos = saved

		item := &SummaryItem{
			Type:        ItemLink,
			Title:       title,
			NestedItems: make([]*SummaryItem, 0),
		}
		if dest := ev.Tag.Destination; dest != "" {
			item.Location = &dest
		}
		return item
	}
	return nil
}

// bareLink consumes a paragraph and returns the link it holds, if any
func (p *summaryParser) bareLink() *SummaryItem {
	end := p.matchingEnd(p.pos)
	item := p.link(p.pos, end)
	p.pos = end + 1
	return item
}

// list consumes a list and returns its items
func (p *summaryParser) list(parents []string) ([]*SummaryItem, error) {
	end := p.matchingEnd(p.pos)
	p.pos++

	items := make([]*SummaryItem, 0)
	for p.pos < end {
		ev := p.events[p.pos]
		if ev.Kind != markdown.EventStart || ev.Tag.Kind != markdown.TagItem {
			p.skip()
			continue
		}
		item, err := p.item(parents)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	p.pos = end + 1
	return items, nil
}

// item consumes a list item: its link, then any nested lists
func (p *summaryParser) item(parents []string) (*SummaryItem, error) {
	end := p.matchingEnd(p.pos)

	// the link must come before any nested list
	linkEnd := end
	for i := p.pos + 1; i < end; i++ {
		if p.events[i].Kind == markdown.EventStart && p.events[i].Tag.Kind == markdown.TagList {
			linkEnd = i
			break
		}
	}
	item := p.link(p.pos+1, linkEnd)
	if item == nil {
		return nil, fmt.Errorf("list item under %v has no link", parents)
	}

	p.pos = linkEnd
	nestedParents := append(append([]string{}, parents...), item.Title)
	for p.pos < end {
		ev := p.events[p.pos]
		if ev.Kind == markdown.EventStart && ev.Tag.Kind == markdown.TagList {
			nested, err := p.list(nestedParents)
			if err != nil {
				return nil, err
			}
			item.NestedItems = append(item.NestedItems, nested...)
			continue
		}
		p.skip()
	}
	p.pos = end + 1
	return item, nil
}

// ValidateSummaryStructure validates the summary structure
func ValidateSummaryStructure(summary *Summary) error {
	if countLinks(summary.PrefixChapters)+countLinks(summary.NumberedChapters)+countLinks(summary.SuffixChapters) == 0 {
		return fmt.Errorf("SUMMARY.md contains no chapters")
	}
	return nil
}

func countLinks(items []*SummaryItem) int {
	n := 0
	for _, item := range items {
		if item.Type == ItemLink {
			n++
		}
		n += countLinks(item.NestedItems)
	}
	return n
}

// FlattenSummary returns all top level items in order: prefix, numbered, suffix
func (s *Summary) FlattenSummary() []*SummaryItem {
	items := make([]*SummaryItem, 0, len(s.PrefixChapters)+len(s.NumberedChapters)+len(s.SuffixChapters))
	items = append(items, s.PrefixChapters...)
	items = append(items, s.NumberedChapters...)
	items = append(items, s.SuffixChapters...)
	return items
}

// AssignSectionNumbers assigns section numbers to chapters
func (s *Summary) AssignSectionNumbers() {
	// Only number the numbered chapters (skipping part-title items), not prefix or suffix chapters
	topIndex := 0
	for _, item := range s.NumberedChapters {
		if item.Type != ItemLink {
			continue
		}
		topIndex++
		assignNumbersToItem(item, []int{topIndex})
	}
}

// assignNumbersToItem sets the number on an item and recursively numbers its link children
func assignNumbersToItem(item *SummaryItem, number []int) {
	item.Number = &SectionNumber{Parts: make([]int, len(number))}
	copy(item.Number.Parts, number)

	childIndex := 0
	for _, child := range item.NestedItems {
		if child.Type != ItemLink {
			continue
		}
		childIndex++
		childNum := append(append([]int{}, number...), childIndex)
		assignNumbersToItem(child, childNum)
	}
}

package models

import (
	"strconv"
	"strings"
)

// SectionNumber represents a chapter's section number (e.g., "1.2.3")
type SectionNumber struct {
	Parts []int
}

// String returns the string representation of a section number
func (sn *SectionNumber) String() string {
	if sn == nil || len(sn.Parts) == 0 {
		return ""
	}
	parts := make([]string, len(sn.Parts))
	for i, part := range sn.Parts {
		parts[i] = strconv.Itoa(part)
	}
	return strings.Join(parts, ".")
}

// Book represents a collection of chapters/items
type Book struct {
	Items []BookItem
}

// NewBook creates an empty book
func NewBook() *Book {
	return &Book{
		Items: make([]BookItem, 0),
	}
}

// NewBookWithItems creates a book with initial items
func NewBookWithItems(items []BookItem) *Book {
	return &Book{
		Items: items,
	}
}

// PushItem appends a BookItem to the book
func (b *Book) PushItem(item BookItem) {
	b.Items = append(b.Items, item)
}

// ForEachChapter calls fn for every chapter, depth-first in book order,
// parents before their sub-chapters. Separators and part titles are
// skipped. The walk stops at the first error, which is returned.
func (b *Book) ForEachChapter(fn func(*Chapter) error) error {
	return forEachChapter(b.Items, fn)
}

func forEachChapter(items []BookItem, fn func(*Chapter) error) error {
	for _, item := range items {
		ch, ok := item.(*Chapter)
		if !ok {
			continue
		}
		if err := fn(ch); err != nil {
			return err
		}
		if err := forEachChapter(ch.SubItems, fn); err != nil {
			return err
		}
	}
	return nil
}

// Chapters returns every chapter in book order, drafts included
func (b *Book) Chapters() []*Chapter {
	var chapters []*Chapter
	_ = b.ForEachChapter(func(ch *Chapter) error {
		chapters = append(chapters, ch)
		return nil
	})
	return chapters
}

// BookItemType represents the type of a BookItem
type BookItemType int

const (
	ChapterItem BookItemType = iota
	SeparatorItem
	PartTitleItem
)

// BookItem is an interface for different types of book items
type BookItem interface {
	Type() BookItemType
}

// Chapter represents a single chapter/section
type Chapter struct {
	Name        string         // Chapter name/title
	Content     string         // Markdown content
	Number      *SectionNumber // Section number (e.g., 1.2.3)
	SubItems    []BookItem     // Nested items
	Path        *string        // Relative path to the markdown file (relative to src/)
	SourcePath  *string        // Actual path on disk
	ParentNames []string       // Names of parent chapters
	IsDraft     bool           // Listed in SUMMARY.md without a file
}

// NewChapter creates a new chapter with content
func NewChapter(name, content string, path string, parentNames []string) *Chapter {
	return &Chapter{
		Name:        name,
		Content:     content,
		Path:        &path,
		SubItems:    make([]BookItem, 0),
		ParentNames: parentNames,
	}
}

// NewDraftChapter creates a draft chapter (no file)
func NewDraftChapter(name string, parentNames []string) *Chapter {
	return &Chapter{
		Name:        name,
		SubItems:    make([]BookItem, 0),
		ParentNames: parentNames,
		IsDraft:     true,
	}
}

// Type returns the BookItem type
func (c *Chapter) Type() BookItemType {
	return ChapterItem
}

// Separator represents a separator/divider between sections
type Separator struct{}

// Type returns the BookItem type
func (s *Separator) Type() BookItemType {
	return SeparatorItem
}

// PartTitle represents a part title for grouping chapters
type PartTitle struct {
	Title string
}

// Type returns the BookItem type
func (p *PartTitle) Type() BookItemType {
	return PartTitleItem
}

package sdk

import (
	"github.com/geocine/geopub-toc/internal/config"
	"github.com/geocine/geopub-toc/internal/models"
)

// ProtocolVersion is reported in contexts created by this package
const ProtocolVersion = "0.1"

// PreprocessorContext is the JSON structure sent to and received from preprocessors
// It matches the mdBook preprocessor protocol
type PreprocessorContext struct {
	Book     *JsonBook              `json:"book"`
	Config   map[string]interface{} `json:"config"`
	Renderer string                 `json:"renderer"`
	Version  string                 `json:"version"`
}

// JsonBook represents a book in the preprocessor protocol
type JsonBook struct {
	Sections []JsonSection `json:"sections"`
	// Root path to the book (for context)
	Root string `json:"root,omitempty"`
}

// JsonSection represents a section (chapter, separator or part title) in the preprocessor protocol
type JsonSection struct {
	Chapter *JsonChapter `json:"chapter,omitempty"`
	// Separator appears as { "separator": true }
	IsSeparator bool   `json:"separator,omitempty"`
	PartTitle   string `json:"part_title,omitempty"`
}

// JsonChapter represents a chapter in the preprocessor protocol.
// Draft chapters have no path.
type JsonChapter struct {
	Name        string        `json:"name"`
	Content     string        `json:"content"`
	Number      []int         `json:"number,omitempty"`
	SubItems    []JsonSection `json:"sub_items"`
	Path        *string       `json:"path"`
	SourcePath  *string       `json:"source_path,omitempty"`
	ParentNames []string      `json:"parent_names"`
}

// BookToJson converts a GeoPub book to the JSON representation for preprocessors
func BookToJson(book *models.Book) *JsonBook {
	return &JsonBook{Sections: itemsToSections(book.Items)}
}

func itemsToSections(items []models.BookItem) []JsonSection {
	sections := []JsonSection{}
	for _, item := range items {
		switch v := item.(type) {
		case *models.Chapter:
			sections = append(sections, JsonSection{Chapter: chapterToJson(v)})
		case *models.Separator:
			sections = append(sections, JsonSection{IsSeparator: true})
		case *models.PartTitle:
			sections = append(sections, JsonSection{PartTitle: v.Title})
		}
	}
	return sections
}

func chapterToJson(ch *models.Chapter) *JsonChapter {
	jsonCh := &JsonChapter{
		Name:        ch.Name,
		Content:     ch.Content,
		SubItems:    itemsToSections(ch.SubItems),
		ParentNames: ch.ParentNames,
		SourcePath:  ch.SourcePath,
	}
	if jsonCh.ParentNames == nil {
		jsonCh.ParentNames = []string{}
	}

	if ch.Number != nil && len(ch.Number.Parts) > 0 {
		jsonCh.Number = ch.Number.Parts
	}

	if ch.Path != nil && !ch.IsDraft {
		path := *ch.Path
		jsonCh.Path = &path
	}
	return jsonCh
}

// JsonToBook converts the JSON representation back to a GeoPub book, replacing its items
func JsonToBook(jsonBook *JsonBook, book *models.Book) error {
	book.Items = sectionsToItems(jsonBook.Sections)
	return nil
}

func sectionsToItems(sections []JsonSection) []models.BookItem {
	items := []models.BookItem{}
	for _, section := range sections {
		switch {
		case section.IsSeparator:
			items = append(items, &models.Separator{})
		case section.PartTitle != "":
			items = append(items, &models.PartTitle{Title: section.PartTitle})
		case section.Chapter != nil:
			items = append(items, jsonToChapter(section.Chapter))
		}
	}
	return items
}

func jsonToChapter(jsonCh *JsonChapter) *models.Chapter {
	var ch *models.Chapter
	if jsonCh.Path == nil {
		ch = models.NewDraftChapter(jsonCh.Name, jsonCh.ParentNames)
		ch.Content = jsonCh.Content
	} else {
		ch = models.NewChapter(jsonCh.Name, jsonCh.Content, *jsonCh.Path, jsonCh.ParentNames)
	}
	ch.SourcePath = jsonCh.SourcePath

	if len(jsonCh.Number) > 0 {
		ch.Number = &models.SectionNumber{Parts: jsonCh.Number}
	}

	ch.SubItems = sectionsToItems(jsonCh.SubItems)
	return ch
}

// NewPreprocessorContext creates a context for passing to a preprocessor
func NewPreprocessorContext(book *models.Book, cfg *config.Config, renderer string) *PreprocessorContext {
	configMap := make(map[string]interface{})
	if cfg != nil {
		configMap["book"] = map[string]interface{}{
			"title":       cfg.Book.Title,
			"authors":     cfg.Book.Authors,
			"description": cfg.Book.Description,
			"language":    cfg.Book.Language,
			"src":         cfg.Book.Src,
		}
		configMap["build"] = map[string]interface{}{
			"build-dir":      cfg.Build.BuildDir,
			"create-missing": cfg.Build.CreateMissing,
		}
		configMap["preprocessor"] = cfg.Preprocessor
	}

	return &PreprocessorContext{
		Book:     BookToJson(book),
		Config:   configMap,
		Renderer: renderer,
		Version:  ProtocolVersion,
	}
}

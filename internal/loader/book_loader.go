package loader

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"

	"cdr.dev/slog"

	"github.com/geocine/geopub-toc/internal/config"
	"github.com/geocine/geopub-toc/internal/models"
	"github.com/geocine/geopub-toc/internal/parser"
	"github.com/geocine/geopub-toc/internal/utils"
)

// SummaryFile is the table of contents file in the source directory
const SummaryFile = "SUMMARY.md"

// BookLoader handles loading books from disk
type BookLoader struct {
	rootDir string
	srcDir  string
	config  *config.Config
	log     slog.Logger
}

// NewBookLoader creates a new book loader
func NewBookLoader(rootDir string, cfg *config.Config, log slog.Logger) *BookLoader {
	return &BookLoader{
		rootDir: rootDir,
		srcDir:  filepath.Join(rootDir, cfg.Book.Src),
		config:  cfg,
		log:     log.Named("loader"),
	}
}

// SrcDir returns the book's source directory
func (bl *BookLoader) SrcDir() string {
	return bl.srcDir
}

// Load loads a complete book from disk
func (bl *BookLoader) Load() (*models.Book, error) {
	summaryPath := filepath.Join(bl.srcDir, SummaryFile)

	summaryContent, err := utils.ReadSource(summaryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SUMMARY.md: %w", err)
	}

	summary, err := parser.ParseSummary(summaryContent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SUMMARY.md: %w", err)
	}

	summary.AssignSectionNumbers()

	if err := parser.ValidateSummaryStructure(summary); err != nil {
		return nil, err
	}

	if bl.config.Build.CreateMissing {
		if err := bl.createMissing(summary.FlattenSummary()); err != nil {
			return nil, fmt.Errorf("failed to create missing chapters: %w", err)
		}
	}

	items := make([]models.BookItem, 0)
	for _, summaryItem := range summary.FlattenSummary() {
		bookItem, err := bl.loadSummaryItem(summaryItem, []string{})
		if err != nil {
			return nil, err
		}
		items = append(items, bookItem)
	}

	book := models.NewBookWithItems(items)
	bl.log.Debug(context.Background(), "loaded book",
		slog.F("src", bl.srcDir),
		slog.F("chapters", len(book.Chapters())),
	)
	return book, nil
}

func (bl *BookLoader) loadSummaryItem(item *parser.SummaryItem, parentNames []string) (models.BookItem, error) {
	switch item.Type {
	case parser.ItemSeparator:
		return &models.Separator{}, nil
	case parser.ItemPartTitle:
		return &models.PartTitle{Title: item.Title}, nil
	case parser.ItemLink:
		return bl.loadChapter(item, parentNames)
	default:
		return nil, fmt.Errorf("unknown summary item type: %s", item.Type)
	}
}

func (bl *BookLoader) loadChapter(item *parser.SummaryItem, parentNames []string) (models.BookItem, error) {
	var ch *models.Chapter

	if item.Location != nil {
		location := filepath.FromSlash(*item.Location)
		filePath := filepath.Join(bl.srcDir, location)

		content, err := utils.ReadSource(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read chapter '%s': %w", item.Title, err)
		}

		ch = models.NewChapter(item.Title, content, location, parentNames)
		ch.SourcePath = &filePath
	} else {
		ch = models.NewDraftChapter(item.Title, parentNames)
	}

	if item.Number != nil {
		ch.Number = &models.SectionNumber{Parts: item.Number.Parts}
	}

	childParents := append(append([]string{}, parentNames...), item.Title)
	for _, nestedItem := range item.NestedItems {
		nestedBookItem, err := bl.loadSummaryItem(nestedItem, childParents)
		if err != nil {
			return nil, err
		}
		ch.SubItems = append(ch.SubItems, nestedBookItem)
	}

	return ch, nil
}

func (bl *BookLoader) createMissing(items []*parser.SummaryItem) error {
	for _, item := range items {
		if item.Type == parser.ItemLink && item.Location != nil {
			filePath := filepath.Join(bl.srcDir, filepath.FromSlash(*item.Location))

			if _, err := os.Stat(filePath); err != nil {
				if !os.IsNotExist(err) {
					return err
				}
				content := fmt.Sprintf("# %s\n", html.EscapeString(item.Title))
				if err := utils.WriteText(filePath, content); err != nil {
					return err
				}
				bl.log.Info(context.Background(), "created missing chapter", slog.F("path", filePath))
			}
		}

		if err := bl.createMissing(item.NestedItems); err != nil {
			return err
		}
	}

	return nil
}

// Save writes every non-draft chapter under destDir at its book-relative
// path and copies SUMMARY.md next to them
func (bl *BookLoader) Save(book *models.Book, destDir string) error {
	written := 0
	err := book.ForEachChapter(func(ch *models.Chapter) error {
		if ch.IsDraft || ch.Path == nil {
			return nil
		}
		if err := utils.WriteText(filepath.Join(destDir, *ch.Path), ch.Content); err != nil {
			return fmt.Errorf("failed to save chapter '%s': %w", ch.Name, err)
		}
		written++
		return nil
	})
	if err != nil {
		return err
	}

	if err := utils.CopyFile(filepath.Join(bl.srcDir, SummaryFile), filepath.Join(destDir, SummaryFile)); err != nil {
		return err
	}

	bl.log.Info(context.Background(), "saved book",
		slog.F("dest", destDir),
		slog.F("chapters", written),
	)
	return nil
}

// LoadBook is a convenience function to load a book with the given configuration
func LoadBook(rootDir string, cfg *config.Config, log slog.Logger) (*models.Book, error) {
	return NewBookLoader(rootDir, cfg, log).Load()
}

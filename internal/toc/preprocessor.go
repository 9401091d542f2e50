package toc

import (
	"context"
	"fmt"

	"cdr.dev/slog"

	"github.com/geocine/geopub-toc/internal/models"
)

// Name is the preprocessor name registered with the host pipeline
const Name = "toc"

// Preprocessor applies the injector to every chapter of a book
type Preprocessor struct {
	injector *Injector
	log      slog.Logger
}

// NewPreprocessor creates the toc preprocessor
func NewPreprocessor(injector *Injector, log slog.Logger) *Preprocessor {
	return &Preprocessor{injector: injector, log: log.Named(Name)}
}

// Name returns the preprocessor name
func (p *Preprocessor) Name() string {
	return Name
}

// Process rewrites each chapter's content once, in book order. The first
// failing chapter aborts the walk and its error is returned.
func (p *Preprocessor) Process(book *models.Book) error {
	ctx := context.Background()
	return book.ForEachChapter(func(ch *models.Chapter) error {
		out, err := p.injector.Inject(ch.Content)
		if err != nil {
			return fmt.Errorf("chapter '%s': %w", ch.Name, err)
		}
		p.log.Debug(ctx, "processed chapter",
			slog.F("chapter", ch.Name),
			slog.F("bytes_in", len(ch.Content)),
			slog.F("bytes_out", len(out)),
		)
		ch.Content = out
		return nil
	})
}

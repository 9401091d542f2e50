package preprocessor

import (
	"context"
	"fmt"

	"cdr.dev/slog"

	"github.com/geocine/geopub-toc/internal/models"
)

// Preprocessor interface for processing chapters before rendering
type Preprocessor interface {
	Name() string
	Process(book *models.Book) error
}

// Pipeline runs multiple preprocessors in sequence
type Pipeline struct {
	preprocessors []Preprocessor
	log           slog.Logger
}

// NewPipeline creates a new preprocessor pipeline
func NewPipeline(log slog.Logger) *Pipeline {
	return &Pipeline{
		preprocessors: make([]Preprocessor, 0),
		log:           log.Named("pipeline"),
	}
}

// Add adds a preprocessor to the pipeline
func (p *Pipeline) Add(preprocessor Preprocessor) {
	p.preprocessors = append(p.preprocessors, preprocessor)
}

// Names returns the preprocessor names in run order
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.preprocessors))
	for i, pp := range p.preprocessors {
		names[i] = pp.Name()
	}
	return names
}

// Process runs all preprocessors on the book, stopping at the first failure
func (p *Pipeline) Process(book *models.Book) error {
	ctx := context.Background()
	for _, preprocessor := range p.preprocessors {
		p.log.Debug(ctx, "running preprocessor", slog.F("name", preprocessor.Name()))
		if err := preprocessor.Process(book); err != nil {
			return fmt.Errorf("preprocessor '%s' failed: %w", preprocessor.Name(), err)
		}
	}
	return nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"cdr.dev/slog"

	"github.com/geocine/geopub-toc/internal/config"
	"github.com/geocine/geopub-toc/internal/preprocessor"
	"github.com/geocine/geopub-toc/internal/preprocessor/frontmatter"
	"github.com/geocine/geopub-toc/internal/toc"
)

// loadConfig reads book.toml at path, falling back to defaults when the
// file does not exist
func loadConfig(path string, log slog.Logger) (*config.Config, error) {
	cfg, err := config.LoadFromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug(context.Background(), "no config file, using defaults", slog.F("path", path))
		cfg = config.NewDefaultConfig()
		cfg.UpdateFromEnv()
		return cfg, nil
	}
	return cfg, err
}

// newInjector builds an injector from [preprocessor.toc]
func newInjector(tocCfg *config.TocConfig) (*toc.Injector, error) {
	builder, err := toc.NewBuilder(tocCfg.EntryTemplate)
	if err != nil {
		return nil, fmt.Errorf("[preprocessor.%s]: %w", config.TocName, err)
	}
	return toc.NewInjector(builder), nil
}

// newPipeline assembles the built-in preprocessors: frontmatter when
// configured, then toc
func newPipeline(cfg *config.Config, tocCfg *config.TocConfig, log slog.Logger) (*preprocessor.Pipeline, error) {
	injector, err := newInjector(tocCfg)
	if err != nil {
		return nil, err
	}

	pipeline := preprocessor.NewPipeline(log)
	if cfg.HasPreprocessor(frontmatter.Name) {
		pipeline.Add(frontmatter.NewFrontmatterPreprocessor(log))
	}
	pipeline.Add(toc.NewPreprocessor(injector, log))
	return pipeline, nil
}

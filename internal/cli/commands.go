package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"cdr.dev/slog"

	"github.com/geocine/geopub-toc/internal/config"
	"github.com/geocine/geopub-toc/internal/loader"
	"github.com/geocine/geopub-toc/internal/models"
	"github.com/geocine/geopub-toc/internal/preprocessor/frontmatter"
	"github.com/geocine/geopub-toc/internal/preprocessor/sdk"
	"github.com/geocine/geopub-toc/internal/utils"
)

// ProcessCmd speaks the preprocessor protocol on stdin and stdout
type ProcessCmd struct{}

// Run processes one context
func (c *ProcessCmd) Run(env *Env) error {
	ctx := context.Background()

	ppCtx, err := sdk.ReadContext(env.Stdin)
	if err != nil {
		return err
	}
	env.Log.Debug(ctx, "read context",
		slog.F("renderer", ppCtx.Renderer),
		slog.F("version", ppCtx.Version),
		slog.F("sections", len(ppCtx.Book.Sections)),
	)

	cfg, err := config.FromMap(ppCtx.Config)
	if err != nil {
		return err
	}
	tocCfg, err := cfg.GetTocConfig()
	if err != nil {
		return err
	}

	if !tocCfg.Supports(ppCtx.Renderer) {
		env.Log.Info(ctx, "renderer not supported, passing book through", slog.F("renderer", ppCtx.Renderer))
		return sdk.WriteContext(env.Stdout, ppCtx)
	}

	pipeline, err := newPipeline(cfg, tocCfg, env.Log)
	if err != nil {
		return err
	}

	book := models.NewBook()
	if err := sdk.JsonToBook(ppCtx.Book, book); err != nil {
		return err
	}
	if err := pipeline.Process(book); err != nil {
		return err
	}

	root := ppCtx.Book.Root
	ppCtx.Book = sdk.BookToJson(book)
	ppCtx.Book.Root = root
	return sdk.WriteContext(env.Stdout, ppCtx)
}

// SupportsCmd answers the host's renderer handshake
type SupportsCmd struct {
	Renderer string `arg:"" help:"Renderer name."`
	Config   string `short:"c" default:"book.toml" help:"Path to book.toml."`
}

// Run returns ErrUnsupported when [preprocessor.toc] renderers excludes the renderer
func (c *SupportsCmd) Run(env *Env) error {
	cfg, err := loadConfig(c.Config, env.Log)
	if err != nil {
		return err
	}
	tocCfg, err := cfg.GetTocConfig()
	if err != nil {
		return err
	}
	if !tocCfg.Supports(c.Renderer) {
		return fmt.Errorf("%s: %w", c.Renderer, ErrUnsupported)
	}
	return nil
}

// BuildCmd processes a book on disk
type BuildCmd struct {
	Root     string `arg:"" optional:"" default:"." type:"existingdir" help:"Book root containing book.toml."`
	DestDir  string `short:"d" help:"Output directory, defaults to build.build-dir."`
	Renderer string `default:"markdown" help:"Renderer name checked against [preprocessor.toc] renderers."`
}

// Run loads, processes and saves the book
func (c *BuildCmd) Run(env *Env) error {
	ctx := context.Background()

	cfg, err := loadConfig(filepath.Join(c.Root, "book.toml"), env.Log)
	if err != nil {
		return err
	}
	tocCfg, err := cfg.GetTocConfig()
	if err != nil {
		return err
	}

	bl := loader.NewBookLoader(c.Root, cfg, env.Log)
	book, err := bl.Load()
	if err != nil {
		return fmt.Errorf("failed to load book: %w", err)
	}

	if tocCfg.Supports(c.Renderer) {
		pipeline, err := newPipeline(cfg, tocCfg, env.Log)
		if err != nil {
			return err
		}
		if err := pipeline.Process(book); err != nil {
			return err
		}
	} else {
		env.Log.Info(ctx, "renderer not supported, copying chapters unchanged", slog.F("renderer", c.Renderer))
	}

	destDir := c.DestDir
	if destDir == "" {
		destDir = filepath.Join(c.Root, cfg.Build.BuildDir)
	}
	for _, protected := range []string{c.Root, bl.SrcDir()} {
		overlaps, err := utils.Within(destDir, protected)
		if err != nil {
			return err
		}
		if overlaps {
			return fmt.Errorf("destination '%s' holds '%s': %w", destDir, protected, ErrDestOverlap)
		}
	}
	if err := utils.PrepareOutputDir(destDir); err != nil {
		return err
	}

	if err := bl.Save(book, destDir); err != nil {
		return err
	}
	env.Log.Info(ctx, "book built", slog.F("title", cfg.Book.Title), slog.F("dest", destDir))
	return nil
}

// RenderCmd processes a single markdown file
type RenderCmd struct {
	File   string `arg:"" type:"existingfile" help:"Markdown file."`
	Output string `short:"o" help:"Write to this file instead of stdout."`
	Config string `short:"c" default:"book.toml" help:"Path to book.toml."`
}

// Run injects the table of contents into the file's content
func (c *RenderCmd) Run(env *Env) error {
	cfg, err := loadConfig(c.Config, env.Log)
	if err != nil {
		return err
	}
	tocCfg, err := cfg.GetTocConfig()
	if err != nil {
		return err
	}
	injector, err := newInjector(tocCfg)
	if err != nil {
		return err
	}

	content, err := utils.ReadSource(c.File)
	if err != nil {
		return err
	}
	if cfg.HasPreprocessor(frontmatter.Name) {
		_, content, _ = frontmatter.Split(content)
	}

	out, err := injector.Inject(content)
	if err != nil {
		return fmt.Errorf("%s: %w", c.File, err)
	}

	if c.Output == "" {
		_, err := fmt.Fprintln(env.Stdout, out)
		return err
	}
	return utils.WriteText(c.Output, out+"\n")
}

// Package cli implements the geopub-toc command line: the preprocessor
// protocol commands used by a host and offline commands for books and
// single files.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cdr.dev/slog"
	"cdr.dev/slog/sloggers/sloghuman"
	"github.com/alecthomas/kong"
)

// Name is the binary name
const Name = "geopub-toc"

// Version is reported by --version
var Version = "0.1.0"

// ErrUnsupported is returned by the supports command for a renderer the
// preprocessor does not run for
var ErrUnsupported = errors.New("renderer not supported")

// ErrDestOverlap is returned by build when emptying the destination would
// delete the book itself
var ErrDestOverlap = errors.New("destination overlaps the book")

// Globals are flags shared by every command
type Globals struct {
	Verbose bool             `short:"v" help:"Enable debug logging."`
	Version kong.VersionFlag `help:"Print the version and exit."`
}

// CLI is the command tree
type CLI struct {
	Globals

	Process  ProcessCmd  `cmd:"" default:"1" help:"Read a preprocessor context on stdin and write the processed context to stdout."`
	Supports SupportsCmd `cmd:"" help:"Exit with status 0 when the renderer is supported, 1 otherwise."`
	Build    BuildCmd    `cmd:"" help:"Load a book, inject tables of contents and write the chapters to the build directory."`
	Render   RenderCmd   `cmd:"" help:"Inject the table of contents into a single markdown file."`
}

// Env carries the process streams and logger into commands
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Log    slog.Logger
}

// App runs the command line against the given streams
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Exit   func(int)
}

// NewLogger returns a human readable logger writing to w
func NewLogger(w io.Writer, verbose bool) slog.Logger {
	log := slog.Make(sloghuman.Sink(w))
	if verbose {
		return log.Leveled(slog.LevelDebug)
	}
	return log
}

// Run parses args, runs the selected command and returns the exit status
func (a *App) Run(args []string) int {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name(Name),
		kong.Description("Injects a table of contents in place of <!-- toc --> in book chapters."),
		kong.Writers(a.Stdout, a.Stderr),
		kong.Exit(a.Exit),
		kong.Vars{"version": Version},
	)
	if err != nil {
		fmt.Fprintf(a.Stderr, "%s: %v\n", Name, err)
		return 2
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}

	log := NewLogger(a.Stderr, cli.Verbose)
	err = kctx.Run(&Env{Stdin: a.Stdin, Stdout: a.Stdout, Log: log})
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUnsupported):
		log.Debug(context.Background(), "unsupported renderer", slog.Error(err))
		return 1
	default:
		log.Error(context.Background(), "command failed",
			slog.F("command", kctx.Command()),
			slog.Error(err),
		)
		return 1
	}
}

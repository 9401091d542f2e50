package main

import (
	"os"

	"github.com/fatih/color"

	"github.com/geocine/geopub-toc/internal/cli"
)

func main() {
	app := &cli.App{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: color.Error,
		Exit:   os.Exit,
	}
	os.Exit(app.Run(os.Args[1:]))
}

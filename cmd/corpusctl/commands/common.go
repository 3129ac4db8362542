// Package commands defines the corpusctl CLI surface.
package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// Global carries state shared by all subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command with global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"corpus.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Render the corpus into a static HTML site"`
	Lint    LintCmd    `cmd:"" help:"Check corpus integrity rules (catalog, frontmatter, history)"`
	Check   CheckCmd   `cmd:"" name:"check-links" help:"Verify internal and external links of the rendered site"`
	Catalog CatalogCmd `cmd:"" help:"Inspect the protocol/project catalog"`
	Serve   ServeCmd   `cmd:"" help:"Serve the site with watch-rebuild and scheduled link checks"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; sets up logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

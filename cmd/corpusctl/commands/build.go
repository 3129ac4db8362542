package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/sansio/corpusctl/internal/config"
	"github.com/sansio/corpusctl/internal/render"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Output directory for the generated site (overrides config)"`
}

// Run renders the corpus.
func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}

	result, err := render.NewBuilder(cfg, nil).Build()
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	for _, issue := range result.Issues {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", issue.Source, issue.Message)
	}

	slog.Info("Build complete",
		"output", cfg.Output.Directory,
		"pages", len(result.Pages),
		"catalog_entries", result.Catalog.Len(),
		"digest", result.Manifest.SiteDigest)
	return nil
}

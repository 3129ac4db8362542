package commands

import (
	"fmt"
	"os"

	"github.com/sansio/corpusctl/internal/config"
	"github.com/sansio/corpusctl/internal/lint"
)

// LintCmd implements the 'lint' command.
type LintCmd struct {
	Format  string `short:"f" default:"text" help:"Output format" enum:"text,json"`
	Quiet   bool   `short:"q" help:"Only show errors, suppress warnings"`
	History bool   `help:"Also check append-only catalog growth against git history"`
}

// Run lints the corpus and exits non-zero on errors.
func (l *LintCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	linter := lint.NewLinter(&lint.Config{
		Quiet:   l.Quiet,
		Format:  l.Format,
		History: l.History,
	})

	result, err := linter.Lint(cfg.Corpus.Dir, cfg.Corpus.Index)
	if err != nil {
		return fmt.Errorf("linting failed: %w", err)
	}

	if err := lint.NewFormatter(l.Format).Format(os.Stdout, result); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if result.HasErrors() {
		return fmt.Errorf("%d error(s) found", result.ErrorCount())
	}
	return nil
}

package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/sansio/corpusctl/internal/catalog"
	"github.com/sansio/corpusctl/internal/config"
	"github.com/sansio/corpusctl/internal/frontmatter"
	"github.com/sansio/corpusctl/internal/history"
)

// CatalogCmd groups catalog inspection subcommands.
type CatalogCmd struct {
	List    CatalogListCmd    `cmd:"" default:"withargs" help:"List catalog entries from the index document"`
	Diff    CatalogDiffCmd    `cmd:"" help:"Compare the working catalog against its last committed revision"`
	History CatalogHistoryCmd `cmd:"" help:"Show catalog growth across git revisions of the index"`
}

// CatalogListCmd prints the current catalog.
type CatalogListCmd struct {
	Format string `short:"f" default:"text" help:"Output format" enum:"text,json"`
}

// Run lists the catalog entries.
func (c *CatalogListCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	if c.Format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cat.Entries)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROTOCOL\tPROJECT\tURL")
	for _, e := range cat.Entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Protocol, e.Project, e.URL)
	}
	return w.Flush()
}

// CatalogDiffCmd diffs the working-tree catalog against the most recent
// committed revision of the index document.
type CatalogDiffCmd struct{}

// Run prints added, superseded and removed entries, failing on removals.
func (c *CatalogDiffCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	current, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	previous := &catalog.Catalog{}
	revisions, err := history.Snapshots(cfg.Corpus.Dir, cfg.Corpus.Index)
	switch {
	case errors.Is(err, history.ErrNotARepository):
		// Nothing committed yet; everything counts as added.
	case err != nil:
		return err
	case len(revisions) > 0:
		previous = revisions[len(revisions)-1].Catalog
	}

	changes := catalog.Diff(previous, current)
	for _, e := range changes.Added {
		fmt.Printf("added: %s (%s)\n", e.Protocol, e.Project)
	}
	for _, s := range changes.Superseded {
		fmt.Printf("superseded: %s: %s is now %s\n", s.Old.Protocol, s.Old.Project, s.New.Project)
	}
	for _, e := range changes.Removed {
		fmt.Fprintf(os.Stderr, "removed: %s (%s)\n", e.Protocol, e.Project)
	}
	if len(changes.Added)+len(changes.Superseded)+len(changes.Removed) == 0 {
		fmt.Println("catalog unchanged")
	}

	if !changes.IsAppendOnly() {
		return fmt.Errorf("%d entries removed; catalog entries may only be appended or superseded", len(changes.Removed))
	}
	return nil
}

// CatalogHistoryCmd walks the index document's git history.
type CatalogHistoryCmd struct {
	Strict bool `help:"Exit non-zero if any revision removed entries"`
}

// Run prints per-revision catalog sizes and any append-only regressions.
func (c *CatalogHistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	revisions, err := history.Snapshots(cfg.Corpus.Dir, cfg.Corpus.Index)
	if err != nil {
		return err
	}
	if len(revisions) == 0 {
		fmt.Println("no revisions of the index document found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REVISION\tDATE\tENTRIES")
	for _, rev := range revisions {
		fmt.Fprintf(w, "%.8s\t%s\t%d\n", rev.Hash, rev.When.Format("2006-01-02"), rev.Catalog.Len())
	}
	if err := w.Flush(); err != nil {
		return err
	}

	regressions := history.CheckMonotonic(revisions)
	for _, reg := range regressions {
		for _, removed := range reg.Removed {
			fmt.Fprintf(os.Stderr, "regression: %q removed in %.8s\n", removed.Protocol, reg.ToHash)
		}
	}
	if c.Strict && len(regressions) > 0 {
		return fmt.Errorf("%d regression(s): catalog entries were removed", len(regressions))
	}
	return nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	raw, err := os.ReadFile(filepath.Join(cfg.Corpus.Dir, cfg.Corpus.Index))
	if err != nil {
		return nil, fmt.Errorf("read index document: %w", err)
	}
	doc, err := frontmatter.Split(raw)
	if err != nil {
		return catalog.Extract(raw), nil
	}
	return catalog.Extract(doc.Body), nil
}

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sansio/corpusctl/internal/config"
	"github.com/sansio/corpusctl/internal/linkcheck"
)

// CheckCmd implements the 'check-links' command.
type CheckCmd struct {
	Site         string `short:"s" help:"Rendered site directory (defaults to the configured output)"`
	ExternalOnly bool   `help:"Skip internal link resolution, only verify external URLs"`
	NoCache      bool   `help:"Ignore and bypass the verification result cache"`
}

// Run verifies all links of the rendered site.
func (c *CheckCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	siteDir := c.Site
	if siteDir == "" {
		siteDir = cfg.Output.Directory
	}
	if _, err := os.Stat(siteDir); err != nil {
		return fmt.Errorf("site directory %s not found; run 'corpusctl build' first", siteDir)
	}

	checkCfg := cfg.LinkCheck
	checkCfg.Enabled = true
	if c.ExternalOnly {
		checkCfg.ExternalOnly = true
	}

	var cache *linkcheck.Cache
	if !c.NoCache {
		ttl, err := time.ParseDuration(checkCfg.CacheTTL)
		if err != nil {
			ttl = 24 * time.Hour
		}
		cache, err = linkcheck.OpenCache(cachePath(cfg), ttl)
		if err != nil {
			return err
		}
		defer cache.Close()
	}

	publisher, err := linkcheck.NewNATSPublisher(checkCfg.NATSURL, checkCfg.NATSSubject)
	if err != nil {
		return err
	}
	defer publisher.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := linkcheck.NewService(&checkCfg, cache, publisher, nil)
	report, err := svc.CheckSite(ctx, siteDir, cfg.Site.BaseURL)
	if err != nil {
		return fmt.Errorf("link check failed: %w", err)
	}

	for _, broken := range report.Broken {
		fmt.Fprintf(os.Stderr, "BROKEN: %s -> %s (%s)\n", broken.Page, broken.Link.URL, broken.Err)
	}
	fmt.Printf("%d pages, %d links checked, %d broken, %d skipped\n",
		report.Pages, report.Checked, len(report.Broken), report.Skipped)

	if report.HasBroken() {
		return fmt.Errorf("%d broken link(s)", len(report.Broken))
	}
	return nil
}

// cachePath is the shared sqlite file for link results and run records.
// It lives outside the output directory, which clean builds wipe.
func cachePath(cfg *config.Config) string {
	if cfg.Store.Path != "" {
		return cfg.Store.Path
	}
	return "corpusctl.db"
}

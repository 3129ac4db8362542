package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/sansio/corpusctl/internal/config"
	"github.com/sansio/corpusctl/internal/linkcheck"
	"github.com/sansio/corpusctl/internal/metrics"
	"github.com/sansio/corpusctl/internal/render"
	"github.com/sansio/corpusctl/internal/server"
	"github.com/sansio/corpusctl/internal/store"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Port int `short:"p" help:"Server port (overrides config)"`
}

// Run serves the rendered site with watch-rebuild until interrupted.
func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if s.Port != 0 {
		cfg.Serve.Port = s.Port
	}

	recorder := metrics.NewPrometheusRecorder(nil)
	builder := render.NewBuilder(cfg, recorder)

	var checker *linkcheck.Service
	if cfg.LinkCheck.Enabled {
		ttl, err := time.ParseDuration(cfg.LinkCheck.CacheTTL)
		if err != nil {
			ttl = 24 * time.Hour
		}
		cache, err := linkcheck.OpenCache(cachePath(cfg), ttl)
		if err != nil {
			return err
		}
		defer cache.Close()

		publisher, err := linkcheck.NewNATSPublisher(cfg.LinkCheck.NATSURL, cfg.LinkCheck.NATSSubject)
		if err != nil {
			return err
		}
		defer publisher.Close()

		checker = linkcheck.NewService(&cfg.LinkCheck, cache, publisher, recorder)
	}

	records, err := store.NewSQLiteStore(cachePath(cfg))
	if err != nil {
		return err
	}
	defer records.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return server.New(cfg, builder, checker, recorder, records).Run(ctx)
}

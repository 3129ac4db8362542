// Package server is the live preview surface: it serves the rendered site,
// rebuilds on corpus changes, and runs scheduled link checks.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"github.com/sansio/corpusctl/internal/config"
	"github.com/sansio/corpusctl/internal/linkcheck"
	"github.com/sansio/corpusctl/internal/metrics"
	"github.com/sansio/corpusctl/internal/render"
	"github.com/sansio/corpusctl/internal/store"
)

// rebuildDebounce coalesces bursts of filesystem events into one rebuild.
const rebuildDebounce = 300 * time.Millisecond

// Server serves the rendered site with watch-rebuild and scheduled checks.
type Server struct {
	cfg      *config.Config
	builder  *render.Builder
	checker  *linkcheck.Service          // nil disables scheduled link checks
	recorder *metrics.PrometheusRecorder // nil disables /metrics
	records  store.Store                 // nil disables run persistence

	mu        sync.RWMutex
	lastBuild *render.Result
}

// New assembles a preview server. checker, recorder and records are optional.
func New(cfg *config.Config, builder *render.Builder, checker *linkcheck.Service, recorder *metrics.PrometheusRecorder, records store.Store) *Server {
	return &Server{
		cfg:      cfg,
		builder:  builder,
		checker:  checker,
		recorder: recorder,
		records:  records,
	}
}

// Run builds once, then serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.rebuild(ctx); err != nil {
		return fmt.Errorf("initial build: %w", err)
	}

	watcher, err := s.watchCorpus(ctx)
	if err != nil {
		return err
	}
	defer watcher.Close()

	scheduler, err := s.scheduleChecks(ctx)
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer func() { _ = scheduler.Shutdown() }()
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Serve.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Preview server listening", "port", s.cfg.Serve.Port, "site", s.cfg.Output.Directory)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// Handler returns the HTTP routes: the site tree, /healthz, and /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.recorder != nil && s.cfg.Serve.MetricsEnabled {
		mux.Handle("/metrics", s.recorder.Handler())
	}
	mux.Handle("/", http.FileServer(http.Dir(s.cfg.Output.Directory)))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	last := s.lastBuild
	s.mu.RUnlock()

	status := map[string]any{"status": "ok"}
	if last != nil {
		status["site_digest"] = last.Manifest.SiteDigest
		status["pages"] = len(last.Pages)
		status["catalog_entries"] = last.Catalog.Len()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

// rebuild runs a site build and records the outcome.
func (s *Server) rebuild(ctx context.Context) error {
	result, err := s.builder.Build()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.lastBuild = result
	s.mu.Unlock()

	if s.records != nil {
		payload, err := json.Marshal(result.Manifest)
		if err == nil {
			err = s.records.Append(ctx, result.Manifest.ID, store.KindBuild, payload,
				map[string]string{"digest": result.Manifest.SiteDigest})
		}
		if err != nil {
			slog.Warn("Failed to persist build record", "error", err)
		}
	}
	return nil
}

// watchCorpus rebuilds when corpus files change, debounced.
func (s *Server) watchCorpus(ctx context.Context) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create corpus watcher: %w", err)
	}

	if err := watchTree(watcher, s.cfg.Corpus.Dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch corpus: %w", err)
	}

	go func() {
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				// New subdirectories must be watched too, or files created
				// inside them never trigger a rebuild.
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if err := watchTree(watcher, event.Name); err != nil {
							slog.Warn("Failed to watch new corpus directory", "dir", event.Name, "error", err)
						}
					}
				}
				slog.Debug("Corpus change detected", "file", event.Name, "op", event.Op.String())
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(rebuildDebounce, func() {
					if err := s.rebuild(ctx); err != nil {
						slog.Error("Rebuild after corpus change failed", "error", err)
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("Corpus watcher error", "error", err)
			}
		}
	}()

	return watcher, nil
}

// watchTree registers root and every directory below it, skipping .git.
func watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return fs.SkipDir
		}
		return watcher.Add(path)
	})
}

// scheduleChecks runs periodic link checks against the rendered site.
func (s *Server) scheduleChecks(ctx context.Context) (gocron.Scheduler, error) {
	if s.checker == nil {
		return nil, nil
	}

	interval, err := time.ParseDuration(s.cfg.Serve.CheckSchedule)
	if err != nil {
		return nil, fmt.Errorf("invalid check schedule %q: %w", s.cfg.Serve.CheckSchedule, err)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create check scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { s.runCheck(ctx) }),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("schedule link check: %w", err)
	}

	scheduler.Start()
	slog.Info("Scheduled periodic link checks", "interval", interval)
	return scheduler, nil
}

func (s *Server) runCheck(ctx context.Context) {
	report, err := s.checker.CheckSite(ctx, s.cfg.Output.Directory, s.cfg.Site.BaseURL)
	if err != nil {
		slog.Error("Scheduled link check failed", "error", err)
		return
	}
	if report.HasBroken() {
		slog.Warn("Scheduled link check found broken links", "broken", len(report.Broken))
	}

	if s.records != nil {
		payload, err := json.Marshal(report)
		if err == nil {
			err = s.records.Append(ctx, report.RunID, store.KindLinkCheck, payload, nil)
		}
		if err != nil {
			slog.Warn("Failed to persist link check record", "error", err)
		}
	}
}

// LatestBuild exposes the last build result, for handlers and tests.
func (s *Server) LatestBuild() *render.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastBuild
}

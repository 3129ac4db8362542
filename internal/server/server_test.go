package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sansio/corpusctl/internal/config"
	"github.com/sansio/corpusctl/internal/metrics"
	"github.com/sansio/corpusctl/internal/render"
	"github.com/sansio/corpusctl/internal/store"
)

func serverFixture(t *testing.T) (*Server, *config.Config, *store.SQLiteStore) {
	t.Helper()
	corpus := t.TempDir()
	index := `---
title: Implementations
---
# Implementations

| Protocol | Project |
| -------- | ------- |
| HTTP/1.1 | [h11](https://example.com/h11) |
`
	require.NoError(t, os.WriteFile(filepath.Join(corpus, "implementations.md"), []byte(index), 0o644))

	cfg := &config.Config{
		Corpus: config.CorpusConfig{Dir: corpus, Index: "implementations.md"},
		Site:   config.SiteConfig{Title: "Sans I/O"},
		Output: config.OutputConfig{Directory: filepath.Join(t.TempDir(), "site"), Clean: true},
		Serve:  config.ServeConfig{Port: 0, MetricsEnabled: true, CheckSchedule: "1h"},
	}

	records, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = records.Close() })

	recorder := metrics.NewPrometheusRecorder(nil)
	srv := New(cfg, render.NewBuilder(cfg, recorder), nil, recorder, records)
	return srv, cfg, records
}

func TestHandler_ServesRenderedSite(t *testing.T) {
	srv, _, _ := serverFixture(t)
	require.NoError(t, srv.rebuild(context.Background()))

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/implementations.html")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandler_HealthzReportsLastBuild(t *testing.T) {
	srv, _, _ := serverFixture(t)
	require.NoError(t, srv.rebuild(context.Background()))

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	var status map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	require.Equal(t, "ok", status["status"])
	require.Equal(t, float64(1), status["pages"])
	require.Equal(t, float64(1), status["catalog_entries"])
	require.NotEmpty(t, status["site_digest"])
}

func TestHandler_MetricsExposed(t *testing.T) {
	srv, _, _ := serverFixture(t)
	require.NoError(t, srv.rebuild(context.Background()))

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWatchCorpus_RebuildsForFilesInNewDirectories(t *testing.T) {
	srv, cfg, _ := serverFixture(t)
	require.NoError(t, srv.rebuild(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher, err := srv.watchCorpus(ctx)
	require.NoError(t, err)
	defer watcher.Close()

	sub := filepath.Join(cfg.Corpus.Dir, "guides")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "extra.md"), []byte("# Extra\n"), 0o644))

	require.Eventually(t, func() bool {
		last := srv.LatestBuild()
		return last != nil && len(last.Pages) == 2
	}, 5*time.Second, 50*time.Millisecond, "rebuild must pick up files in newly created directories")
}

func TestRebuild_PersistsBuildRecord(t *testing.T) {
	srv, _, records := serverFixture(t)
	require.NoError(t, srv.rebuild(context.Background()))

	last := srv.LatestBuild()
	require.NotNil(t, last)

	stored, err := records.ByRun(context.Background(), last.Manifest.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, store.KindBuild, stored[0].Kind)
	require.Equal(t, last.Manifest.SiteDigest, stored[0].Metadata["digest"])
}

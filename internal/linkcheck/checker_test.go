package linkcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sansio/corpusctl/internal/config"
)

func checkConfig() *config.LinkCheckConfig {
	return &config.LinkCheckConfig{
		Enabled:        true,
		MaxConcurrent:  4,
		RequestTimeout: "5s",
		MaxRedirects:   3,
	}
}

func writeSite(t *testing.T, pages map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range pages {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return dir
}

func TestCheckSite_InternalLinksResolve(t *testing.T) {
	site := writeSite(t, map[string]string{
		"index.html": `<a href="essay.html">essay</a> <a href="essay.html#intro">intro</a>`,
		"essay.html": `<h1 id="intro">Intro</h1> <a href="index.html">home</a>`,
	})

	svc := NewService(checkConfig(), nil, nil, nil)
	report, err := svc.CheckSite(context.Background(), site, "https://sans-io.example")
	require.NoError(t, err)
	require.False(t, report.HasBroken())
	require.Equal(t, 3, report.Checked)
}

func TestCheckSite_MissingTargetAndAnchorAreBroken(t *testing.T) {
	site := writeSite(t, map[string]string{
		"index.html": `<a href="gone.html">gone</a> <a href="essay.html#absent">absent anchor</a>`,
		"essay.html": `<h1 id="intro">Intro</h1>`,
	})

	svc := NewService(checkConfig(), nil, nil, nil)
	report, err := svc.CheckSite(context.Background(), site, "https://sans-io.example")
	require.NoError(t, err)
	require.Len(t, report.Broken, 2)
	require.Equal(t, "essay.html#absent", report.Broken[0].Link.URL)
	require.Contains(t, report.Broken[0].Err, "anchor #absent")
	require.Equal(t, "gone.html", report.Broken[1].Link.URL)
}

func TestCheckSite_ExternalLinksVerifiedOverHTTP(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer upstream.Close()

	site := writeSite(t, map[string]string{
		"index.html": `<a href="` + upstream.URL + `/ok">good</a> <a href="` + upstream.URL + `/missing">bad</a>`,
	})

	svc := NewService(checkConfig(), nil, nil, nil)
	report, err := svc.CheckSite(context.Background(), site, "https://sans-io.example")
	require.NoError(t, err)
	require.Len(t, report.Broken, 1)
	require.Equal(t, upstream.URL+"/missing", report.Broken[0].Link.URL)
	require.Equal(t, http.StatusNotFound, report.Broken[0].Status)
}

func TestCheckSite_HEADRejectedFallsBackToGET(t *testing.T) {
	var sawGet bool
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		sawGet = true
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	site := writeSite(t, map[string]string{
		"index.html": `<a href="` + upstream.URL + `/page">page</a>`,
	})

	svc := NewService(checkConfig(), nil, nil, nil)
	report, err := svc.CheckSite(context.Background(), site, "https://sans-io.example")
	require.NoError(t, err)
	require.False(t, report.HasBroken())
	require.True(t, sawGet)
}

func TestCheckSite_CacheSkipsRepeatRequests(t *testing.T) {
	var hits int
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	site := writeSite(t, map[string]string{
		"index.html": `<a href="` + upstream.URL + `/doc">doc</a>`,
	})

	cache, err := OpenCache(":memory:", time.Hour)
	require.NoError(t, err)
	defer cache.Close()

	svc := NewService(checkConfig(), cache, nil, nil)

	first, err := svc.CheckSite(context.Background(), site, "https://sans-io.example")
	require.NoError(t, err)
	require.Equal(t, 0, first.Cached)
	firstHits := hits

	report, err := svc.CheckSite(context.Background(), site, "https://sans-io.example")
	require.NoError(t, err)
	require.False(t, report.HasBroken())
	require.Equal(t, firstHits, hits, "second run must be served from cache")
	require.Equal(t, 1, report.Cached)
	require.Equal(t, 1, report.Checked)
}

func TestCheckSite_ExternalOnlySkipsInternal(t *testing.T) {
	site := writeSite(t, map[string]string{
		"index.html": `<a href="gone.html">would be broken</a>`,
	})

	cfg := checkConfig()
	cfg.ExternalOnly = true
	svc := NewService(cfg, nil, nil, nil)

	report, err := svc.CheckSite(context.Background(), site, "https://sans-io.example")
	require.NoError(t, err)
	require.False(t, report.HasBroken())
	require.Equal(t, 1, report.Skipped)
}

func TestCheckSite_PublishesBrokenLinkEvents(t *testing.T) {
	site := writeSite(t, map[string]string{
		"index.html": `<a href="gone.html">gone</a>`,
	})

	pub := &capturePublisher{}
	svc := NewService(checkConfig(), nil, pub, nil)

	report, err := svc.CheckSite(context.Background(), site, "https://sans-io.example")
	require.NoError(t, err)
	require.Len(t, pub.events, 1)
	require.Equal(t, "gone.html", pub.events[0].URL)
	require.Equal(t, report.RunID, pub.events[0].RunID)
	require.True(t, pub.events[0].IsInternal)
}

type capturePublisher struct {
	events []*BrokenLinkEvent
}

func (c *capturePublisher) PublishBrokenLink(e *BrokenLinkEvent) error {
	c.events = append(c.events, e)
	return nil
}

func (c *capturePublisher) Close() {}

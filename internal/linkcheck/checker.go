package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sansio/corpusctl/internal/config"
	"github.com/sansio/corpusctl/internal/metrics"
)

// Broken is a link that failed verification, with its source page.
type Broken struct {
	Link   Link
	Page   string // rendered page path relative to the site dir
	Status int
	Err    string
}

// Report summarizes one check run.
type Report struct {
	RunID    string
	Pages    int
	Checked  int
	Cached   int
	Skipped  int
	Broken   []Broken
	Duration time.Duration
}

// HasBroken reports whether any link failed.
func (r *Report) HasBroken() bool { return len(r.Broken) > 0 }

// Service verifies the links of a rendered site.
type Service struct {
	cfg        *config.LinkCheckConfig
	httpClient *http.Client
	cache      *Cache    // nil disables caching
	publisher  Publisher // nil disables event publication
	recorder   metrics.Recorder

	mu      sync.Mutex
	running bool
}

// NewService builds a Service from configuration. cache and publisher are
// optional collaborators.
func NewService(cfg *config.LinkCheckConfig, cache *Cache, publisher Publisher, recorder metrics.Recorder) *Service {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	timeout, err := time.ParseDuration(cfg.RequestTimeout)
	if err != nil {
		timeout = 10 * time.Second
	}

	// Respects HTTP_PROXY / HTTPS_PROXY / NO_PROXY from the environment.
	transport := http.DefaultTransport.(*http.Transport).Clone()

	client := &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if !cfg.FollowRedirects {
				return http.ErrUseLastResponse
			}
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		},
	}

	return &Service{
		cfg:        cfg,
		httpClient: client,
		cache:      cache,
		publisher:  publisher,
		recorder:   recorder,
	}
}

// CheckSite verifies every link in the rendered site rooted at siteDir.
// Internal links are resolved against the site tree (including anchors);
// external links are verified over HTTP with bounded concurrency.
func (s *Service) CheckSite(ctx context.Context, siteDir, baseURL string) (*Report, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, errors.New("link check already running")
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := time.Now()
	report := &Report{RunID: uuid.NewString()}

	pages, err := listPages(siteDir)
	if err != nil {
		return nil, err
	}
	report.Pages = len(pages)

	slog.Info("Starting link check", "run_id", report.RunID, "pages", len(pages))

	anchors := newAnchorIndex(siteDir)

	type pending struct {
		link Link
		page string
	}
	var external []pending

	for _, page := range pages {
		links, err := ExtractLinks(filepath.Join(siteDir, page), baseURL)
		if err != nil {
			slog.Warn("Failed to extract links from page", "page", page, "error", err)
			continue
		}
		for _, link := range links {
			if !ShouldVerify(link) {
				report.Skipped++
				s.recorder.IncLinksChecked(metrics.ResultSkipped)
				continue
			}
			if link.IsInternal {
				if s.cfg.ExternalOnly {
					report.Skipped++
					s.recorder.IncLinksChecked(metrics.ResultSkipped)
					continue
				}
				report.Checked++
				if broken, reason := s.checkInternal(siteDir, page, link, baseURL, anchors); broken {
					s.addBroken(report, Broken{Link: link, Page: page, Err: reason})
				} else {
					s.recorder.IncLinksChecked(metrics.ResultOK)
				}
				continue
			}
			external = append(external, pending{link: link, page: page})
		}
	}

	// External verification, bounded.
	sem := make(chan struct{}, s.cfg.MaxConcurrent)
	var wg sync.WaitGroup
	var extMu sync.Mutex

	for _, p := range external {
		select {
		case <-ctx.Done():
			wg.Wait()
			return report, ctx.Err()
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(p pending) {
			defer wg.Done()
			defer func() { <-sem }()

			status, cached, err := s.verifyExternal(ctx, p.link.URL)
			extMu.Lock()
			defer extMu.Unlock()
			report.Checked++
			if cached {
				report.Cached++
			}
			if err != nil {
				s.addBroken(report, Broken{Link: p.link, Page: p.page, Status: status, Err: err.Error()})
			} else {
				s.recorder.IncLinksChecked(metrics.ResultOK)
			}
		}(p)
	}
	wg.Wait()

	report.Duration = time.Since(start)
	sort.Slice(report.Broken, func(i, j int) bool {
		if report.Broken[i].Page != report.Broken[j].Page {
			return report.Broken[i].Page < report.Broken[j].Page
		}
		return report.Broken[i].Link.URL < report.Broken[j].Link.URL
	})

	s.recorder.SetBrokenLinks(len(report.Broken))
	s.recorder.ObserveCheckDuration(report.Duration)

	slog.Info("Link check completed",
		"run_id", report.RunID,
		"checked", report.Checked,
		"broken", len(report.Broken),
		"cached", report.Cached,
		"duration", report.Duration)
	return report, nil
}

func (s *Service) addBroken(report *Report, b Broken) {
	report.Broken = append(report.Broken, b)
	s.recorder.IncLinksChecked(metrics.ResultBroken)

	if s.publisher != nil {
		event := &BrokenLinkEvent{
			URL:        b.Link.URL,
			Status:     b.Status,
			Error:      b.Err,
			IsInternal: b.Link.IsInternal,
			SourcePage: b.Page,
			LinkText:   b.Link.Text,
			RunID:      report.RunID,
			Timestamp:  time.Now().UTC(),
		}
		if err := s.publisher.PublishBrokenLink(event); err != nil {
			slog.Warn("Failed to publish broken-link event", "url", b.Link.URL, "error", err)
		}
	}
}

// checkInternal resolves an internal link against the site tree.
func (s *Service) checkInternal(siteDir, page string, link Link, baseURL string, anchors *anchorIndex) (broken bool, reason string) {
	target := link.URL

	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		if parsed, err := url.Parse(target); err == nil && parsed.Host == u.Host {
			target = parsed.Path
			if parsed.Fragment != "" {
				target += "#" + parsed.Fragment
			}
		}
	}

	pathPart, fragment, _ := strings.Cut(target, "#")

	rel := pathPart
	switch {
	case pathPart == "":
		rel = page // fragment-only after host strip
	case path.IsAbs(pathPart):
		rel = strings.TrimPrefix(pathPart, "/")
	default:
		rel = path.Join(path.Dir(page), pathPart)
	}
	if rel == "" || strings.HasSuffix(rel, "/") {
		rel = path.Join(rel, "index.html")
	}

	full := filepath.Join(siteDir, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil {
		return true, fmt.Sprintf("target %s does not exist in site", rel)
	}
	if info.IsDir() {
		rel = path.Join(rel, "index.html")
		if _, err := os.Stat(filepath.Join(siteDir, filepath.FromSlash(rel))); err != nil {
			return true, fmt.Sprintf("directory target %s has no index page", rel)
		}
	}

	if fragment != "" && strings.HasSuffix(rel, ".html") {
		ok, err := anchors.has(rel, fragment)
		if err != nil {
			return true, fmt.Sprintf("cannot inspect anchors of %s: %v", rel, err)
		}
		if !ok {
			return true, fmt.Sprintf("anchor #%s not found in %s", fragment, rel)
		}
	}
	return false, ""
}

// verifyExternal checks a URL over HTTP, consulting the cache first. The
// second return reports whether the result came from the cache. HEAD is tried
// before GET since some servers reject HEAD.
func (s *Service) verifyExternal(ctx context.Context, target string) (int, bool, error) {
	if s.cache != nil {
		if entry, err := s.cache.Get(ctx, target); err == nil && s.cache.Fresh(entry) {
			s.recorder.IncLinksChecked(metrics.ResultCached)
			if entry.OK {
				return entry.Status, true, nil
			}
			return entry.Status, true, errors.New(entry.Error)
		}
	}

	status, err := s.request(ctx, http.MethodHead, target)
	if err != nil || status == http.StatusMethodNotAllowed || status == http.StatusForbidden {
		status, err = s.request(ctx, http.MethodGet, target)
	}

	var checkErr error
	switch {
	case err != nil:
		checkErr = err
	case status >= 400:
		checkErr = fmt.Errorf("HTTP %d", status)
	}

	if s.cache != nil {
		entry := &CacheEntry{URL: target, Status: status, OK: checkErr == nil, CheckedAt: time.Now()}
		if checkErr != nil {
			entry.Error = checkErr.Error()
		}
		if err := s.cache.Put(ctx, entry); err != nil {
			slog.Warn("Failed to cache link result", "url", target, "error", err)
		}
	}
	return status, false, checkErr
}

func (s *Service) request(ctx context.Context, method, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "corpusctl-linkcheck/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	return resp.StatusCode, nil
}

// listPages returns HTML files under siteDir, sorted, relative slash paths.
func listPages(siteDir string) ([]string, error) {
	var pages []string
	err := filepath.WalkDir(siteDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(d.Name()) != ".html" {
			return nil
		}
		rel, err := filepath.Rel(siteDir, p)
		if err != nil {
			return err
		}
		pages = append(pages, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list rendered pages: %w", err)
	}
	sort.Strings(pages)
	return pages, nil
}

// anchorIndex lazily parses rendered pages for their element ids.
type anchorIndex struct {
	siteDir string
	mu      sync.Mutex
	pages   map[string]map[string]struct{}
}

func newAnchorIndex(siteDir string) *anchorIndex {
	return &anchorIndex{siteDir: siteDir, pages: map[string]map[string]struct{}{}}
}

func (a *anchorIndex) has(page, fragment string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	anchors, ok := a.pages[page]
	if !ok {
		f, err := os.Open(filepath.Join(a.siteDir, filepath.FromSlash(page)))
		if err != nil {
			return false, err
		}
		defer f.Close()
		anchors, err = ExtractAnchors(f)
		if err != nil {
			return false, err
		}
		a.pages[page] = anchors
	}
	_, found := anchors[fragment]
	return found, nil
}

// Package render turns the markdown corpus into a static HTML site.
//
// Rendering is a single synchronous pass and byte-stable: the same source
// bytes always produce the same output bytes, which the build manifest's
// site digest makes checkable.
package render

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark/parser"

	"github.com/sansio/corpusctl/internal/catalog"
	"github.com/sansio/corpusctl/internal/config"
	"github.com/sansio/corpusctl/internal/frontmatter"
	"github.com/sansio/corpusctl/internal/manifest"
	"github.com/sansio/corpusctl/internal/markdown"
	"github.com/sansio/corpusctl/internal/metrics"
)

// Page is one rendered corpus document.
type Page struct {
	Source  string // path relative to the corpus dir
	Output  string // path relative to the output dir
	Title   string
	HTML    []byte
	IsIndex bool
}

// Issue is a per-file problem that did not abort the build.
type Issue struct {
	Source  string
	Message string
}

// Result is the outcome of a site build.
type Result struct {
	Pages    []Page
	Catalog  *catalog.Catalog
	Manifest *manifest.Manifest
	Issues   []Issue
}

// Builder renders a corpus directory into a site directory.
type Builder struct {
	cfg      *config.Config
	recorder metrics.Recorder
}

// NewBuilder creates a Builder. A nil recorder falls back to the noop recorder.
func NewBuilder(cfg *config.Config, recorder metrics.Recorder) *Builder {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Builder{cfg: cfg, recorder: recorder}
}

// Build renders every markdown file under the corpus dir into the output dir,
// extracts the catalog from the index document, and writes the build manifest.
func (b *Builder) Build() (*Result, error) {
	start := time.Now()

	sources, err := b.discover()
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no markdown files under %s", b.cfg.Corpus.Dir)
	}

	if b.cfg.Output.Clean {
		if err := os.RemoveAll(b.cfg.Output.Directory); err != nil {
			return nil, fmt.Errorf("clean output directory: %w", err)
		}
	}
	if err := os.MkdirAll(b.cfg.Output.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	result := &Result{Manifest: manifest.New()}

	// First pass: parse everything so navigation covers the full corpus.
	type parsed struct {
		rel   string
		doc   *frontmatter.Document
		title string
	}
	var docs []parsed
	for _, rel := range sources {
		raw, err := os.ReadFile(filepath.Join(b.cfg.Corpus.Dir, rel))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}
		result.Manifest.AddInput(rel, raw)

		doc, err := frontmatter.Split(raw)
		if err != nil {
			// Malformed frontmatter degrades to a reported issue; the body
			// is still rendered as-is.
			result.Issues = append(result.Issues, Issue{Source: rel, Message: err.Error()})
			doc = &frontmatter.Document{Body: raw}
		}
		docs = append(docs, parsed{rel: rel, doc: doc, title: pageTitle(doc, rel)})
	}

	nav := make([]navItem, 0, len(docs))
	for _, d := range docs {
		nav = append(nav, navItem{Title: d.title, Href: outputPath(d.rel)})
	}

	for _, d := range docs {
		page, err := b.renderPage(d.rel, d.title, d.doc, nav)
		if err != nil {
			return nil, err
		}
		if page.IsIndex {
			result.Catalog = catalog.Extract(d.doc.Body)
		}
		if err := writeFileAtomic(filepath.Join(b.cfg.Output.Directory, page.Output), page.HTML); err != nil {
			return nil, err
		}
		result.Manifest.AddOutput(page.Output, page.HTML)
		result.Pages = append(result.Pages, page)
	}

	if result.Catalog == nil {
		result.Catalog = &catalog.Catalog{}
		result.Issues = append(result.Issues, Issue{
			Source:  b.cfg.Corpus.Index,
			Message: "index document not found; catalog is empty",
		})
	}

	result.Manifest.CatalogSize = result.Catalog.Len()
	result.Manifest.Seal()
	if err := result.Manifest.Save(b.cfg.Output.Directory); err != nil {
		return nil, err
	}

	b.recorder.ObserveBuildDuration(time.Since(start))
	b.recorder.SetPagesRendered(len(result.Pages))
	b.recorder.SetCatalogSize(result.Catalog.Len())

	slog.Info("Site build completed",
		"pages", len(result.Pages),
		"catalog_entries", result.Catalog.Len(),
		"issues", len(result.Issues),
		"digest", result.Manifest.SiteDigest[:12])
	return result, nil
}

// renderPage converts one document body to HTML inside the page shell.
func (b *Builder) renderPage(rel, title string, doc *frontmatter.Document, nav []navItem) (Page, error) {
	var body bytes.Buffer
	ctx := parser.NewContext(parser.WithIDs(newSlugIDs()))
	if err := markdown.Renderer().Convert(doc.Body, &body, parser.WithContext(ctx)); err != nil {
		return Page{}, fmt.Errorf("render %s: %w", rel, err)
	}

	data := pageData{
		Title:       title,
		SiteTitle:   b.cfg.Site.Title,
		Description: b.cfg.Site.Description,
		Nav:         nav,
		Body:        bodyHTML(body.Bytes()),
	}

	var out bytes.Buffer
	if err := pageTemplate.Execute(&out, data); err != nil {
		return Page{}, fmt.Errorf("execute page template for %s: %w", rel, err)
	}

	return Page{
		Source:  rel,
		Output:  outputPath(rel),
		Title:   title,
		HTML:    out.Bytes(),
		IsIndex: rel == b.cfg.Corpus.Index,
	}, nil
}

// discover lists markdown files under the corpus dir, sorted for stable
// ordering. Hidden directories and non-markdown files are skipped.
func (b *Builder) discover() ([]string, error) {
	var sources []string
	err := filepath.WalkDir(b.cfg.Corpus.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != b.cfg.Corpus.Dir {
				return fs.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(d.Name())
		if ext != ".md" && ext != ".markdown" {
			return nil
		}
		rel, err := filepath.Rel(b.cfg.Corpus.Dir, path)
		if err != nil {
			return err
		}
		sources = append(sources, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover corpus: %w", err)
	}
	sort.Strings(sources)
	return sources, nil
}

// outputPath maps a markdown source path to its rendered path.
func outputPath(rel string) string {
	ext := filepath.Ext(rel)
	return strings.TrimSuffix(rel, ext) + ".html"
}

// pageTitle prefers frontmatter, then the first heading, then the filename.
func pageTitle(doc *frontmatter.Document, rel string) string {
	if t := doc.Title(); t != "" {
		return t
	}
	if headings := markdown.ExtractHeadings(doc.Body); len(headings) > 0 {
		return headings[0].Text
	}
	base := filepath.Base(rel)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func writeFileAtomic(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create page directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit page: %w", err)
	}
	return nil
}

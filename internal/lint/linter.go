package lint

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Linter runs the corpus integrity rules.
type Linter struct {
	cfg *Config
}

// NewLinter creates a linter with the given configuration.
func NewLinter(cfg *Config) *Linter {
	if cfg == nil {
		cfg = &Config{Format: "text"}
	}
	return &Linter{cfg: cfg}
}

// ruleSet builds the rule registry for one run. The catalog and history rules
// are bound to the index document.
func (l *Linter) ruleSet(corpusDir, indexRel string) []Rule {
	rules := []Rule{
		FrontmatterRule{},
		CatalogRule{IndexRel: indexRel},
	}
	if l.cfg.History {
		rules = append(rules, HistoryRule{CorpusDir: corpusDir, IndexRel: indexRel})
	}
	return rules
}

// Lint applies every applicable rule to every markdown file under corpusDir.
// indexRel (relative to corpusDir) names the catalog index document.
func (l *Linter) Lint(corpusDir, indexRel string) (*Result, error) {
	result := &Result{Issues: []Issue{}}
	rules := l.ruleSet(corpusDir, indexRel)

	files, err := listMarkdown(corpusDir)
	if err != nil {
		return nil, err
	}

	indexSeen := false
	for _, rel := range files {
		raw, err := os.ReadFile(filepath.Join(corpusDir, rel))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}
		result.FilesTotal++
		if rel == indexRel {
			indexSeen = true
		}

		f := &File{Rel: rel, Raw: raw}
		for _, rule := range rules {
			if !rule.AppliesTo(rel) {
				continue
			}
			l.collect(result, rule.Check(f))
		}
	}

	if !indexSeen {
		l.collect(result, []Issue{{
			File:     indexRel,
			Severity: SeverityError,
			Rule:     RuleCatalogEmpty,
			Message:  "index document not found in corpus",
		}})
	}

	sort.SliceStable(result.Issues, func(i, j int) bool {
		if result.Issues[i].File != result.Issues[j].File {
			return result.Issues[i].File < result.Issues[j].File
		}
		return result.Issues[i].Rule < result.Issues[j].Rule
	})
	return result, nil
}

func (l *Linter) collect(result *Result, issues []Issue) {
	for _, issue := range issues {
		if l.cfg.Quiet && issue.Severity != SeverityError {
			continue
		}
		result.Issues = append(result.Issues, issue)
	}
}

func listMarkdown(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if !IsDocFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan corpus: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

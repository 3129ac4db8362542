package lint

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sansio/corpusctl/internal/catalog"
	"github.com/sansio/corpusctl/internal/frontmatter"
	"github.com/sansio/corpusctl/internal/history"
)

// Rule names, stable identifiers used in output and suppressions.
const (
	RuleFrontmatter       = "frontmatter"
	RuleFrontmatterTitle  = "frontmatter-title"
	RuleCatalog           = "catalog"
	RuleDuplicateProtocol = "duplicate-protocol"
	RuleConflictingURL    = "conflicting-url"
	RuleMissingURL        = "missing-url"
	RuleIncompleteRow     = "incomplete-row"
	RuleCatalogRegression = "catalog-regression"
	RuleCatalogEmpty      = "catalog-empty"
)

// File is one corpus document handed to rules.
type File struct {
	Rel string // path relative to the corpus dir, slash separated
	Raw []byte
}

// Rule is a single corpus integrity check.
type Rule interface {
	// Name returns the unique identifier for this rule.
	Name() string

	// AppliesTo reports whether the rule should run for the given file.
	AppliesTo(rel string) bool

	// Check inspects one file and returns any issues found.
	Check(f *File) []Issue
}

// IsDocFile reports whether the path is a markdown corpus document.
func IsDocFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".md" || ext == ".markdown"
}

// FrontmatterRule checks frontmatter syntax and the title field on every
// corpus document.
type FrontmatterRule struct{}

func (FrontmatterRule) Name() string { return RuleFrontmatter }

func (FrontmatterRule) AppliesTo(rel string) bool { return IsDocFile(rel) }

func (FrontmatterRule) Check(f *File) []Issue {
	var issues []Issue

	doc, err := frontmatter.Split(f.Raw)
	if err != nil {
		issues = append(issues, Issue{
			File:     f.Rel,
			Severity: SeverityError,
			Rule:     RuleFrontmatter,
			Message:  err.Error(),
		})
		return issues
	}

	if doc.HasMeta {
		if _, err := doc.Fields(); err != nil {
			issues = append(issues, Issue{
				File:     f.Rel,
				Severity: SeverityError,
				Rule:     RuleFrontmatter,
				Message:  fmt.Sprintf("invalid YAML frontmatter: %v", err),
			})
			return issues
		}
	}

	if doc.Title() == "" {
		issues = append(issues, Issue{
			File:     f.Rel,
			Severity: SeverityWarning,
			Rule:     RuleFrontmatterTitle,
			Message:  "document has no frontmatter title",
		})
	}

	return issues
}

// CatalogRule validates the catalog extracted from the index document:
// unique protocol keys, one canonical URL per project, complete linked rows.
type CatalogRule struct {
	IndexRel string
}

func (CatalogRule) Name() string { return RuleCatalog }

func (r CatalogRule) AppliesTo(rel string) bool { return rel == r.IndexRel }

func (r CatalogRule) Check(f *File) []Issue {
	body := f.Raw
	if doc, err := frontmatter.Split(f.Raw); err == nil {
		body = doc.Body
	}
	// Catalog lines are body-relative; shift by the frontmatter prefix so
	// issues point at file lines.
	offset := bytes.Count(f.Raw[:len(f.Raw)-len(body)], []byte("\n"))

	cat := catalog.Extract(body)
	if cat.Len() == 0 {
		return []Issue{{
			File:     f.Rel,
			Severity: SeverityWarning,
			Rule:     RuleCatalogEmpty,
			Message:  "no protocol/project table found in index document",
		}}
	}

	var issues []Issue
	for _, v := range cat.Validate() {
		issue := Issue{File: f.Rel, Message: v.Message}
		if v.Entry.Line > 0 {
			issue.Line = v.Entry.Line + offset
		}
		switch v.Kind {
		case catalog.ViolationDuplicateProtocol:
			issue.Severity = SeverityError
			issue.Rule = RuleDuplicateProtocol
		case catalog.ViolationConflictingURL:
			issue.Severity = SeverityError
			issue.Rule = RuleConflictingURL
		case catalog.ViolationMissingURL:
			issue.Severity = SeverityWarning
			issue.Rule = RuleMissingURL
		case catalog.ViolationIncompleteRow:
			issue.Severity = SeverityError
			issue.Rule = RuleIncompleteRow
		default:
			issue.Severity = SeverityWarning
			issue.Rule = string(v.Kind)
		}
		issues = append(issues, issue)
	}
	return issues
}

// HistoryRule enforces append-only catalog growth over the git history of the
// index document. Non-repository corpora are skipped silently.
type HistoryRule struct {
	CorpusDir string
	IndexRel  string
}

func (HistoryRule) Name() string { return RuleCatalogRegression }

func (r HistoryRule) AppliesTo(rel string) bool { return rel == r.IndexRel }

func (r HistoryRule) Check(_ *File) []Issue {
	revisions, err := history.Snapshots(r.CorpusDir, r.IndexRel)
	if err != nil {
		if errors.Is(err, history.ErrNotARepository) {
			return nil
		}
		return []Issue{{
			File:     r.IndexRel,
			Severity: SeverityWarning,
			Rule:     RuleCatalogRegression,
			Message:  fmt.Sprintf("cannot inspect git history: %v", err),
		}}
	}

	var issues []Issue
	for _, reg := range history.CheckMonotonic(revisions) {
		for _, removed := range reg.Removed {
			issues = append(issues, Issue{
				File:     r.IndexRel,
				Severity: SeverityError,
				Rule:     RuleCatalogRegression,
				Message: fmt.Sprintf("entry %q (%s) was removed in %s; catalog entries may only be appended or superseded",
					removed.Protocol, removed.Project, shortHash(reg.ToHash)),
			})
		}
	}
	return issues
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

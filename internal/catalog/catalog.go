// Package catalog models the protocol/project table embedded in the corpus
// index page: which third-party library implements which network protocol.
package catalog

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/sansio/corpusctl/internal/markdown"
)

// Entry is one row of the protocol/project table.
type Entry struct {
	Protocol string `json:"protocol"`
	Project  string `json:"project"`
	URL      string `json:"url"`
	Docs     string `json:"docs,omitempty"` // optional documentation link column
	Line     int    `json:"line,omitempty"`
}

// Key returns the normalized protocol key used for uniqueness checks.
// Normalization is NFKC plus case folding so "HTTP/2" and "http/2" collide.
func (e Entry) Key() string {
	return NormalizeKey(e.Protocol)
}

// NormalizeKey normalizes a protocol name for comparison.
func NormalizeKey(protocol string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(protocol)))
}

// Catalog is the ordered set of entries extracted from one document revision.
// Order is source order; uniqueness is enforced by Validate, not on insert.
type Catalog struct {
	Entries []Entry
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.Entries) }

// Lookup returns the first entry whose protocol key matches, if any.
func (c *Catalog) Lookup(protocol string) (Entry, bool) {
	key := NormalizeKey(protocol)
	for _, e := range c.Entries {
		if e.Key() == key {
			return e, true
		}
	}
	return Entry{}, false
}

// Projects maps each project name to the set of URLs claimed for it.
func (c *Catalog) Projects() map[string][]string {
	out := make(map[string][]string)
	for _, e := range c.Entries {
		if e.Project == "" || e.URL == "" {
			continue
		}
		urls := out[e.Project]
		seen := false
		for _, u := range urls {
			if u == e.URL {
				seen = true
				break
			}
		}
		if !seen {
			out[e.Project] = append(urls, e.URL)
		}
	}
	return out
}

// Extract pulls catalog entries out of a markdown body. A table participates
// when its header names a protocol column; other prose tables are ignored.
// Column layout is taken from the header: protocol and project are required,
// a docs/documentation column is optional.
func Extract(body []byte) *Catalog {
	cat := &Catalog{}
	for _, tbl := range markdown.ExtractTables(body) {
		cols := catalogColumns(tbl.Header)
		if cols.protocol < 0 || cols.project < 0 {
			continue
		}
		for _, row := range tbl.Rows {
			entry := Entry{Line: row.Line}
			cells := row.Cells
			if cols.protocol < len(cells) {
				entry.Protocol = strings.TrimSpace(cells[cols.protocol].Text)
			}
			if cols.project < len(cells) {
				entry.Project = strings.TrimSpace(cells[cols.project].Text)
				entry.URL = cells[cols.project].Link
			}
			if cols.docs >= 0 && cols.docs < len(cells) {
				entry.Docs = cells[cols.docs].Link
			}
			if entry.Protocol == "" && entry.Project == "" {
				continue
			}
			cat.Entries = append(cat.Entries, entry)
		}
	}
	return cat
}

type columns struct {
	protocol int
	project  int
	docs     int
}

func catalogColumns(header []string) columns {
	cols := columns{protocol: -1, project: -1, docs: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "protocol", "protocols":
			cols.protocol = i
		case "project", "library", "implementation":
			cols.project = i
		case "docs", "documentation":
			cols.docs = i
		}
	}
	return cols
}

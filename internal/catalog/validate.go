package catalog

import (
	"fmt"
	"sort"
)

// ViolationKind identifies which catalog invariant a violation breaks.
type ViolationKind string

const (
	// ViolationDuplicateProtocol: a protocol key appears more than once in one revision.
	ViolationDuplicateProtocol ViolationKind = "duplicate-protocol"
	// ViolationConflictingURL: a project is claimed under more than one URL in one revision.
	ViolationConflictingURL ViolationKind = "conflicting-url"
	// ViolationMissingURL: an entry names a project without linking it.
	ViolationMissingURL ViolationKind = "missing-url"
	// ViolationIncompleteRow: an entry is missing its protocol or project cell.
	ViolationIncompleteRow ViolationKind = "incomplete-row"
)

// Violation is a broken catalog invariant with enough context to report.
type Violation struct {
	Kind    ViolationKind
	Entry   Entry
	Message string
}

// Validate checks the single-revision invariants: unique protocol keys,
// one canonical URL per project, and complete linked rows.
func (c *Catalog) Validate() []Violation {
	var out []Violation

	seen := make(map[string]Entry)
	for _, e := range c.Entries {
		if e.Protocol == "" || e.Project == "" {
			out = append(out, Violation{
				Kind:    ViolationIncompleteRow,
				Entry:   e,
				Message: "catalog row is missing its protocol or project cell",
			})
			continue
		}
		if prev, dup := seen[e.Key()]; dup {
			out = append(out, Violation{
				Kind:    ViolationDuplicateProtocol,
				Entry:   e,
				Message: fmt.Sprintf("protocol %q already listed for project %q", e.Protocol, prev.Project),
			})
			continue
		}
		seen[e.Key()] = e

		if e.URL == "" {
			out = append(out, Violation{
				Kind:    ViolationMissingURL,
				Entry:   e,
				Message: fmt.Sprintf("project %q has no reference URL", e.Project),
			})
		}
	}

	projects := c.Projects()
	names := make([]string, 0, len(projects))
	for project := range projects {
		names = append(names, project)
	}
	sort.Strings(names)
	for _, project := range names {
		urls := projects[project]
		if len(urls) > 1 {
			out = append(out, Violation{
				Kind:    ViolationConflictingURL,
				Entry:   Entry{Project: project},
				Message: fmt.Sprintf("project %q is claimed under %d different URLs", project, len(urls)),
			})
		}
	}

	return out
}

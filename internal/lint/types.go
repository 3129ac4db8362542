// Package lint checks the documentation-integrity rules of the corpus:
// frontmatter hygiene, catalog invariants, and append-only history.
package lint

// Severity indicates the importance level of a linting issue.
type Severity int

const (
	// SeverityInfo is informational only.
	SeverityInfo Severity = iota
	// SeverityWarning should be fixed but does not fail the run.
	SeverityWarning
	// SeverityError fails the run.
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Issue is a single problem found in the corpus.
type Issue struct {
	File     string   `json:"file"`
	Severity Severity `json:"severity"`
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
	Line     int      `json:"line,omitempty"`
}

// Result collects all issues from one lint run.
type Result struct {
	Issues     []Issue `json:"issues"`
	FilesTotal int     `json:"files_total"`
}

// HasErrors reports whether any error-level issue exists.
func (r *Result) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			n++
		}
	}
	return n
}

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

// Config controls a lint run.
type Config struct {
	// Quiet suppresses warnings and infos, only reporting errors.
	Quiet bool
	// Format selects output format: text or json.
	Format string
	// History enables the git-backed catalog-regression rule. It is skipped
	// silently when the corpus is not a git checkout.
	History bool
}

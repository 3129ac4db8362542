package lint

import (
	"encoding/json"
	"fmt"
	"io"
)

// Formatter writes a lint Result in the configured output format.
type Formatter struct {
	format string
}

// NewFormatter creates a formatter for "text" or "json".
func NewFormatter(format string) *Formatter {
	return &Formatter{format: format}
}

// Format writes the result to w.
func (f *Formatter) Format(w io.Writer, result *Result) error {
	if f.format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	for _, issue := range result.Issues {
		if issue.Line > 0 {
			fmt.Fprintf(w, "%s: %s:%d [%s] %s\n", issue.Severity, issue.File, issue.Line, issue.Rule, issue.Message)
		} else {
			fmt.Fprintf(w, "%s: %s [%s] %s\n", issue.Severity, issue.File, issue.Rule, issue.Message)
		}
	}

	fmt.Fprintf(w, "\n%d files scanned: %d errors, %d warnings\n",
		result.FilesTotal, result.ErrorCount(), result.WarningCount())
	return nil
}

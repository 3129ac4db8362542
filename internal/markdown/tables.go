package markdown

import (
	gmast "github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
)

// Cell is a single table cell: its plain text and the destination of the
// first link inside it, if any.
type Cell struct {
	Text string
	Link string
}

// Row is one body row of a table with its 1-based source line.
type Row struct {
	Cells []Cell
	Line  int
}

// Table is a GFM table lifted out of the AST.
type Table struct {
	Header []string
	Rows   []Row
	Line   int // 1-based line of the header row, for diagnostics
}

// ExtractTables returns all GFM tables in document order.
func ExtractTables(body []byte) []Table {
	root := Parse(body)

	var tables []Table
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		tbl, ok := n.(*extast.Table)
		if !ok {
			return gmast.WalkContinue, nil
		}
		tables = append(tables, liftTable(tbl, body))
		return gmast.WalkSkipChildren, nil
	})
	return tables
}

func liftTable(tbl *extast.Table, source []byte) Table {
	out := Table{Line: lineOf(tbl, source)}
	for row := tbl.FirstChild(); row != nil; row = row.NextSibling() {
		switch r := row.(type) {
		case *extast.TableHeader:
			for cell := r.FirstChild(); cell != nil; cell = cell.NextSibling() {
				out.Header = append(out.Header, string(nodeText(cell, source)))
			}
		case *extast.TableRow:
			body := Row{Line: lineOf(r, source)}
			for cell := r.FirstChild(); cell != nil; cell = cell.NextSibling() {
				body.Cells = append(body.Cells, Cell{
					Text: string(nodeText(cell, source)),
					Link: firstLink(cell, source),
				})
			}
			out.Rows = append(out.Rows, body)
		}
	}
	return out
}

func firstLink(n gmast.Node, source []byte) string {
	var dest string
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering || dest != "" {
			return gmast.WalkContinue, nil
		}
		switch link := c.(type) {
		case *gmast.Link:
			dest = string(link.Destination)
			return gmast.WalkStop, nil
		case *gmast.AutoLink:
			dest = string(link.URL(source))
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return dest
}

// lineOf approximates a node's position as a 1-based line number by counting
// newlines up to its first text segment.
func lineOf(node gmast.Node, source []byte) int {
	var start = -1
	_ = gmast.Walk(node, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering || start >= 0 {
			return gmast.WalkContinue, nil
		}
		if t, ok := n.(*gmast.Text); ok {
			start = t.Segment.Start
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	if start < 0 {
		return 0
	}
	line := 1
	for _, b := range source[:start] {
		if b == '\n' {
			line++
		}
	}
	return line
}

// Package markdown wraps goldmark parsing for corpus analysis: headings,
// links and tables pulled from the AST without re-rendering.
package markdown

import (
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Parse parses a markdown body (frontmatter already removed) into a goldmark AST.
func Parse(body []byte) gmast.Node {
	return newParser().Parser().Parse(text.NewReader(body))
}

// Heading is a heading extracted from a document with its rendered anchor slug.
type Heading struct {
	Level int
	Text  string
	Slug  string
}

// ExtractHeadings returns all headings in document order. Slugs match the ones
// the renderer emits, so callers can resolve intra-site anchors offline.
func ExtractHeadings(body []byte) []Heading {
	root := Parse(body)

	var headings []Heading
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if h, ok := n.(*gmast.Heading); ok {
			txt := string(nodeText(h, body))
			headings = append(headings, Heading{
				Level: h.Level,
				Text:  txt,
				Slug:  Slug(txt),
			})
		}
		return gmast.WalkContinue, nil
	})
	return headings
}

// nodeText concatenates the text content of a node's inline children.
func nodeText(n gmast.Node, source []byte) []byte {
	var out []byte
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *gmast.Text:
			out = append(out, t.Segment.Value(source)...)
		case *gmast.String:
			out = append(out, t.Value...)
		default:
			out = append(out, nodeText(c, source)...)
		}
	}
	return out
}

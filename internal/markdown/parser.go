package markdown

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// newParser builds the goldmark instance shared by analysis and rendering.
// GFM tables are required: the catalog lives in prose tables.
func newParser() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Linkify, extension.Strikethrough),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
}

// Renderer returns a goldmark instance configured identically to the
// analysis parser, for callers that render HTML.
func Renderer() goldmark.Markdown {
	return newParser()
}

// Package frontmatter splits and reassembles YAML frontmatter on corpus
// documents without disturbing the body bytes.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrUnterminated indicates an opening frontmatter delimiter without a
// matching closing delimiter.
var ErrUnterminated = errors.New("frontmatter: opening delimiter without closing delimiter")

const delimiter = "---"

// Document is a corpus file separated into frontmatter and markdown body.
//
// Body bytes are exactly the original content after the closing delimiter;
// joining an unmodified Document reproduces the input byte for byte.
type Document struct {
	Meta    []byte // raw YAML between the delimiters, without them
	Body    []byte
	HasMeta bool
	newline string
}

// Newline reports the newline convention detected in the source ("\n" or "\r\n").
func (d *Document) Newline() string {
	if d.newline == "" {
		return "\n"
	}
	return d.newline
}

// Split separates `---` delimited YAML frontmatter from the markdown body.
// Content without a leading delimiter is returned whole as the body.
func Split(content []byte) (*Document, error) {
	nl := detectNewline(content)
	doc := &Document{newline: nl}

	open := []byte(delimiter + nl)
	if !bytes.HasPrefix(content, open) {
		doc.Body = content
		return doc, nil
	}

	rest := content[len(open):]

	// An immediately closed block is valid and empty.
	if bytes.HasPrefix(rest, open) {
		doc.HasMeta = true
		doc.Meta = []byte{}
		doc.Body = rest[len(open):]
		return doc, nil
	}

	closing := []byte(nl + delimiter + nl)
	idx := bytes.Index(rest, closing)
	if idx < 0 {
		return nil, ErrUnterminated
	}

	doc.HasMeta = true
	doc.Meta = rest[:idx+len(nl)]
	doc.Body = rest[idx+len(closing):]
	return doc, nil
}

// Join reassembles the document. Documents without frontmatter round-trip
// as the bare body.
func (d *Document) Join() []byte {
	if !d.HasMeta {
		return d.Body
	}
	nl := d.Newline()
	fence := []byte(delimiter + nl)

	out := make([]byte, 0, 2*len(fence)+len(d.Meta)+len(d.Body))
	out = append(out, fence...)
	out = append(out, d.Meta...)
	out = append(out, fence...)
	out = append(out, d.Body...)
	return out
}

// Fields parses the raw YAML frontmatter into a map. Documents without
// frontmatter yield an empty map.
func (d *Document) Fields() (map[string]any, error) {
	if len(d.Meta) == 0 {
		return map[string]any{}, nil
	}
	var fields map[string]any
	if err := yaml.Unmarshal(d.Meta, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// Title returns the frontmatter title field, if present and a string.
func (d *Document) Title() string {
	fields, err := d.Fields()
	if err != nil {
		return ""
	}
	if t, ok := fields["title"].(string); ok {
		return t
	}
	return ""
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

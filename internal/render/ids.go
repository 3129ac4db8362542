package render

import (
	"fmt"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"

	"github.com/sansio/corpusctl/internal/markdown"
)

// slugIDs implements parser.IDs with the shared slug scheme, so heading
// anchors in the rendered HTML are a pure function of the heading text.
// goldmark's default generator is also deterministic but its scheme differs
// from the one link analysis uses; sharing one keeps anchors resolvable.
type slugIDs struct {
	used map[string]bool
}

func newSlugIDs() parser.IDs {
	return &slugIDs{used: map[string]bool{}}
}

func (s *slugIDs) Generate(value []byte, _ gmast.NodeKind) []byte {
	base := markdown.Slug(string(value))
	if base == "" {
		base = "section"
	}
	id := base
	for n := 1; s.used[id]; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	s.used[id] = true
	return []byte(id)
}

func (s *slugIDs) Put(value []byte) {
	s.used[string(value)] = true
}

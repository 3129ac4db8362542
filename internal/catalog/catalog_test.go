package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const indexBody = `# Implementations

| Protocol | Project | Docs |
| -------- | ------- | ---- |
| HTTP/1.1 | [h11](https://github.com/python-hyper/h11) | [docs](https://h11.readthedocs.io) |
| HTTP/2   | [hyper-h2](https://github.com/python-hyper/hyper-h2) | |
| WebSocket | [wsproto](https://github.com/python-hyper/wsproto) | |

Some prose after the table.

| Year | Event |
| ---- | ----- |
| 2016 | essay published |
`

func TestExtract_FindsCatalogTableOnly(t *testing.T) {
	cat := Extract([]byte(indexBody))
	require.Equal(t, 3, cat.Len())

	e, ok := cat.Lookup("HTTP/1.1")
	require.True(t, ok)
	require.Equal(t, "h11", e.Project)
	require.Equal(t, "https://github.com/python-hyper/h11", e.URL)
	require.Equal(t, "https://h11.readthedocs.io", e.Docs)
	require.Equal(t, 5, e.Line)

	h2, ok := cat.Lookup("HTTP/2")
	require.True(t, ok)
	require.Equal(t, 6, h2.Line)

	// The second table has no protocol column and must not contribute entries.
	_, ok = cat.Lookup("2016")
	require.False(t, ok)
}

func TestLookup_IsCaseAndNormalizationInsensitive(t *testing.T) {
	cat := Extract([]byte(indexBody))
	for _, name := range []string{"http/2", "HTTP/2", " Http/2 "} {
		_, ok := cat.Lookup(name)
		require.True(t, ok, "lookup %q", name)
	}
}

func TestValidate_CleanCatalogHasNoViolations(t *testing.T) {
	cat := Extract([]byte(indexBody))
	require.Empty(t, cat.Validate())
}

func TestValidate_DuplicateProtocolKey(t *testing.T) {
	cat := &Catalog{Entries: []Entry{
		{Protocol: "HTTP/2", Project: "hyper-h2", URL: "https://example.com/a"},
		{Protocol: "http/2", Project: "other-h2", URL: "https://example.com/b"},
	}}
	violations := cat.Validate()
	require.Len(t, violations, 1)
	require.Equal(t, ViolationDuplicateProtocol, violations[0].Kind)
}

func TestValidate_ConflictingProjectURL(t *testing.T) {
	cat := &Catalog{Entries: []Entry{
		{Protocol: "HTTP/1.1", Project: "h11", URL: "https://example.com/a"},
		{Protocol: "HTTP/2", Project: "h11", URL: "https://example.com/b"},
	}}
	violations := cat.Validate()
	require.Len(t, violations, 1)
	require.Equal(t, ViolationConflictingURL, violations[0].Kind)
}

func TestValidate_MissingURLAndIncompleteRow(t *testing.T) {
	cat := &Catalog{Entries: []Entry{
		{Protocol: "SMTP", Project: "sans-smtp"},
		{Protocol: "", Project: "orphan"},
	}}
	violations := cat.Validate()
	require.Len(t, violations, 2)

	kinds := map[ViolationKind]bool{}
	for _, v := range violations {
		kinds[v.Kind] = true
	}
	require.True(t, kinds[ViolationMissingURL])
	require.True(t, kinds[ViolationIncompleteRow])
}

func TestDiff_AddedSupersededRemoved(t *testing.T) {
	old := &Catalog{Entries: []Entry{
		{Protocol: "HTTP/1.1", Project: "h11", URL: "https://example.com/h11"},
		{Protocol: "HTTP/2", Project: "h2-old", URL: "https://example.com/old"},
		{Protocol: "IRC", Project: "sans-irc", URL: "https://example.com/irc"},
	}}
	new := &Catalog{Entries: []Entry{
		{Protocol: "HTTP/1.1", Project: "h11", URL: "https://example.com/h11"},
		{Protocol: "HTTP/2", Project: "hyper-h2", URL: "https://example.com/h2"},
		{Protocol: "WebSocket", Project: "wsproto", URL: "https://example.com/ws"},
	}}

	changes := Diff(old, new)
	require.Len(t, changes.Added, 1)
	require.Equal(t, "WebSocket", changes.Added[0].Protocol)
	require.Len(t, changes.Superseded, 1)
	require.Equal(t, "h2-old", changes.Superseded[0].Old.Project)
	require.Equal(t, "hyper-h2", changes.Superseded[0].New.Project)
	require.Len(t, changes.Removed, 1)
	require.Equal(t, "IRC", changes.Removed[0].Protocol)
	require.False(t, changes.IsAppendOnly())
}

func TestDiff_DuplicateOldKeysRemovedOnce(t *testing.T) {
	old := &Catalog{Entries: []Entry{
		{Protocol: "HTTP/2", Project: "a", URL: "u1"},
		{Protocol: "http/2", Project: "b", URL: "u2"},
	}}
	new := &Catalog{Entries: []Entry{
		{Protocol: "SMTP", Project: "c", URL: "u3"},
	}}

	changes := Diff(old, new)
	require.Len(t, changes.Removed, 1)
	require.Equal(t, "HTTP/2", changes.Removed[0].Protocol)
}

func TestDiff_SupersedeAloneIsAppendOnly(t *testing.T) {
	old := &Catalog{Entries: []Entry{{Protocol: "HTTP/2", Project: "a", URL: "u1"}}}
	new := &Catalog{Entries: []Entry{
		{Protocol: "HTTP/2", Project: "b", URL: "u2"},
		{Protocol: "SMTP", Project: "c", URL: "u3"},
	}}
	changes := Diff(old, new)
	require.True(t, changes.IsAppendOnly())
	require.Len(t, changes.Superseded, 1)
	require.Len(t, changes.Added, 1)
}
